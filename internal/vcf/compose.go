package vcf

import (
	"fmt"
	"strings"
	"time"

	"github.com/junhee/namecard-go/internal/domain"
)

// Composer serializes a contact record as a vCard 3.0 document. It is
// state-free apart from the clock, which is injectable so tests can pin the
// REV line.
type Composer struct {
	now func() time.Time
}

func NewComposer() *Composer {
	return &Composer{now: time.Now}
}

func NewComposerWithClock(now func() time.Time) *Composer {
	return &Composer{now: now}
}

// Compose renders the record. Empty fields are skipped, so an empty record
// still yields a valid minimal vCard; "name required" is the caller's rule,
// not this layer's.
func (c *Composer) Compose(contact domain.Contact) string {
	lines := []string{"BEGIN:VCARD", "VERSION:3.0"}

	switch contact.Shape {
	case domain.ShapeBilingual:
		lines = c.appendBilingual(lines, contact.Bilingual)
	default:
		lines = c.appendSingle(lines, contact.Single)
	}

	lines = append(lines, fmt.Sprintf("REV:%s", c.now().UTC().Format("20060102T150405Z")))
	lines = append(lines, "END:VCARD")
	return strings.Join(lines, "\n")
}

func (c *Composer) appendSingle(lines []string, f domain.ContactFields) []string {
	if f.Name != "" {
		lines = append(lines,
			fmt.Sprintf("FN:%s", f.Name),
			fmt.Sprintf("N:%s;;;;", f.Name),
		)
	}
	if f.Title != "" {
		lines = append(lines, fmt.Sprintf("TITLE:%s", f.Title))
	}
	if f.Company != "" {
		lines = append(lines, fmt.Sprintf("ORG:%s", f.Company))
	}
	if f.Phone != "" {
		lines = append(lines, fmt.Sprintf("TEL;TYPE=WORK,VOICE:%s", f.Phone))
	}
	if f.Email != "" {
		lines = append(lines, fmt.Sprintf("EMAIL;TYPE=WORK:%s", f.Email))
	}
	if f.Address != "" {
		lines = append(lines, fmt.Sprintf("ADR;TYPE=WORK:;;%s;;;;", f.Address))
	}
	return lines
}

func (c *Composer) appendBilingual(lines []string, f domain.BilingualFields) []string {
	if f.NameKo != "" || f.NameEn != "" {
		lines = append(lines,
			fmt.Sprintf("FN;CHARSET=UTF-8:%s", joinBoth(f.NameKo, f.NameEn, " ")),
			fmt.Sprintf("N;CHARSET=UTF-8:%s;%s;;;", f.NameKo, f.NameEn),
		)
	}
	if f.TitleKo != "" || f.TitleEn != "" {
		lines = append(lines,
			fmt.Sprintf("TITLE;CHARSET=UTF-8:%s", joinBoth(f.TitleKo, f.TitleEn, " / ")))
	}
	if f.CompanyKo != "" || f.CompanyEn != "" {
		lines = append(lines,
			fmt.Sprintf("ORG;CHARSET=UTF-8:%s", joinBoth(f.CompanyKo, f.CompanyEn, " / ")))
	}
	if f.Phone != "" {
		lines = append(lines, fmt.Sprintf("TEL;TYPE=WORK,VOICE:%s", f.Phone))
	}
	if f.Email != "" {
		lines = append(lines, fmt.Sprintf("EMAIL;TYPE=WORK:%s", f.Email))
	}
	if addr := firstNonEmpty(f.AddressKo, f.AddressEn); addr != "" {
		lines = append(lines, fmt.Sprintf("ADR;TYPE=WORK;CHARSET=UTF-8:;;%s;;;;", addr))
	}
	return lines
}

// joinBoth joins two optional values with sep only when both are present.
func joinBoth(a, b, sep string) string {
	if a != "" && b != "" {
		return a + sep + b
	}
	if a != "" {
		return a
	}
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
