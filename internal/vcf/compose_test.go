package vcf

import (
	"strings"
	"testing"
	"time"

	"github.com/junhee/namecard-go/internal/domain"
)

func frozenComposer() *Composer {
	fixed := time.Date(2025, 3, 1, 12, 30, 45, 0, time.UTC)
	return NewComposerWithClock(func() time.Time { return fixed })
}

func TestComposeMinimalSingle(t *testing.T) {
	composer := frozenComposer()

	got := composer.Compose(domain.NewSingleContact(domain.ContactFields{
		Name:  "홍길동",
		Phone: "010-1234-5678",
	}))

	want := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:홍길동",
		"N:홍길동;;;;",
		"TEL;TYPE=WORK,VOICE:010-1234-5678",
		"REV:20250301T123045Z",
		"END:VCARD",
	}, "\n")

	if got != want {
		t.Errorf("compose mismatch:\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestComposeSingleSkipsEmptyFields(t *testing.T) {
	composer := frozenComposer()

	got := composer.Compose(domain.NewSingleContact(domain.ContactFields{
		Name:  "홍길동",
		Phone: "010-1234-5678",
	}))

	for _, tag := range []string{"ORG", "TITLE", "EMAIL", "ADR"} {
		if strings.Contains(got, tag+":") || strings.Contains(got, tag+";") {
			t.Errorf("unexpected %s line in:\n%s", tag, got)
		}
	}
}

func TestComposeFullSingle(t *testing.T) {
	composer := frozenComposer()

	got := composer.Compose(domain.NewSingleContact(domain.ContactFields{
		Name:    "홍길동",
		Title:   "개발팀장",
		Company: "(주)테크컴퍼니",
		Phone:   "010-1234-5678",
		Email:   "hong@tech.com",
		Address: "서울시 강남구 테헤란로 123",
	}))

	for _, line := range []string{
		"TITLE:개발팀장",
		"ORG:(주)테크컴퍼니",
		"EMAIL;TYPE=WORK:hong@tech.com",
		"ADR;TYPE=WORK:;;서울시 강남구 테헤란로 123;;;;",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("missing line %q in:\n%s", line, got)
		}
	}
}

func TestComposeBilingual(t *testing.T) {
	composer := frozenComposer()

	got := composer.Compose(domain.NewBilingualContact(domain.BilingualFields{
		NameKo:    "홍길동",
		NameEn:    "Gildong Hong",
		TitleKo:   "팀장",
		TitleEn:   "Team Lead",
		CompanyKo: "테크컴퍼니",
		Phone:     "010-1234-5678",
		AddressKo: "서울시 강남구",
		AddressEn: "Gangnam-gu, Seoul",
	}))

	for _, line := range []string{
		"FN;CHARSET=UTF-8:홍길동 Gildong Hong",
		"N;CHARSET=UTF-8:홍길동;Gildong Hong;;;",
		"TITLE;CHARSET=UTF-8:팀장 / Team Lead",
		"ORG;CHARSET=UTF-8:테크컴퍼니",
		"ADR;TYPE=WORK;CHARSET=UTF-8:;;서울시 강남구;;;;",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("missing line %q in:\n%s", line, got)
		}
	}

	if strings.Contains(got, "Gangnam-gu") {
		t.Errorf("address_en must lose to address_ko:\n%s", got)
	}
}

func TestComposeBilingualEnglishOnlySide(t *testing.T) {
	composer := frozenComposer()

	got := composer.Compose(domain.NewBilingualContact(domain.BilingualFields{
		NameEn:    "Gildong Hong",
		AddressEn: "Gangnam-gu, Seoul",
	}))

	if !strings.Contains(got, "FN;CHARSET=UTF-8:Gildong Hong") {
		t.Errorf("single-name FN must not carry a stray join:\n%s", got)
	}
	if !strings.Contains(got, "ADR;TYPE=WORK;CHARSET=UTF-8:;;Gangnam-gu, Seoul;;;;") {
		t.Errorf("address_en must be used when address_ko is empty:\n%s", got)
	}
}

func TestComposeEmptyRecordStillValid(t *testing.T) {
	composer := frozenComposer()

	got := composer.Compose(domain.NewSingleContact(domain.ContactFields{}))
	lines := strings.Split(got, "\n")

	if lines[0] != "BEGIN:VCARD" || lines[len(lines)-1] != "END:VCARD" {
		t.Errorf("invalid envelope:\n%s", got)
	}
	if len(lines) != 4 {
		t.Errorf("expected envelope + VERSION + REV only, got %d lines:\n%s", len(lines), got)
	}
}

func TestComposeRoundTripFields(t *testing.T) {
	composer := frozenComposer()

	fields := domain.ContactFields{
		Name:  "김철수",
		Phone: "010-1111-2222",
		Email: "kim@corp.co.kr",
	}
	got := composer.Compose(domain.NewSingleContact(fields))

	recovered := map[string]string{}
	for _, line := range strings.Split(got, "\n") {
		switch {
		case strings.HasPrefix(line, "FN:"):
			recovered["name"] = strings.TrimPrefix(line, "FN:")
		case strings.HasPrefix(line, "TEL;TYPE=WORK,VOICE:"):
			recovered["phone"] = strings.TrimPrefix(line, "TEL;TYPE=WORK,VOICE:")
		case strings.HasPrefix(line, "EMAIL;TYPE=WORK:"):
			recovered["email"] = strings.TrimPrefix(line, "EMAIL;TYPE=WORK:")
		}
	}

	if recovered["name"] != fields.Name || recovered["phone"] != fields.Phone || recovered["email"] != fields.Email {
		t.Errorf("round-trip mismatch: %+v vs %+v", recovered, fields)
	}
}
