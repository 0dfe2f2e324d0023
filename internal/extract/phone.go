package extract

import (
	"fmt"
	"strings"
)

// NormalizePhone canonicalizes a free-form phone string into the hyphenated
// Korean national format. Ten digits become DD-DDDD-DDDD (Seoul landlines),
// eleven become DDD-DDDD-DDDD (mobiles). Any other digit count is ambiguous
// and the input is returned unchanged.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	switch len(d) {
	case 10:
		return fmt.Sprintf("%s-%s-%s", d[:2], d[2:6], d[6:])
	case 11:
		return fmt.Sprintf("%s-%s-%s", d[:3], d[3:7], d[7:])
	default:
		return raw
	}
}
