package extract

import (
	"strings"

	"github.com/junhee/namecard-go/internal/domain"
)

// ValidateRecord canonicalizes a raw field mapping (typically parsed LLM
// output) into the requested record shape. Only keys belonging to the shape
// are copied, only when the value is a string; everything else is silently
// discarded. Whitespace is trimmed, phone numbers are normalized, emails are
// lower-cased. The function is total and idempotent: it never fails, and
// validating its own output is a no-op.
func ValidateRecord(shape domain.Shape, raw map[string]any) domain.Contact {
	if shape == domain.ShapeBilingual {
		return domain.NewBilingualContact(validateBilingual(raw))
	}
	return domain.NewSingleContact(validateSingle(raw))
}

func validateSingle(raw map[string]any) domain.ContactFields {
	var fields domain.ContactFields
	assign(raw, map[string]*string{
		"name":    &fields.Name,
		"title":   &fields.Title,
		"company": &fields.Company,
		"phone":   &fields.Phone,
		"email":   &fields.Email,
		"address": &fields.Address,
	})

	if fields.Phone != "" {
		fields.Phone = NormalizePhone(fields.Phone)
	}
	if fields.Email != "" {
		fields.Email = strings.ToLower(fields.Email)
	}
	return fields
}

func validateBilingual(raw map[string]any) domain.BilingualFields {
	var fields domain.BilingualFields
	assign(raw, map[string]*string{
		"name_ko":    &fields.NameKo,
		"name_en":    &fields.NameEn,
		"title_ko":   &fields.TitleKo,
		"title_en":   &fields.TitleEn,
		"company_ko": &fields.CompanyKo,
		"company_en": &fields.CompanyEn,
		"phone":      &fields.Phone,
		"email":      &fields.Email,
		"address_ko": &fields.AddressKo,
		"address_en": &fields.AddressEn,
	})

	if fields.Phone != "" {
		fields.Phone = NormalizePhone(fields.Phone)
	}
	if fields.Email != "" {
		fields.Email = strings.ToLower(fields.Email)
	}
	return fields
}

func assign(raw map[string]any, dest map[string]*string) {
	for key, ptr := range dest {
		if value, ok := raw[key]; ok {
			if str, ok := value.(string); ok {
				*ptr = strings.TrimSpace(str)
			}
		}
	}
}
