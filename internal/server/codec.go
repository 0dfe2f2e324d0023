package server

import (
	"github.com/junhee/namecard-go/internal/domain"
	"github.com/junhee/namecard-go/internal/extract"
)

// decodeContact turns a flat API field map into a tagged record. The shape
// is taken from an explicit "shape" key and defaults to single; key
// presence is never used to guess.
func decodeContact(raw map[string]any) domain.Contact {
	shape := domain.ShapeSingle
	if v, ok := raw["shape"].(string); ok && domain.Shape(v) == domain.ShapeBilingual {
		shape = domain.ShapeBilingual
	}
	return extract.ValidateRecord(shape, raw)
}

// encodeContact flattens a record for JSON responses, mirroring the input
// format of decodeContact.
func encodeContact(c domain.Contact) map[string]any {
	out := map[string]any{"shape": string(c.Shape)}

	switch c.Shape {
	case domain.ShapeBilingual:
		f := c.Bilingual
		out["name_ko"] = f.NameKo
		out["name_en"] = f.NameEn
		out["title_ko"] = f.TitleKo
		out["title_en"] = f.TitleEn
		out["company_ko"] = f.CompanyKo
		out["company_en"] = f.CompanyEn
		out["phone"] = f.Phone
		out["email"] = f.Email
		out["address_ko"] = f.AddressKo
		out["address_en"] = f.AddressEn
	default:
		f := c.Single
		out["name"] = f.Name
		out["title"] = f.Title
		out["company"] = f.Company
		out["phone"] = f.Phone
		out["email"] = f.Email
		out["address"] = f.Address
	}

	return out
}

// encodeStoredContact adds the row metadata to the flat field map.
func encodeStoredContact(s *domain.StoredContact) map[string]any {
	out := encodeContact(s.ToContact())
	out["id"] = s.ID
	out["created_at"] = s.CreatedAt
	return out
}
