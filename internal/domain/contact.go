package domain

import "time"

// Shape discriminates the two canonical contact-record layouts. Dispatch on
// this tag, never on key presence in a raw map.
type Shape string

const (
	ShapeSingle    Shape = "single"
	ShapeBilingual Shape = "bilingual"
)

// ContactFields is the single-sided record. Every field is always present;
// unknown values stay "".
type ContactFields struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// BilingualFields is the two-sided record. Phone and email are shared
// between sides because cards print one of each regardless of language.
type BilingualFields struct {
	NameKo    string `json:"name_ko"`
	NameEn    string `json:"name_en"`
	TitleKo   string `json:"title_ko"`
	TitleEn   string `json:"title_en"`
	CompanyKo string `json:"company_ko"`
	CompanyEn string `json:"company_en"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	AddressKo string `json:"address_ko"`
	AddressEn string `json:"address_en"`
}

// Contact is the tagged union of the two record shapes.
type Contact struct {
	Shape     Shape           `json:"shape"`
	Single    ContactFields   `json:"single,omitempty"`
	Bilingual BilingualFields `json:"bilingual,omitempty"`
}

func NewSingleContact(fields ContactFields) Contact {
	return Contact{Shape: ShapeSingle, Single: fields}
}

func NewBilingualContact(fields BilingualFields) Contact {
	return Contact{Shape: ShapeBilingual, Bilingual: fields}
}

// DisplayName returns the name used for file naming; the Korean name wins
// for bilingual records.
func (c Contact) DisplayName() string {
	switch c.Shape {
	case ShapeBilingual:
		if c.Bilingual.NameKo != "" {
			return c.Bilingual.NameKo
		}
		return c.Bilingual.NameEn
	default:
		return c.Single.Name
	}
}

// StoredContact is a persisted contact row. Single-shape records occupy the
// Korean-side columns.
type StoredContact struct {
	ID        int64           `json:"id"`
	Shape     Shape           `json:"shape"`
	Fields    BilingualFields `json:"fields"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToContact reconstructs the tagged record from storage.
func (s StoredContact) ToContact() Contact {
	if s.Shape == ShapeBilingual {
		return NewBilingualContact(s.Fields)
	}
	return NewSingleContact(ContactFields{
		Name:    s.Fields.NameKo,
		Title:   s.Fields.TitleKo,
		Company: s.Fields.CompanyKo,
		Phone:   s.Fields.Phone,
		Email:   s.Fields.Email,
		Address: s.Fields.AddressKo,
	})
}

// StorageFields flattens a contact into the persisted column layout.
func (c Contact) StorageFields() BilingualFields {
	if c.Shape == ShapeBilingual {
		return c.Bilingual
	}
	return BilingualFields{
		NameKo:    c.Single.Name,
		TitleKo:   c.Single.Title,
		CompanyKo: c.Single.Company,
		Phone:     c.Single.Phone,
		Email:     c.Single.Email,
		AddressKo: c.Single.Address,
	}
}
