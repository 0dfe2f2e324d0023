package extract

import (
	"testing"

	"github.com/junhee/namecard-go/internal/domain"
)

func TestValidateRecordSingleDropsUnknownKeys(t *testing.T) {
	contact := ValidateRecord(domain.ShapeSingle, map[string]any{
		"phone":       " 010 1234 5678 ",
		"unknown_key": "x",
	})

	if contact.Shape != domain.ShapeSingle {
		t.Fatalf("shape = %q, want single", contact.Shape)
	}
	if contact.Single.Phone != "010-1234-5678" {
		t.Errorf("phone = %q, want 010-1234-5678", contact.Single.Phone)
	}

	f := contact.Single
	if f.Name != "" || f.Title != "" || f.Company != "" || f.Email != "" || f.Address != "" {
		t.Errorf("expected remaining fields empty, got %+v", f)
	}
}

func TestValidateRecordLowercasesEmail(t *testing.T) {
	contact := ValidateRecord(domain.ShapeSingle, map[string]any{
		"email": "  Hong@Tech.COM ",
	})
	if contact.Single.Email != "hong@tech.com" {
		t.Errorf("email = %q, want hong@tech.com", contact.Single.Email)
	}
}

func TestValidateRecordIgnoresNonStringValues(t *testing.T) {
	contact := ValidateRecord(domain.ShapeSingle, map[string]any{
		"name":  42,
		"title": nil,
		"phone": []string{"010-1234-5678"},
	})

	f := contact.Single
	if f.Name != "" || f.Title != "" || f.Phone != "" {
		t.Errorf("non-string values must be discarded, got %+v", f)
	}
}

func TestValidateRecordBilingual(t *testing.T) {
	contact := ValidateRecord(domain.ShapeBilingual, map[string]any{
		"name_ko": "홍길동",
		"name_en": "Gildong Hong",
		"phone":   "01012345678",
		"name":    "stray single-shape key",
	})

	if contact.Shape != domain.ShapeBilingual {
		t.Fatalf("shape = %q, want bilingual", contact.Shape)
	}
	if contact.Bilingual.NameKo != "홍길동" {
		t.Errorf("name_ko = %q", contact.Bilingual.NameKo)
	}
	if contact.Bilingual.NameEn != "Gildong Hong" {
		t.Errorf("name_en = %q", contact.Bilingual.NameEn)
	}
	if contact.Bilingual.Phone != "010-1234-5678" {
		t.Errorf("phone = %q, want 010-1234-5678", contact.Bilingual.Phone)
	}
}

func TestValidateRecordIdempotent(t *testing.T) {
	raw := map[string]any{
		"name":  " 홍길동 ",
		"phone": "010 1234 5678",
		"email": "HONG@tech.com",
	}

	once := ValidateRecord(domain.ShapeSingle, raw)

	again := ValidateRecord(domain.ShapeSingle, map[string]any{
		"name":  once.Single.Name,
		"phone": once.Single.Phone,
		"email": once.Single.Email,
	})

	if once != again {
		t.Errorf("validation not idempotent: %+v vs %+v", once, again)
	}
}

func TestValidateRecordEmptyMap(t *testing.T) {
	single := ValidateRecord(domain.ShapeSingle, map[string]any{})
	if single.Single != (domain.ContactFields{}) {
		t.Errorf("expected all-empty single record")
	}

	bilingual := ValidateRecord(domain.ShapeBilingual, map[string]any{})
	if bilingual.Bilingual != (domain.BilingualFields{}) {
		t.Errorf("expected all-empty bilingual record")
	}
}
