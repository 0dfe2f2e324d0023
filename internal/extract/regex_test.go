package extract

import "testing"

func TestRegexExtractorFullCard(t *testing.T) {
	extractor := NewRegexExtractor()

	fields := extractor.Extract([]string{
		"홍길동",
		"개발팀장",
		"(주)테크컴퍼니",
		"010-1234-5678",
		"hong@tech.com",
		"서울시 강남구 테헤란로 123",
	})

	if fields.Name != "홍길동" {
		t.Errorf("name = %q, want 홍길동", fields.Name)
	}
	if fields.Title != "개발팀장" {
		t.Errorf("title = %q, want 개발팀장", fields.Title)
	}
	if fields.Company != "(주)테크컴퍼니" {
		t.Errorf("company = %q, want (주)테크컴퍼니", fields.Company)
	}
	if fields.Phone != "010-1234-5678" {
		t.Errorf("phone = %q, want 010-1234-5678", fields.Phone)
	}
	if fields.Email != "hong@tech.com" {
		t.Errorf("email = %q, want hong@tech.com", fields.Email)
	}
	if fields.Address != "서울시 강남구 테헤란로 123" {
		t.Errorf("address = %q, want 서울시 강남구 테헤란로 123", fields.Address)
	}
}

func TestRegexExtractorEmptyInput(t *testing.T) {
	extractor := NewRegexExtractor()

	fields := extractor.Extract([]string{})
	empty := fields.Name == "" && fields.Title == "" && fields.Company == "" &&
		fields.Phone == "" && fields.Email == "" && fields.Address == ""
	if !empty {
		t.Errorf("expected all-empty record, got %+v", fields)
	}
}

func TestRegexExtractorEnglishName(t *testing.T) {
	extractor := NewRegexExtractor()

	fields := extractor.Extract([]string{"John Smith", "Senior Engineer", "Acme Corp"})
	if fields.Name != "John Smith" {
		t.Errorf("name = %q, want John Smith", fields.Name)
	}
	if fields.Title != "Senior Engineer" {
		t.Errorf("title = %q, want Senior Engineer", fields.Title)
	}
	if fields.Company != "Acme Corp" {
		t.Errorf("company = %q, want Acme Corp", fields.Company)
	}
}

func TestRegexExtractorNameFallsBackToFirstToken(t *testing.T) {
	extractor := NewRegexExtractor()

	// No token matches either name pattern, so the first token stands in.
	fields := extractor.Extract([]string{"영업1팀", "02-123-4567"})
	if fields.Name != "영업1팀" {
		t.Errorf("name = %q, want first token 영업1팀", fields.Name)
	}
}

func TestRegexExtractorMobileBeatsGenericShape(t *testing.T) {
	extractor := NewRegexExtractor()

	fields := extractor.Extract([]string{"Fax", "02-9876-5432", "Mobile", "010-1111-2222"})
	if fields.Phone != "010-1111-2222" {
		t.Errorf("phone = %q, want mobile number to win", fields.Phone)
	}
}

func TestRegexExtractorPhoneLikeTokenNotCompany(t *testing.T) {
	extractor := NewRegexExtractor()

	// The longest token is the phone number; company must not pick it.
	fields := extractor.Extract([]string{"김철수", "010-1234-5678"})
	if fields.Company == "010-1234-5678" {
		t.Errorf("company picked the phone-shaped token")
	}
}

func TestRegexExtractorCompanyLongestByRuneCount(t *testing.T) {
	extractor := NewRegexExtractor()

	// 가나다 is 9 bytes but only 3 characters; the 7-character English
	// token is the longer one and must win the fallback.
	fields := extractor.Extract([]string{"가나다", "abcdefg"})
	if fields.Company != "abcdefg" {
		t.Errorf("company = %q, want abcdefg", fields.Company)
	}
}

func TestRegexExtractorCompanyTieKeepsFirst(t *testing.T) {
	extractor := NewRegexExtractor()

	fields := extractor.Extract([]string{"가나다", "abc", "라마바"})
	if fields.Company != "가나다" {
		t.Errorf("company = %q, want first of the equal-length tokens 가나다", fields.Company)
	}
}

func TestRegexExtractorTextVariant(t *testing.T) {
	extractor := NewRegexExtractor()

	fields := extractor.ExtractText("홍길동 팀장 hong@tech.com 010-1234-5678")
	if fields.Name != "홍길동" {
		t.Errorf("name = %q, want 홍길동", fields.Name)
	}
	if fields.Email != "hong@tech.com" {
		t.Errorf("email = %q, want hong@tech.com", fields.Email)
	}
}
