package util

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"홍길동":             "홍길동",
		"Gildong Hong":    "Gildong_Hong",
		"  홍길동  ":         "홍길동",
		"name/with:bad*":  "namewithbad",
		"multi   spaces":  "multi_spaces",
		"kim-cheol_su":    "kim-cheol_su",
		"<script>alert!":  "scriptalert",
		"":                "",
		"(주)테크":           "주테크",
	}
	for input, want := range cases {
		if got := SanitizeFileName(input); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("hello", 10); got != "hello" {
		t.Errorf("short string changed: %q", got)
	}
	if got := TruncateString("hello world", 5); got != "hello..." {
		t.Errorf("got %q, want hello...", got)
	}
	// rune-based, not byte-based
	if got := TruncateString("홍길동입니다", 3); got != "홍길동..." {
		t.Errorf("got %q, want 홍길동...", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  Hong@Tech.COM  "); got != "hong@tech.com" {
		t.Errorf("got %q", got)
	}
}
