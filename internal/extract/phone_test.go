package extract

import "testing"

func TestNormalizePhoneMobile(t *testing.T) {
	got := NormalizePhone("01012345678")
	if got != "010-1234-5678" {
		t.Errorf("expected 010-1234-5678, got %q", got)
	}
}

func TestNormalizePhoneSeoulLandline(t *testing.T) {
	got := NormalizePhone("0212345678")
	if got != "02-1234-5678" {
		t.Errorf("expected 02-1234-5678, got %q", got)
	}
}

func TestNormalizePhoneStripsSeparators(t *testing.T) {
	cases := map[string]string{
		" 010 1234 5678 ": "010-1234-5678",
		"010.1234.5678":   "010-1234-5678",
		"02)1234-5678":    "02-1234-5678",
	}
	for input, want := range cases {
		if got := NormalizePhone(input); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizePhoneAmbiguousLengthUnchanged(t *testing.T) {
	for _, input := range []string{"1234567", "", "no digits here", "123456789012"} {
		if got := NormalizePhone(input); got != input {
			t.Errorf("NormalizePhone(%q) = %q, want input unchanged", input, got)
		}
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	inputs := []string{"01012345678", "0212345678", "010-1234-5678", "1234567"}
	for _, input := range inputs {
		once := NormalizePhone(input)
		twice := NormalizePhone(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
