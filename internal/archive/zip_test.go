package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}

	entries := map[string]string{}
	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = string(content)
	}
	return entries
}

func TestBuildVcfZipEntryNames(t *testing.T) {
	data, err := BuildVcfZip([]Entry{
		{Name: "홍길동", Content: "BEGIN:VCARD"},
		{Name: "Gildong Hong", Content: "BEGIN:VCARD"},
		{Name: "", Content: "BEGIN:VCARD"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := readZip(t, data)
	for _, name := range []string{"홍길동.vcf", "Gildong_Hong.vcf", "contact.vcf"} {
		if _, ok := entries[name]; !ok {
			t.Errorf("missing entry %q, have %v", name, keys(entries))
		}
	}
}

func TestBuildVcfZipCollisionSuffix(t *testing.T) {
	data, err := BuildVcfZip([]Entry{
		{Name: "김철수", Content: "first"},
		{Name: "김철수", Content: "second"},
		{Name: "김철수", Content: "third"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := readZip(t, data)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(entries), keys(entries))
	}
	if entries["김철수.vcf"] != "first" {
		t.Errorf("first entry content = %q", entries["김철수.vcf"])
	}
	if entries["김철수_2.vcf"] != "second" {
		t.Errorf("second entry content = %q", entries["김철수_2.vcf"])
	}
	if entries["김철수_3.vcf"] != "third" {
		t.Errorf("third entry content = %q", entries["김철수_3.vcf"])
	}
}

func TestBuildVcfZipSuffixedNameAlreadyTaken(t *testing.T) {
	// A contact literally named 김철수_2 occupies the first suffix slot, so
	// the duplicate 김철수 must skip past it.
	data, err := BuildVcfZip([]Entry{
		{Name: "김철수_2", Content: "literal"},
		{Name: "김철수", Content: "first"},
		{Name: "김철수", Content: "second"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := readZip(t, data)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(entries), keys(entries))
	}
	if entries["김철수_2.vcf"] != "literal" {
		t.Errorf("literal entry content = %q", entries["김철수_2.vcf"])
	}
	if entries["김철수.vcf"] != "first" {
		t.Errorf("first entry content = %q", entries["김철수.vcf"])
	}
	if entries["김철수_3.vcf"] != "second" {
		t.Errorf("second entry content = %q", entries["김철수_3.vcf"])
	}
}

func TestBuildVcfZipEmptyInput(t *testing.T) {
	data, err := BuildVcfZip(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(readZip(t, data)) != 0 {
		t.Errorf("expected empty archive")
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
