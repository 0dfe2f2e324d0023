package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/junhee/namecard-go/internal/domain"
	"github.com/junhee/namecard-go/internal/service/pipeline"
)

type stubOCR struct{}

func (stubOCR) Recognize(_ context.Context, _ []byte, _ string) ([]domain.RawToken, error) {
	return []domain.RawToken{{Text: "홍길동", Confidence: 0.95}}, nil
}

type stubSingle struct{}

func (stubSingle) Extract(_ context.Context, _ string) domain.ContactFields {
	return domain.ContactFields{Name: "홍길동", Phone: "010-1234-5678"}
}

type stubBilingual struct{}

func (stubBilingual) Extract(_ context.Context, _, _ string) domain.BilingualFields {
	return domain.BilingualFields{NameKo: "홍길동", NameEn: "Gildong Hong"}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	svc := pipeline.NewService(stubOCR{}, stubSingle{}, stubBilingual{}, nil, pipeline.Config{}, zap.NewNop())
	return New(svc, Options{
		Port:           0,
		AllowedOrigins: []string{"*"},
		OCRConfigured:  true,
	}, zap.NewNop())
}

func TestHandleGenerateFiles(t *testing.T) {
	srv := newTestServer(t)

	body := `{"contactData": {"name": "홍길동", "phone": "010-1234-5678"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate-files", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.handleGenerateFiles(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success    bool   `json:"success"`
		VcfContent string `json:"vcfContent"`
		QrCode     string `json:"qrCode"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if !strings.Contains(resp.VcfContent, "FN:홍길동") {
		t.Errorf("vcf missing FN line:\n%s", resp.VcfContent)
	}
	if resp.QrCode == "" {
		t.Error("qrCode is empty")
	}
}

func TestHandleGenerateFilesRequiresName(t *testing.T) {
	srv := newTestServer(t)

	body := `{"contactData": {"phone": "010-1234-5678"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate-files", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.handleGenerateFiles(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleDownloadBatchSingleItem(t *testing.T) {
	srv := newTestServer(t)

	body := `{"items": [{"data": {"name": "홍길동", "phone": "010-1234-5678"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/download-batch", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.handleDownloadBatch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/vcard") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="홍길동.vcf"`) {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "TEL;TYPE=WORK,VOICE:010-1234-5678") {
		t.Errorf("vcf body missing TEL line:\n%s", rec.Body.String())
	}
}

func TestHandleDownloadBatchMultipleItemsZip(t *testing.T) {
	srv := newTestServer(t)

	body := `{"items": [
		{"data": {"name": "홍길동"}},
		{"data": {"shape": "bilingual", "name_ko": "김철수", "name_en": "Cheolsu Kim"}}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/download-batch", strings.NewReader(body))
	rec := httptest.NewRecorder()

	srv.handleDownloadBatch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("content type = %q", ct)
	}

	data := rec.Body.Bytes()
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}

	names := map[string]bool{}
	for _, f := range reader.File {
		names[f.Name] = true

		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		content, _ := io.ReadAll(rc)
		rc.Close()
		if !strings.HasPrefix(string(content), "BEGIN:VCARD") {
			t.Errorf("entry %s is not a vcard", f.Name)
		}
	}

	if !names["홍길동.vcf"] || !names["김철수.vcf"] {
		t.Errorf("missing expected entries, have %v", names)
	}
}

func TestHandleDownloadBatchRejectsEmpty(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/download-batch", strings.NewReader(`{"items": []}`))
	rec := httptest.NewRecorder()

	srv.handleDownloadBatch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	bilingual := domain.NewBilingualContact(domain.BilingualFields{
		NameKo: "홍길동",
		NameEn: "Gildong Hong",
		Phone:  "010-1234-5678",
	})

	decoded := decodeContact(encodeContact(bilingual))
	if decoded != bilingual {
		t.Errorf("bilingual round trip lost data:\n got %+v\nwant %+v", decoded, bilingual)
	}

	single := domain.NewSingleContact(domain.ContactFields{Name: "김철수", Email: "kim@corp.co.kr"})
	decoded = decodeContact(encodeContact(single))
	if decoded != single {
		t.Errorf("single round trip lost data:\n got %+v\nwant %+v", decoded, single)
	}
}

func TestDecodeContactDefaultsToSingle(t *testing.T) {
	// A stray bilingual key without an explicit shape tag must not flip the
	// record to bilingual.
	contact := decodeContact(map[string]any{
		"name":    "김철수",
		"name_ko": "stray",
	})

	if contact.Shape != domain.ShapeSingle {
		t.Errorf("shape = %q, want single", contact.Shape)
	}
	if contact.Single.Name != "김철수" {
		t.Errorf("name = %q", contact.Single.Name)
	}
}
