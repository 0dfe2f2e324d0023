package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/junhee/namecard-go/internal/archive"
	"github.com/junhee/namecard-go/internal/service/pipeline"
	"github.com/junhee/namecard-go/internal/util"
	"github.com/junhee/namecard-go/pkg/errors"
)

func (s *Server) handleProcessCard(w http.ResponseWriter, r *http.Request) {
	img, err := readUploadedImage(r, "image")
	if err != nil {
		s.respondError(w, err)
		return
	}

	result, err := s.pipeline.ProcessCard(r.Context(), img)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"contactInfo":   encodeContact(result.Contact),
		"extractedText": result.ExtractedText,
		"confidence":    result.Confidence,
	})
}

func (s *Server) handleProcessTwoSided(w http.ResponseWriter, r *http.Request) {
	front, err := readUploadedImage(r, "frontImage")
	if err != nil {
		s.respondError(w, err)
		return
	}
	back, err := readUploadedImage(r, "backImage")
	if err != nil {
		s.respondError(w, err)
		return
	}

	result, err := s.pipeline.ProcessTwoSided(r.Context(), front, back)
	if err != nil {
		s.respondError(w, err)
		return
	}

	response := map[string]any{
		"success":     true,
		"contactInfo": encodeContact(result.Contact),
		"confidence":  result.Confidence,
	}

	if s.repo != nil {
		stored, err := s.repo.Create(r.Context(), result.Contact)
		if err != nil {
			s.logger.Warn("Failed to persist two-sided contact", zap.Error(err))
		} else {
			response["id"] = stored.ID
		}
	}

	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.respondError(w, errors.NewValidationError("invalid multipart form", "images", nil))
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		s.respondError(w, errors.NewValidationError("image files are required", "images", nil))
		return
	}

	images := make([]pipeline.CardImage, 0, len(files))
	for _, header := range files {
		img, err := readImageFile(header)
		if err != nil {
			s.respondError(w, err)
			return
		}
		images = append(images, img)
	}

	results := s.pipeline.ProcessBatch(r.Context(), images)

	nowMs := time.Now().UnixMilli()
	items := make([]map[string]any, 0, len(results))
	for _, result := range results {
		if result.Err != nil {
			// failed cards are skipped, siblings still count
			continue
		}

		item := map[string]any{
			"id":            fmt.Sprintf("card-%d-%d", nowMs, result.Index),
			"source":        result.Source,
			"data":          encodeContact(result.Contact),
			"extractedText": result.ExtractedText,
			"confidence":    result.Confidence,
		}

		if s.repo != nil {
			stored, err := s.repo.Create(r.Context(), result.Contact)
			if err != nil {
				s.logger.Warn("Failed to persist batch contact",
					zap.String("source", result.Source),
					zap.Error(err),
				)
			} else {
				item["contactId"] = stored.ID
			}
		}

		items = append(items, item)
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": items,
	})
}

func (s *Server) handleGenerateFiles(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ContactData map[string]any `json:"contactData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, errors.NewValidationError("invalid JSON body", "contactData", nil))
		return
	}
	if len(payload.ContactData) == 0 {
		s.respondError(w, errors.NewValidationError("contact data is required", "contactData", nil))
		return
	}

	contact := decodeContact(payload.ContactData)
	if contact.DisplayName() == "" {
		s.respondError(w, errors.NewValidationError("name is required", "name", nil))
		return
	}

	vcfContent, qrBase64, err := s.pipeline.ComposeArtifacts(contact)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"vcfContent": vcfContent,
		"qrCode":     qrBase64,
	})
}

func (s *Server) handleDownloadVcf(w http.ResponseWriter, r *http.Request) {
	dataParam := r.URL.Query().Get("data")
	if dataParam == "" {
		s.respondError(w, errors.NewValidationError("data query parameter is required", "data", nil))
		return
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(dataParam), &raw); err != nil {
		s.respondError(w, errors.NewValidationError("data parameter is not valid JSON", "data", nil))
		return
	}

	contact := decodeContact(raw)
	vcfContent := s.pipeline.ComposeVcf(contact)

	name := util.SanitizeFileName(contact.DisplayName())
	if name == "" {
		name = "contact"
	}

	writeAttachment(w, name+".vcf", "text/vcard; charset=utf-8", []byte(vcfContent))
}

func (s *Server) handleDownloadBatch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Items []struct {
			Data map[string]any `json:"data"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, errors.NewValidationError("invalid JSON body", "items", nil))
		return
	}
	if len(payload.Items) == 0 {
		s.respondError(w, errors.NewValidationError("no items to download", "items", nil))
		return
	}

	if len(payload.Items) == 1 {
		contact := decodeContact(payload.Items[0].Data)
		vcfContent := s.pipeline.ComposeVcf(contact)

		name := util.SanitizeFileName(contact.DisplayName())
		if name == "" {
			name = "contact"
		}

		writeAttachment(w, name+".vcf", "text/vcard; charset=utf-8", []byte(vcfContent))
		return
	}

	entries := make([]archive.Entry, 0, len(payload.Items))
	for _, item := range payload.Items {
		contact := decodeContact(item.Data)
		entries = append(entries, archive.Entry{
			Name:    contact.DisplayName(),
			Content: s.pipeline.ComposeVcf(contact),
		})
	}

	zipBytes, err := archive.BuildVcfZip(entries)
	if err != nil {
		s.respondError(w, errors.NewPipelineError("failed to build archive", errors.CodePipeline, 500, nil).WithCause(err))
		return
	}

	zipName := fmt.Sprintf("contacts_%s.zip", time.Now().Format("20060102"))
	writeAttachment(w, zipName, "application/zip", zipBytes)
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.respondError(w, errors.NewStorageError("contact storage is not configured", "create", nil))
		return
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.respondError(w, errors.NewValidationError("invalid JSON body", "contact", nil))
		return
	}

	stored, err := s.repo.Create(r.Context(), decodeContact(raw))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, encodeStoredContact(stored))
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.respondError(w, errors.NewStorageError("contact storage is not configured", "list", nil))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	contacts, err := s.repo.List(r.Context(), limit, offset)
	if err != nil {
		s.respondError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, encodeStoredContact(c))
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"contacts": items})
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.respondError(w, errors.NewStorageError("contact storage is not configured", "get", nil))
		return
	}

	id, err := contactID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	stored, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if stored == nil {
		s.respondJSON(w, http.StatusNotFound, map[string]any{"error": "contact not found"})
		return
	}

	s.respondJSON(w, http.StatusOK, encodeStoredContact(stored))
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.respondError(w, errors.NewStorageError("contact storage is not configured", "update", nil))
		return
	}

	id, err := contactID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.respondError(w, errors.NewValidationError("invalid JSON body", "contact", nil))
		return
	}

	stored, err := s.repo.Update(r.Context(), id, decodeContact(raw))
	if err != nil {
		s.respondError(w, err)
		return
	}
	if stored == nil {
		s.respondJSON(w, http.StatusNotFound, map[string]any{"error": "contact not found"})
		return
	}

	s.respondJSON(w, http.StatusOK, encodeStoredContact(stored))
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.respondError(w, errors.NewStorageError("contact storage is not configured", "delete", nil))
		return
	}

	id, err := contactID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	deleted, err := s.repo.Delete(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if !deleted {
		s.respondJSON(w, http.StatusNotFound, map[string]any{"error": "contact not found"})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"ocr_ready": s.ocrConfigured,
	}

	if s.llm != nil {
		health["llm_ready"] = s.llm.Ping(ctx)
	}
	if s.cache != nil {
		health["cache_ready"] = s.cache.IsConnected(ctx)
	}
	if s.postgres != nil {
		health["db_ready"] = s.postgres.Ping(ctx) == nil
	}

	s.respondJSON(w, http.StatusOK, health)
}

func contactID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("invalid contact id", "id", r.PathValue("id"))
	}
	return id, nil
}

func readUploadedImage(r *http.Request, field string) (pipeline.CardImage, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return pipeline.CardImage{}, errors.NewValidationError("invalid multipart form", field, nil)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return pipeline.CardImage{}, errors.NewValidationError(
			fmt.Sprintf("%s file is required", field), field, nil)
	}
	file.Close()

	return readImageFile(header)
}

func readImageFile(header *multipart.FileHeader) (pipeline.CardImage, error) {
	file, err := header.Open()
	if err != nil {
		return pipeline.CardImage{}, errors.NewValidationError("failed to open uploaded file", "image", header.Filename)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return pipeline.CardImage{}, errors.NewValidationError("failed to read uploaded file", "image", header.Filename)
	}

	return pipeline.CardImage{
		Data:   data,
		Format: imageFormat(header.Filename),
		Source: header.Filename,
	}, nil
}

// imageFormat maps a file extension to the format tag the OCR API expects.
func imageFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "PNG"
	case ".pdf":
		return "PDF"
	case ".tif", ".tiff":
		return "TIFF"
	default:
		return "JPG"
	}
}

func writeAttachment(w http.ResponseWriter, filename, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
