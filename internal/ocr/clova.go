package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/junhee/namecard-go/internal/constants"
	"github.com/junhee/namecard-go/internal/domain"
	"github.com/junhee/namecard-go/internal/util"
	"github.com/junhee/namecard-go/pkg/errors"
)

// Client reads text from a business card image through the NAVER CLOVA
// OCR general API (V2 JSON invoke).
type Client struct {
	httpClient *http.Client
	secretKey  string
	invokeURL  string
	logger     *zap.Logger
	now        func() time.Time
}

func NewClient(httpClient *http.Client, secretKey, invokeURL string, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.OCRConfig.Timeout}
	}
	return &Client{
		httpClient: httpClient,
		secretKey:  secretKey,
		invokeURL:  invokeURL,
		logger:     logger,
		now:        time.Now,
	}
}

type clovaImage struct {
	Format string `json:"format"`
	Name   string `json:"name"`
	Data   string `json:"data"`
}

type clovaRequest struct {
	Version              string       `json:"version"`
	RequestID            string       `json:"requestId"`
	Timestamp            int64        `json:"timestamp"`
	Lang                 string       `json:"lang"`
	Images               []clovaImage `json:"images"`
	EnableTableDetection bool         `json:"enableTableDetection"`
}

type clovaField struct {
	InferText       string  `json:"inferText"`
	InferConfidence float64 `json:"inferConfidence"`
}

type clovaImageResult struct {
	InferResult string       `json:"inferResult"`
	Message     string       `json:"message"`
	Fields      []clovaField `json:"fields"`
}

type clovaResponse struct {
	Images []clovaImageResult `json:"images"`
}

// Recognize sends one image and returns the recognized tokens in reading
// order. An empty slice (no error) means the card had no detectable text.
func (c *Client) Recognize(ctx context.Context, image []byte, format string) ([]domain.RawToken, error) {
	if c.secretKey == "" || c.invokeURL == "" {
		return nil, errors.NewOCRError("CLOVA OCR credentials are not configured", 500, nil)
	}
	if format == "" {
		format = "JPG"
	}

	nowMs := c.now().UnixMilli()
	reqBody := clovaRequest{
		Version:   "V2",
		RequestID: fmt.Sprintf("OCR-%d", nowMs),
		Timestamp: nowMs,
		Lang:      "ko",
		Images: []clovaImage{
			{
				Format: format,
				Name:   "business_card",
				Data:   base64.StdEncoding.EncodeToString(image),
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.NewOCRError("Failed to encode OCR request", 500, err)
	}

	var lastErr error
	for attempt := 0; attempt < constants.OCRConfig.MaxRetryAttempts; attempt++ {
		if attempt > 0 {
			delay := c.computeDelay(attempt - 1)
			c.logger.Warn("OCR request failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, errors.NewOCRError("OCR request aborted", 499, ctx.Err())
			case <-time.After(delay):
			}
		}

		tokens, retryable, err := c.doRequest(ctx, payload)
		if err == nil {
			return tokens, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, lastErr
}

// RecognizeText joins recognized tokens with single spaces, matching the
// whitespace-delimited text the extraction prompt expects.
func (c *Client) RecognizeText(ctx context.Context, image []byte, format string) (string, error) {
	tokens, err := c.Recognize(ctx, image, format)
	if err != nil {
		return "", err
	}
	return strings.Join(domain.TokenTexts(tokens), " "), nil
}

func (c *Client) doRequest(ctx context.Context, payload []byte) ([]domain.RawToken, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.invokeURL, bytes.NewReader(payload))
	if err != nil {
		return nil, false, errors.NewOCRError("Failed to build OCR request", 500, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-OCR-Secret", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, errors.NewOCRError("OCR request failed", 502, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errors.NewOCRError("Failed to read OCR response", 502, err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == 429 {
		return nil, true, errors.NewOCRError(
			fmt.Sprintf("OCR upstream error: %d", resp.StatusCode), resp.StatusCode, nil)
	}
	if resp.StatusCode >= 400 {
		c.logger.Error("OCR request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", util.TruncateString(string(body), 512)),
		)
		return nil, false, errors.NewOCRError(
			fmt.Sprintf("OCR request rejected: %d", resp.StatusCode), resp.StatusCode, nil)
	}

	var parsed clovaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, true, errors.NewOCRError("Malformed OCR response", 502, err)
	}

	var tokens []domain.RawToken
	for _, img := range parsed.Images {
		for _, field := range img.Fields {
			if field.InferText == "" {
				continue
			}
			tokens = append(tokens, domain.RawToken{
				Text:       field.InferText,
				Confidence: field.InferConfidence,
			})
		}
	}

	return tokens, false, nil
}

func (c *Client) computeDelay(attempt int) time.Duration {
	base := constants.OCRConfig.BaseDelay * time.Duration(math.Pow(2, float64(attempt)))
	jitter := time.Duration(rand.Float64() * float64(constants.OCRConfig.Jitter))
	return base + jitter
}
