package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/junhee/namecard-go/internal/constants"
	"github.com/junhee/namecard-go/internal/util"
	pkgerrors "github.com/junhee/namecard-go/pkg/errors"
	"go.uber.org/zap"
)

// Client fronts the structuring service: Gemini first, OpenAI as optional
// fallback, with a shared circuit breaker so a dead upstream stops burning
// quota on every card.
type Client struct {
	primary        JSONProvider
	fallback       JSONProvider
	logger         *zap.Logger
	enableFallback bool
	circuitBreaker *util.CircuitBreaker
}

type Config struct {
	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	EnableFallback bool
}

func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	geminiModel := cfg.GeminiModel
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash"
	}
	openaiModel := cfg.OpenAIModel
	if openaiModel == "" {
		openaiModel = "gpt-4.1-mini"
	}

	primary, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, geminiModel, logger)
	if err != nil {
		return nil, err
	}

	c := &Client{
		primary:        primary,
		logger:         logger,
		enableFallback: cfg.EnableFallback && cfg.OpenAIAPIKey != "",
	}

	if fallback := NewOpenAIProvider(cfg.OpenAIAPIKey, openaiModel, logger); fallback != nil {
		c.fallback = fallback
		logger.Info("OpenAI fallback enabled", zap.String("model", openaiModel))
	} else {
		logger.Info("OpenAI fallback disabled (no API key)")
	}

	c.circuitBreaker = util.NewCircuitBreaker(
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		c.healthCheckPing,
		logger,
	)

	return c, nil
}

// GenerateJSON sends the prompt to the structuring service and decodes the
// JSON answer into dest. A fenced ```json block around the body is
// tolerated. Service failures and unparseable bodies both come back as
// errors; callers treat them as equally retryable.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, temperature float32, dest any) error {
	if !c.circuitBreaker.CanExecute() {
		status := c.circuitBreaker.GetStatus()
		nextRetry := "알 수 없음"
		if status.NextRetryTime != nil {
			nextRetry = util.FormatKST(*status.NextRetryTime, "15:04")
		}

		c.logger.Error("Structuring service unavailable (Circuit OPEN)",
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
			zap.String("next_retry", nextRetry),
		)

		return pkgerrors.NewStructuringError(
			fmt.Sprintf("structuring service circuit open, next retry %s", nextRetry), nil)
	}

	text, provider, err := c.generate(ctx, prompt, temperature)
	if err != nil {
		return err
	}

	cleaned := stripCodeFence(strings.TrimSpace(text))
	if cleaned == "" {
		return pkgerrors.NewMalformedResponseError(
			fmt.Sprintf("%s returned empty response", provider), nil)
	}

	if err := json.Unmarshal([]byte(cleaned), dest); err != nil {
		previewLen := util.Min(len(cleaned), 200)
		c.logger.Error("Failed to unmarshal JSON response",
			zap.String("provider", provider),
			zap.Error(err),
			zap.String("response_preview", cleaned[:previewLen]),
		)
		return pkgerrors.NewMalformedResponseError(
			fmt.Sprintf("invalid JSON from %s", provider), err)
	}

	return nil
}

func (c *Client) generate(ctx context.Context, prompt string, temperature float32) (string, string, error) {
	text, primaryErr := c.primary.Generate(ctx, prompt, temperature)
	if primaryErr == nil {
		c.circuitBreaker.RecordSuccess()
		return text, c.primary.Name(), nil
	}

	if c.enableFallback && c.fallback != nil {
		text, fallbackErr := c.fallback.Generate(ctx, prompt, temperature)
		if fallbackErr == nil {
			c.circuitBreaker.RecordSuccess()
			return text, c.fallback.Name(), nil
		}
		c.recordFailureIfServiceFault(primaryErr, fallbackErr)
		return "", "", pkgerrors.NewStructuringError("all structuring providers failed", fallbackErr)
	}

	c.recordFailureIfServiceFault(primaryErr, nil)
	return "", "", pkgerrors.NewStructuringError("structuring provider failed", primaryErr)
}

func (c *Client) recordFailureIfServiceFault(errs ...error) {
	serviceFault := false
	rateLimited := false
	for _, err := range errs {
		if isServiceFailure(err) {
			serviceFault = true
		}
		if isRateLimitError(err) {
			rateLimited = true
		}
	}

	if !serviceFault {
		return
	}

	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if rateLimited {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}
	c.circuitBreaker.RecordFailure(timeout)
}

func (c *Client) healthCheckPing() bool {
	c.logger.Info("Health Check: Testing structuring providers...")

	ctx, cancel := context.WithTimeout(context.Background(), constants.CircuitBreakerConfig.HealthCheckTimeout)
	defer cancel()

	primaryOK := c.primary.Ping(ctx)
	fallbackOK := false

	if c.enableFallback && c.fallback != nil {
		fallbackOK = c.fallback.Ping(ctx)
	}

	isHealthy := primaryOK || fallbackOK

	c.logger.Info("Health Check: Result",
		zap.Bool("gemini", primaryOK),
		zap.Bool("openai", fallbackOK),
		zap.Bool("healthy", isHealthy),
	)

	return isHealthy
}

// Ping reports whether at least one provider answers; used by the health
// endpoint.
func (c *Client) Ping(ctx context.Context) bool {
	if c.primary.Ping(ctx) {
		return true
	}
	if c.enableFallback && c.fallback != nil {
		return c.fallback.Ping(ctx)
	}
	return false
}

func (c *Client) GetCircuitStatus() util.CircuitBreakerStatus {
	return c.circuitBreaker.GetStatus()
}

func stripCodeFence(text string) string {
	cleaned := text
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```json"))
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```"))
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	}
	return cleaned
}

var (
	statusCodeRegex = regexp.MustCompile(`\b(5\d{2})\b`)
	geminiCodeRegex = regexp.MustCompile(`"code":(\d{3})`)
	openaiCodeRegex = regexp.MustCompile(`^(\d{3})\s`)
)

func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT") {
		return true
	}

	if isRateLimitError(err) {
		return true
	}

	if statusCodeRegex.MatchString(msg) {
		return true
	}

	if code, ok := embeddedStatusCode(msg); ok {
		return code >= 500 && code < 600
	}

	return false
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}

	if code, ok := embeddedStatusCode(msg); ok {
		return code == 429
	}

	return false
}

func embeddedStatusCode(msg string) (int, bool) {
	if matches := geminiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code, true
		}
	}
	if matches := openaiCodeRegex.FindStringSubmatch(msg); len(matches) > 1 {
		if code, err := strconv.Atoi(matches[1]); err == nil {
			return code, true
		}
	}
	return 0, false
}
