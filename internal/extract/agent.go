package extract

import (
	"context"
	"time"

	"github.com/junhee/namecard-go/internal/constants"
	"github.com/junhee/namecard-go/internal/domain"
	"github.com/junhee/namecard-go/internal/prompt"
	"github.com/junhee/namecard-go/internal/util"
	"go.uber.org/zap"
)

// preciseTemperature keeps the structuring service close to deterministic;
// field extraction wants recall, not creativity.
const preciseTemperature float32 = 0.1

// Structurer is the external text-to-JSON completion collaborator. It
// populates dest from the model's JSON answer or returns an error on
// service failure or malformed output; both are equally retryable here.
type Structurer interface {
	GenerateJSON(ctx context.Context, promptText string, temperature float32, dest any) error
}

// StructuredAgent orchestrates single-sided extraction: a bounded-retry call
// to the structuring service, falling back to rule-based extraction once
// retries are exhausted. It never surfaces a structuring failure to the
// caller; Extract always returns a complete record.
type StructuredAgent struct {
	llm        Structurer
	fallback   *RegexExtractor
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

func NewStructuredAgent(llm Structurer, fallback *RegexExtractor, logger *zap.Logger) *StructuredAgent {
	return &StructuredAgent{
		llm:        llm,
		fallback:   fallback,
		logger:     logger,
		maxRetries: constants.RetryConfig.MaxAttempts,
		backoff:    constants.RetryConfig.Backoff,
	}
}

// WithRetryPolicy overrides the bounded-retry parameters.
func (a *StructuredAgent) WithRetryPolicy(maxRetries int, backoff time.Duration) *StructuredAgent {
	a.maxRetries = maxRetries
	a.backoff = backoff
	return a
}

func (a *StructuredAgent) Extract(ctx context.Context, rawText string) domain.ContactFields {
	if rawText == "" {
		return domain.ContactFields{}
	}

	promptText := prompt.BuildSingleExtractionPrompt(rawText)

	var fields domain.ContactFields
	err := util.Retry(ctx, a.maxRetries, a.backoff, func() error {
		raw := make(map[string]any)
		if err := a.llm.GenerateJSON(ctx, promptText, preciseTemperature, &raw); err != nil {
			return err
		}
		fields = ValidateRecord(domain.ShapeSingle, raw).Single
		return nil
	})

	if err != nil {
		a.logger.Warn("Structured extraction exhausted retries, using rule-based extraction",
			zap.Int("max_retries", a.maxRetries),
			zap.Error(err),
		)
		return a.fallback.ExtractText(rawText)
	}

	return fields
}

// BilingualAgent is the two-sided counterpart. The front and back OCR texts
// go to the structuring service as one labeled block; on exhausted retries
// it returns an all-empty bilingual record. There is deliberately no
// rule-based fallback for the bilingual shape: the rules cannot attribute a
// field to a side.
type BilingualAgent struct {
	llm        Structurer
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

func NewBilingualAgent(llm Structurer, logger *zap.Logger) *BilingualAgent {
	return &BilingualAgent{
		llm:        llm,
		logger:     logger,
		maxRetries: constants.RetryConfig.MaxAttempts,
		backoff:    constants.RetryConfig.Backoff,
	}
}

func (a *BilingualAgent) WithRetryPolicy(maxRetries int, backoff time.Duration) *BilingualAgent {
	a.maxRetries = maxRetries
	a.backoff = backoff
	return a
}

func (a *BilingualAgent) Extract(ctx context.Context, frontText, backText string) domain.BilingualFields {
	promptText := prompt.BuildBilingualExtractionPrompt(frontText, backText)

	var fields domain.BilingualFields
	err := util.Retry(ctx, a.maxRetries, a.backoff, func() error {
		raw := make(map[string]any)
		if err := a.llm.GenerateJSON(ctx, promptText, preciseTemperature, &raw); err != nil {
			return err
		}
		fields = ValidateRecord(domain.ShapeBilingual, raw).Bilingual
		return nil
	})

	if err != nil {
		a.logger.Warn("Bilingual extraction exhausted retries, returning empty record",
			zap.Int("max_retries", a.maxRetries),
			zap.Error(err),
		)
		return domain.BilingualFields{}
	}

	return fields
}
