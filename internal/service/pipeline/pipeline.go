package pipeline

import (
	"context"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/junhee/namecard-go/internal/constants"
	"github.com/junhee/namecard-go/internal/domain"
	"github.com/junhee/namecard-go/internal/qr"
	"github.com/junhee/namecard-go/internal/vcf"
	"github.com/junhee/namecard-go/pkg/errors"
)

// OCRClient recognizes text tokens on one card image.
type OCRClient interface {
	Recognize(ctx context.Context, image []byte, format string) ([]domain.RawToken, error)
}

// SingleExtractor converts whitespace-joined OCR text into a single-sided
// record. It absorbs structuring failures internally and always returns a
// complete record.
type SingleExtractor interface {
	Extract(ctx context.Context, rawText string) domain.ContactFields
}

// BilingualExtractor converts front/back OCR texts into a bilingual record.
type BilingualExtractor interface {
	Extract(ctx context.Context, frontText, backText string) domain.BilingualFields
}

// ExtractionCache short-circuits the structuring call when the OCR text has
// been seen before. Both methods must be failure-tolerant.
type ExtractionCache interface {
	GetExtraction(ctx context.Context, rawText string) (domain.Contact, bool)
	SetExtraction(ctx context.Context, rawText string, contact domain.Contact)
}

// Notifier receives pipeline stage events for live progress reporting.
type Notifier interface {
	Notify(event ProgressEvent)
}

// ProgressEvent marks one stage transition for one card.
type ProgressEvent struct {
	Stage  string `json:"stage"`
	Source string `json:"source,omitempty"`
	Index  int    `json:"index"`
	Detail string `json:"detail,omitempty"`
}

const (
	StageOCR         = "ocr"
	StageStructuring = "structuring"
	StageDone        = "done"
	StageFailed      = "failed"
)

// CardImage is one uploaded card side.
type CardImage struct {
	Data   []byte
	Format string
	Source string
}

// CardResult is the outcome for one card in a batch. Either Contact is
// populated or Err explains the skip; siblings are unaffected.
type CardResult struct {
	Index         int
	Source        string
	Contact       domain.Contact
	ExtractedText string
	Confidence    float64
	Err           error
}

// Service wires OCR, extraction, caching and artifact composition into the
// card-processing pipeline. Concurrent external calls are capped by
// semaphores to respect upstream rate limits.
type Service struct {
	ocrClient OCRClient
	single    SingleExtractor
	bilingual BilingualExtractor
	cache     ExtractionCache
	composer  *vcf.Composer
	notifier  Notifier
	logger    *zap.Logger

	ocrSem       chan struct{}
	llmSem       chan struct{}
	batchWorkers int
}

type Config struct {
	OCRConcurrency int
	LLMConcurrency int
	BatchWorkers   int
}

func NewService(ocrClient OCRClient, single SingleExtractor, bilingual BilingualExtractor,
	cache ExtractionCache, cfg Config, logger *zap.Logger) *Service {

	if cfg.OCRConcurrency <= 0 {
		cfg.OCRConcurrency = constants.PipelineConfig.MaxConcurrentOCR
	}
	if cfg.LLMConcurrency <= 0 {
		cfg.LLMConcurrency = constants.PipelineConfig.MaxConcurrentStructuring
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = constants.PipelineConfig.BatchWorkers
	}

	return &Service{
		ocrClient:    ocrClient,
		single:       single,
		bilingual:    bilingual,
		cache:        cache,
		composer:     vcf.NewComposer(),
		logger:       logger,
		ocrSem:       make(chan struct{}, cfg.OCRConcurrency),
		llmSem:       make(chan struct{}, cfg.LLMConcurrency),
		batchWorkers: cfg.BatchWorkers,
	}
}

// WithNotifier attaches a progress notifier. Nil notifier means silent.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// ProcessCard runs the single-sided pipeline for one image: OCR, cache
// lookup, structured extraction, cache store.
func (s *Service) ProcessCard(ctx context.Context, img CardImage) (*CardResult, error) {
	result := &CardResult{Source: img.Source}

	s.notify(ProgressEvent{Stage: StageOCR, Source: img.Source})
	tokens, err := s.recognize(ctx, img)
	if err != nil {
		s.notify(ProgressEvent{Stage: StageFailed, Source: img.Source, Detail: err.Error()})
		return nil, err
	}

	rawText := strings.Join(domain.TokenTexts(tokens), " ")
	result.ExtractedText = rawText
	result.Confidence = domain.AverageConfidence(tokens)

	if s.cache != nil {
		if cached, ok := s.cache.GetExtraction(ctx, rawText); ok {
			s.logger.Debug("Extraction cache hit", zap.String("source", img.Source))
			result.Contact = cached
			s.notify(ProgressEvent{Stage: StageDone, Source: img.Source})
			return result, nil
		}
	}

	s.notify(ProgressEvent{Stage: StageStructuring, Source: img.Source})
	fields, err := s.extractSingle(ctx, rawText)
	if err != nil {
		s.notify(ProgressEvent{Stage: StageFailed, Source: img.Source, Detail: err.Error()})
		return nil, err
	}
	result.Contact = domain.NewSingleContact(fields)

	if s.cache != nil {
		s.cache.SetExtraction(ctx, rawText, result.Contact)
	}

	s.notify(ProgressEvent{Stage: StageDone, Source: img.Source})
	return result, nil
}

// ProcessTwoSided OCRs both sides concurrently, joins, then makes a single
// bilingual structuring call. Either OCR failure fails the whole request.
func (s *Service) ProcessTwoSided(ctx context.Context, front, back CardImage) (*CardResult, error) {
	s.notify(ProgressEvent{Stage: StageOCR, Source: front.Source})

	var (
		frontTokens, backTokens []domain.RawToken
		frontErr, backErr       error
	)

	p := pool.New().WithMaxGoroutines(2)
	p.Go(func() {
		frontTokens, frontErr = s.recognize(ctx, front)
	})
	p.Go(func() {
		backTokens, backErr = s.recognize(ctx, back)
	})
	p.Wait()

	if frontErr != nil {
		s.notify(ProgressEvent{Stage: StageFailed, Source: front.Source, Detail: frontErr.Error()})
		return nil, frontErr
	}
	if backErr != nil {
		s.notify(ProgressEvent{Stage: StageFailed, Source: back.Source, Detail: backErr.Error()})
		return nil, backErr
	}

	frontText := strings.Join(domain.TokenTexts(frontTokens), " ")
	backText := strings.Join(domain.TokenTexts(backTokens), " ")

	allTokens := append(append([]domain.RawToken{}, frontTokens...), backTokens...)
	result := &CardResult{
		Source:        front.Source,
		ExtractedText: frontText + "\n" + backText,
		Confidence:    domain.AverageConfidence(allTokens),
	}

	cacheKey := frontText + "\n---\n" + backText
	if s.cache != nil {
		if cached, ok := s.cache.GetExtraction(ctx, cacheKey); ok {
			result.Contact = cached
			s.notify(ProgressEvent{Stage: StageDone, Source: front.Source})
			return result, nil
		}
	}

	s.notify(ProgressEvent{Stage: StageStructuring, Source: front.Source})
	fields, err := s.extractBilingual(ctx, frontText, backText)
	if err != nil {
		s.notify(ProgressEvent{Stage: StageFailed, Source: front.Source, Detail: err.Error()})
		return nil, err
	}
	result.Contact = domain.NewBilingualContact(fields)

	if s.cache != nil {
		s.cache.SetExtraction(ctx, cacheKey, result.Contact)
	}

	s.notify(ProgressEvent{Stage: StageDone, Source: front.Source})
	return result, nil
}

// ProcessBatch processes images independently under a bounded worker pool.
// A failed item carries its error in the result; siblings keep going.
func (s *Service) ProcessBatch(ctx context.Context, images []CardImage) []CardResult {
	if len(images) == 0 {
		return []CardResult{}
	}

	p := pool.New().WithMaxGoroutines(s.batchWorkers)

	results := make([]CardResult, len(images))
	for idx, img := range images {
		idx, img := idx, img
		p.Go(func() {
			itemCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			res, err := s.ProcessCard(itemCtx, img)
			if err != nil {
				s.logger.Warn("Batch item failed",
					zap.Int("index", idx),
					zap.String("source", img.Source),
					zap.Error(err),
				)
				results[idx] = CardResult{Index: idx, Source: img.Source, Err: err}
				return
			}

			res.Index = idx
			results[idx] = *res
		})
	}

	p.Wait()
	return results
}

// ComposeArtifacts renders the VCF document and its QR code for a contact.
func (s *Service) ComposeArtifacts(contact domain.Contact) (vcfContent, qrBase64 string, err error) {
	vcfContent = s.composer.Compose(contact)

	qrBase64, err = qr.EncodeBase64PNG(vcfContent)
	if err != nil {
		return "", "", errors.NewPipelineError("failed to encode QR code", errors.CodePipeline, 500, nil).WithCause(err)
	}

	return vcfContent, qrBase64, nil
}

// ComposeVcf renders just the VCF document.
func (s *Service) ComposeVcf(contact domain.Contact) string {
	return s.composer.Compose(contact)
}

func (s *Service) recognize(ctx context.Context, img CardImage) ([]domain.RawToken, error) {
	if err := s.acquire(ctx, s.ocrSem); err != nil {
		return nil, err
	}
	defer func() { <-s.ocrSem }()

	return s.ocrClient.Recognize(ctx, img.Data, img.Format)
}

func (s *Service) extractSingle(ctx context.Context, rawText string) (domain.ContactFields, error) {
	if err := s.acquire(ctx, s.llmSem); err != nil {
		return domain.ContactFields{}, err
	}
	defer func() { <-s.llmSem }()

	return s.single.Extract(ctx, rawText), nil
}

func (s *Service) extractBilingual(ctx context.Context, frontText, backText string) (domain.BilingualFields, error) {
	if err := s.acquire(ctx, s.llmSem); err != nil {
		return domain.BilingualFields{}, err
	}
	defer func() { <-s.llmSem }()

	return s.bilingual.Extract(ctx, frontText, backText), nil
}

func (s *Service) acquire(ctx context.Context, sem chan struct{}) error {
	select {
	case sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errors.NewPipelineError("request cancelled", errors.CodePipeline, 499, nil).WithCause(ctx.Err())
	}
}

func (s *Service) notify(event ProgressEvent) {
	if s.notifier != nil {
		s.notifier.Notify(event)
	}
}
