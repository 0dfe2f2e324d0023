package constants

import "time"

var CacheTTL = struct {
	Extraction time.Duration
}{
	Extraction: 24 * time.Hour, // 동일 명함 재업로드 시 LLM 호출 생략
}

var RetryConfig = struct {
	MaxAttempts int
	Backoff     time.Duration
}{
	MaxAttempts: 3,
	Backoff:     2 * time.Second,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    1 * time.Hour, // 429 전용 타임아웃
	HealthCheckInterval: 10 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var OCRConfig = struct {
	Timeout          time.Duration
	MaxRetryAttempts int
	BaseDelay        time.Duration
	Jitter           time.Duration
}{
	Timeout:          30 * time.Second,
	MaxRetryAttempts: 3,
	BaseDelay:        500 * time.Millisecond,
	Jitter:           250 * time.Millisecond,
}

var PipelineConfig = struct {
	MaxConcurrentOCR         int
	MaxConcurrentStructuring int
	BatchWorkers             int
}{
	MaxConcurrentOCR:         4,
	MaxConcurrentStructuring: 2,
	BatchWorkers:             4,
}

var UploadLimits = struct {
	MaxFileBytes int64
}{
	MaxFileBytes: 16 << 20, // 16MB
}

var QRConfig = struct {
	ImageSize int
}{
	ImageSize: 256,
}
