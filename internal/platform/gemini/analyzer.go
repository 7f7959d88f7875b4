package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/leadwire-api/internal/config"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/generation"
	"github.com/phrazzld/leadwire-api/internal/metrics"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

const (
	breakerName       = "gemini"
	maxCategories     = 5
	minImpactScore    = 0.0
	maxImpactScore    = 100.0
	responseMIMEType  = "application/json"
	modelTemperature  = float32(0.2)
	halfOpenMaxProbes = 1
)

// contentGenerator is the slice of the genai client the analyzer uses.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// sleepFunc waits for d or until ctx ends.
type sleepFunc func(ctx context.Context, d time.Duration) error

// GeminiAnalyzer implements the generation.Analyzer interface using
// Google's Gemini API.
type GeminiAnalyzer struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// models performs the actual API calls
	models contentGenerator

	// breaker stops calls to the API after repeated failures
	breaker *gobreaker.CircuitBreaker[string]

	// sleep waits between retries; replaced in tests
	sleep sleepFunc
}

var _ generation.Analyzer = (*GeminiAnalyzer)(nil)

// NewAnalyzer creates a GeminiAnalyzer with a live genai client.
func NewAnalyzer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiAnalyzer, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return newAnalyzer(logger, cfg, client.Models)
}

// newAnalyzer wires an analyzer around any contentGenerator.
func newAnalyzer(logger *slog.Logger, cfg config.LLMConfig, models contentGenerator) (*GeminiAnalyzer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if models == nil {
		return nil, fmt.Errorf("%w: content generator cannot be nil", generation.ErrInvalidConfig)
	}
	cfg = withDefaults(cfg)

	tmpl, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	a := &GeminiAnalyzer{
		logger:         logger.With("component", "gemini_analyzer", "model", cfg.ModelName),
		config:         cfg,
		promptTemplate: tmpl,
		models:         models,
		sleep:          sleepContext,
	}
	a.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: halfOpenMaxProbes,
		Timeout:     time.Duration(cfg.BreakerTimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.BreakerFailureThreshold)
		},
		// Model verdicts on the content and caller cancellations are not outages.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, generation.ErrContentBlocked) ||
				errors.Is(err, generation.ErrInvalidResponse)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
			metrics.SetCircuitBreakerState(name, breakerStateValue(to))
		},
	})
	metrics.SetCircuitBreakerState(breakerName, metrics.BreakerClosed)

	return a, nil
}

func breakerStateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}

// Analyze implements generation.Analyzer.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, article *domain.Article) (*domain.Analysis, error) {
	prompt, err := renderPrompt(a.promptTemplate, article)
	if err != nil {
		return nil, err
	}

	text, err := a.callWithRetry(ctx, prompt)
	if err != nil {
		metrics.RecordAnalysis(err)
		return nil, err
	}

	analysis, err := parseAnalysis(text)
	metrics.RecordAnalysis(err)
	if err != nil {
		a.logger.WarnContext(ctx, "unparseable analysis response",
			"article_id", article.ID,
			"error", err)
		return nil, err
	}
	return analysis, nil
}

// callWithRetry calls the API with exponential backoff and jitter.
//
// Transient errors are retried up to config.MaxRetries times. Blocked
// content and malformed responses are returned immediately, as is an open
// circuit.
func (a *GeminiAnalyzer) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := a.config.MaxRetries
	baseDelay := float64(a.config.RetryDelaySeconds)

	for attempt := 0; ; attempt++ {
		a.logger.DebugContext(ctx, "making Gemini API call",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		text, err := a.breaker.Execute(func() (string, error) {
			return a.generate(ctx, prompt)
		})
		if err == nil {
			return text, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", generation.ErrCircuitOpen, err)
		}
		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return "", err
		}

		a.logger.WarnContext(ctx, "Gemini API call failed",
			"attempt", attempt+1,
			"error", err)

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		delaySeconds := baseDelay * math.Pow(2, float64(attempt)) * (0.5 + rand.Float64()*0.5)
		delay := time.Duration(delaySeconds * float64(time.Second))

		if err := a.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
	}
}

// generate performs one API call and extracts the response text.
func (a *GeminiAnalyzer) generate(ctx context.Context, prompt string) (string, error) {
	temperature := modelTemperature
	resp, err := a.models.GenerateContent(ctx, a.config.ModelName, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: responseMIMEType,
		Temperature:      &temperature,
	})
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// responseText validates a response and concatenates its text parts.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}
	return sb.String(), nil
}

// parseAnalysis decodes the model's JSON into a domain.Analysis. Code
// fences around the JSON are tolerated.
func parseAnalysis(text string) (*domain.Analysis, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var parsed ResponseSchema
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}

	summary := strings.TrimSpace(parsed.Summary)
	if summary == "" {
		return nil, fmt.Errorf("%w: missing summary", generation.ErrInvalidResponse)
	}

	categories := make([]string, 0, len(parsed.Categories))
	seen := make(map[string]struct{})
	for _, c := range parsed.Categories {
		// Commas would split one label into two when the list is joined.
		c = strings.Join(strings.Fields(strings.ReplaceAll(c, ",", " ")), " ")
		key := strings.ToLower(c)
		if c == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		categories = append(categories, c)
		if len(categories) == maxCategories {
			break
		}
	}

	return &domain.Analysis{
		Summary:     summary,
		Categories:  strings.Join(categories, ", "),
		ImpactScore: clampImpact(parsed.ImpactScore),
		AnalyzedAt:  time.Now().UTC(),
	}, nil
}

func clampImpact(score *float64) *float64 {
	if score == nil || math.IsNaN(*score) || math.IsInf(*score, 0) {
		return nil
	}
	v := math.Min(maxImpactScore, math.Max(minImpactScore, *score))
	return &v
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
