package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/miradorstack/mirador-slo/internal/config"
	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/tables"
)

// Classifier turns a question into intents and raw entities.
type Classifier interface {
	Classify(ctx context.Context, query string) (models.Classification, error)
}

// completer sends one system prompt and one user message to a language model
// and returns the model's text.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}

// LLMClassifier classifies questions with a language model and a prompt built
// from the intent catalogue.
type LLMClassifier struct {
	logger   *slog.Logger
	model    completer
	prompt   string
	provider string
	timeout  time.Duration
}

func newLLMClassifier(logger *slog.Logger, provider string, model completer, categories []tables.Category, timeout time.Duration) *LLMClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMClassifier{
		logger:   logger,
		model:    model,
		prompt:   BuildSystemPrompt(categories),
		provider: provider,
		timeout:  timeout,
	}
}

// Classify asks the model and parses its answer. Transport failures and
// unusable answers are both reported as *models.ClassificationError.
func (c *LLMClassifier) Classify(ctx context.Context, query string) (models.Classification, error) {
	if strings.TrimSpace(query) == "" {
		return models.Classification{}, &models.ClassificationError{Err: fmt.Errorf("empty query")}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	raw, err := c.model.complete(ctx, c.prompt, query)
	if err != nil {
		return models.Classification{}, &models.ClassificationError{Err: fmt.Errorf("%s: %w", c.provider, err)}
	}
	cls, err := ParseResponse(raw)
	if err != nil {
		c.logger.Debug("unparseable classifier output", slog.String("provider", c.provider), slog.String("raw", raw))
		return models.Classification{}, err
	}
	if len(cls.Unrecognized) > 0 {
		c.logger.Debug("classifier proposed unknown secondary intents", slog.Any("intents", cls.Unrecognized))
	}
	return cls, nil
}

// New builds the classifier selected by cfg.Provider.
func New(ctx context.Context, cfg config.ClassifierConfig, categories []tables.Category, logger *slog.Logger) (Classifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		model, err := newGeminiModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return newLLMClassifier(logger, "gemini", model, categories, cfg.Timeout), nil
	case "anthropic":
		return newLLMClassifier(logger, "anthropic", newAnthropicModel(cfg, nil), categories, cfg.Timeout), nil
	case "bedrock":
		model, err := newBedrockModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return newLLMClassifier(logger, "bedrock", model, categories, cfg.Timeout), nil
	case "static":
		static, err := NewStatic(cfg.StaticIntent, cfg.StaticTimeRange)
		if err != nil {
			return nil, err
		}
		return static, nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}
