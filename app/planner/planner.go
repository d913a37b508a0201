// Package planner produces fitness plans from intake questionnaires through
// an OpenAI-compatible chat-completion backend.
package planner

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/aifit/coachbot/app/config"
	"github.com/aifit/coachbot/app/storage"
	"github.com/aifit/coachbot/core/logger"
)

// Generator is the contract consumed by the review loop.
type Generator interface {
	Generate(ctx context.Context, a *storage.Anketa) (string, error)
	GenerateWithEdit(ctx context.Context, a *storage.Anketa, feedback string) (string, error)
}

// Planner implements Generator over a chat-completion backend. Calls are
// never retried; failures surface as GenerationError.
type Planner struct {
	cfg    config.GenerationConfig
	client openai.Client
	tokens TokenSource
}

// New builds a planner from configuration. With an auth URL configured the
// API key is used as an OAuth client credential behind a token cache,
// otherwise it is sent directly.
func New(cfg config.GenerationConfig) *Planner {
	var tokens TokenSource
	if cfg.AuthURL != "" {
		tokens = NewOAuthTokenCache(cfg.AuthURL, cfg.APIKey, cfg.Scope)
	} else {
		tokens = StaticTokenSource(cfg.APIKey)
	}
	return NewWithTokenSource(cfg, tokens)
}

// NewWithTokenSource builds a planner with an explicit token source.
func NewWithTokenSource(cfg config.GenerationConfig, tokens TokenSource) *Planner {
	return &Planner{
		cfg:    cfg,
		client: openai.NewClient(option.WithBaseURL(cfg.BaseURL)),
		tokens: tokens,
	}
}

// StartBackgroundRefresh launches proactive token renewal when the planner
// runs behind an OAuth token cache. No-op for static keys.
func (p *Planner) StartBackgroundRefresh(ctx context.Context) {
	if cache, ok := p.tokens.(*OAuthTokenCache); ok {
		cache.StartRefresher(ctx)
	}
}

// Generate produces a plan from the questionnaire.
func (p *Planner) Generate(ctx context.Context, a *storage.Anketa) (string, error) {
	return p.complete(ctx, buildPrompt(a))
}

// GenerateWithEdit produces a revised plan from the questionnaire and the
// trainer's feedback. Empty feedback and the bare "+" sentinel are rejected
// before any backend call.
func (p *Planner) GenerateWithEdit(ctx context.Context, a *storage.Anketa, feedback string) (string, error) {
	fb := strings.TrimSpace(feedback)
	if fb == "" || fb == "+" {
		return "", ErrFeedbackRequired
	}
	return p.complete(ctx, buildEditPrompt(a, fb))
}

func (p *Planner) complete(ctx context.Context, prompt string) (string, error) {
	if p.cfg.APIKey == "" {
		return "", &GenerationError{Reason: ReasonNotConfigured, Detail: "generation api key is not set"}
	}

	token, err := p.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	requestID := uuid.NewString()
	start := time.Now()

	cctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	resp, err := p.client.Chat.Completions.New(cctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(p.cfg.Temperature),
		MaxTokens:   openai.Int(int64(p.cfg.MaxTokens)),
	}, option.WithAPIKey(token))
	if err != nil {
		genErr := p.wrapBackendError(err)
		logger.Error(ctx, "planner", "plan.generate",
			slog.String("status", "fail"),
			slog.String("request_id", requestID),
			slog.String("model", p.cfg.Model),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", genErr.Error()),
		)
		return "", genErr
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		genErr := &GenerationError{Reason: ReasonEmptyResponse, Detail: "backend returned no text"}
		logger.Error(ctx, "planner", "plan.generate",
			slog.String("status", "fail"),
			slog.String("request_id", requestID),
			slog.String("model", p.cfg.Model),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", genErr.Error()),
		)
		return "", genErr
	}

	text := resp.Choices[0].Message.Content
	logger.Info(ctx, "planner", "plan.generate",
		slog.String("status", "ok"),
		slog.String("request_id", requestID),
		slog.String("model", p.cfg.Model),
		slog.Int("plan_len", len(text)),
		slog.Int64("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int64("completion_tokens", resp.Usage.CompletionTokens),
		slog.Duration("duration", logger.Took(start)),
	)
	return text, nil
}

func (p *Planner) wrapBackendError(err error) *GenerationError {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &GenerationError{
			Reason: ReasonBackendError,
			Status: apierr.StatusCode,
			Detail: excerpt(apierr.Error()),
			Err:    err,
		}
	}
	return classify(err)
}
