package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cliossg/sitesmith/pkg/cl/config"
	"github.com/cliossg/sitesmith/pkg/cl/llm"
	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/cliossg/sitesmith/pkg/cl/metrics"
	"github.com/cliossg/sitesmith/pkg/cl/validation"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 45 * time.Second

const systemPrompt = `You are a web designer building a single static page.
Answer with one JSON object and nothing else, using exactly these keys:
  "title": short page title, plain text
  "html":  the contents of <body>, without <html>, <head> or <body> tags
  "css":   a stylesheet for that markup
  "js":    optional vanilla JavaScript, empty string when not needed
Do not reference external scripts, fonts or images. Keep the page responsive.`

// Completer is the upstream the gateway talks to. *llm.Client implements it.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
	IsConfigured() bool
}

// Service produces drafts from prompts.
type Service interface {
	Start(ctx context.Context) error
	Generate(ctx context.Context, req Request) (*Result, error)
}

type service struct {
	client  Completer
	timeout time.Duration
	log     logger.Logger
	group   singleflight.Group
}

// NewService creates a generation service over client.
func NewService(client Completer, cfg *config.Config, log logger.Logger) Service {
	timeout := defaultTimeout
	if cfg != nil && cfg.LLM.Timeout > 0 {
		timeout = cfg.LLM.Timeout
	}
	return &service{
		client:  client,
		timeout: timeout,
		log:     log,
	}
}

// NewClient builds the upstream client from configuration.
func NewClient(cfg *config.Config) *llm.Client {
	return llm.NewClient(llm.Options{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
}

func (s *service) Start(ctx context.Context) error {
	if !s.client.IsConfigured() {
		s.log.Info("Generation service started without API key, serving stub drafts")
		return nil
	}
	s.log.Infof("Generation service started [timeout %s]", s.timeout)
	return nil
}

// Generate validates req and returns a draft. Upstream failures are not
// returned as errors; they produce a fallback result.
func (s *service) Generate(ctx context.Context, req Request) (*Result, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	variant := NormalizeVariant(req.Variant)

	if !s.client.IsConfigured() {
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeStub).Inc()
		return &Result{Draft: StubDraft(req.Prompt, variant), Fallback: true, Reason: llm.ErrNotConfigured.Error()}, nil
	}

	key := variant + "\x00" + req.Prompt
	v, _, shared := s.group.Do(key, func() (any, error) {
		return s.generate(ctx, req.Prompt, variant), nil
	})
	if shared {
		s.log.Debug("Generation shared with a concurrent identical request")
	}

	res := *v.(*Result)
	return &res, nil
}

func (s *service) generate(ctx context.Context, prompt, variant string) *Result {
	// identical requests share this call, so one caller leaving must not cancel it
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	user := fmt.Sprintf("%s\n\nStyle: %s\n\nRequest: %s", variants[variant], variant, prompt)

	start := time.Now()
	raw, err := s.client.CompleteJSON(ctx, systemPrompt, user)
	if err != nil {
		uerr := &UpstreamError{Err: err}
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			uerr.Raw = statusErr.Body
		}
		if errors.Is(err, context.DeadlineExceeded) {
			uerr.Raw = fmt.Sprintf("The generator did not answer within %s.", s.timeout)
		}
		s.log.Errorf("Generation failed after %s: %v", time.Since(start).Round(time.Millisecond), uerr)
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeFallback).Inc()
		res := Fallback(uerr)
		return &res
	}

	res := ParseDraft(raw)
	if res.Fallback {
		s.log.Errorf("Generation returned unusable content: %s", res.Reason)
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeFallback).Inc()
		return &res
	}

	s.log.With("variant", variant, "elapsed", time.Since(start).Round(time.Millisecond).String()).Info("Draft generated")
	metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return &res
}
