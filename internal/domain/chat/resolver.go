package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/shared/id"
)

// DefaultTimeout bounds the outbound call when no timeout is configured.
const DefaultTimeout = 20 * time.Second

var errNoProvider = errors.New("no generator configured")

// Resolver turns a Request into a Response, preferring the live generator
// and falling back to the canned table on any failure. It holds no mutable
// state and may be shared between goroutines.
type Resolver struct {
	generator  Generator
	table      *Table
	classifier *Classifier
	timeout    time.Duration
	logger     *zap.Logger
	recorder   Recorder
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout bounds each outbound call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithClassifier replaces the default keyword classifier.
func WithClassifier(c *Classifier) Option {
	return func(r *Resolver) {
		if c != nil {
			r.classifier = c
		}
	}
}

// NewResolver creates a resolver. gen may be nil, in which case every
// request is answered from table.
func NewResolver(gen Generator, table *Table, opts ...Option) *Resolver {
	r := &Resolver{
		generator:  gen,
		table:      table,
		classifier: DefaultClassifier(),
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Provider returns the generator's name, or "none".
func (r *Resolver) Provider() string {
	if r.generator == nil {
		return "none"
	}
	return r.generator.Name()
}

// Table returns the fallback table in use.
func (r *Resolver) Table() *Table {
	return r.table
}

// Resolve never fails: every path ends in a Response with a non-empty
// Message.
func (r *Resolver) Resolve(ctx context.Context, req Request) Response {
	lang := NormalizeLanguage(req.Language)

	if strings.TrimSpace(req.Message) == "" {
		return r.fallback(ctx, TopicGeneral, lang, ErrEmptyInput)
	}

	topic := r.classifier.Classify(req.Message)

	text, err := r.generate(ctx, req.Message)
	if err != nil {
		return r.fallback(ctx, topic, lang, err)
	}

	r.recorder.ObserveResolution(string(SourceLive), string(topic), "")
	return Response{
		Message:    text,
		Confidence: LiveConfidence,
		Topic:      topic,
		Source:     SourceLive,
		Language:   lang,
	}
}

// generate makes the single outbound call. A panic in the generator is
// converted into an invalid_response failure.
func (r *Resolver) generate(ctx context.Context, message string) (text string, err error) {
	if r.generator == nil {
		return "", NewProviderError(ReasonUnavailable, errNoProvider)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			text, err = "", NewProviderError(ReasonInvalidResponse, fmt.Errorf("generator panic: %v", p))
		}
		outcome := "success"
		if err != nil {
			outcome = string(ReasonOf(err))
		}
		r.recorder.ObserveProvider(r.generator.Name(), outcome, time.Since(start))
	}()

	text, err = r.generator.Generate(ctx, message)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", NewProviderError(ReasonInvalidResponse, errors.New("empty text in provider response"))
	}
	return text, nil
}

func (r *Resolver) fallback(ctx context.Context, topic Topic, lang string, cause error) Response {
	reason := ReasonOf(cause)
	if errors.Is(cause, ErrEmptyInput) {
		reason = ReasonEmptyInput
	}

	fields := []zap.Field{
		zap.String("request_id", id.RequestFromContext(ctx).String()),
		zap.String("provider", r.Provider()),
		zap.String("reason", string(reason)),
		zap.String("topic", string(topic)),
		zap.String("language", lang),
	}
	if reason == ReasonEmptyInput {
		r.logger.Info("Empty chat message, answering from fallback table", fields...)
	} else {
		r.logger.Warn("Chat provider failed, answering from fallback table", append(fields, zap.Error(cause))...)
	}
	r.recorder.ObserveResolution(string(SourceFallback), string(topic), string(reason))

	return Response{
		Message:    r.table.Lookup(topic, lang),
		Confidence: FallbackConfidence,
		Topic:      topic,
		Source:     SourceFallback,
		Language:   lang,
		Reason:     reason,
	}
}
