package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"festival-workers/internal/common/cache"
	apperrors "festival-workers/internal/common/errors"
	"festival-workers/internal/common/metrics"
	"festival-workers/internal/common/resilience"
	"festival-workers/internal/common/validation"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Recorder receives one event per answered call; source is "cache" or
// "provider".
type Recorder interface {
	RecordAICall(ctx context.Context, kind, source string)
}

// ObjectGenerator is what the domain pipelines depend on.
type ObjectGenerator interface {
	GenerateObject(ctx context.Context, req SchemaRequest, out any) error
}

// Gateway dispatches completion and structured calls to one provider,
// memoizing results in the response cache.
type Gateway struct {
	cfg      Config
	backend  backend
	cache    cache.Cache
	log      Logger
	breaker  *resilience.Breaker[*Response]
	retry    resilience.RetryPolicy
	recorder Recorder
	now      func() time.Time
}

type Option func(*Gateway)

// WithBreaker routes every provider attempt through b. Build b with
// NewBreaker so caller aborts are not counted against the provider.
func WithBreaker(b *resilience.Breaker[*Response]) Option {
	return func(g *Gateway) { g.breaker = b }
}

// NewBreaker returns a provider breaker that ignores CallerAborted errors.
func NewBreaker(s resilience.BreakerSettings) *resilience.Breaker[*Response] {
	s.IsExcluded = CallerAborted
	return resilience.NewBreaker[*Response](s)
}

// CallerAborted reports a cancellation or deadline of the caller's own
// context. Attempt timeouts are classified as LLM_TIMEOUT and do not match.
func CallerAborted(err error) bool {
	if _, ok := apperrors.CodeOf(err); ok {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// WithRetryPolicy replaces the default MaxRetries/500ms policy.
func WithRetryPolicy(p resilience.RetryPolicy) Option {
	return func(g *Gateway) { g.retry = p }
}

// WithClock replaces time.Now for request timing.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(g *Gateway) { g.recorder = r }
}

// New validates cfg and binds the provider. Unknown providers and missing
// credentials fail here with a configuration error. c may be nil to
// disable caching.
func New(ctx context.Context, cfg Config, c cache.Cache, log Logger, opts ...Option) (*Gateway, error) {
	p, err := ParseProvider(cfg.Provider)
	if err != nil {
		return nil, apperrors.NewConfigurationError(err.Error())
	}
	if missing := cfg.missingCredentials(p); len(missing) > 0 {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("provider %s requires: %s", p, strings.Join(missing, ", ")))
	}
	cfg.applyDefaults()

	b, err := newBackend(ctx, p, cfg)
	if err != nil {
		return nil, apperrors.NewConfigurationError(err.Error())
	}
	return newGateway(cfg, b, c, log, opts...), nil
}

func newGateway(cfg Config, b backend, c cache.Cache, log Logger, opts ...Option) *Gateway {
	cfg.applyDefaults()
	g := &Gateway{
		cfg:     cfg,
		backend: b,
		cache:   c,
		log:     log,
		retry: resilience.RetryPolicy{
			MaxAttempts: *cfg.MaxRetries + 1,
			BaseDelay:   DefaultRetryDelay,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.retry.OnRetry == nil {
		g.retry.OnRetry = func(name string, attempt int, delay time.Duration, err error) {
			g.log.Warn("AI provider call failed, retrying", map[string]interface{}{
				"operation":   name,
				"attempt":     attempt,
				"nextRetryIn": delay.String(),
				"error":       err.Error(),
			})
		}
	}
	return g
}

func (g *Gateway) Provider() Provider { return g.backend.provider }
func (g *Gateway) Model() string      { return g.backend.model }

// GenerateCompletion returns free-form text.
func (g *Gateway) GenerateCompletion(ctx context.Context, req Request) (*Response, error) {
	if err := validateFiles(req.Files); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	key := CacheKey(kindCompletion, g.backend.provider, g.backend.model, req, nil)

	if req.UseCache {
		if raw, ok := g.lookup(ctx, kindCompletion, key); ok {
			var cached Response
			if err := json.Unmarshal(raw, &cached); err == nil {
				g.record(ctx, kindCompletion, "cache")
				return &cached, nil
			}
			g.log.Warn("Discarding undecodable cache entry", map[string]interface{}{"key": key})
		}
	}

	resp, err := g.invoke(ctx, kindCompletion, g.newCall(req, "", nil), false)
	if err != nil {
		return nil, err
	}
	metrics.AIRequests.WithLabelValues(string(g.backend.provider), kindCompletion, "success").Inc()
	g.record(ctx, kindCompletion, "provider")

	if raw, err := json.Marshal(resp); err == nil {
		g.store(ctx, key, raw)
	}
	return resp, nil
}

// GenerateObject decodes a schema-valid answer into out. Non-conforming
// output is an AI_VALIDATION_FAILED error and is never retried.
func (g *Gateway) GenerateObject(ctx context.Context, req SchemaRequest, out any) error {
	return g.generateObject(ctx, req, out, false)
}

// GenerateStreamObject streams the answer internally and returns only the
// assembled, validated object. Chunks are counted, never surfaced.
func (g *Gateway) GenerateStreamObject(ctx context.Context, req SchemaRequest, out any) error {
	return g.generateObject(ctx, req, out, true)
}

// Object is GenerateObject with a typed result.
func Object[T any](ctx context.Context, g ObjectGenerator, req SchemaRequest) (T, error) {
	var out T
	err := g.GenerateObject(ctx, req, &out)
	return out, err
}

func (g *Gateway) generateObject(ctx context.Context, req SchemaRequest, out any, streaming bool) error {
	if err := validateFiles(req.Files); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	schema, err := validation.Compile(req.Schema)
	if err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("schema %q: %v", req.Name, err))
	}
	key := CacheKey(kindObject, g.backend.provider, g.backend.model, req.Request, schema.Raw())

	if req.UseCache {
		if raw, ok := g.lookup(ctx, kindObject, key); ok {
			if err := decodeInto(raw, out); err == nil {
				g.record(ctx, kindObject, "cache")
				return nil
			}
			g.log.Warn("Discarding undecodable cache entry", map[string]interface{}{"key": key})
		}
	}

	resp, err := g.invoke(ctx, kindObject, g.newCall(req.Request, req.Name, schema.Raw()), streaming)
	if err != nil {
		return err
	}

	content := []byte(stripCodeFences(resp.Content))
	result := schema.Validate(content)
	if !result.Valid {
		metrics.AIRequests.WithLabelValues(string(g.backend.provider), kindObject, "validation_failed").Inc()
		g.log.Warn("AI response failed schema validation", map[string]interface{}{
			"schema": req.Name,
			"errors": result.GetErrorMessages(),
		})
		return apperrors.NewAIValidationError(req.Name, result.GetErrorMessages())
	}
	if err := decodeInto(content, out); err != nil {
		return apperrors.NewAIValidationError(req.Name, []string{err.Error()})
	}

	metrics.AIRequests.WithLabelValues(string(g.backend.provider), kindObject, "success").Inc()
	g.record(ctx, kindObject, "provider")

	if canonical, err := validation.Canonicalize(content); err == nil {
		g.store(ctx, key, canonical)
	}
	return nil
}

// decodeInto leaves out untouched unless raw decodes completely.
func decodeInto(raw []byte, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &json.InvalidUnmarshalError{Type: reflect.TypeOf(out)}
	}
	fresh := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		return err
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

func (g *Gateway) newCall(req Request, schemaName string, schema json.RawMessage) *call {
	return &call{
		prompt:       req.Prompt,
		systemPrompt: req.SystemPrompt,
		files:        req.Files,
		schemaName:   schemaName,
		schema:       schema,
		maxTokens:    g.cfg.MaxTokens,
		temperature:  *g.cfg.Temperature,
	}
}

// invoke runs the provider call under the per-attempt timeout, breaker and
// retry policy.
func (g *Gateway) invoke(ctx context.Context, kind string, c *call, streaming bool) (*Response, error) {
	provider := string(g.backend.provider)

	attempt := func(ctx context.Context) (*Response, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()

		started := g.now()
		var (
			resp *Response
			err  error
		)
		if streaming {
			resp, err = g.backend.stream(attemptCtx, c, func() {
				metrics.AIStreamChunks.WithLabelValues(provider).Inc()
			})
		} else {
			resp, err = g.backend.complete(attemptCtx, c)
		}
		metrics.AIRequestDuration.WithLabelValues(provider, kind).Observe(g.now().Sub(started).Seconds())

		if err != nil {
			return nil, g.classify(ctx, err)
		}
		metrics.AITokens.WithLabelValues(provider, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.AITokens.WithLabelValues(provider, "completion").Add(float64(resp.Usage.CompletionTokens))
		return resp, nil
	}

	guarded := attempt
	if g.breaker != nil {
		guarded = func(ctx context.Context) (*Response, error) {
			resp, err := g.breaker.Execute(ctx, attempt)
			if errors.Is(err, resilience.ErrCircuitOpen) {
				return nil, apperrors.NewCircuitOpenError(g.breaker.Name(), err)
			}
			return resp, err
		}
	}

	resp, err := resilience.Retry(ctx, g.retry, provider+" "+kind, guarded, apperrors.IsRetryable)
	if err != nil {
		metrics.AIRequests.WithLabelValues(provider, kind, "error").Inc()
		g.log.Error("AI provider call failed", map[string]interface{}{
			"provider": provider,
			"model":    g.backend.model,
			"kind":     kind,
			"error":    err.Error(),
		})
		return nil, err
	}
	return resp, nil
}

// classify maps a raw SDK error onto the error taxonomy. A deadline hit by
// the per-attempt timeout is LLM_TIMEOUT; cancellation of the caller's
// context is returned as is, so it is not retried.
func (g *Gateway) classify(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	provider := string(g.backend.provider)
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewLLMTimeoutError(provider, err)
	}
	return apperrors.NewProviderCallError(provider, err)
}

// lookup degrades any cache error to a miss.
func (g *Gateway) lookup(ctx context.Context, kind, key string) ([]byte, bool) {
	if g.cache == nil {
		return nil, false
	}
	raw, ok, err := g.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
		g.log.Warn("Cache read failed, treating as miss", map[string]interface{}{"key": key, "error": err.Error()})
		return nil, false
	case !ok:
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		return nil, false
	default:
		metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
		g.log.Debug("AI cache hit", map[string]interface{}{"key": key})
		return raw, true
	}
}

func (g *Gateway) store(ctx context.Context, key string, value []byte) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Set(ctx, key, value, g.cfg.CacheTTL); err != nil {
		g.log.Warn("Cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (g *Gateway) record(ctx context.Context, kind, source string) {
	if g.recorder != nil {
		g.recorder.RecordAICall(ctx, kind, source)
	}
}

// InvalidateCache drops every cached answer of this gateway's kinds.
func (g *Gateway) InvalidateCache(ctx context.Context) (int, error) {
	if g.cache == nil {
		return 0, nil
	}
	return g.cache.InvalidatePrefix(ctx, cacheKeyPrefix)
}
