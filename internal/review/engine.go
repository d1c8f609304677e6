package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/lamp/internal/config"
	"github.com/dshills/lamp/internal/history"
	"github.com/dshills/lamp/internal/ingest"
	"github.com/dshills/lamp/internal/providers"
	"github.com/dshills/lamp/internal/redact"
)

// ErrNoFiles is returned by Run when every upload was skipped.
var ErrNoFiles = errors.New("no reviewable files: every upload was skipped")

// memberLimitFactor bounds how far a single archive member may inflate
// relative to the per-file limit before it is skipped. Only the part inside
// the per-file limit is kept in memory.
const memberLimitFactor = 4

// Recorder persists request metadata. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Engine runs the review pipeline. It holds configuration and collaborators
// only; every call builds its own records and result.
type Engine struct {
	cfg     config.Config
	client  providers.Submitter
	history Recorder
	log     *zap.Logger
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithHistory records every submission attempt to r.
func WithHistory(r Recorder) Option {
	return func(e *Engine) { e.history = r }
}

// NewEngine creates an Engine. client may be nil for prepare-only use.
func NewEngine(cfg config.Config, client providers.Submitter, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		client: client,
		log:    zap.NewNop(),
		newID:  func() string { return uuid.NewString()[:8] },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request is one review submission.
type Request struct {
	Uploads []ingest.Upload
	// APIKey falls back to the configured key when empty.
	APIKey string
	// Model and Mode fall back to the configured values when empty.
	Model string
	Mode  Mode
	// Force submits even when the token estimate exceeds the limit.
	Force bool
}

// Prepared is everything computed before the API call.
type Prepared struct {
	RequestID string        `json:"requestId"`
	Model     string        `json:"model"`
	Mode      Mode          `json:"mode"`
	Ingest    ingest.Result `json:"ingest"`
	Payload   Payload       `json:"payload"`
	Valid     bool          `json:"valid"`
	// Message explains a failed validation.
	Message string `json:"message,omitempty"`
	// Warning is the advisory near-limit notice.
	Warning  string `json:"warning,omitempty"`
	Redacted int    `json:"redacted,omitempty"`
}

// Timing contains performance metrics.
type Timing struct {
	PrepareMs int64 `json:"prepareMs"`
	LLMMs     int64 `json:"llmMs"`
	TotalMs   int64 `json:"totalMs"`
}

// Outcome is a completed review.
type Outcome struct {
	Prepared
	Completion providers.Completion `json:"completion"`
	Result     Result               `json:"result"`
	Timing     Timing               `json:"timing"`
}

// Prepare loads, guards and assembles the prompt, then validates it. It makes
// no network calls.
func (e *Engine) Prepare(req Request) (*Prepared, error) {
	mode := req.Mode
	if mode == "" {
		m, err := ParseMode(e.cfg.Mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}
	model := req.Model
	if model == "" {
		model = e.cfg.Model
	}

	p := &Prepared{
		RequestID: e.newID(),
		Model:     model,
		Mode:      mode,
	}
	log := e.log.With(zap.String("request_id", p.RequestID))

	loaded := ingest.Load(req.Uploads, ingest.LoadOptions{
		Extensions:     e.cfg.Extensions,
		MaxMemberBytes: memberLimitFactor * int64(e.cfg.MaxFileBytes),
		MaxFileBytes:   e.cfg.MaxFileBytes.Int(),
		MaxTotalBytes:  e.cfg.MaxTotalBytes.Int(),
	})
	if e.cfg.Privacy.RedactSecrets {
		loaded.Records, p.Redacted = redact.Records(loaded.Records, e.cfg.Privacy.RedactPaths)
	}
	p.Ingest = ingest.Guard(loaded, ingest.Limits{
		MaxFileBytes:  e.cfg.MaxFileBytes.Int(),
		MaxTotalBytes: e.cfg.MaxTotalBytes.Int(),
	})

	for _, s := range p.Ingest.Skipped {
		log.Info("file skipped", zap.String("file", s.Name), zap.String("reason", s.Reason))
	}
	for _, rec := range p.Ingest.Records {
		if rec.Truncated {
			log.Info("file truncated",
				zap.String("file", rec.Name),
				zap.Int("original_lines", rec.TruncatedAt),
				zap.Int("retained_lines", rec.RetainedLines),
				zap.Int("original_bytes", rec.SizeBytes))
		}
	}

	p.Payload = NewPayload(BuildPrompt(p.Ingest, PromptOptions{Mode: mode, Model: model}))
	p.Valid, p.Message = Validate(p.Payload.Text(), e.cfg.MaxTokens)
	if p.Valid && NearLimit(p.Payload.EstimatedTokens(), e.cfg.MaxTokens) {
		p.Warning = NearLimitWarning(p.Payload.EstimatedTokens(), e.cfg.MaxTokens)
	}

	log.Debug("prompt assembled",
		zap.String("summary", ProcessingSummary(p.Ingest)),
		zap.Strings("files", p.Ingest.Names()),
		zap.Int("estimated_tokens", p.Payload.EstimatedTokens()),
		zap.Int("prompt_bytes", p.Payload.Bytes()),
		zap.Bool("valid", p.Valid))
	return p, nil
}

// Run prepares the prompt, submits it and parses the response. A rejected
// payload returns *PayloadTooLargeError unless req.Force is set; API failures
// are returned wrapped around the classified provider error.
func (e *Engine) Run(ctx context.Context, req Request) (*Outcome, error) {
	start := time.Now()

	p, err := e.Prepare(req)
	if err != nil {
		return nil, err
	}
	log := e.log.With(zap.String("request_id", p.RequestID), zap.String("model", p.Model))
	if len(p.Ingest.Records) == 0 {
		return nil, ErrNoFiles
	}
	if e.client == nil {
		return nil, errors.New("review engine has no API client")
	}

	if !p.Valid {
		if !req.Force {
			log.Warn("payload rejected", zap.String("reason", p.Message))
			e.record(ctx, p, history.OutcomeRejected, "payload_too_large", start)
			return nil, &PayloadTooLargeError{Estimated: p.Payload.EstimatedTokens(), Limit: e.cfg.MaxTokens}
		}
		log.Warn("submitting over the advisory token limit", zap.String("reason", p.Message))
	}
	if p.Warning != "" {
		log.Warn(p.Warning)
	}
	prepareMs := time.Since(start).Milliseconds()

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = e.cfg.APIKey
	}

	llmStart := time.Now()
	comp, err := e.client.Submit(ctx, p.Payload.Text(), apiKey, p.Model)
	if err != nil {
		log.Error("review failed", zap.String("kind", providers.Kind(err)), zap.Error(err))
		e.record(ctx, p, history.OutcomeFailed, providers.Kind(err), start)
		return nil, fmt.Errorf("submitting review: %w", err)
	}
	llmMs := time.Since(llmStart).Milliseconds()

	out := &Outcome{
		Prepared:   *p,
		Completion: comp,
		Result:     NewResult(comp.Text, comp.FinishReason),
		Timing: Timing{
			PrepareMs: prepareMs,
			LLMMs:     llmMs,
			TotalMs:   time.Since(start).Milliseconds(),
		},
	}
	if out.Result.PossiblyTruncated {
		log.Warn("response may be truncated", zap.String("note", out.Result.TruncationNote))
	}
	if out.Result.SummaryText == "" {
		log.Info("response has no executive summary section")
	}
	log.Info("review complete",
		zap.Int("response_bytes", len(comp.Text)),
		zap.Int64("total_ms", out.Timing.TotalMs))

	e.record(ctx, p, history.OutcomeSuccess, "", start)
	return out, nil
}

func (e *Engine) record(ctx context.Context, p *Prepared, outcome, kind string, start time.Time) {
	if e.history == nil {
		return
	}
	entry := history.Entry{
		RequestID:       p.RequestID,
		CreatedAt:       start,
		Model:           p.Model,
		Mode:            string(p.Mode),
		EstimatedTokens: p.Payload.EstimatedTokens(),
		FilesProcessed:  len(p.Ingest.Records),
		FilesSkipped:    len(p.Ingest.Skipped),
		FilesTruncated:  p.Ingest.TruncatedCount(),
		Outcome:         outcome,
		ErrorKind:       kind,
		DurationMs:      time.Since(start).Milliseconds(),
	}
	if err := e.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		e.log.Warn("recording history failed", zap.String("request_id", p.RequestID), zap.Error(err))
	}
}
