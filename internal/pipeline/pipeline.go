// Package pipeline orchestrates the processing of one signed print
// request: verify, claim the request id, compose the receipt, and
// write it to the printer under the device lock.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"idea-print/internal/auth"
	"idea-print/internal/dedupe"
	"idea-print/internal/escpos"
	"idea-print/internal/printer"
	"idea-print/internal/receipt"
)

// Status tags the outcome of a processed request.
type Status int

const (
	// StatusPrinted means the receipt was fully written to the device.
	StatusPrinted Status = iota
	// StatusDuplicate means the request id was already processed; no
	// render or device write happened. Reported to callers as success.
	StatusDuplicate
	// StatusAuthFailed means verification rejected the request before
	// any side effect.
	StatusAuthFailed
	// StatusPrintFailed means composing or writing the receipt failed.
	// The request id, if claimed, has been released for resubmission.
	StatusPrintFailed
)

// Outcome is the tagged result of Process, always carrying a
// human-readable message.
type Outcome struct {
	Status  Status
	Message string
}

// Success reports whether the caller should treat the outcome as a
// successful submission. Duplicates count: the work was already done.
func (o Outcome) Success() bool {
	return o.Status == StatusPrinted || o.Status == StatusDuplicate
}

// Request carries one inbound print request. Body holds the exact raw
// bytes the signature was computed over.
type Request struct {
	Body      []byte
	Signature string
	Timestamp string
	IdeaText  string
	IdeaID    string
	RequestID string
}

// Config assembles a Pipeline. Store may be nil to disable
// idempotency checking.
type Config struct {
	Secret        string
	WindowSeconds int
	Store         dedupe.Store
	Profile       escpos.Profile
	Transport     printer.Transport
	Logger        zerolog.Logger
}

// Pipeline processes print requests. Verification and idempotency
// checks run concurrently across requests; writes to the transport are
// serialized by the per-device lock.
type Pipeline struct {
	secret    string
	window    int
	store     dedupe.Store
	profile   escpos.Profile
	transport printer.Transport

	// printMu is the exclusion lock scoped to the transport: held
	// from before Open until after Close, including error paths.
	printMu sync.Mutex

	log zerolog.Logger
}

// New validates the configuration and builds a pipeline. Profile and
// transport problems are rejected here, never mid-render.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("pipeline: transport is required")
	}
	if err := cfg.Profile.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	window := cfg.WindowSeconds
	if window <= 0 {
		window = auth.DefaultWindowSeconds
	}
	return &Pipeline{
		secret:    cfg.Secret,
		window:    window,
		store:     cfg.Store,
		profile:   cfg.Profile,
		transport: cfg.Transport,
		log:       cfg.Logger,
	}, nil
}

// Process runs one request through the pipeline. It never returns an
// error: every path produces a tagged outcome.
func (p *Pipeline) Process(ctx context.Context, req Request) Outcome {
	if res := auth.Verify(req.Body, req.Signature, req.Timestamp, p.secret, p.window); !res.OK {
		p.log.Warn().Str("reason", res.Reason).Msg("authentication failed")
		return Outcome{Status: StatusAuthFailed, Message: res.Reason}
	}

	claimed := false
	if p.store != nil && req.RequestID != "" {
		isNew, err := p.store.CheckAndMark(ctx, req.RequestID)
		if err != nil {
			p.log.Error().Err(err).Str("request_id", req.RequestID).Msg("idempotency check failed")
			return Outcome{Status: StatusPrintFailed, Message: fmt.Sprintf("idempotency check failed: %v", err)}
		}
		if !isNew {
			p.log.Info().Str("request_id", req.RequestID).Msg("duplicate request")
			return Outcome{Status: StatusDuplicate, Message: "Duplicate request (already processed)"}
		}
		claimed = true
	}

	doc, err := receipt.Build(req.IdeaText, req.IdeaID, time.Now(), p.profile)
	if err != nil {
		p.releaseClaim(ctx, claimed, req.RequestID)
		p.log.Error().Err(err).Msg("receipt composition failed")
		return Outcome{Status: StatusPrintFailed, Message: fmt.Sprintf("receipt composition failed: %v", err)}
	}

	if err := p.print(doc); err != nil {
		p.releaseClaim(ctx, claimed, req.RequestID)
		p.log.Error().Err(err).Msg("print failed")
		return Outcome{Status: StatusPrintFailed, Message: fmt.Sprintf("print failed: %v", err)}
	}

	p.log.Info().
		Str("idea_id", req.IdeaID).
		Int("bytes", len(doc)).
		Msg("receipt printed")
	return Outcome{Status: StatusPrinted, Message: "Receipt printed successfully"}
}

// print writes the document to the transport under the device lock.
// The transport is closed on every exit path; a partial write is an
// error, never reported as success.
func (p *Pipeline) print(doc []byte) error {
	p.printMu.Lock()
	defer p.printMu.Unlock()

	if err := p.transport.Open(); err != nil {
		return err
	}
	defer p.transport.Close()

	n, err := p.transport.Write(doc)
	if err != nil {
		return err
	}
	if n != len(doc) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(doc))
	}
	return nil
}

// releaseClaim undoes a CheckAndMark claim after a failed attempt so
// the caller can safely resubmit the same request id.
func (p *Pipeline) releaseClaim(ctx context.Context, claimed bool, requestID string) {
	if !claimed {
		return
	}
	if err := p.store.Unmark(ctx, requestID); err != nil {
		p.log.Error().Err(err).Str("request_id", requestID).Msg("failed to release idempotency claim")
	}
}
