// Package recorder orchestrates one recording session: it consumes the
// capture layer's interaction feed on a single goroutine, resolves
// each event into a recorded step via the locator extractor and page
// classifier, and owns the session's step list exclusively. The engine
// is single-use: Idle, Recording, then terminally Stopped.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/classify"
	"github.com/xkilldash9x/scribe-cli/internal/config"
	"github.com/xkilldash9x/scribe-cli/internal/locator"
	"github.com/xkilldash9x/scribe-cli/internal/platform"
)

var (
	// ErrNotIdle is returned by Start on any engine that already ran;
	// a new session needs a new engine.
	ErrNotIdle = errors.New("recorder: engine already started")
	// ErrNotRecording is returned by Stop unless the engine is
	// actively recording.
	ErrNotRecording = errors.New("recorder: engine is not recording")
)

// EventSource feeds interaction events into the engine. The capture
// layer satisfies it.
type EventSource interface {
	Attach(ctx context.Context) error
	Detach(ctx context.Context)
	Events() <-chan schemas.InteractionEvent
	Dropped() uint64
}

// DOMSnapshotter captures the page's outer HTML; used once, at stop,
// so locators can be verified offline later.
type DOMSnapshotter interface {
	FinalDOM(ctx context.Context) (string, error)
}

// Renderer regenerates preview source from the steps recorded so far.
// It must be pure; the engine throttles how often it runs.
type Renderer func(steps []schemas.RecordedStep) (string, error)

// Options collects the engine's collaborators. Source, Reader,
// Classifier, Extractor, and Capabilities are required; Snapshotter
// and Render are optional.
type Options struct {
	Source       EventSource
	Reader       classify.PageReader
	Classifier   *classify.Classifier
	Extractor    *locator.Extractor
	Capabilities platform.Capabilities
	Snapshotter  DOMSnapshotter
	Render       Renderer
}

// Engine is the recording state machine. It is the sole writer of its
// session's step list; every append happens on the consumer goroutine.
type Engine struct {
	cfg        config.RecorderConfig
	source     EventSource
	reader     classify.PageReader
	classifier *classify.Classifier
	extractor  *locator.Extractor
	caps       platform.Capabilities
	snapshot   DOMSnapshotter
	render     Renderer
	logger     *zap.Logger

	resolve *resolver
	limiter *rate.Limiter

	mu      sync.Mutex
	state   schemas.SessionState
	session *schemas.Session
	ctx     context.Context
	order   int

	active       atomic.Bool
	stopping     chan struct{}
	consumerDone chan struct{}

	stepCh chan schemas.RecordedStep
	codeCh chan string
}

// NewEngine validates the wiring and returns an idle engine.
func NewEngine(cfg config.RecorderConfig, opts Options, logger *zap.Logger) (*Engine, error) {
	switch {
	case opts.Source == nil:
		return nil, fmt.Errorf("recorder: event source is required")
	case opts.Reader == nil:
		return nil, fmt.Errorf("recorder: page reader is required")
	case opts.Classifier == nil:
		return nil, fmt.Errorf("recorder: classifier is required")
	case opts.Extractor == nil:
		return nil, fmt.Errorf("recorder: locator extractor is required")
	case opts.Capabilities == nil:
		return nil, fmt.Errorf("recorder: platform capabilities are required")
	}

	interval := cfg.PreviewInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return &Engine{
		cfg:        cfg,
		source:     opts.Source,
		reader:     opts.Reader,
		classifier: opts.Classifier,
		extractor:  opts.Extractor,
		caps:       opts.Capabilities,
		snapshot:   opts.Snapshotter,
		render:     opts.Render,
		logger:     logger.Named("recorder"),
		resolve: &resolver{
			profile:       opts.Capabilities.Profile(),
			navLeftEdgePx: float64(cfg.NavLeftEdgePx),
		},
		limiter:      rate.NewLimiter(rate.Every(interval), 1),
		state:        schemas.SessionIdle,
		stopping:     make(chan struct{}),
		consumerDone: make(chan struct{}),
		stepCh:       make(chan schemas.RecordedStep, 64),
		codeCh:       make(chan string, 1),
	}, nil
}

// StepStream is the append-only live preview of recorded steps.
// Slow consumers lose preview entries, never recorded ones.
func (e *Engine) StepStream() <-chan schemas.RecordedStep { return e.stepCh }

// CodePreview carries throttled regenerations of the test source.
// Only the latest preview is retained.
func (e *Engine) CodePreview() <-chan string { return e.codeCh }

// Start captures the initial page identity, attaches the capture
// layer, and begins consuming events. The returned session is owned by
// the engine until Stop returns it frozen.
func (e *Engine) Start(ctx context.Context, targetURL string) (*schemas.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != schemas.SessionIdle {
		return nil, ErrNotIdle
	}

	session := &schemas.Session{
		ID:        uuid.NewString(),
		TargetURL: targetURL,
		State:     schemas.SessionRecording,
		StartedAt: time.Now(),
		Pages:     make(map[string]schemas.PageIdentity),
	}
	if identity := e.classifier.ExtractIdentity(ctx, e.reader); identity != nil {
		session.CurrentPage = identity
		session.Pages[identity.PageID] = *identity
	}

	if err := e.source.Attach(ctx); err != nil {
		return nil, fmt.Errorf("recorder: attaching capture: %w", err)
	}

	e.session = session
	e.ctx = ctx
	e.state = schemas.SessionRecording
	e.active.Store(true)
	go e.consume()

	e.logger.Info("Recording started.",
		zap.String("session_id", session.ID),
		zap.String("target_url", targetURL))
	return session, nil
}

// Stop detaches capture (flushing any half-typed value into the feed),
// drains what is already buffered, then freezes and returns the
// session. Stop is the hard cancellation point: once it returns, no
// step will ever be appended again.
func (e *Engine) Stop(ctx context.Context) (*schemas.Session, error) {
	e.mu.Lock()
	if e.state != schemas.SessionRecording {
		e.mu.Unlock()
		return nil, ErrNotRecording
	}
	e.state = schemas.SessionStopped
	e.mu.Unlock()

	e.source.Detach(ctx)
	close(e.stopping)
	<-e.consumerDone
	e.active.Store(false)

	session := e.session
	session.State = schemas.SessionStopped
	session.StoppedAt = time.Now()
	session.DroppedEvents = int(e.source.Dropped())

	if e.snapshot != nil {
		if dom, err := e.snapshot.FinalDOM(ctx); err != nil {
			e.logger.Warn("Final DOM snapshot failed; offline verification will be unavailable.", zap.Error(err))
		} else {
			session.FinalDOM = dom
		}
	}

	e.logger.Info("Recording stopped.",
		zap.String("session_id", session.ID),
		zap.Int("steps", len(session.Steps)),
		zap.Int("dropped_events", session.DroppedEvents))
	return session, nil
}

// consume is the single consumer goroutine: all step appends happen
// here, so the step list needs no lock.
func (e *Engine) consume() {
	defer close(e.consumerDone)
	for {
		select {
		case ev := <-e.source.Events():
			e.safeDispatch(ev)
		case <-e.stopping:
			for {
				select {
				case ev := <-e.source.Events():
					e.safeDispatch(ev)
				default:
					return
				}
			}
		}
	}
}

// safeDispatch isolates each event: a failure extracting one step must
// skip that event only, never end the session.
func (e *Engine) safeDispatch(ev schemas.InteractionEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Recovered from event dispatch panic; event skipped.", zap.Any("panic", r))
		}
	}()
	e.dispatch(ev)
}

func (e *Engine) dispatch(ev schemas.InteractionEvent) {
	switch ev.Kind {
	case schemas.EventNavigate:
		e.onNavigate(ev)
	case schemas.EventClick:
		e.onClick(ev)
	case schemas.EventInput:
		e.onFill(ev)
	case schemas.EventChange:
		e.onSelect(ev)
	default:
		e.logger.Debug("Ignoring unknown event kind.", zap.String("kind", string(ev.Kind)))
	}
}

// onNavigate re-runs identity extraction so every subsequent step is
// tagged with the new page, then records the navigation itself.
func (e *Engine) onNavigate(ev schemas.InteractionEvent) {
	if ev.URL == "" || ev.URL == "about:blank" {
		return
	}

	if identity := e.classifier.ExtractIdentity(e.ctx, e.reader); identity != nil {
		e.session.CurrentPage = identity
		e.session.Pages[identity.PageID] = *identity
	}

	description := "Navigate to " + ev.URL
	if page := e.session.CurrentPage; page != nil && page.Caption != "" {
		description = "Navigate to " + page.Caption
	}

	e.appendStep(schemas.RecordedStep{
		Action:      schemas.ActionNavigate,
		Description: description,
		PageURL:     ev.URL,
		Timestamp:   ev.Timestamp,
	})
}

func (e *Engine) onClick(ev schemas.InteractionEvent) {
	resolved := e.resolve.resolveClick(ev.Element)
	if !e.resolve.keepClick(resolved) {
		e.logger.Debug("Skipping click with no usable semantics.")
		return
	}

	loc := e.extractor.Extract(resolved)
	label := snapLabel(resolved)
	if label == "" {
		label = loc.Value()
	}

	description := fmt.Sprintf("Click '%s'", label)
	if resolved.ExpandNav {
		description = "Expand the navigation pane"
		if label == "" {
			label = "expand navigation"
		}
	}

	e.appendStep(schemas.RecordedStep{
		Action:      schemas.ActionClick,
		Description: description,
		Locator:     &loc,
		Label:       label,
		FieldName:   schemas.CamelIdent(label),
		MethodName:  "click" + schemas.PascalIdent(label),
		ControlKind: controlKind(resolved),
		Timestamp:   ev.Timestamp,
	})
}

func (e *Engine) onFill(ev schemas.InteractionEvent) {
	if ev.Element == nil {
		return
	}
	loc := e.extractor.Extract(ev.Element)
	label := fillLabel(ev.Element)
	if label == "" {
		label = loc.Value()
	}

	e.appendStep(schemas.RecordedStep{
		Action:      schemas.ActionFill,
		Description: fmt.Sprintf("Fill '%s'", label),
		Locator:     &loc,
		Value:       ev.Value,
		Commit:      ev.Commit,
		Label:       label,
		FieldName:   schemas.CamelIdent(label),
		MethodName:  "fill" + schemas.PascalIdent(label),
		ControlKind: controlKind(ev.Element),
		Timestamp:   ev.Timestamp,
	})
}

func (e *Engine) onSelect(ev schemas.InteractionEvent) {
	if ev.Element == nil {
		return
	}
	loc := e.extractor.Extract(ev.Element)
	label := fillLabel(ev.Element)
	if label == "" {
		label = loc.Value()
	}

	e.appendStep(schemas.RecordedStep{
		Action:      schemas.ActionSelect,
		Description: fmt.Sprintf("Select '%s'", label),
		Locator:     &loc,
		Value:       ev.Value,
		Label:       label,
		FieldName:   schemas.CamelIdent(label),
		MethodName:  "select" + schemas.PascalIdent(label),
		ControlKind: controlKind(ev.Element),
		Timestamp:   ev.Timestamp,
	})
}

// appendStep stamps the page context and a strictly increasing order,
// appends, and feeds the preview streams. The active gate discards
// events still in flight after Stop finished.
func (e *Engine) appendStep(step schemas.RecordedStep) {
	if !e.active.Load() {
		return
	}

	e.order++
	step.Order = e.order
	step.PageID = "Unknown"
	if page := e.session.CurrentPage; page != nil {
		step.PageID = page.PageID
		step.MenuRef = page.MenuRef
		step.CompanyRef = page.CompanyRef
		step.PageType = page.Type
		if step.PageURL == "" {
			step.PageURL = page.URL
		}
	}
	if step.Timestamp.IsZero() {
		step.Timestamp = time.Now()
	}

	e.session.Steps = append(e.session.Steps, step)

	select {
	case e.stepCh <- step:
	default:
	}

	if e.render != nil && e.limiter.Allow() {
		steps := make([]schemas.RecordedStep, len(e.session.Steps))
		copy(steps, e.session.Steps)
		code, err := e.render(steps)
		if err != nil {
			e.logger.Debug("Preview render failed.", zap.Error(err))
			return
		}
		select {
		case e.codeCh <- code:
		default:
			select {
			case <-e.codeCh:
			default:
			}
			select {
			case e.codeCh <- code:
			default:
			}
		}
	}
}
