// Package capture owns the raw interaction feed: it injects the
// recorder script into every document of the session, receives one
// JSON payload per in-page event over a CDP binding, watches frame
// navigations, debounces keystrokes, and hands normalized interaction
// events to the recording engine over a bounded channel. Callbacks
// never block; when the channel is full events are dropped and
// counted.
package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/config"
	"github.com/xkilldash9x/scribe-cli/internal/platform"
)

// wireEvent is the payload shape the recorder script emits.
type wireEvent struct {
	Kind    string                   `json:"kind"`
	Element *schemas.ElementSnapshot `json:"element"`
	Value   string                   `json:"value"`
	URL     string                   `json:"url"`
	Commit  bool                     `json:"commit"`
	TS      float64                  `json:"ts"`
}

// Capturer attaches the recorder to a chromedp session and emits
// interaction events.
type Capturer struct {
	cfg     config.RecorderConfig
	profile *platform.Profile
	logger  *zap.Logger

	events  chan schemas.InteractionEvent
	deb     *debouncer
	dropped atomic.Uint64
	active  atomic.Bool

	mu       sync.Mutex
	attached bool
	cancel   context.CancelFunc
	scriptID page.ScriptIdentifier

	mainFrame atomic.Value // cdp.FrameID
}

// New builds a Capturer for one session. Events are delivered on the
// channel returned by Events until Detach.
func New(profile *platform.Profile, cfg config.RecorderConfig, logger *zap.Logger) *Capturer {
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = 256
	}
	c := &Capturer{
		cfg:     cfg,
		profile: profile,
		logger:  logger.Named("capture"),
		events:  make(chan schemas.InteractionEvent, buffer),
	}
	c.deb = newDebouncer(cfg.InputDebounce, c.send)
	return c
}

// Events is the interaction feed. The channel is never closed; the
// consumer decides when to stop reading.
func (c *Capturer) Events() <-chan schemas.InteractionEvent {
	return c.events
}

// Dropped reports how many events were discarded under backpressure.
func (c *Capturer) Dropped() uint64 {
	return c.dropped.Load()
}

// Attach registers the CDP binding, installs the recorder script for
// every future document, evaluates it in the current one, and starts
// routing events. sessionCtx must be a chromedp target context and
// stays the listener's lifetime.
func (c *Capturer) Attach(sessionCtx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attached {
		return fmt.Errorf("capture already attached")
	}

	script, err := BuildScript(c.profile, c.cfg)
	if err != nil {
		return err
	}

	listenCtx, cancel := context.WithCancel(sessionCtx)
	err = chromedp.Run(sessionCtx,
		runtime.Enable(),
		page.Enable(),
		runtime.AddBinding(BindingName),
		chromedp.ActionFunc(func(ctx context.Context) error {
			id, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			if err != nil {
				return fmt.Errorf("installing recorder script: %w", err)
			}
			c.scriptID = id
			return nil
		}),
		// The persistent script only covers future documents; the page
		// the user is already looking at needs a direct evaluation.
		chromedp.Evaluate(script, nil),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("attaching capture listeners: %w", err)
	}

	chromedp.ListenTarget(listenCtx, c.route)
	c.cancel = cancel
	c.attached = true
	c.active.Store(true)
	c.logger.Debug("Capture attached.", zap.Int("event_buffer", cap(c.events)))
	return nil
}

// Detach flushes pending input, stops routing, and removes the script
// and binding from the session. Cleanup failures are logged, not
// returned: the session may already be gone.
func (c *Capturer) Detach(ctx context.Context) {
	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return
	}
	c.attached = false
	cancel := c.cancel
	scriptID := c.scriptID
	c.mu.Unlock()

	// Flush while sends still pass, then close the gate.
	c.deb.Stop()
	c.active.Store(false)
	cancel()

	err := chromedp.Run(ctx,
		page.RemoveScriptToEvaluateOnNewDocument(scriptID),
		runtime.RemoveBinding(BindingName),
	)
	if err != nil {
		c.logger.Debug("Capture detach cleanup failed.", zap.Error(err))
	}
}

// route dispatches raw CDP events. Runs on chromedp's listener
// goroutine, so nothing here may block.
func (c *Capturer) route(ev interface{}) {
	switch e := ev.(type) {
	case *runtime.EventBindingCalled:
		if e.Name == BindingName {
			c.handlePayload(e.Payload)
		}
	case *page.EventFrameNavigated:
		if e.Frame == nil {
			return
		}
		if e.Frame.ParentID == "" {
			c.mainFrame.Store(e.Frame.ID)
			c.emitNavigate(e.Frame.URL)
		}
	case *page.EventNavigatedWithinDocument:
		main, _ := c.mainFrame.Load().(cdp.FrameID)
		if main == "" || e.FrameID == main {
			c.emitNavigate(e.URL)
		}
	}
}

// handlePayload parses one recorder emission. Malformed payloads are
// logged and skipped; a recording never dies on one bad event.
func (c *Capturer) handlePayload(payload string) {
	var wire wireEvent
	if err := json.UnmarshalFromString(payload, &wire); err != nil {
		c.logger.Debug("Discarding malformed capture payload.", zap.Error(err))
		return
	}

	ev := schemas.InteractionEvent{
		Kind:      schemas.EventKind(wire.Kind),
		Element:   wire.Element,
		Value:     wire.Value,
		URL:       wire.URL,
		Commit:    wire.Commit,
		Timestamp: wireTime(wire.TS),
	}

	switch ev.Kind {
	case schemas.EventClick:
		if ev.Element == nil {
			return
		}
		// Half-typed values are reported before the click that follows
		// them.
		c.deb.Flush()
		c.send(ev)
	case schemas.EventInput:
		if ev.Element == nil {
			return
		}
		c.deb.Observe(ev)
	case schemas.EventChange:
		if ev.Element == nil {
			return
		}
		c.deb.Flush()
		c.send(ev)
	default:
		c.logger.Debug("Unknown capture event kind.", zap.String("kind", wire.Kind))
	}
}

func (c *Capturer) emitNavigate(url string) {
	if url == "" {
		return
	}
	c.deb.Flush()
	c.send(schemas.InteractionEvent{
		Kind:      schemas.EventNavigate,
		URL:       url,
		Timestamp: time.Now(),
	})
}

// send delivers one event without blocking. After Detach the gate is
// closed and stragglers from already-detached listeners vanish here.
func (c *Capturer) send(ev schemas.InteractionEvent) {
	if !c.active.Load() {
		return
	}
	select {
	case c.events <- ev:
	default:
		n := c.dropped.Add(1)
		c.logger.Warn("Capture event dropped under backpressure.", zap.Uint64("total_dropped", n))
	}
}

func wireTime(ms float64) time.Time {
	if ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(int64(ms))
}
