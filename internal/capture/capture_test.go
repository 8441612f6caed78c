package capture

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/config"
	"github.com/xkilldash9x/scribe-cli/internal/platform/dynamics"
)

func newTestCapturer(t *testing.T, buffer int) *Capturer {
	t.Helper()
	cfg := config.NewDefaultConfig().Recorder
	cfg.EventBuffer = buffer
	cfg.InputDebounce = 20 * time.Millisecond
	c := New(dynamics.New().Profile(), cfg, zaptest.NewLogger(t))
	c.active.Store(true)
	return c
}

func drain(c *Capturer) []schemas.InteractionEvent {
	var out []schemas.InteractionEvent
	for {
		select {
		case ev := <-c.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestHandlePayloadClick(t *testing.T) {
	t.Parallel()
	c := newTestCapturer(t, 8)

	c.handlePayload(`{
		"kind": "click",
		"ts": 1700000000000,
		"element": {
			"tag": "button",
			"role": "button",
			"name": "Save",
			"interactive": true,
			"cssPath": "#save",
			"frameUrl": "https://erp.example.com/",
			"attrs": {"data-dyn-controlname": "SaveBtn"}
		}
	}`)

	events := drain(c)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, schemas.EventClick, ev.Kind)
	require.NotNil(t, ev.Element)
	assert.Equal(t, "button", ev.Element.Tag)
	assert.Equal(t, "Save", ev.Element.Name)
	assert.Equal(t, "SaveBtn", ev.Element.Attr("data-dyn-controlname"))
	assert.Equal(t, time.UnixMilli(1700000000000), ev.Timestamp)
}

func TestHandlePayloadMalformed(t *testing.T) {
	t.Parallel()
	c := newTestCapturer(t, 8)

	c.handlePayload(`{not json`)
	c.handlePayload(`{"kind": "hover", "element": {"tag": "div"}}`)
	c.handlePayload(`{"kind": "click"}`)

	assert.Empty(t, drain(c), "malformed and unknown payloads are discarded")
}

func TestInputFlushedBeforeClick(t *testing.T) {
	t.Parallel()
	c := newTestCapturer(t, 8)

	c.handlePayload(`{"kind": "input", "value": "Contoso", "element": {"tag": "input", "cssPath": "#acct", "frameUrl": "f"}}`)
	c.handlePayload(`{"kind": "click", "element": {"tag": "button", "cssPath": "#ok", "frameUrl": "f"}}`)

	events := drain(c)
	require.Len(t, events, 2, "the pending input must not be lost")
	assert.Equal(t, schemas.EventInput, events[0].Kind)
	assert.Equal(t, "Contoso", events[0].Value)
	assert.Equal(t, schemas.EventClick, events[1].Kind)
}

func TestInputCommitBypassesWindow(t *testing.T) {
	t.Parallel()
	c := newTestCapturer(t, 8)

	c.handlePayload(`{"kind": "input", "commit": true, "value": "US-001", "element": {"tag": "input", "cssPath": "#cust", "frameUrl": "f"}}`)

	events := drain(c)
	require.Len(t, events, 1)
	assert.True(t, events[0].Commit)
}

func TestNavigationRouting(t *testing.T) {
	t.Parallel()
	c := newTestCapturer(t, 8)

	main := &cdp.Frame{ID: cdp.FrameID("main"), URL: "https://erp.example.com/?mi=Home"}
	c.route(&page.EventFrameNavigated{Frame: main})

	sub := &cdp.Frame{ID: cdp.FrameID("child"), ParentID: cdp.FrameID("main"), URL: "https://erp.example.com/frame"}
	c.route(&page.EventFrameNavigated{Frame: sub})

	c.route(&page.EventNavigatedWithinDocument{FrameID: cdp.FrameID("main"), URL: "https://erp.example.com/?mi=SalesTableListPage"})
	c.route(&page.EventNavigatedWithinDocument{FrameID: cdp.FrameID("child"), URL: "https://erp.example.com/other"})

	events := drain(c)
	require.Len(t, events, 2, "only main-frame navigations are reported")
	assert.Equal(t, schemas.EventNavigate, events[0].Kind)
	assert.Equal(t, "https://erp.example.com/?mi=Home", events[0].URL)
	assert.Equal(t, "https://erp.example.com/?mi=SalesTableListPage", events[1].URL)
}

func TestSendBackpressure(t *testing.T) {
	t.Parallel()
	c := newTestCapturer(t, 1)

	for i := 0; i < 3; i++ {
		c.send(schemas.InteractionEvent{Kind: schemas.EventClick})
	}

	assert.Equal(t, uint64(2), c.Dropped())
	assert.Len(t, drain(c), 1)
}

func TestSendAfterDetachGate(t *testing.T) {
	t.Parallel()
	c := newTestCapturer(t, 8)

	c.active.Store(false)
	c.send(schemas.InteractionEvent{Kind: schemas.EventClick})

	assert.Empty(t, drain(c))
	assert.Zero(t, c.Dropped(), "gated events are discarded, not counted as drops")
}
