package schemas

import (
	"time"
)

// EventKind is the raw interaction kind reported by the capture layer.
type EventKind string

const (
	EventClick    EventKind = "click"
	EventInput    EventKind = "input"
	EventChange   EventKind = "change"
	EventNavigate EventKind = "navigate"
)

// ElementNode is a lightweight serialization of one DOM element, used for
// the event target and for each entry of its ancestor chain. It carries
// just enough to drive locator extraction and the ancestor-walk
// heuristics without holding any live element reference.
type ElementNode struct {
	Tag       string            `json:"tag"`
	ID        string            `json:"id,omitempty"`
	Classes   []string          `json:"classes,omitempty"`
	Role      string            `json:"role,omitempty"`
	Text      string            `json:"text,omitempty"`
	AriaLabel string            `json:"ariaLabel,omitempty"`
	Title     string            `json:"title,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// Attr returns the named attribute, or "" when absent.
func (n ElementNode) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// ElementSnapshot is the full capture-time description of an event target.
// It is built inside the page by the injected recorder script, so every
// field is a value copy; the live element is never referenced after the
// event fires.
type ElementSnapshot struct {
	ElementNode

	// Name is the computed accessible name, when the page exposed one.
	Name string `json:"name,omitempty"`
	// Placeholder and LabelText are resolved in-page because the
	// label[for] association cannot be recovered from a detached copy.
	Placeholder string `json:"placeholder,omitempty"`
	LabelText   string `json:"labelText,omitempty"`

	// NavPane marks targets inside a recognized navigation container.
	NavPane bool `json:"navPane,omitempty"`
	// ExpandNav marks recognized "expand navigation" controls.
	ExpandNav bool `json:"expandNav,omitempty"`
	// Interactive reports whether the element (or its role) is natively
	// interactive: links, buttons, inputs, tree items and the like.
	Interactive bool `json:"interactive,omitempty"`

	// LeftX is the viewport-relative left edge of the element, used by
	// the configurable left-edge navigation-pane fallback.
	LeftX float64 `json:"leftX,omitempty"`

	// CSSPath is a generated selector path. It doubles as the stable
	// element identity for input debouncing and as the raw material for
	// the flagged CSS fallback locator.
	CSSPath  string `json:"cssPath,omitempty"`
	FrameURL string `json:"frameUrl,omitempty"`

	// Ancestors lists the element's ancestor chain, nearest first,
	// bounded in depth by the recorder script.
	Ancestors []ElementNode `json:"ancestors,omitempty"`
}

// Identity returns the stable key used to coalesce events per element.
// Falls back to tag when the script produced no path (never expected, but
// a recording must not die on it).
func (s *ElementSnapshot) Identity() string {
	if s == nil {
		return ""
	}
	if s.CSSPath != "" {
		return s.FrameURL + "|" + s.CSSPath
	}
	return s.FrameURL + "|" + s.Tag + "#" + s.ID
}

// InteractionEvent is one normalized raw browser interaction. Produced by
// the capture layer, consumed exactly once by the recording engine.
type InteractionEvent struct {
	Kind    EventKind        `json:"kind"`
	Element *ElementSnapshot `json:"element,omitempty"`
	Value   string           `json:"value,omitempty"`
	URL     string           `json:"url,omitempty"`
	// Commit is set when an input was confirmed with Enter rather than
	// left to the debounce window (dropdown-style controls commit on
	// Enter in the target application).
	Commit    bool      `json:"commit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StepAction is the normalized action of a recorded step.
type StepAction string

const (
	ActionClick    StepAction = "click"
	ActionFill     StepAction = "fill"
	ActionSelect   StepAction = "select"
	ActionNavigate StepAction = "navigate"
	ActionWait     StepAction = "wait"
	ActionAssert   StepAction = "assert"
	ActionComment  StepAction = "comment"
)

// RecordedStep is one entry of the recorded sequence. Order is strictly
// increasing within a session. Locator is required for click/fill/select
// and absent for wait/comment/navigate.
type RecordedStep struct {
	PageID      string     `json:"page_id"`
	Action      StepAction `json:"action"`
	Description string     `json:"description"`
	Locator     *Locator   `json:"locator,omitempty"`
	Value       string     `json:"value,omitempty"`
	Order       int        `json:"order"`
	Timestamp   time.Time  `json:"timestamp"`

	// Label is the resolved human label of the control acted on; the
	// identifier pair below is derived from it.
	Label string `json:"label,omitempty"`
	// FieldName/MethodName are the generated identifier pair for the
	// page-object model.
	FieldName  string `json:"field_name,omitempty"`
	MethodName string `json:"method_name,omitempty"`

	PageURL    string   `json:"page_url,omitempty"`
	MenuRef    string   `json:"menu_ref,omitempty"`
	CompanyRef string   `json:"company_ref,omitempty"`
	PageType   PageType `json:"page_type,omitempty"`

	// ControlKind is the resolved role/tag of the control the step acted
	// on ("button", "treeitem", "combobox", ...). Heavy-action detection
	// keys off it.
	ControlKind string `json:"control_kind,omitempty"`
	// Commit is set on fill steps confirmed with Enter instead of the
	// debounce window.
	Commit bool `json:"commit,omitempty"`
	// Heavy marks steps that trigger expensive server-side processing;
	// the generator inserts a stabilization wait after them.
	Heavy bool `json:"heavy,omitempty"`
	// Param is the data-fixture column bound to this step's value, when
	// the parameterizer proposed one.
	Param string `json:"param,omitempty"`
}

// SessionState is the lifecycle state of a recording session.
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionRecording SessionState = "recording"
	SessionStopped   SessionState = "stopped"
)

// Session owns the ordered step list of one recording. It is created on
// start, mutated only by the recording engine while active, frozen on
// stop, and discarded after compilation; the generated artifacts persist
// independently.
type Session struct {
	ID        string       `json:"id"`
	TargetURL string       `json:"target_url"`
	State     SessionState `json:"state"`
	StartedAt time.Time    `json:"started_at"`
	StoppedAt time.Time    `json:"stopped_at,omitempty"`

	Steps       []RecordedStep `json:"steps"`
	CurrentPage *PageIdentity  `json:"current_page,omitempty"`
	// Pages collects every distinct identity seen, keyed by PageID.
	Pages map[string]PageIdentity `json:"pages"`

	// FinalDOM is the outer HTML captured at stop, kept for offline
	// locator verification.
	FinalDOM string `json:"final_dom,omitempty"`

	// DroppedEvents counts capture events discarded under backpressure.
	DroppedEvents int `json:"dropped_events,omitempty"`
}
