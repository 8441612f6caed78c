package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/platform/dynamics"
)

func newTestResolver(leftEdge float64) *resolver {
	return &resolver{profile: dynamics.New().Profile(), navLeftEdgePx: leftEdge}
}

func TestResolveClickPromotesNavAncestor(t *testing.T) {
	t.Parallel()
	r := newTestResolver(0)

	// A glyph span inside a nav link: the link owns the click.
	snap := &schemas.ElementSnapshot{
		ElementNode: schemas.ElementNode{Tag: "span", Classes: []string{"glyph"}},
		CSSPath:     "div#navPaneModules > a > span.glyph",
		FrameURL:    "https://contoso.operations.dynamics.com/",
		Ancestors: []schemas.ElementNode{
			{Tag: "a", Text: "Accounts receivable"},
			{Tag: "div", ID: "navPaneModules"},
		},
	}

	resolved := r.resolveClick(snap)
	require.NotNil(t, resolved)
	assert.Equal(t, "a", resolved.Tag)
	assert.Equal(t, "Accounts receivable", resolved.Text)
	assert.True(t, resolved.NavPane)
	assert.True(t, resolved.Interactive)
	assert.False(t, resolved.ExpandNav)
	// Identity stays where the click physically landed.
	assert.Equal(t, snap.CSSPath, resolved.CSSPath)
	assert.Equal(t, snap.FrameURL, resolved.FrameURL)
}

func TestResolveClickExpandNavAncestorWins(t *testing.T) {
	t.Parallel()
	r := newTestResolver(0)

	snap := &schemas.ElementSnapshot{
		ElementNode: schemas.ElementNode{Tag: "svg"},
		CSSPath:     "button > svg",
		Ancestors: []schemas.ElementNode{
			{Tag: "button", Attrs: map[string]string{"data-dyn-controlname": "NavPaneExpand"}},
			{Tag: "div", ID: "shell"},
		},
	}

	resolved := r.resolveClick(snap)
	require.NotNil(t, resolved)
	assert.True(t, resolved.ExpandNav)
	assert.Equal(t, "button", resolved.Tag)
	assert.True(t, r.keepClick(resolved))
}

func TestResolveClickSelfExpandNavByLabel(t *testing.T) {
	t.Parallel()
	r := newTestResolver(0)

	snap := &schemas.ElementSnapshot{
		ElementNode: schemas.ElementNode{
			Tag:       "button",
			AriaLabel: "Expand the navigation pane",
		},
		CSSPath: "button.navToggle",
	}

	resolved := r.resolveClick(snap)
	require.NotNil(t, resolved)
	assert.True(t, resolved.ExpandNav)
	// The original snapshot is not mutated.
	assert.False(t, snap.ExpandNav)
}

func TestResolveClickKeepsOrdinaryTarget(t *testing.T) {
	t.Parallel()
	r := newTestResolver(0)

	snap := &schemas.ElementSnapshot{
		ElementNode: schemas.ElementNode{Tag: "button", Role: "button"},
		Name:        "Save",
		Interactive: true,
		CSSPath:     "button#save",
		Ancestors: []schemas.ElementNode{
			{Tag: "div", Classes: []string{"actionPane"}},
		},
	}

	resolved := r.resolveClick(snap)
	assert.Same(t, snap, resolved)
}

func TestResolveClickNilSafe(t *testing.T) {
	t.Parallel()
	r := newTestResolver(0)
	assert.Nil(t, r.resolveClick(nil))
	assert.False(t, r.keepClick(nil))
}

func TestInNavPane(t *testing.T) {
	t.Parallel()
	r := newTestResolver(320)

	testCases := []struct {
		name string
		snap schemas.ElementSnapshot
		want bool
	}{
		{
			name: "script flag wins",
			snap: schemas.ElementSnapshot{NavPane: true},
			want: true,
		},
		{
			name: "navigation role on self",
			snap: schemas.ElementSnapshot{ElementNode: schemas.ElementNode{Role: "navigation"}},
			want: true,
		},
		{
			name: "marker class on ancestor",
			snap: schemas.ElementSnapshot{
				ElementNode: schemas.ElementNode{Tag: "li"},
				Ancestors: []schemas.ElementNode{
					{Tag: "ul", Classes: []string{"modulesFlyout-List"}},
				},
			},
			want: true,
		},
		{
			name: "left edge fallback inside band",
			snap: schemas.ElementSnapshot{ElementNode: schemas.ElementNode{Tag: "a"}, LeftX: 42},
			want: true,
		},
		{
			name: "left edge fallback outside band",
			snap: schemas.ElementSnapshot{ElementNode: schemas.ElementNode{Tag: "a"}, LeftX: 700},
			want: false,
		},
		{
			name: "zero left edge never matches",
			snap: schemas.ElementSnapshot{ElementNode: schemas.ElementNode{Tag: "a"}},
			want: false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			snap := tc.snap
			assert.Equal(t, tc.want, r.inNavPane(&snap))
		})
	}
}

func TestInNavPaneSpatialFallbackDisabled(t *testing.T) {
	t.Parallel()
	r := newTestResolver(0)
	snap := &schemas.ElementSnapshot{ElementNode: schemas.ElementNode{Tag: "a"}, LeftX: 42}
	assert.False(t, r.inNavPane(snap))
}

func TestKeepClick(t *testing.T) {
	t.Parallel()
	r := newTestResolver(0)

	testCases := []struct {
		name string
		snap schemas.ElementSnapshot
		want bool
	}{
		{
			name: "expand nav always kept",
			snap: schemas.ElementSnapshot{ExpandNav: true},
			want: true,
		},
		{
			name: "nav pane element with text",
			snap: schemas.ElementSnapshot{
				ElementNode: schemas.ElementNode{Tag: "span", Text: "Sales and marketing"},
				NavPane:     true,
			},
			want: true,
		},
		{
			name: "nav pane element without any label",
			snap: schemas.ElementSnapshot{
				ElementNode: schemas.ElementNode{Tag: "span"},
				NavPane:     true,
			},
			want: false,
		},
		{
			name: "link with text outside the pane",
			snap: schemas.ElementSnapshot{
				ElementNode: schemas.ElementNode{Tag: "a", Role: "link", Text: "US-027"},
			},
			want: true,
		},
		{
			name: "interactive without label",
			snap: schemas.ElementSnapshot{
				ElementNode: schemas.ElementNode{Tag: "input"},
				Interactive: true,
			},
			want: true,
		},
		{
			name: "plain element with short text",
			snap: schemas.ElementSnapshot{
				ElementNode: schemas.ElementNode{Tag: "div", Text: "Lines"},
			},
			want: true,
		},
		{
			name: "bare container",
			snap: schemas.ElementSnapshot{
				ElementNode: schemas.ElementNode{Tag: "div", Classes: []string{"gridWrapper"}},
			},
			want: false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			snap := tc.snap
			assert.Equal(t, tc.want, r.keepClick(&snap))
		})
	}
}

func TestLabelResolution(t *testing.T) {
	t.Parallel()

	snap := &schemas.ElementSnapshot{
		ElementNode: schemas.ElementNode{Tag: "input", Title: "tooltip"},
		Name:        "Customer account",
		LabelText:   "Customer account label",
		Placeholder: "Type a value",
	}
	assert.Equal(t, "Customer account", snapLabel(snap))
	// Fill naming prefers the visible label association over the
	// computed accessible name.
	assert.Equal(t, "Customer account label", fillLabel(snap))

	empty := &schemas.ElementSnapshot{ElementNode: schemas.ElementNode{Tag: "div"}}
	assert.Equal(t, "", snapLabel(empty))

	spaced := &schemas.ElementSnapshot{
		ElementNode: schemas.ElementNode{Tag: "a", Text: "  All \n sales   orders "},
	}
	assert.Equal(t, "All sales orders", snapLabel(spaced))
}

func TestControlKind(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "treeitem", controlKind(&schemas.ElementSnapshot{
		ElementNode: schemas.ElementNode{Tag: "li", Role: "treeitem"},
	}))
	assert.Equal(t, "select", controlKind(&schemas.ElementSnapshot{
		ElementNode: schemas.ElementNode{Tag: "SELECT"},
	}))
}
