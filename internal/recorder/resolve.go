package recorder

import (
	"strings"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/platform"
)

// resolver re-applies the navigation-pane ancestor heuristics over a
// snapshot's serialized ancestor chain. The injected script already
// did this walk inside the page; doing it again here catches clicks
// that raced a script re-injection or arrived from a frame the marker
// tables had not reached yet.
type resolver struct {
	profile       *platform.Profile
	navLeftEdgePx float64
}

// classifyAncestor is one rule of the ordered walk. It reports whether
// the node should win the click, and whether it marks an
// expand-navigation control.
type classifyAncestor func(r *resolver, node schemas.ElementNode, navPane bool) (win, expandNav bool)

// ancestorRules are evaluated as independent passes over the chain, in
// priority order. A later rule never sees nodes once an earlier rule
// matched anywhere in the chain.
var ancestorRules = []classifyAncestor{
	// An expand-navigation control wins at any depth.
	func(r *resolver, node schemas.ElementNode, _ bool) (bool, bool) {
		return r.isExpandNav(node), true
	},
	// A nav-pane link or tree item with something to call it by.
	func(r *resolver, node schemas.ElementNode, navPane bool) (bool, bool) {
		if !navPane {
			return false, false
		}
		if !isNavish(node) {
			return false, false
		}
		return nodeLabel(node) != "", false
	},
}

// resolveClick returns the snapshot the click should be attributed to.
// The returned snapshot is the original one whenever no ancestor rule
// fires, or a promoted copy carrying the ancestor's element data.
func (r *resolver) resolveClick(snap *schemas.ElementSnapshot) *schemas.ElementSnapshot {
	if snap == nil {
		return nil
	}
	if snap.ExpandNav {
		return snap
	}

	navPane := r.inNavPane(snap)
	for _, rule := range ancestorRules {
		if win, expandNav := rule(r, snap.ElementNode, navPane); win {
			if expandNav && !snap.ExpandNav {
				promoted := *snap
				promoted.ExpandNav = true
				return &promoted
			}
			return snap
		}
		for _, ancestor := range snap.Ancestors {
			win, expandNav := rule(r, ancestor, navPane)
			if !win {
				continue
			}
			return r.promote(snap, ancestor, expandNav, navPane)
		}
	}
	return snap
}

// promote builds a snapshot for a winning ancestor. The original's
// frame URL and CSS path are kept: the locator comes from the
// ancestor's own attributes, while the identity stays tied to where
// the click physically landed.
func (r *resolver) promote(snap *schemas.ElementSnapshot, node schemas.ElementNode, expandNav, navPane bool) *schemas.ElementSnapshot {
	return &schemas.ElementSnapshot{
		ElementNode: node,
		NavPane:     navPane || r.inNavPane(&schemas.ElementSnapshot{ElementNode: node}),
		ExpandNav:   expandNav,
		Interactive: isNavish(node) || node.Role != "",
		CSSPath:     snap.CSSPath,
		FrameURL:    snap.FrameURL,
		LeftX:       snap.LeftX,
	}
}

// inNavPane decides nav-pane membership from the script's own flag,
// the marker tables over the ancestor chain, and finally the
// configurable left-edge spatial fallback.
func (r *resolver) inNavPane(snap *schemas.ElementSnapshot) bool {
	if snap.NavPane {
		return true
	}
	if r.nodeMarksNav(snap.ElementNode) {
		return true
	}
	for _, ancestor := range snap.Ancestors {
		if r.nodeMarksNav(ancestor) {
			return true
		}
	}
	return snap.LeftX > 0 && snap.LeftX <= r.navLeftEdgePx
}

func (r *resolver) nodeMarksNav(node schemas.ElementNode) bool {
	if node.Role == "navigation" {
		return true
	}
	for _, marker := range r.profile.NavMarkers {
		if marker == "" {
			continue
		}
		if strings.Contains(strings.ToLower(node.ID), marker) {
			return true
		}
		for _, class := range node.Classes {
			if strings.Contains(strings.ToLower(class), marker) {
				return true
			}
		}
	}
	return false
}

func (r *resolver) isExpandNav(node schemas.ElementNode) bool {
	ctrl := strings.ToLower(node.Attr(r.profile.StableAttr))
	for _, name := range r.profile.ExpandNavControls {
		if ctrl != "" && ctrl == name {
			return true
		}
	}
	if platform.MatchesTitle(node.AriaLabel, r.profile.ExpandNavLabels) {
		return true
	}
	return platform.MatchesTitle(node.Title, r.profile.ExpandNavLabels)
}

// keepClick is the skip predicate for resolved clicks. The rules are
// ordered; the first one that applies decides:
//  1. expand-navigation controls are always kept
//  2. nav-pane elements with any label, text, or title are kept
//  3. links and tree items with any label or text are kept
//  4. natively interactive elements are kept
//  5. anything with an accessible label or short direct text is kept
//  6. everything else is dropped as a dead click
func (r *resolver) keepClick(snap *schemas.ElementSnapshot) bool {
	if snap == nil {
		return false
	}
	if snap.ExpandNav {
		return true
	}
	label := snapLabel(snap)
	if r.inNavPane(snap) && label != "" {
		return true
	}
	if isNavish(snap.ElementNode) && label != "" {
		return true
	}
	if snap.Interactive {
		return true
	}
	return label != ""
}

// isNavish reports link/tree-item semantics by role or tag.
func isNavish(node schemas.ElementNode) bool {
	switch node.Role {
	case "link", "treeitem", "menuitem":
		return true
	}
	return strings.EqualFold(node.Tag, "a")
}

// nodeLabel is the first non-empty of label, text, and title on a bare
// ancestor node.
func nodeLabel(node schemas.ElementNode) string {
	for _, candidate := range []string{node.AriaLabel, node.Text, node.Title} {
		if c := strings.Join(strings.Fields(candidate), " "); c != "" {
			return c
		}
	}
	return ""
}

// snapLabel resolves the display label of a full snapshot: computed
// name first, then the label chain, then direct text, then the stable
// control attribute as a last resort.
func snapLabel(snap *schemas.ElementSnapshot) string {
	for _, candidate := range []string{snap.Name, snap.AriaLabel, snap.LabelText, snap.Title, snap.Text, snap.Placeholder} {
		if c := strings.Join(strings.Fields(candidate), " "); c != "" {
			return c
		}
	}
	return ""
}

// fillLabel resolves the label of a fill/select target: aria-label,
// associated label, then placeholder, mirroring how a tester names a
// field.
func fillLabel(snap *schemas.ElementSnapshot) string {
	for _, candidate := range []string{snap.AriaLabel, snap.LabelText, snap.Placeholder, snap.Name, snap.Title} {
		if c := strings.Join(strings.Fields(candidate), " "); c != "" {
			return c
		}
	}
	return ""
}

// controlKind is the resolved role, or the tag when no role is known.
func controlKind(snap *schemas.ElementSnapshot) string {
	if snap.Role != "" {
		return snap.Role
	}
	return strings.ToLower(snap.Tag)
}
