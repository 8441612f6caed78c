// Package locator turns a captured element snapshot into the strongest
// available locator descriptor. Strategies are tried in a fixed
// priority order and the first hit wins; the bottom of the waterfall is
// a flagged CSS selector, so extraction is total and a recording never
// aborts on an undescribable element.
package locator

import (
	"strings"
	"unicode/utf8"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/config"
	"github.com/xkilldash9x/scribe-cli/internal/platform"
)

// Extractor evaluates the strategy waterfall against element snapshots.
type Extractor struct {
	profile    *platform.Profile
	maxText    int
	navMinText int
}

// New builds an Extractor bound to a platform profile. Text-strategy
// bounds come from the recorder configuration.
func New(profile *platform.Profile, cfg config.RecorderConfig) *Extractor {
	maxText := cfg.MaxTextLength
	if maxText <= 0 {
		maxText = 80
	}
	navMin := cfg.NavMinTextLength
	if navMin <= 0 {
		navMin = 3
	}
	return &Extractor{profile: profile, maxText: maxText, navMinText: navMin}
}

// Extract resolves the locator for a snapshot. Priority order:
// platform stable attribute, role+name, label, placeholder, short
// direct text, test id, flagged CSS. Never fails; a nil or empty
// snapshot yields the flagged body fallback.
func (e *Extractor) Extract(snap *schemas.ElementSnapshot) schemas.Locator {
	if snap == nil {
		return schemas.CSSLocator("body")
	}

	if v := collapseSpace(snap.Attr(e.profile.StableAttr)); v != "" {
		return schemas.PlatformAttrLocator(e.profile.StableAttr, v)
	}

	if loc, ok := e.roleLocator(snap); ok {
		return loc
	}

	if label := e.labelText(snap); label != "" {
		return schemas.LabelLocator(label)
	}

	if ph := collapseSpace(snap.Placeholder); ph != "" {
		return schemas.PlaceholderLocator(ph)
	}

	if text, ok := e.shortText(snap); ok {
		return schemas.TextLocator(text, true)
	}

	for _, attr := range e.profile.TestIDAttrs {
		if v := collapseSpace(snap.Attr(attr)); v != "" {
			return schemas.TestIDLocator(v)
		}
	}

	return e.cssFallback(snap)
}

// roleLocator applies strategy two: an accessible role paired with a
// name. The computed name falls back to aria-label, title, and
// placeholder before the strategy is abandoned.
func (e *Extractor) roleLocator(snap *schemas.ElementSnapshot) (schemas.Locator, bool) {
	role := collapseSpace(snap.Role)
	if role == "" {
		role = roleForTag(snap.Tag)
	}
	if role == "" {
		return schemas.Locator{}, false
	}
	for _, candidate := range []string{snap.Name, snap.AriaLabel, snap.Title, snap.Placeholder} {
		if name := collapseSpace(candidate); name != "" {
			return schemas.RoleLocator(role, name), true
		}
	}
	return schemas.Locator{}, false
}

// labelText applies strategy three: aria-label, an associated or
// wrapping label element, then the title attribute.
func (e *Extractor) labelText(snap *schemas.ElementSnapshot) string {
	for _, candidate := range []string{snap.AriaLabel, snap.LabelText, snap.Title} {
		if label := collapseSpace(candidate); label != "" {
			return label
		}
	}
	return ""
}

// shortText applies strategy five over the element's direct text nodes.
// General elements must be interactive and carry 1..max characters;
// inside the navigation pane non-interactive containers qualify too,
// with a raised minimum that filters out glyph-only tree decorations.
func (e *Extractor) shortText(snap *schemas.ElementSnapshot) (string, bool) {
	text := collapseSpace(snap.Text)
	if text == "" {
		return "", false
	}
	n := utf8.RuneCountInString(text)
	if n > e.maxText {
		return "", false
	}
	if snap.NavPane {
		return text, n >= e.navMinText
	}
	return text, snap.Interactive && n >= 1
}

// cssFallback is the flagged bottom of the waterfall: #id, else
// tag.firstClass, else body. Identifiers that would not survive as a
// bare CSS token are skipped rather than escaped.
func (e *Extractor) cssFallback(snap *schemas.ElementSnapshot) schemas.Locator {
	if cssIdent(snap.ID) {
		return schemas.CSSLocator("#" + snap.ID)
	}
	tag := strings.ToLower(collapseSpace(snap.Tag))
	if tag != "" && cssIdent(tag) {
		for _, class := range snap.Classes {
			if cssIdent(class) {
				return schemas.CSSLocator(tag + "." + class)
			}
		}
		return schemas.CSSLocator(tag)
	}
	return schemas.CSSLocator("body")
}

// roleForTag supplies the implicit ARIA role for elements that never
// declared one. Promoted ancestor nodes only carry explicit roles, so
// the common interactive tags are mapped here.
func roleForTag(tag string) string {
	switch strings.ToLower(tag) {
	case "button":
		return "button"
	case "a":
		return "link"
	case "select":
		return "combobox"
	case "textarea":
		return "textbox"
	default:
		return ""
	}
}

// collapseSpace trims and collapses internal whitespace runs to single
// spaces, the normalization applied to every text taken from the DOM.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cssIdent reports whether s can appear verbatim as a CSS id or class
// token.
func cssIdent(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c >= '0' && c <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
