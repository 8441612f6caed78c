// Package platform defines the capability surface a target application
// family exposes to the recording pipeline. The classifier's pattern
// table, the capture layer's navigation markers, and the heavy-action
// vocabulary are all data carried by a Profile; the small amount of
// per-platform logic (page-type inference, title cleanup, action
// matching) hides behind the Capabilities interface so a new target
// platform is a new table plus a handful of functions.
package platform

import (
	"strings"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
)

// PagePattern is one row of the ordered classification table. Match is
// a lowercase substring tested against the URL, title, and breadcrumb
// trail in that order. Earlier rows win, so more specific substrings
// must precede their prefixes.
type PagePattern struct {
	Match    string           `yaml:"match"`
	PageID   string           `yaml:"page_id"`
	PageName string           `yaml:"page_name"`
	Type     schemas.PageType `yaml:"type"`
}

// Profile is the data half of a platform: every table the pipeline
// consults. All substring fields are lowercase.
type Profile struct {
	// StableAttr is the platform's stable control-identity attribute,
	// the strongest locator source available.
	StableAttr string `yaml:"stable_attr"`

	// TestIDAttrs are explicit test-id style attributes, checked in order.
	TestIDAttrs []string `yaml:"test_id_attrs"`

	// NavMarkers are class/id substrings that mark an element as part of
	// the navigation pane. role=navigation is always honored in addition.
	NavMarkers []string `yaml:"nav_markers"`

	// ExpandNavControls are StableAttr values naming the "expand the
	// navigation pane" control; ExpandNavLabels are label/title
	// substrings that identify the same control when the attribute is
	// missing.
	ExpandNavControls []string `yaml:"expand_nav_controls"`
	ExpandNavLabels   []string `yaml:"expand_nav_labels"`

	// Patterns is the ordered classification table.
	Patterns []PagePattern `yaml:"patterns"`

	// IdPHosts are identity-provider host suffixes whose pages are
	// never part of the application under test.
	IdPHosts []string `yaml:"idp_hosts"`

	// RedirectTitles and SignInTitles classify interstitial pages by
	// title substring.
	RedirectTitles []string `yaml:"redirect_titles"`
	SignInTitles   []string `yaml:"sign_in_titles"`

	// MenuParam and CompanyParam are the URL query parameters carrying
	// the menu-item route and the company scope.
	MenuParam    string `yaml:"menu_param"`
	CompanyParam string `yaml:"company_param"`

	// CaptionSelectors are CSS selectors tried in order when reading the
	// visible page caption; the page title is the final fallback.
	CaptionSelectors []string `yaml:"caption_selectors"`

	// TitleNoise lists product-name fragments stripped from titles
	// before deriving identifiers.
	TitleNoise []string `yaml:"title_noise"`

	// HeavyActions name controls whose activation triggers server-side
	// processing and therefore needs a stabilization wait.
	HeavyActions []string `yaml:"heavy_actions"`
}

// Capabilities is what the pipeline asks of a target platform.
type Capabilities interface {
	// Name identifies the platform ("dynamics", ...).
	Name() string

	// Profile returns the mutable data tables. Overlay application
	// edits the returned value in place before recording starts.
	Profile() *Profile

	// InferType derives a page pattern from URL keywords and the page
	// title when the pattern table and breadcrumbs both miss.
	InferType(rawURL, title string) schemas.PageType

	// CleanTitle strips product-name noise from a window title so the
	// remainder is usable as a caption or identifier seed.
	CleanTitle(title string) string

	// IsHeavyAction reports whether a resolved control name matches the
	// platform's heavy-action vocabulary.
	IsHeavyAction(name string) bool
}

// IsIdPHost reports whether host belongs to one of the profile's
// identity providers. Matching is suffix-based so regional subdomains
// are covered.
func (p *Profile) IsIdPHost(host string) bool {
	host = strings.ToLower(host)
	for _, idp := range p.IdPHosts {
		if host == idp || strings.HasSuffix(host, "."+idp) {
			return true
		}
	}
	return false
}

// MatchesTitle reports whether the lowercase title contains any of the
// given substrings.
func MatchesTitle(title string, substrings []string) bool {
	title = strings.ToLower(title)
	for _, s := range substrings {
		if s != "" && strings.Contains(title, s) {
			return true
		}
	}
	return false
}

// MatchesAction matches a control name against an action vocabulary.
// Short patterns (three characters or fewer, like "ok" and "new")
// must match a whole word so "north" does not trip "no"; longer
// patterns match as substrings of the lowercase name. Words are split
// on case boundaries as well as separators, so composite control names
// like "SystemDefinedNewButton" still expose "new" as a word.
func MatchesAction(name string, patterns []string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	var words []string
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if len(p) <= 3 {
			if words == nil {
				words = splitWords(name)
			}
			for _, w := range words {
				if w == p {
					return true
				}
			}
			continue
		}
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// splitWords lowercases and tokenizes a control name, breaking on
// non-alphanumerics and on lower-to-upper case transitions.
func splitWords(name string) []string {
	var words []string
	var cur strings.Builder
	var prev rune
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			if prev >= 'a' && prev <= 'z' || prev >= '0' && prev <= '9' {
				flush()
			}
			cur.WriteRune(r - 'A' + 'a')
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			cur.WriteRune(r)
		default:
			flush()
		}
		prev = r
	}
	flush()
	return words
}
