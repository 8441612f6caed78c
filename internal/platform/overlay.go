package platform

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Overlay is a user-supplied YAML fragment layered over a built-in
// profile, so site-specific pages and renamed controls can be taught
// to the pipeline without recompiling. Pattern rows and caption
// selectors are prepended (the overlay wins); vocabulary lists are
// appended; scalars override only when set.
type Overlay struct {
	StableAttr        string        `yaml:"stable_attr"`
	TestIDAttrs       []string      `yaml:"test_id_attrs"`
	NavMarkers        []string      `yaml:"nav_markers"`
	ExpandNavControls []string      `yaml:"expand_nav_controls"`
	ExpandNavLabels   []string      `yaml:"expand_nav_labels"`
	Patterns          []PagePattern `yaml:"patterns"`
	IdPHosts          []string      `yaml:"idp_hosts"`
	RedirectTitles    []string      `yaml:"redirect_titles"`
	SignInTitles      []string      `yaml:"sign_in_titles"`
	MenuParam         string        `yaml:"menu_param"`
	CompanyParam      string        `yaml:"company_param"`
	CaptionSelectors  []string      `yaml:"caption_selectors"`
	TitleNoise        []string      `yaml:"title_noise"`
	HeavyActions      []string      `yaml:"heavy_actions"`
}

// LoadOverlay reads and parses an overlay file. A missing path is the
// caller's problem; an unreadable or malformed file is an error here.
func LoadOverlay(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading platform overlay: %w", err)
	}
	var o Overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing platform overlay %s: %w", path, err)
	}
	o.normalize()
	return &o, nil
}

// normalize lowercases every substring field so overlay authors do not
// have to know the profile's case convention.
func (o *Overlay) normalize() {
	lowerAll(o.NavMarkers)
	lowerAll(o.ExpandNavControls)
	lowerAll(o.ExpandNavLabels)
	lowerAll(o.IdPHosts)
	lowerAll(o.RedirectTitles)
	lowerAll(o.SignInTitles)
	lowerAll(o.TitleNoise)
	lowerAll(o.HeavyActions)
	for i := range o.Patterns {
		o.Patterns[i].Match = strings.ToLower(o.Patterns[i].Match)
	}
}

// Apply merges the overlay into the profile in place.
func (p *Profile) Apply(o *Overlay) {
	if o == nil {
		return
	}
	if o.StableAttr != "" {
		p.StableAttr = o.StableAttr
	}
	if o.MenuParam != "" {
		p.MenuParam = o.MenuParam
	}
	if o.CompanyParam != "" {
		p.CompanyParam = o.CompanyParam
	}
	p.Patterns = append(append([]PagePattern{}, o.Patterns...), p.Patterns...)
	p.CaptionSelectors = append(append([]string{}, o.CaptionSelectors...), p.CaptionSelectors...)
	p.TestIDAttrs = appendUnique(p.TestIDAttrs, o.TestIDAttrs)
	p.NavMarkers = appendUnique(p.NavMarkers, o.NavMarkers)
	p.ExpandNavControls = appendUnique(p.ExpandNavControls, o.ExpandNavControls)
	p.ExpandNavLabels = appendUnique(p.ExpandNavLabels, o.ExpandNavLabels)
	p.IdPHosts = appendUnique(p.IdPHosts, o.IdPHosts)
	p.RedirectTitles = appendUnique(p.RedirectTitles, o.RedirectTitles)
	p.SignInTitles = appendUnique(p.SignInTitles, o.SignInTitles)
	p.TitleNoise = appendUnique(p.TitleNoise, o.TitleNoise)
	p.HeavyActions = appendUnique(p.HeavyActions, o.HeavyActions)
}

func lowerAll(ss []string) {
	for i, s := range ss {
		ss[i] = strings.ToLower(s)
	}
}

func appendUnique(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, s := range base {
		seen[s] = struct{}{}
	}
	for _, s := range extra {
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		base = append(base, s)
	}
	return base
}
