// File: internal/classify/classify.go

// Package classify resolves the current browsing context to a logical
// page identity. Classification works through a deterministic fallback
// chain: identity-provider and interstitial filters, the platform's
// ordered pattern table against URL and title, breadcrumb matching
// (exact then fuzzy), and finally inference from route parameters or
// the cleaned title. The worst outcome is an Unknown page marked
// ignored; classification itself never fails.
package classify

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/config"
	"github.com/xkilldash9x/scribe-cli/internal/platform"
)

// PageReader is the minimal read surface the classifier needs from the
// live page. Implementations must fail fast when the underlying
// context is gone mid-navigation rather than block.
type PageReader interface {
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Breadcrumbs(ctx context.Context) ([]string, error)
	// TextContent returns the trimmed text of the first element
	// matching the selector, or "" when none matches.
	TextContent(ctx context.Context, selector string) (string, error)
}

// Classifier matches pages against a platform's pattern table.
type Classifier struct {
	caps          platform.Capabilities
	readTimeout   time.Duration
	fuzzThreshold float64
	logger        *zap.Logger
}

// New builds a Classifier. Live reads are bounded by the configured
// read timeout; a timeout classifies as Unknown instead of failing.
func New(caps platform.Capabilities, cfg config.ClassifyConfig, logger *zap.Logger) *Classifier {
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	threshold := cfg.FuzzThreshold
	if threshold <= 0 {
		threshold = 0.2
	}
	return &Classifier{
		caps:          caps,
		readTimeout:   timeout,
		fuzzThreshold: threshold,
		logger:        logger.Named("classify"),
	}
}

// Classify reads URL, title, and breadcrumbs from the page and resolves
// a classification. A failed URL read means the navigation context is
// mid-teardown, which is immediately Unknown; failed title or
// breadcrumb reads default to empty and classification proceeds.
func (c *Classifier) Classify(ctx context.Context, reader PageReader) schemas.PageClassification {
	rawURL, err := c.readString(ctx, reader.URL)
	if err != nil {
		c.logger.Debug("URL read failed mid-navigation.", zap.Error(err))
		return unknown("page context unavailable")
	}

	title, err := c.readString(ctx, reader.Title)
	if err != nil {
		title = ""
	}

	crumbs, err := c.readCrumbs(ctx, reader)
	if err != nil {
		crumbs = nil
	}

	return c.resolve(rawURL, title, crumbs)
}

// ExtractIdentity composes the full page identity for a classified
// page: route parameters, a visible caption, and the classification
// itself. Returns nil for pages the classification says to ignore.
func (c *Classifier) ExtractIdentity(ctx context.Context, reader PageReader) *schemas.PageIdentity {
	rawURL, err := c.readString(ctx, reader.URL)
	if err != nil {
		return nil
	}
	title, err := c.readString(ctx, reader.Title)
	if err != nil {
		title = ""
	}
	crumbs, err := c.readCrumbs(ctx, reader)
	if err != nil {
		crumbs = nil
	}

	cls := c.resolve(rawURL, title, crumbs)
	if cls.IgnoreForPOM {
		return nil
	}

	profile := c.caps.Profile()
	var menuRef, companyRef, routePath string
	if u, err := url.Parse(rawURL); err == nil {
		q := u.Query()
		menuRef = q.Get(profile.MenuParam)
		companyRef = q.Get(profile.CompanyParam)
		routePath = u.Path
	}

	caption := c.readCaption(ctx, reader)
	if caption == "" {
		caption = c.caps.CleanTitle(title)
	}
	if caption == "" {
		caption = cls.PageName
	}

	return &schemas.PageIdentity{
		PageID:     cls.PageID,
		MenuRef:    menuRef,
		CompanyRef: companyRef,
		Caption:    caption,
		Type:       cls.Type,
		RoutePath:  routePath,
		URL:        rawURL,
	}
}

// resolve is the pure classification chain over already-read inputs.
func (c *Classifier) resolve(rawURL, title string, crumbs []string) schemas.PageClassification {
	profile := c.caps.Profile()

	if rawURL == "" || rawURL == "about:blank" {
		return unknown("blank page")
	}

	if u, err := url.Parse(rawURL); err == nil && profile.IsIdPHost(u.Hostname()) {
		return ignored("AuthPage", "Authentication", "identity provider host")
	}

	if platform.MatchesTitle(title, profile.RedirectTitles) {
		return ignored("RedirectingPage", "Redirecting", "redirect interstitial title")
	}
	if platform.MatchesTitle(title, profile.SignInTitles) {
		return ignored("SignInPage", "Sign in", "sign-in title")
	}

	urlLower := strings.ToLower(rawURL)
	titleLower := strings.ToLower(title)
	for _, row := range profile.Patterns {
		if row.Match == "" {
			continue
		}
		if strings.Contains(urlLower, row.Match) || strings.Contains(titleLower, row.Match) {
			return fromPattern(row)
		}
	}

	if cls, ok := c.matchBreadcrumbs(crumbs, profile.Patterns); ok {
		return cls
	}

	return c.infer(rawURL, title)
}

// matchBreadcrumbs tries the pattern table against the breadcrumb
// trail: an exact substring pass in table order first, then a fuzzy
// pass tolerating count suffixes and minor relabeling via normalized
// Levenshtein distance.
func (c *Classifier) matchBreadcrumbs(crumbs []string, patterns []platform.PagePattern) (schemas.PageClassification, bool) {
	if len(crumbs) == 0 {
		return schemas.PageClassification{}, false
	}

	normalized := make([]string, 0, len(crumbs))
	for _, crumb := range crumbs {
		if n := normalizeCrumb(crumb); n != "" {
			normalized = append(normalized, n)
		}
	}

	for _, row := range patterns {
		if row.Match == "" {
			continue
		}
		for _, crumb := range normalized {
			if strings.Contains(crumb, row.Match) {
				return fromPattern(row), true
			}
		}
	}

	for _, row := range patterns {
		target := strings.ToLower(row.PageName)
		if target == "" {
			continue
		}
		for _, crumb := range normalized {
			if normalizedDistance(crumb, target) <= c.fuzzThreshold {
				return fromPattern(row), true
			}
		}
	}

	return schemas.PageClassification{}, false
}

// infer derives an identity when every table lookup missed: the
// menu-item route parameter is the preferred seed, the noise-stripped
// title the fallback. Pages with neither cannot be confidently tied to
// the application and are ignored.
func (c *Classifier) infer(rawURL, title string) schemas.PageClassification {
	profile := c.caps.Profile()

	if u, err := url.Parse(rawURL); err == nil {
		if menuRef := u.Query().Get(profile.MenuParam); menuRef != "" {
			return schemas.PageClassification{
				PageID:   schemas.PascalIdent(menuRef),
				PageName: menuRef,
				Type:     c.caps.InferType(rawURL, title),
			}
		}
	}

	if cleaned := c.caps.CleanTitle(title); cleaned != "" {
		return schemas.PageClassification{
			PageID:   schemas.PascalIdent(cleaned),
			PageName: cleaned,
			Type:     c.caps.InferType(rawURL, title),
		}
	}

	return unknown("no stable page identity")
}

func (c *Classifier) readString(ctx context.Context, read func(context.Context) (string, error)) (string, error) {
	rctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()
	return read(rctx)
}

func (c *Classifier) readCrumbs(ctx context.Context, reader PageReader) ([]string, error) {
	rctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()
	return reader.Breadcrumbs(rctx)
}

// readCaption walks the platform's caption selector candidates in
// order and returns the first non-empty text. Individual read failures
// just advance to the next candidate.
func (c *Classifier) readCaption(ctx context.Context, reader PageReader) string {
	for _, selector := range c.caps.Profile().CaptionSelectors {
		rctx, cancel := context.WithTimeout(ctx, c.readTimeout)
		text, err := reader.TextContent(rctx, selector)
		cancel()
		if err != nil {
			continue
		}
		if text = strings.Join(strings.Fields(text), " "); text != "" {
			return text
		}
	}
	return ""
}

var crumbCountSuffix = regexp.MustCompile(`\s*\(\d+\)\s*$`)

// normalizeCrumb lowercases a breadcrumb and strips the trailing
// record-count suffix list pages append, e.g. "All sales orders (27)".
func normalizeCrumb(crumb string) string {
	crumb = crumbCountSuffix.ReplaceAllString(crumb, "")
	return strings.ToLower(strings.Join(strings.Fields(crumb), " "))
}

// normalizedDistance is the Levenshtein distance over runes divided by
// the longer input's length, so 0 is identical and 1 is disjoint.
func normalizedDistance(a, b string) float64 {
	if a == b {
		return 0
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

func fromPattern(row platform.PagePattern) schemas.PageClassification {
	return schemas.PageClassification{
		PageID:   row.PageID,
		PageName: row.PageName,
		Type:     row.Type,
	}
}

func ignored(pageID, pageName, reason string) schemas.PageClassification {
	return schemas.PageClassification{
		PageID:       pageID,
		PageName:     pageName,
		Type:         schemas.PageTypeUnknown,
		IgnoreForPOM: true,
		Reason:       reason,
	}
}

func unknown(reason string) schemas.PageClassification {
	return ignored("Unknown", "Unknown", reason)
}
