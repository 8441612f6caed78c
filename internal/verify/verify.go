// Package verify grades recorded locators against the DOM snapshot
// captured when the session stopped. The check runs entirely offline:
// the snapshot is parsed once and every strategy is evaluated the way
// the generated Playwright code would evaluate it, so a locator that
// broke between recording and generation surfaces here instead of in a
// red test run.
package verify

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/platform"
)

// Checker evaluates locators against a DOM snapshot.
type Checker struct {
	profile *platform.Profile
	logger  *zap.Logger
}

// New builds a Checker. The profile supplies the platform's test-id
// attribute names; everything else lives on the locator itself.
func New(profile *platform.Profile, logger *zap.Logger) *Checker {
	return &Checker{profile: profile, logger: logger.Named("verify")}
}

// Result is one graded locator.
type Result struct {
	Key     string
	Locator schemas.Locator
	Matches int
	Status  schemas.LocatorStatus
}

// Statuses reshapes results into the locator status registry form.
func Statuses(results []Result) map[string]schemas.LocatorStatus {
	statuses := make(map[string]schemas.LocatorStatus, len(results))
	for _, r := range results {
		statuses[r.Key] = r.Status
	}
	return statuses
}

// CheckSteps grades every distinct locator the steps used, in first-use
// order.
func (c *Checker) CheckSteps(dom string, steps []schemas.RecordedStep) ([]Result, error) {
	var locators []schemas.Locator
	for _, step := range steps {
		if step.Locator != nil {
			locators = append(locators, *step.Locator)
		}
	}
	return c.Check(dom, locators)
}

// Check grades the given locators against dom. Duplicate keys collapse
// to one result. A single match is healthy (warning when the strategy
// is a flagged fallback), several matches warn about ambiguity, and no
// match fails.
func (c *Checker) Check(dom string, locators []schemas.Locator) ([]Result, error) {
	if strings.TrimSpace(dom) == "" {
		return nil, fmt.Errorf("verify: empty DOM snapshot")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(dom))
	if err != nil {
		return nil, fmt.Errorf("verify: parsing snapshot: %w", err)
	}
	root, err := htmlquery.Parse(strings.NewReader(dom))
	if err != nil {
		return nil, fmt.Errorf("verify: parsing snapshot: %w", err)
	}

	results := make([]Result, 0, len(locators))
	seen := make(map[string]struct{}, len(locators))
	healthy := 0
	for _, loc := range locators {
		key := loc.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		matches, note := c.count(doc, root, loc)
		status := grade(loc, matches, note)
		if status.State == schemas.LocatorHealthy {
			healthy++
		}
		results = append(results, Result{Key: key, Locator: loc, Matches: matches, Status: status})
	}

	c.logger.Info("Locator verification completed.",
		zap.Int("checked", len(results)), zap.Int("healthy", healthy))
	return results, nil
}

// count evaluates one locator and returns how many elements it would
// resolve to, plus a note when the locator itself was unusable.
func (c *Checker) count(doc *goquery.Document, root *html.Node, loc schemas.Locator) (int, string) {
	switch loc.Strategy {
	case schemas.StrategyPlatformAttr:
		return countAttr(doc, loc.AttrName, loc.AttrValue), ""
	case schemas.StrategyRole:
		return countRole(root, loc.Role, loc.Name), ""
	case schemas.StrategyLabel:
		return countLabel(root, loc.Text), ""
	case schemas.StrategyPlaceholder:
		return countPlaceholder(doc, loc.Text), ""
	case schemas.StrategyText:
		return countText(root, loc.Text, loc.Exact), ""
	case schemas.StrategyTestID:
		return c.countTestID(doc, loc.TestID), ""
	case schemas.StrategyCSS:
		return countCSS(doc, loc.Selector)
	case schemas.StrategyXPath:
		nodes, err := htmlquery.QueryAll(root, loc.Selector)
		if err != nil {
			return 0, "xpath did not parse"
		}
		return len(nodes), ""
	}
	return 0, "unknown strategy"
}

func grade(loc schemas.Locator, matches int, note string) schemas.LocatorStatus {
	switch {
	case note != "":
		return schemas.LocatorStatus{State: schemas.LocatorFailing, Note: note}
	case matches == 0:
		return schemas.LocatorStatus{State: schemas.LocatorFailing, Note: "no match in the final DOM"}
	case matches > 1:
		return schemas.LocatorStatus{State: schemas.LocatorWarning, Note: fmt.Sprintf("%d elements match", matches)}
	case loc.Flagged:
		return schemas.LocatorStatus{State: schemas.LocatorWarning, Note: "fragile fallback strategy"}
	default:
		return schemas.LocatorStatus{State: schemas.LocatorHealthy}
	}
}

// countAttr counts elements carrying the attribute with exactly the
// wanted value. Matching by presence first and comparing in Go avoids
// selector escaping for arbitrary attribute values.
func countAttr(doc *goquery.Document, name, want string) int {
	if name == "" {
		return 0
	}
	count := 0
	doc.Find("[" + name + "]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(name); ok && collapse(v) == want {
			count++
		}
	})
	return count
}

func (c *Checker) countTestID(doc *goquery.Document, want string) int {
	matched := make(map[*html.Node]struct{})
	for _, attr := range c.profile.TestIDAttrs {
		doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr(attr); ok && collapse(v) == want {
				for _, n := range s.Nodes {
					matched[n] = struct{}{}
				}
			}
		})
	}
	return len(matched)
}

func countPlaceholder(doc *goquery.Document, want string) int {
	count := 0
	doc.Find("[placeholder]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("placeholder"); ok && containsFold(collapse(v), want) {
			count++
		}
	})
	return count
}

// countRole mirrors getByRole: explicit role attribute first, implicit
// role from the tag otherwise, accessible name matched the Playwright
// way (case-insensitive substring).
func countRole(root *html.Node, role, name string) int {
	count := 0
	walkElements(root, func(n *html.Node) {
		actual := collapse(htmlquery.SelectAttr(n, "role"))
		if actual == "" {
			actual = implicitRole(n)
		} else if i := strings.IndexByte(actual, ' '); i >= 0 {
			actual = actual[:i]
		}
		if actual != role {
			return
		}
		if containsFold(accessibleName(root, n), name) {
			count++
		}
	})
	return count
}

// countLabel counts the controls a label text resolves to: label[for]
// targets, controls nested inside a matching label, and elements whose
// aria-label matches directly.
func countLabel(root *html.Node, want string) int {
	matched := make(map[*html.Node]struct{})
	for _, lbl := range htmlquery.Find(root, "//label") {
		if !containsFold(collapse(htmlquery.InnerText(lbl)), want) {
			continue
		}
		if id := htmlquery.SelectAttr(lbl, "for"); id != "" {
			if ctrl := findByID(root, id); ctrl != nil {
				matched[ctrl] = struct{}{}
			}
			continue
		}
		if ctrl := htmlquery.FindOne(lbl, ".//input|.//select|.//textarea"); ctrl != nil {
			matched[ctrl] = struct{}{}
		}
	}
	walkElements(root, func(n *html.Node) {
		if containsFold(collapse(htmlquery.SelectAttr(n, "aria-label")), want) {
			matched[n] = struct{}{}
		}
	})
	return len(matched)
}

// countText counts the deepest elements whose text matches, so a hit
// never cascades up through every ancestor container.
func countText(root *html.Node, want string, exact bool) int {
	count := 0
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		childMatched := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				childMatched = true
			}
		}
		if childMatched {
			return true
		}
		if n.Type != html.ElementNode {
			return false
		}
		switch strings.ToLower(n.Data) {
		case "script", "style", "html", "head":
			return false
		}
		text := collapse(htmlquery.InnerText(n))
		if text == "" {
			return false
		}
		if exact {
			if text != want {
				return false
			}
		} else if !containsFold(text, want) {
			return false
		}
		count++
		return true
	}
	walk(root)
	return count
}

// countCSS recovers from the selector-compilation panic so one bad
// fallback selector cannot abort the whole verification pass.
func countCSS(doc *goquery.Document, selector string) (n int, note string) {
	defer func() {
		if r := recover(); r != nil {
			n, note = 0, "selector did not parse"
		}
	}()
	return doc.Find(selector).Length(), ""
}

func walkElements(root *html.Node, fn func(*html.Node)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			fn(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

func findByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && htmlquery.SelectAttr(n, "id") == id {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// accessibleName approximates the accessible-name computation the
// recorder script ran in-page: aria-label, aria-labelledby, visible
// text, then title and placeholder.
func accessibleName(root, n *html.Node) string {
	if v := collapse(htmlquery.SelectAttr(n, "aria-label")); v != "" {
		return v
	}
	if ids := strings.Fields(htmlquery.SelectAttr(n, "aria-labelledby")); len(ids) > 0 {
		var parts []string
		for _, id := range ids {
			if ref := findByID(root, id); ref != nil {
				if t := collapse(htmlquery.InnerText(ref)); t != "" {
					parts = append(parts, t)
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	if v := collapse(htmlquery.InnerText(n)); v != "" {
		return v
	}
	if v := collapse(htmlquery.SelectAttr(n, "title")); v != "" {
		return v
	}
	return collapse(htmlquery.SelectAttr(n, "placeholder"))
}

func implicitRole(n *html.Node) string {
	switch strings.ToLower(n.Data) {
	case "button":
		return "button"
	case "a":
		if htmlquery.SelectAttr(n, "href") != "" {
			return "link"
		}
	case "select":
		return "combobox"
	case "textarea":
		return "textbox"
	case "input":
		switch strings.ToLower(htmlquery.SelectAttr(n, "type")) {
		case "button", "submit", "reset":
			return "button"
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		case "search":
			return "searchbox"
		case "hidden":
			return ""
		default:
			return "textbox"
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// containsFold is a case-insensitive substring test, the default text
// matching of the generated Playwright locators.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
