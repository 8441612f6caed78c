package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
)

// breadcrumbScript collects the trail segments the page exposes. ARIA
// breadcrumb navigation is checked first; class-based trails cover apps
// that never got the aria-label.
const breadcrumbScript = `(() => {
	const selectors = [
		'nav[aria-label*="breadcrumb" i] li',
		'ol[aria-label*="breadcrumb" i] li',
		'.breadcrumb li',
		'.breadcrumbs li',
	];
	for (const sel of selectors) {
		const items = Array.from(document.querySelectorAll(sel))
			.map(el => el.textContent.trim())
			.filter(text => text.length > 0);
		if (items.length > 0) {
			return items;
		}
	}
	return [];
})()`

// URL reports the current main-frame location.
func (s *Session) URL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("reading page URL: %w", err)
	}
	return url, nil
}

// Title reports the current document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("reading page title: %w", err)
	}
	return strings.TrimSpace(title), nil
}

// Breadcrumbs reports the page's navigation trail, outermost segment
// first. An empty slice means the page renders no trail.
func (s *Session) Breadcrumbs(ctx context.Context) ([]string, error) {
	var items []string
	if err := s.run(ctx, chromedp.Evaluate(breadcrumbScript, &items)); err != nil {
		return nil, fmt.Errorf("reading breadcrumbs: %w", err)
	}
	return items, nil
}

// TextContent reports the trimmed text of the first element matching
// selector, or "" when nothing matches. A missing element is not an
// error; callers probe several selectors in sequence.
func (s *Session) TextContent(ctx context.Context, selector string) (string, error) {
	script := fmt.Sprintf(
		`(() => { const el = document.querySelector(%s); return el ? el.textContent.trim() : ""; })()`,
		strconv.Quote(selector),
	)
	var text string
	if err := s.run(ctx, chromedp.Evaluate(script, &text)); err != nil {
		return "", fmt.Errorf("reading text of %q: %w", selector, err)
	}
	return text, nil
}

// FinalDOM serializes the full document as it stands, including any
// state the session's interactions produced. Called once at stop.
func (s *Session) FinalDOM(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		root, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(root.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("capturing final DOM: %w", err)
	}
	return html, nil
}
