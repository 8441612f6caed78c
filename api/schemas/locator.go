package schemas

import "fmt"

// LocatorStrategy identifies which re-find strategy a Locator carries.
type LocatorStrategy string

const (
	StrategyPlatformAttr LocatorStrategy = "platformAttribute"
	StrategyRole         LocatorStrategy = "role"
	StrategyLabel        LocatorStrategy = "label"
	StrategyPlaceholder  LocatorStrategy = "placeholder"
	StrategyText         LocatorStrategy = "text"
	StrategyTestID       LocatorStrategy = "testId"
	StrategyCSS          LocatorStrategy = "css"
	StrategyXPath        LocatorStrategy = "xpath"
)

// Locator is a tagged union describing how to re-find a DOM element.
// Exactly one strategy is populated, discriminated by Strategy; use the
// constructor functions rather than building the struct by hand.
// Flagged marks the structurally weak fallback strategies (css, xpath) so
// downstream consumers can surface them for upgrade instead of trusting
// them silently.
type Locator struct {
	Strategy LocatorStrategy `json:"strategy"`

	// StrategyPlatformAttr
	AttrName  string `json:"attr_name,omitempty"`
	AttrValue string `json:"attr_value,omitempty"`

	// StrategyRole
	Role string `json:"role,omitempty"`
	Name string `json:"name,omitempty"`

	// StrategyLabel, StrategyPlaceholder, StrategyText
	Text  string `json:"text,omitempty"`
	Exact bool   `json:"exact,omitempty"`

	// StrategyTestID
	TestID string `json:"test_id,omitempty"`

	// StrategyCSS, StrategyXPath
	Selector string `json:"selector,omitempty"`

	Flagged bool `json:"flagged,omitempty"`
}

// PlatformAttrLocator locates an element by the target platform's stable
// control attribute, the strongest identifier in the application family.
func PlatformAttrLocator(name, value string) Locator {
	return Locator{Strategy: StrategyPlatformAttr, AttrName: name, AttrValue: value}
}

// RoleLocator locates an element by accessible role and accessible name.
func RoleLocator(role, name string) Locator {
	return Locator{Strategy: StrategyRole, Role: role, Name: name}
}

// LabelLocator locates an element by its associated label text.
func LabelLocator(text string) Locator {
	return Locator{Strategy: StrategyLabel, Text: text}
}

// PlaceholderLocator locates an input by its placeholder text.
func PlaceholderLocator(text string) Locator {
	return Locator{Strategy: StrategyPlaceholder, Text: text}
}

// TextLocator locates an element by its visible text.
func TextLocator(text string, exact bool) Locator {
	return Locator{Strategy: StrategyText, Text: text, Exact: exact}
}

// TestIDLocator locates an element by an explicit test-id attribute.
func TestIDLocator(value string) Locator {
	return Locator{Strategy: StrategyTestID, TestID: value}
}

// CSSLocator is the flagged fragile fallback: a raw CSS selector.
func CSSLocator(selector string) Locator {
	return Locator{Strategy: StrategyCSS, Selector: selector, Flagged: true}
}

// XPathLocator is the flagged fragile fallback: a raw XPath expression.
func XPathLocator(expr string) Locator {
	return Locator{Strategy: StrategyXPath, Selector: expr, Flagged: true}
}

// IsZero reports whether the locator carries no strategy at all.
func (l Locator) IsZero() bool {
	return l.Strategy == ""
}

// Value returns the primary text of the populated strategy. It is the
// "locatorText" half of the registry key and the input for identifier
// derivation.
func (l Locator) Value() string {
	switch l.Strategy {
	case StrategyPlatformAttr:
		return l.AttrValue
	case StrategyRole:
		return l.Name
	case StrategyLabel, StrategyPlaceholder, StrategyText:
		return l.Text
	case StrategyTestID:
		return l.TestID
	case StrategyCSS, StrategyXPath:
		return l.Selector
	}
	return ""
}

// Key renders the canonical registry key, "{strategyType}:{locatorText}".
// Role locators include the role so two controls sharing a name do not
// collide.
func (l Locator) Key() string {
	if l.Strategy == StrategyRole {
		return fmt.Sprintf("%s:%s/%s", l.Strategy, l.Role, l.Name)
	}
	return fmt.Sprintf("%s:%s", l.Strategy, l.Value())
}

// Equal reports structural equality: same strategy and same strategy
// payload. Flagged is part of the structure, not an annotation, so two
// otherwise identical CSS locators with different flags are not equal.
func (l Locator) Equal(other Locator) bool {
	return l == other
}

// String returns a short human-readable description used in step lists
// and log lines.
func (l Locator) String() string {
	switch l.Strategy {
	case StrategyPlatformAttr:
		return fmt.Sprintf("[%s=%q]", l.AttrName, l.AttrValue)
	case StrategyRole:
		return fmt.Sprintf("%s %q", l.Role, l.Name)
	case StrategyLabel:
		return fmt.Sprintf("label %q", l.Text)
	case StrategyPlaceholder:
		return fmt.Sprintf("placeholder %q", l.Text)
	case StrategyText:
		return fmt.Sprintf("text %q", l.Text)
	case StrategyTestID:
		return fmt.Sprintf("test-id %q", l.TestID)
	case StrategyCSS:
		return fmt.Sprintf("css %q", l.Selector)
	case StrategyXPath:
		return fmt.Sprintf("xpath %q", l.Selector)
	}
	return "<empty locator>"
}
