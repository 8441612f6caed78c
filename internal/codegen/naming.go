package codegen

import (
	"regexp"
	"strings"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
)

// fileNameAllowRe matches every character outside the safe set for
// generated file names.
var fileNameAllowRe = regexp.MustCompile(`[^a-z0-9]+`)

// windowsReservedNames would collide with device files on NTFS
// checkouts of the generated suite.
var windowsReservedNames = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
	"com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
	"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// SafeFileName lowercases and dash-joins input into a file-system and
// URL safe base name, bounded to 50 characters on a dash boundary.
// Camel-case boundaries split, so page ids come out readable.
func SafeFileName(input string) string {
	var split strings.Builder
	var prev rune
	for _, r := range strings.TrimSpace(input) {
		if r >= 'A' && r <= 'Z' && ((prev >= 'a' && prev <= 'z') || (prev >= '0' && prev <= '9')) {
			split.WriteByte('-')
		}
		split.WriteRune(r)
		prev = r
	}

	name := strings.ToLower(split.String())
	name = fileNameAllowRe.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if len(name) > 50 {
		name = name[:50]
		if i := strings.LastIndex(name, "-"); i > 0 {
			name = name[:i]
		}
	}
	name = strings.TrimRight(name, "-")

	if name == "" {
		name = "generated"
	}
	if _, reserved := windowsReservedNames[name]; reserved {
		name = "page-" + name
	}
	return name
}

// tsString renders a single-quoted TypeScript string literal.
func tsString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// renderLocator emits the Playwright locator expression for one
// strategy, rooted at the given receiver expression.
func renderLocator(recv string, loc schemas.Locator) string {
	switch loc.Strategy {
	case schemas.StrategyPlatformAttr:
		return recv + ".locator(" + tsString("["+loc.AttrName+"="+`"`+loc.AttrValue+`"`+"]") + ")"
	case schemas.StrategyRole:
		return recv + ".getByRole(" + tsString(loc.Role) + ", { name: " + tsString(loc.Name) + " })"
	case schemas.StrategyLabel:
		return recv + ".getByLabel(" + tsString(loc.Text) + ")"
	case schemas.StrategyPlaceholder:
		return recv + ".getByPlaceholder(" + tsString(loc.Text) + ")"
	case schemas.StrategyText:
		if loc.Exact {
			return recv + ".getByText(" + tsString(loc.Text) + ", { exact: true })"
		}
		return recv + ".getByText(" + tsString(loc.Text) + ")"
	case schemas.StrategyTestID:
		return recv + ".getByTestId(" + tsString(loc.TestID) + ")"
	case schemas.StrategyXPath:
		return recv + ".locator(" + tsString("xpath="+loc.Selector) + ")"
	default:
		return recv + ".locator(" + tsString(loc.Selector) + ")"
	}
}

// className derives the exported page-object class name for a page id.
func className(pageID string) string {
	name := schemas.PascalIdent(pageID)
	if name == "" {
		name = "Unknown"
	}
	if !strings.HasSuffix(name, "Page") {
		name += "Page"
	}
	return name
}

// reservedVars are identifiers the generated script already binds.
var reservedVars = map[string]struct{}{
	"page": {}, "row": {}, "rows": {}, "test": {}, "index": {}, "expect": {},
}

// pageVarName derives the instance variable for a page object inside
// the generated script.
func pageVarName(pageID string) string {
	name := schemas.CamelIdent(pageID)
	if name == "" {
		name = "view"
	}
	if _, taken := reservedVars[name]; taken {
		name += "View"
	}
	return name
}
