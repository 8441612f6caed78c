package codegen

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
)

// buildIntent renders the bundle's INTENT.md: what the test does, in
// reviewer-readable form, so nobody has to reverse-engineer the spec
// source to understand the recorded flow.
func buildIntent(steps []schemas.RecordedStep, identities map[string]schemas.PageIdentity, columns []schemas.Parameter, flagged []string, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", opts.testName())
	if opts.TargetURL != "" {
		fmt.Fprintf(&b, "Recorded against %s.\n\n", opts.TargetURL)
	}

	b.WriteString("## Pages\n\n")
	seen := make(map[string]struct{})
	for _, step := range steps {
		if step.PageID == "" {
			continue
		}
		if _, ok := seen[step.PageID]; ok {
			continue
		}
		seen[step.PageID] = struct{}{}
		if identity, ok := identities[step.PageID]; ok {
			fmt.Fprintf(&b, "- **%s**: %q (%s)", step.PageID, identity.Caption, identity.Type)
			if identity.MenuRef != "" {
				fmt.Fprintf(&b, ", menu item `%s`", identity.MenuRef)
			}
			b.WriteString("\n")
		} else {
			fmt.Fprintf(&b, "- **%s**\n", step.PageID)
		}
	}

	b.WriteString("\n## Steps\n\n")
	for i, step := range steps {
		fmt.Fprintf(&b, "%d. %s", i+1, step.Description)
		if step.Param != "" {
			fmt.Fprintf(&b, " (parameter `%s`)", step.Param)
		} else if step.Value != "" {
			fmt.Fprintf(&b, " (%q)", step.Value)
		}
		if step.Heavy {
			b.WriteString(", then waits for the page to stabilize")
		}
		b.WriteString("\n")
	}

	if len(columns) > 0 {
		b.WriteString("\n## Parameters\n\n")
		b.WriteString("| Column | Label | Recorded example |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, column := range columns {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n", column.Column, column.Label, column.Example)
		}
	}

	if len(flagged) > 0 {
		b.WriteString("\n## Fragile locators\n\n")
		b.WriteString("These fell through to structural selectors and should be upgraded\n")
		b.WriteString("to stable attributes when possible:\n\n")
		for _, key := range flagged {
			fmt.Fprintf(&b, "- `%s`\n", key)
		}
	}
	return b.String()
}
