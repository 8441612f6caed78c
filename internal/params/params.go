// Package params runs the two pre-compilation passes over a cleaned
// step sequence: marking heavy actions so the generator can inject
// stabilization waits after them, and proposing data-driven parameter
// columns from fill and select labels. Both passes are pure and
// idempotent.
package params

import (
	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/platform"
)

// dropdownKinds are the control kinds whose Enter confirmation forces
// a server round trip in the target application family.
var dropdownKinds = map[string]bool{
	"combobox": true,
	"listbox":  true,
	"select":   true,
}

// Parameterizer applies one platform's heavy-action vocabulary.
type Parameterizer struct {
	caps platform.Capabilities
}

// New builds a Parameterizer over the platform capability set.
func New(caps platform.Capabilities) *Parameterizer {
	return &Parameterizer{caps: caps}
}

// Process runs MarkHeavy then Propose; the common compile path.
func (p *Parameterizer) Process(steps []schemas.RecordedStep) ([]schemas.RecordedStep, []schemas.Parameter) {
	return p.Propose(p.MarkHeavy(steps))
}

// MarkHeavy returns a copy with Heavy set on steps that trigger
// expensive server-side processing:
//
//   - clicks whose resolved name matches the platform's heavy-action
//     vocabulary (save, new, post, confirm, ...)
//   - any tree-item activation
//   - fills confirmed with Enter on a dropdown-style control
//
// The input is never mutated.
func (p *Parameterizer) MarkHeavy(steps []schemas.RecordedStep) []schemas.RecordedStep {
	out := make([]schemas.RecordedStep, len(steps))
	copy(out, steps)
	for i := range out {
		out[i].Heavy = p.heavy(out[i])
	}
	return out
}

func (p *Parameterizer) heavy(step schemas.RecordedStep) bool {
	switch step.Action {
	case schemas.ActionClick:
		if step.ControlKind == "treeitem" {
			return true
		}
		name := step.Label
		if name == "" {
			name = step.FieldName
		}
		return p.caps.IsHeavyAction(name)
	case schemas.ActionFill:
		return step.Commit && dropdownKinds[step.ControlKind]
	}
	return false
}

// Propose derives one fixture column per distinct fill/select field,
// in first-seen order, and binds each matching step to its column via
// Param. A step with no derivable field name stays literal. The input
// is never mutated.
func (p *Parameterizer) Propose(steps []schemas.RecordedStep) ([]schemas.RecordedStep, []schemas.Parameter) {
	out := make([]schemas.RecordedStep, len(steps))
	copy(out, steps)

	var columns []schemas.Parameter
	seen := make(map[string]int)

	for i := range out {
		step := &out[i]
		if step.Action != schemas.ActionFill && step.Action != schemas.ActionSelect {
			continue
		}
		column := step.FieldName
		if column == "" {
			column = schemas.CamelIdent(step.Label)
		}
		if column == "" {
			continue
		}
		step.Param = column

		if at, ok := seen[column]; ok {
			if columns[at].Example == "" {
				columns[at].Example = step.Value
			}
			continue
		}
		seen[column] = len(columns)
		columns = append(columns, schemas.Parameter{
			Column:  column,
			Label:   step.Label,
			Example: step.Value,
		})
	}
	return out, columns
}
