// Package codegen compiles a cleaned, parameterized step sequence into
// the test bundle artifacts: one Playwright page-object class per
// distinct page, a data-driven spec file, a fixture, and a
// human-readable intent summary. Compilation is deterministic and
// purely in memory; nothing here touches the filesystem.
package codegen

import (
	"fmt"
	"time"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
)

// Previous carries earlier generation output so regeneration preserves
// manual edits: page-object sources keyed by page id, and the fixture
// rows the user may have filled in.
type Previous struct {
	PageObjects map[string]string
	Fixture     []schemas.FixtureRow
}

// Options tunes one compilation.
type Options struct {
	// TestName names the describe block, spec file, and bundle.
	TestName string
	// MenuParam is the platform's menu-item query parameter, used by
	// the semantic navigation helper.
	MenuParam string
	// SessionID and TargetURL are carried into the bundle metadata.
	SessionID string
	TargetURL string
	// StabilizationWait bounds the settle wait injected after heavy
	// actions. Zero selects the built-in bound.
	StabilizationWait time.Duration
	Previous          *Previous
}

func (o Options) menuParam() string {
	if o.MenuParam == "" {
		return "mi"
	}
	return o.MenuParam
}

func (o Options) testName() string {
	if o.TestName == "" {
		return "Recorded flow"
	}
	return o.TestName
}

// Compile turns the finalized steps into a complete artifact set. It
// fails with an explicit error rather than emitting a partial bundle.
func Compile(steps []schemas.RecordedStep, identities map[string]schemas.PageIdentity, opts Options) (*schemas.Artifacts, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("codegen: no steps to compile")
	}

	var prevObjects map[string]string
	var prevFixture []schemas.FixtureRow
	if opts.Previous != nil {
		prevObjects = opts.Previous.PageObjects
		prevFixture = opts.Previous.Fixture
	}

	files, bindings, err := buildPageObjects(steps, prevObjects)
	if err != nil {
		return nil, err
	}

	columns := deriveColumns(steps)
	flagged := collectFlagged(steps)
	name := opts.testName()
	opts.TestName = name

	pageIDs := make([]string, 0, len(files))
	for _, file := range files {
		pageIDs = append(pageIDs, file.PageID)
	}

	return &schemas.Artifacts{
		PageObjects: files,
		SpecSource:  buildSpec(steps, files, bindings, opts),
		SpecFile:    SafeFileName(name) + ".spec.ts",
		Fixture:     buildFixture(columns, prevFixture),
		Intent:      buildIntent(steps, identities, columns, flagged, opts),
		Meta: schemas.BundleMeta{
			TestName:        name,
			GeneratedAt:     time.Now().UTC(),
			SessionID:       opts.SessionID,
			TargetURL:       opts.TargetURL,
			StepCount:       len(steps),
			PageIDs:         pageIDs,
			Parameters:      columns,
			FlaggedLocators: flagged,
		},
	}, nil
}

// deriveColumns recovers the ordered parameter columns from the
// per-step bindings the parameterizer left behind.
func deriveColumns(steps []schemas.RecordedStep) []schemas.Parameter {
	var columns []schemas.Parameter
	seen := make(map[string]int)
	for _, step := range steps {
		if step.Param == "" {
			continue
		}
		if at, ok := seen[step.Param]; ok {
			if columns[at].Example == "" {
				columns[at].Example = step.Value
			}
			continue
		}
		seen[step.Param] = len(columns)
		columns = append(columns, schemas.Parameter{
			Column:  step.Param,
			Label:   step.Label,
			Example: step.Value,
		})
	}
	return columns
}

// collectFlagged lists the registry keys of fragile fallback locators
// that made it into generated code, in first-use order.
func collectFlagged(steps []schemas.RecordedStep) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, step := range steps {
		if step.Locator == nil || !step.Locator.Flagged {
			continue
		}
		key := step.Locator.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
