package schemas

import "time"

// LocatorState is the verified health of a locator in the status registry.
type LocatorState string

const (
	LocatorHealthy LocatorState = "healthy"
	LocatorWarning LocatorState = "warning"
	LocatorFailing LocatorState = "failing"
)

// LocatorStatus is one locator status registry entry, keyed externally by
// Locator.Key().
type LocatorStatus struct {
	State     LocatorState `json:"state"`
	Note      string       `json:"note,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// PageRecord is one page registry entry, keyed externally by PageID.
type PageRecord struct {
	ClassName string       `json:"class_name"`
	FilePath  string       `json:"file_path"`
	Identity  PageIdentity `json:"identity"`
}

// PageObjectFile is one generated page-object class.
type PageObjectFile struct {
	PageID    string `json:"page_id"`
	ClassName string `json:"class_name"`
	FileName  string `json:"file_name"`
	Source    string `json:"source"`
}

// Parameter is one data-driven column of the fixture.
type Parameter struct {
	// Column is the fixture column name (lowerCamel).
	Column string `json:"column"`
	// Label is the human label the column was derived from.
	Label string `json:"label"`
	// Example is the value recorded during the session.
	Example string `json:"example,omitempty"`
}

// FixtureRow is one row of the data fixture: column name to value.
type FixtureRow map[string]string

// BundleMeta is the structured metadata of a generated test bundle.
type BundleMeta struct {
	TestName    string      `json:"test_name"`
	GeneratedAt time.Time   `json:"generated_at"`
	SessionID   string      `json:"session_id,omitempty"`
	TargetURL   string      `json:"target_url,omitempty"`
	StepCount   int         `json:"step_count"`
	PageIDs     []string    `json:"page_ids"`
	Parameters  []Parameter `json:"parameters"`
	// FlaggedLocators lists registry keys of fragile fallback locators
	// that made it into the generated code, for upgrade follow-up.
	FlaggedLocators []string `json:"flagged_locators,omitempty"`
}

// Artifacts is the complete output of one compilation. Produced in memory
// first; nothing is written to disk until the whole set exists, so a
// failure never leaves a partially written bundle.
type Artifacts struct {
	PageObjects []PageObjectFile `json:"page_objects"`
	SpecSource  string           `json:"spec_source"`
	SpecFile    string           `json:"spec_file"`
	Fixture     []FixtureRow     `json:"fixture"`
	Intent      string           `json:"intent"`
	Meta        BundleMeta       `json:"meta"`
}
