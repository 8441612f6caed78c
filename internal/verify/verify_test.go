package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/platform/dynamics"
)

// snapshotDOM approximates a saved form page: a command bar, a labeled
// field, and a grid cell.
const snapshotDOM = `<html><body>
  <div id="shell">
    <button data-dyn-controlname="SystemDefinedSaveButton">Save</button>
    <button>Save and close</button>
    <span role="treeitem">Accounts receivable</span>
    <label for="custAccount">Customer account</label>
    <input id="custAccount" type="text" />
    <label>Quantity <input type="text" /></label>
    <input type="search" placeholder="Search for a page" />
    <input type="text" aria-label="Invoice account" />
    <span data-testid="grid-cell-7">US-027</span>
    <a href="/orders">All sales orders</a>
    <div class="statusBar">Ready</div>
  </div>
</body></html>`

func newTestChecker(t *testing.T) *Checker {
	t.Helper()
	return New(dynamics.New().Profile(), zaptest.NewLogger(t))
}

func checkOne(t *testing.T, dom string, loc schemas.Locator) Result {
	t.Helper()
	results, err := newTestChecker(t).Check(dom, []schemas.Locator{loc})
	require.NoError(t, err)
	require.Len(t, results, 1)
	return results[0]
}

func TestCheckGradesStrategies(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		locator schemas.Locator
		state   schemas.LocatorState
		matches int
	}{
		{
			name:    "platform attribute single match",
			locator: schemas.PlatformAttrLocator("data-dyn-controlname", "SystemDefinedSaveButton"),
			state:   schemas.LocatorHealthy,
			matches: 1,
		},
		{
			name:    "platform attribute absent",
			locator: schemas.PlatformAttrLocator("data-dyn-controlname", "NavPaneExpand"),
			state:   schemas.LocatorFailing,
			matches: 0,
		},
		{
			name:    "role with unambiguous name",
			locator: schemas.RoleLocator("button", "Save and close"),
			state:   schemas.LocatorHealthy,
			matches: 1,
		},
		{
			name: "role name substring matches both buttons",
			// getByRole('button', { name: 'Save' }) would hit a strict
			// mode violation at runtime; the check predicts it.
			locator: schemas.RoleLocator("button", "Save"),
			state:   schemas.LocatorWarning,
			matches: 2,
		},
		{
			name:    "explicit role attribute",
			locator: schemas.RoleLocator("treeitem", "Accounts receivable"),
			state:   schemas.LocatorHealthy,
			matches: 1,
		},
		{
			name:    "implicit link role",
			locator: schemas.RoleLocator("link", "All sales orders"),
			state:   schemas.LocatorHealthy,
			matches: 1,
		},
		{
			name:    "label via for attribute",
			locator: schemas.LabelLocator("Customer account"),
			state:   schemas.LocatorHealthy,
			matches: 1,
		},
		{
			name:    "label via nesting",
			locator: schemas.LabelLocator("Quantity"),
			state:   schemas.LocatorHealthy,
			matches: 1,
		},
		{
			name:    "label via aria-label",
			locator: schemas.LabelLocator("Invoice account"),
			state:   schemas.LocatorHealthy,
			matches: 1,
		},
		{
			name:    "placeholder",
			locator: schemas.PlaceholderLocator("Search for a page"),
			state:   schemas.LocatorHealthy,
			matches: 1,
		},
		{
			name:    "exact text",
			locator: schemas.TextLocator("Ready", true),
			state:   schemas.LocatorHealthy,
			matches: 1,
		},
		{
			name:    "exact text mismatched case",
			locator: schemas.TextLocator("ready", true),
			state:   schemas.LocatorFailing,
			matches: 0,
		},
		{
			name:    "test id",
			locator: schemas.TestIDLocator("grid-cell-7"),
			state:   schemas.LocatorHealthy,
			matches: 1,
		},
		{
			name:    "flagged css with single match",
			locator: schemas.CSSLocator("#custAccount"),
			state:   schemas.LocatorWarning,
			matches: 1,
		},
		{
			name:    "flagged xpath with single match",
			locator: schemas.XPathLocator("//span[@data-testid='grid-cell-7']"),
			state:   schemas.LocatorWarning,
			matches: 1,
		},
		{
			name:    "css no match",
			locator: schemas.CSSLocator("#gone"),
			state:   schemas.LocatorFailing,
			matches: 0,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := checkOne(t, snapshotDOM, tc.locator)
			assert.Equal(t, tc.state, result.Status.State)
			assert.Equal(t, tc.matches, result.Matches)
		})
	}
}

func TestCheckNotes(t *testing.T) {
	t.Parallel()

	ambiguous := checkOne(t, snapshotDOM, schemas.RoleLocator("button", "Save"))
	assert.Equal(t, "2 elements match", ambiguous.Status.Note)

	fragile := checkOne(t, snapshotDOM, schemas.CSSLocator("#custAccount"))
	assert.Equal(t, "fragile fallback strategy", fragile.Status.Note)

	missing := checkOne(t, snapshotDOM, schemas.TestIDLocator("gone"))
	assert.Equal(t, "no match in the final DOM", missing.Status.Note)
}

func TestCheckBadSelectors(t *testing.T) {
	t.Parallel()

	badXPath := checkOne(t, snapshotDOM, schemas.XPathLocator("///["))
	assert.Equal(t, schemas.LocatorFailing, badXPath.Status.State)
	assert.Equal(t, "xpath did not parse", badXPath.Status.Note)

	badCSS := checkOne(t, snapshotDOM, schemas.CSSLocator("div[["))
	assert.Equal(t, schemas.LocatorFailing, badCSS.Status.State)
	assert.Equal(t, "selector did not parse", badCSS.Status.Note)
}

func TestCheckEmptySnapshot(t *testing.T) {
	t.Parallel()

	_, err := newTestChecker(t).Check("   ", []schemas.Locator{schemas.CSSLocator("body")})
	assert.Error(t, err)
}

func TestCheckStepsDedupes(t *testing.T) {
	t.Parallel()

	save := schemas.PlatformAttrLocator("data-dyn-controlname", "SystemDefinedSaveButton")
	account := schemas.LabelLocator("Customer account")
	steps := []schemas.RecordedStep{
		{Action: schemas.ActionNavigate},
		{Action: schemas.ActionClick, Locator: &save},
		{Action: schemas.ActionFill, Locator: &account},
		{Action: schemas.ActionClick, Locator: &save},
	}

	results, err := newTestChecker(t).CheckSteps(snapshotDOM, steps)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, save.Key(), results[0].Key)
	assert.Equal(t, account.Key(), results[1].Key)
}

func TestStatusesReshape(t *testing.T) {
	t.Parallel()

	results, err := newTestChecker(t).Check(snapshotDOM, []schemas.Locator{
		schemas.LabelLocator("Customer account"),
		schemas.TestIDLocator("gone"),
	})
	require.NoError(t, err)

	statuses := Statuses(results)
	require.Len(t, statuses, 2)
	assert.Equal(t, schemas.LocatorHealthy, statuses["label:Customer account"].State)
	assert.Equal(t, schemas.LocatorFailing, statuses["testId:gone"].State)
}
