package cleaner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/platform/dynamics"
)

const appURL = "https://contoso.operations.dynamics.com"

func newTestCleaner() *Cleaner {
	return New(dynamics.New().Profile())
}

func nav(url string) schemas.RecordedStep {
	return schemas.RecordedStep{Action: schemas.ActionNavigate, PageURL: url, Description: "Navigate to " + url}
}

func click(name string) schemas.RecordedStep {
	loc := schemas.RoleLocator("button", name)
	return schemas.RecordedStep{Action: schemas.ActionClick, Locator: &loc, Description: "Click '" + name + "'"}
}

func fill(label, value string) schemas.RecordedStep {
	loc := schemas.LabelLocator(label)
	return schemas.RecordedStep{Action: schemas.ActionFill, Locator: &loc, Value: value}
}

func TestCleanAuthAndRedirectChain(t *testing.T) {
	t.Parallel()
	c := newTestCleaner()

	// Sign-in detour, interstitial hop, landing page, one click, and
	// the route-change ghost that click produced.
	steps := []schemas.RecordedStep{
		nav("https://login.microsoftonline.com/common/oauth2/v2.0/authorize?client_id=x"),
		nav(appURL + "/redirecting?to=home"),
		nav(appURL + "/?cmp=USMF&mi=SalesTableListPage"),
		click("New"),
		nav(appURL + "/?cmp=USMF&mi=SalesTableListPage&dialog=create"),
	}

	cleaned := c.Clean(steps)
	require.Len(t, cleaned, 2)
	assert.Equal(t, schemas.ActionNavigate, cleaned[0].Action)
	assert.Equal(t, appURL+"/?cmp=USMF&mi=SalesTableListPage", cleaned[0].PageURL)
	assert.Equal(t, schemas.ActionClick, cleaned[1].Action)
	assert.Equal(t, 1, cleaned[0].Order)
	assert.Equal(t, 2, cleaned[1].Order)
}

func TestCleanCollapsesRedirectRuns(t *testing.T) {
	t.Parallel()
	c := newTestCleaner()

	steps := []schemas.RecordedStep{
		nav(appURL + "/?mi=Hop1"),
		nav(appURL + "/?mi=Hop2"),
		nav(appURL + "/?mi=Hop3"),
		nav(appURL + "/?mi=Final"),
		click("OK"),
	}

	cleaned := c.Clean(steps)
	require.Len(t, cleaned, 2)
	assert.Equal(t, appURL+"/?mi=Final", cleaned[0].PageURL)
	assert.Equal(t, schemas.ActionClick, cleaned[1].Action)
}

func TestCleanIdentityProviderHosts(t *testing.T) {
	t.Parallel()
	c := newTestCleaner()

	testCases := []struct {
		name string
		url  string
		drop bool
	}{
		{name: "microsoft online", url: "https://login.microsoftonline.com/common", drop: true},
		{name: "sts subdomain", url: "https://tenant.sts.windows.net/adfs", drop: true},
		{name: "oidc callback", url: appURL + "/signin-oidc?code=abc", drop: true},
		{name: "blank", url: "", drop: true},
		{name: "application page", url: appURL + "/?mi=CustTable", drop: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cleaned := c.Clean([]schemas.RecordedStep{nav(tc.url)})
			if tc.drop {
				assert.Empty(t, cleaned)
			} else {
				assert.Len(t, cleaned, 1)
			}
		})
	}
}

func TestCleanDeduplicatesDoubledClicks(t *testing.T) {
	t.Parallel()
	c := newTestCleaner()

	cleaned := c.Clean([]schemas.RecordedStep{click("OK"), click("OK")})
	require.Len(t, cleaned, 1)
	assert.Equal(t, "Click 'OK'", cleaned[0].Description)

	cleaned = c.Clean([]schemas.RecordedStep{click("OK"), click("Cancel")})
	assert.Len(t, cleaned, 2)

	// An intervening kept step makes the repeat intentional.
	cleaned = c.Clean([]schemas.RecordedStep{click("Add line"), fill("Quantity", "2"), click("Add line")})
	assert.Len(t, cleaned, 3)
}

func TestCleanDropsWaits(t *testing.T) {
	t.Parallel()
	c := newTestCleaner()

	steps := []schemas.RecordedStep{
		click("Save"),
		{Action: schemas.ActionWait, Description: "wait"},
		fill("Name", "Contoso"),
	}
	cleaned := c.Clean(steps)
	require.Len(t, cleaned, 2)
	assert.Equal(t, schemas.ActionClick, cleaned[0].Action)
	assert.Equal(t, schemas.ActionFill, cleaned[1].Action)
}

func TestCleanKeepsFillsAndSelects(t *testing.T) {
	t.Parallel()
	c := newTestCleaner()

	loc := schemas.LabelLocator("Site")
	steps := []schemas.RecordedStep{
		fill("Customer account", "US-027"),
		fill("Customer account", "US-027"),
		{Action: schemas.ActionSelect, Locator: &loc, Value: "Site 2"},
	}
	cleaned := c.Clean(steps)
	assert.Len(t, cleaned, 3)
}

func TestCleanNavigationAfterFillSurvives(t *testing.T) {
	t.Parallel()
	c := newTestCleaner()

	steps := []schemas.RecordedStep{
		click("Edit"),
		fill("Name", "Contoso"),
		nav(appURL + "/?mi=CustTable"),
	}
	cleaned := c.Clean(steps)
	require.Len(t, cleaned, 3)
	assert.Equal(t, schemas.ActionNavigate, cleaned[2].Action)
}

func TestCleanAuthHopDoesNotSupersede(t *testing.T) {
	t.Parallel()
	c := newTestCleaner()

	// A trailing auth bounce must not swallow the real destination.
	steps := []schemas.RecordedStep{
		nav(appURL + "/?mi=CustTable"),
		nav("https://login.microsoftonline.com/refresh"),
		click("Edit"),
	}
	cleaned := c.Clean(steps)
	require.Len(t, cleaned, 2)
	assert.Equal(t, appURL+"/?mi=CustTable", cleaned[0].PageURL)
}

func TestCleanIdempotent(t *testing.T) {
	t.Parallel()
	c := newTestCleaner()

	inputs := [][]schemas.RecordedStep{
		{
			nav("https://login.microsoftonline.com/authorize"),
			nav(appURL + "/?mi=Hop"),
			nav(appURL + "/?mi=SalesTableListPage"),
			click("New"),
			nav(appURL + "/?mi=SalesTableListPage&dialog=create"),
			click("OK"),
			click("OK"),
			fill("Customer account", "US-027"),
		},
		{
			click("Save"),
			nav(appURL + "/?mi=A"),
			nav(appURL + "/?mi=B"),
		},
		{},
		{fill("Name", "x"), fill("Name", "x")},
	}

	for _, input := range inputs {
		once := c.Clean(input)
		twice := c.Clean(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("second pass changed the sequence. Diff:\n%s", diff)
		}
	}
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	c := newTestCleaner()

	steps := []schemas.RecordedStep{
		nav(appURL + "/?mi=Hop"),
		nav(appURL + "/?mi=Final"),
		click("OK"),
	}
	steps[0].Order, steps[1].Order, steps[2].Order = 1, 2, 3

	snapshot := make([]schemas.RecordedStep, len(steps))
	copy(snapshot, steps)

	_ = c.Clean(steps)
	if diff := cmp.Diff(snapshot, steps); diff != "" {
		t.Errorf("input mutated. Diff:\n%s", diff)
	}
}

func TestCleanRenumbersDensely(t *testing.T) {
	t.Parallel()
	c := newTestCleaner()

	steps := []schemas.RecordedStep{
		nav("https://login.microsoftonline.com/authorize"),
		nav(appURL + "/?mi=Final"),
		click("Post"),
		fill("Amount", "100"),
	}
	steps[0].Order, steps[1].Order, steps[2].Order, steps[3].Order = 3, 7, 9, 12

	cleaned := c.Clean(steps)
	require.Len(t, cleaned, 3)
	for i, step := range cleaned {
		assert.Equal(t, i+1, step.Order)
	}
}
