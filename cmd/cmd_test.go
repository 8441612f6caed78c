// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/bundle"
)

// executeCommandNoPreRun is for testing argument and flag validation
// without triggering config loading in PersistentPreRunE.
func executeCommandNoPreRun(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// A new root command per test run keeps flag state isolated.
	testRootCmd := NewRootCommand()
	testRootCmd.PersistentPreRunE = nil

	buf := new(bytes.Buffer)
	testRootCmd.SetOut(buf)
	testRootCmd.SetErr(buf)
	testRootCmd.SetArgs(args)
	err := testRootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// executeCommand runs the full command path, config loading included.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	testRootCmd := NewRootCommand()

	buf := new(bytes.Buffer)
	testRootCmd.SetOut(buf)
	testRootCmd.SetErr(buf)
	testRootCmd.SetArgs(args)
	err := testRootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeFixtureBundle saves a minimal recorded session into dir, as the
// record command would have left it.
func writeFixtureBundle(t *testing.T, dir, finalDOM string) {
	t.Helper()

	newLoc := schemas.RoleLocator("button", "New")
	custLoc := schemas.LabelLocator("Customer account")
	ordersURL := "https://contoso.operations.dynamics.com/?cmp=USMF&mi=SalesTableListPage"

	session := &schemas.Session{
		ID:        "sess-fixture",
		TargetURL: ordersURL,
		State:     schemas.SessionStopped,
		StartedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		StoppedAt: time.Date(2026, 3, 10, 9, 4, 0, 0, time.UTC),
		Steps: []schemas.RecordedStep{
			{
				Order: 1, Action: schemas.ActionNavigate, PageID: "AllSalesOrders",
				PageURL: ordersURL, MenuRef: "SalesTableListPage",
				Description: "Navigate to All sales orders",
			},
			{
				Order: 2, Action: schemas.ActionClick, PageID: "AllSalesOrders",
				Locator: &newLoc, Label: "New", FieldName: "new",
				MethodName: "clickNew", ControlKind: "button",
				Description: "Click 'New'",
			},
			{
				Order: 3, Action: schemas.ActionFill, PageID: "SalesOrderDetails",
				Locator: &custLoc, Value: "US-027", Label: "Customer account",
				FieldName: "customerAccount", MethodName: "fillCustomerAccount",
				ControlKind: "combobox", Description: "Fill 'Customer account'",
			},
		},
		Pages: map[string]schemas.PageIdentity{
			"AllSalesOrders": {
				PageID: "AllSalesOrders", MenuRef: "SalesTableListPage",
				Caption: "All sales orders", Type: schemas.PageTypeList, URL: ordersURL,
			},
			"SalesOrderDetails": {
				PageID: "SalesOrderDetails", MenuRef: "SalesTable",
				Caption: "Sales order details", Type: schemas.PageTypeDetails,
			},
		},
		FinalDOM: finalDOM,
	}

	store := bundle.New(dir, zaptest.NewLogger(t))
	require.NoError(t, store.SaveSession(session))
}

func TestRecordCmd_RequiredArgs(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "record")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestCompileCmd_RequiredArgs(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "compile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestVerifyCmd_RequiredArgs(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "verify", "one", "two")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestCompileCmd_EndToEnd(t *testing.T) {
	workspace := t.TempDir()
	bundleDir := filepath.Join(workspace, "create-sales-order")
	writeFixtureBundle(t, bundleDir, "")

	_, err := executeCommand(t,
		"compile", bundleDir,
		"--workspace", workspace,
		"--name", "Create sales order",
	)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(bundleDir, "create-sales-order.spec.ts"))
	assert.FileExists(t, filepath.Join(bundleDir, "data.json"))
	assert.FileExists(t, filepath.Join(bundleDir, "INTENT.md"))
	assert.FileExists(t, filepath.Join(bundleDir, "pageobjects", "all-sales-orders.page.ts"))
	assert.FileExists(t, filepath.Join(workspace, "pages.json"))
}

func TestCompileCmd_KeepsBundleName(t *testing.T) {
	workspace := t.TempDir()
	bundleDir := filepath.Join(workspace, "order-flow")
	writeFixtureBundle(t, bundleDir, "")

	_, err := executeCommand(t, "compile", bundleDir, "--workspace", workspace, "--name", "Order flow")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(bundleDir, "order-flow.spec.ts"))

	// A recompile without --name must reuse the stored name instead of
	// falling back to a generic one.
	_, err = executeCommand(t, "compile", bundleDir, "--workspace", workspace)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(bundleDir, "order-flow.spec.ts"))
	assert.NoFileExists(t, filepath.Join(bundleDir, "recorded-flow.spec.ts"))
}

func TestVerifyCmd_HealthySnapshot(t *testing.T) {
	workspace := t.TempDir()
	bundleDir := filepath.Join(workspace, "verified-flow")
	dom := `<html><body>
		<button>New</button>
		<label for="cust">Customer account</label><input id="cust"/>
	</body></html>`
	writeFixtureBundle(t, bundleDir, dom)

	out, err := executeCommand(t, "verify", bundleDir, "--workspace", workspace)
	require.NoError(t, err, out)
	assert.FileExists(t, filepath.Join(workspace, "locators.json"))
}

func TestVerifyCmd_FailingLocator(t *testing.T) {
	workspace := t.TempDir()
	bundleDir := filepath.Join(workspace, "broken-flow")
	// The button survives but the labeled input is gone.
	writeFixtureBundle(t, bundleDir, `<html><body><button>New</button></body></html>`)

	_, err := executeCommand(t, "verify", bundleDir, "--workspace", workspace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed verification")
}

func TestVerifyCmd_NoSnapshot(t *testing.T) {
	workspace := t.TempDir()
	bundleDir := filepath.Join(workspace, "no-snap")
	writeFixtureBundle(t, bundleDir, "")

	_, err := executeCommand(t, "verify", bundleDir, "--workspace", workspace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no DOM snapshot")
}
