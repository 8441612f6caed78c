// File: cmd/verify.go
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/bundle"
	"github.com/xkilldash9x/scribe-cli/internal/observability"
	"github.com/xkilldash9x/scribe-cli/internal/registry"
	"github.com/xkilldash9x/scribe-cli/internal/verify"
)

// newVerifyCmd creates and configures the `verify` command.
func newVerifyCmd() *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify [bundle-dir]",
		Short: "Checks the bundle's locators against the saved DOM snapshot",
		Long: `Verify replays every locator the recorded steps rely on against the
DOM snapshot captured when the session stopped. Zero matches means the
locator broke; multiple matches predict a strict-mode violation when
the generated test runs. Results land in the locator status registry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			caps, err := resolvePlatform(cfg)
			if err != nil {
				return err
			}

			store := bundle.New(args[0], logger)
			session, err := store.LoadSession()
			if err != nil {
				return err
			}
			if session.FinalDOM == "" {
				return fmt.Errorf("bundle has no DOM snapshot; record the session again to enable offline verification")
			}

			checker := verify.New(caps.Profile(), logger)
			results, err := checker.CheckSteps(session.FinalDOM, session.Steps)
			if err != nil {
				return err
			}

			reg := registry.New(cfg.Workspace, logger)
			if err := reg.UpdateLocators(verify.Statuses(results)); err != nil {
				return err
			}

			var healthy, warnings, failing int
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Locator", "Matches", "State", "Note"})
			for _, res := range results {
				row := []string{res.Key, strconv.Itoa(res.Matches), string(res.Status.State), res.Status.Note}
				switch res.Status.State {
				case schemas.LocatorFailing:
					failing++
					table.Rich(row, []tablewriter.Colors{{tablewriter.Normal, tablewriter.FgRedColor}, {tablewriter.Normal, tablewriter.FgRedColor}, {tablewriter.Normal, tablewriter.FgRedColor}, {tablewriter.Normal, tablewriter.FgRedColor}})
				case schemas.LocatorWarning:
					warnings++
					table.Rich(row, []tablewriter.Colors{{tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}, {tablewriter.Normal, tablewriter.FgYellowColor}})
				default:
					healthy++
					table.Append(row)
				}
			}
			table.SetBorder(false)
			table.Render()

			fmt.Printf("\n%d locators checked: %d healthy, %d warnings, %d failing.\n",
				len(results), healthy, warnings, failing)
			if failing > 0 {
				return fmt.Errorf("%d locators failed verification", failing)
			}
			return nil
		},
	}

	return verifyCmd
}
