// File: cmd/compile.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/scribe-cli/internal/bundle"
	"github.com/xkilldash9x/scribe-cli/internal/observability"
	"github.com/xkilldash9x/scribe-cli/internal/registry"
)

// newCompileCmd creates and configures the `compile` command.
func newCompileCmd() *cobra.Command {
	compileCmd := &cobra.Command{
		Use:   "compile [bundle-dir]",
		Short: "Recompiles the test bundle from a previously recorded session",
		Long: `Compile replays the offline half of the pipeline against the saved
steps.json: cleaning, parameterization, and code generation. Manual
edits inside generated page-object methods and user-entered fixture
values survive recompilation; use it after editing steps.json or after
upgrading scribe.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("codegen.test_name", cmd.Flags().Lookup("name"))
		},
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

			// Without an explicit name the previous bundle's name wins,
			// so recompiling in place never renames the spec file.
			testName := cfg.Codegen.TestName
			if testName == "" {
				if meta, err := store.Meta(); err == nil && meta != nil {
					testName = meta.TestName
				}
			}

			reg := registry.New(cfg.Workspace, logger)
			artifacts, err := compileSession(store, reg, session, caps, cfg, testName, logger)
			if err != nil {
				return err
			}

			fmt.Printf("Bundle recompiled: %s\n", store.Dir())
			fmt.Printf("Spec: %s\n", store.SpecPath(artifacts))
			return nil
		},
	}

	compileCmd.Flags().StringP("name", "n", "", "Test name override; defaults to the bundle's recorded name.")

	return compileCmd
}
