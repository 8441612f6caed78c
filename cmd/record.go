package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/scribe-cli/internal/browser"
	"github.com/xkilldash9x/scribe-cli/internal/bundle"
	"github.com/xkilldash9x/scribe-cli/internal/capture"
	"github.com/xkilldash9x/scribe-cli/internal/classify"
	"github.com/xkilldash9x/scribe-cli/internal/codegen"
	"github.com/xkilldash9x/scribe-cli/internal/locator"
	"github.com/xkilldash9x/scribe-cli/internal/observability"
	"github.com/xkilldash9x/scribe-cli/internal/recorder"
	"github.com/xkilldash9x/scribe-cli/internal/registry"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
)

// stopTimeout bounds the orderly shutdown after a stop request: event
// drain, final DOM snapshot, and capture detach all happen within it.
const stopTimeout = 15 * time.Second

// newRecordCmd creates and configures the `record` command.
func newRecordCmd() *cobra.Command {
	recordCmd := &cobra.Command{
		Use:   "record [target-url]",
		Short: "Records an interactive browser session and compiles it into a test bundle",
		Long: `Record opens a browser on the target URL and watches you drive it.
Every click, fill, and navigation is resolved to a stable locator and a
page identity as it happens. Stopping the session (Ctrl+C, or closing
the browser) freezes the step list, snapshots the final DOM, and
compiles the Playwright bundle in one pass.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so command-line values
			// override the config file and environment.
			if err := viper.BindPFlag("codegen.test_name", cmd.Flags().Lookup("name")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			if err := viper.BindPFlag("platform.name", cmd.Flags().Lookup("platform")); err != nil {
				return err
			}
			return viper.BindPFlag("platform.overlay", cmd.Flags().Lookup("overlay"))
		},
		RunE: runRecord,
	}

	recordCmd.Flags().StringP("name", "n", "", "Test name; also names the bundle directory. (Overrides config/env)")
	recordCmd.Flags().Bool("headless", false, "Run the browser headless. Only useful with scripted interaction.")
	recordCmd.Flags().String("platform", "dynamics", "Target platform capability set. (Overrides config/env)")
	recordCmd.Flags().String("overlay", "", "YAML overlay extending the platform's pattern tables. (Overrides config/env)")

	return recordCmd
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	caps, err := resolvePlatform(cfg)
	if err != nil {
		return err
	}
	profile := caps.Profile()

	target := ensureScheme(args[0])
	testName := cfg.Codegen.TestName
	if testName == "" {
		testName = "Recorded flow"
	}

	store := bundle.New(filepath.Join(cfg.Workspace, codegen.SafeFileName(testName)), logger)
	reg := registry.New(cfg.Workspace, logger)

	// The browser outlives the signal context on purpose: a stop
	// request must still be able to snapshot the DOM and detach.
	session, err := browser.NewSession(context.Background(), cfg.Browser, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Navigate(ctx, target); err != nil {
		return err
	}

	preview := func(steps []schemas.RecordedStep) (string, error) {
		artifacts, err := codegen.Compile(steps, nil, codegen.Options{
			TestName:          testName,
			MenuParam:         profile.MenuParam,
			StabilizationWait: cfg.Codegen.StabilizationWait,
		})
		if err != nil {
			return "", err
		}
		return artifacts.SpecSource, nil
	}

	eng, err := recorder.NewEngine(cfg.Recorder, recorder.Options{
		Source:       capture.New(profile, cfg.Recorder, logger),
		Reader:       session,
		Classifier:   classify.New(caps, cfg.Classify, logger),
		Extractor:    locator.New(profile, cfg.Recorder),
		Capabilities: caps,
		Snapshotter:  session,
		Render:       preview,
	}, logger)
	if err != nil {
		return err
	}

	recording, err := eng.Start(session.Context(), target)
	if err != nil {
		return err
	}

	fmt.Printf("Recording session %s. Interact with the page; press Ctrl+C to stop.\n", recording.ID)

	// Live feedback: recorded steps go to the terminal, the regenerated
	// spec preview to a file the user can watch.
	previewPath := filepath.Join(store.Dir(), "preview.spec.ts")
	done := make(chan struct{})
	var feed errgroup.Group
	feed.Go(func() error {
		for {
			select {
			case step := <-eng.StepStream():
				fmt.Printf("  %3d. [%s] %s\n", step.Order, step.Action, step.Description)
			case <-done:
				return nil
			}
		}
	})
	feed.Go(func() error {
		for {
			select {
			case source := <-eng.CodePreview():
				if err := os.MkdirAll(store.Dir(), 0755); err != nil {
					continue
				}
				if err := os.WriteFile(previewPath, []byte(source), 0644); err != nil {
					logger.Debug("Preview write failed.", zap.Error(err))
				}
			case <-done:
				return nil
			}
		}
	})

	select {
	case <-ctx.Done():
		fmt.Println("\nStopping recording.")
	case <-session.Context().Done():
		fmt.Println("\nBrowser closed; finishing the session.")
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelStop()

	finished, err := eng.Stop(stopCtx)
	close(done)
	_ = feed.Wait()
	_ = os.Remove(previewPath)
	if err != nil {
		return err
	}
	if finished.DroppedEvents > 0 {
		logger.Warn("Some interaction events were dropped under load; review the recorded steps.",
			zap.Int("dropped", finished.DroppedEvents))
	}

	if err := store.SaveSession(finished); err != nil {
		return err
	}

	if len(finished.Steps) == 0 {
		fmt.Println("No interactions recorded; nothing to compile.")
		return nil
	}

	artifacts, err := compileSession(store, reg, finished, caps, cfg, testName, logger)
	if err != nil {
		return err
	}

	fmt.Printf("\nRecording complete. Session ID: %s\n", finished.ID)
	fmt.Printf("Bundle: %s\n", store.Dir())
	fmt.Printf("Spec:   %s\n", store.SpecPath(artifacts))
	if len(artifacts.Meta.FlaggedLocators) > 0 {
		fmt.Printf("%d locators use fragile fallback strategies; see INTENT.md in the bundle.\n",
			len(artifacts.Meta.FlaggedLocators))
	}
	fmt.Printf("To re-check locators against the saved snapshot, run: scribe verify %s\n", store.Dir())

	return nil
}
