// File: cmd/pipeline.go
package cmd

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/bundle"
	"github.com/xkilldash9x/scribe-cli/internal/cleaner"
	"github.com/xkilldash9x/scribe-cli/internal/codegen"
	"github.com/xkilldash9x/scribe-cli/internal/config"
	"github.com/xkilldash9x/scribe-cli/internal/params"
	"github.com/xkilldash9x/scribe-cli/internal/platform"
	"github.com/xkilldash9x/scribe-cli/internal/platform/dynamics"
	"github.com/xkilldash9x/scribe-cli/internal/registry"
)

// resolvePlatform builds the capability set named by the configuration
// and applies the user overlay on top of its built-in tables.
func resolvePlatform(cfg *config.Config) (platform.Capabilities, error) {
	var caps platform.Capabilities
	switch strings.ToLower(cfg.Platform.Name) {
	case "dynamics":
		caps = dynamics.New()
	default:
		return nil, fmt.Errorf("unsupported platform %q", cfg.Platform.Name)
	}

	if cfg.Platform.Overlay != "" {
		overlay, err := platform.LoadOverlay(cfg.Platform.Overlay)
		if err != nil {
			return nil, fmt.Errorf("loading platform overlay: %w", err)
		}
		caps.Profile().Apply(overlay)
	}
	return caps, nil
}

// compileSession runs the offline half of the pipeline: clean the raw
// steps, mark heavy actions and propose parameters, then compile the
// artifact set into the bundle, merging with any previous generation.
// The page registry is updated as the last step.
func compileSession(store *bundle.Bundle, reg *registry.Registry, session *schemas.Session,
	caps platform.Capabilities, cfg *config.Config, testName string, logger *zap.Logger) (*schemas.Artifacts, error) {

	profile := caps.Profile()

	steps := cleaner.New(profile).Clean(session.Steps)
	steps, parameters := params.New(caps).Process(steps)
	logger.Info("Steps finalized.",
		zap.Int("recorded", len(session.Steps)),
		zap.Int("kept", len(steps)),
		zap.Int("parameters", len(parameters)))

	prev, err := store.LoadPrevious()
	if err != nil {
		logger.Warn("Previous bundle unreadable; regenerating from scratch.", zap.Error(err))
		prev = nil
	}

	artifacts, err := codegen.Compile(steps, session.Pages, codegen.Options{
		TestName:          testName,
		MenuParam:         profile.MenuParam,
		SessionID:         session.ID,
		TargetURL:         session.TargetURL,
		StabilizationWait: cfg.Codegen.StabilizationWait,
		Previous:          prev,
	})
	if err != nil {
		return nil, err
	}

	if err := store.Write(artifacts); err != nil {
		return nil, err
	}
	if err := reg.RecordPages(artifacts.PageObjects, session.Pages); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// ensureScheme defaults bare hosts to https so the browser and the
// classifier always see an absolute URL.
func ensureScheme(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return "https://" + target
}
