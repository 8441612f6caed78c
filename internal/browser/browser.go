// Package browser owns the attached Chrome instance for one recording:
// process allocation, the target context the capture layer listens on,
// navigation, and the live-page read surface the classifier consults.
// Reads race user-driven navigation by construction, so every read
// path fails fast instead of blocking when the page is mid-teardown.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scribe-cli/internal/config"
)

const defaultNavigateTimeout = 90 * time.Second

// Session is one live browser attachment. Create with NewSession and
// always Close; the Chrome process outlives a dropped handle otherwise.
type Session struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewSession launches Chrome and opens the recording target. The
// browser is headful by default; a human drives it while the recorder
// listens.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocatorOptions(cfg)...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		cfg:         cfg,
		logger:      logger.Named("browser"),
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
	}

	// Run with no actions forces the process to start now, so a missing
	// or broken Chrome fails here instead of on the first interaction.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	s.logger.Info("Browser session started.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// Context returns the chromedp target context. The capture layer
// registers its script and binding against it.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Navigate drives the target to url and waits for the load to settle,
// bounded by the configured navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	timeout := s.cfg.NavigateTimeout
	if timeout <= 0 {
		timeout = defaultNavigateTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	s.logger.Debug("Navigation completed.", zap.String("url", url))
	return nil
}

// Close tears the target and the browser process down. Graceful
// shutdown first; the allocator cancel reaps the process regardless.
func (s *Session) Close() {
	if err := chromedp.Cancel(s.ctx); err != nil {
		s.logger.Debug("Graceful browser shutdown failed.", zap.Error(err))
	}
	s.cancel()
	s.allocCancel()
	s.logger.Info("Browser session closed.")
}

// run executes chromedp actions on the session target while honoring
// the caller's context, which usually carries a short read deadline.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()

	return chromedp.Run(opCtx, actions...)
}

// allocatorOptions builds the Chrome launch options. Defined
// explicitly rather than from chromedp's headless-oriented defaults:
// this browser is driven by a person.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoSandbox,
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range cfg.Args {
		name, value := splitArg(arg)
		if name == "" {
			continue
		}
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// splitArg normalizes one user-supplied Chrome argument into the
// name/value pair chromedp.Flag expects. Bare switches become boolean
// flags.
func splitArg(arg string) (string, interface{}) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if arg == "" {
		return "", nil
	}
	if name, value, found := strings.Cut(arg, "="); found {
		return name, value
	}
	return arg, true
}
