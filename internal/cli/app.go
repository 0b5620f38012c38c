package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/yildizm/SignScan/internal/config"
	"github.com/yildizm/SignScan/internal/controller"
	"github.com/yildizm/SignScan/internal/detect"
	"github.com/yildizm/SignScan/internal/history"
	"github.com/yildizm/SignScan/internal/intake"
	"github.com/yildizm/SignScan/internal/logger"
	"github.com/yildizm/SignScan/internal/metrics"
	"github.com/yildizm/SignScan/internal/preview"
)

// appOptions selects the optional parts of the wiring
type appOptions struct {
	// serve starts the loopback preview and metrics server
	serve bool
	// logOut replaces stderr as the log destination
	logOut io.Writer
}

// app holds everything one command run needs
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Metrics
	client   *detect.Client
	previews *preview.Manager
	ctrl     *controller.Controller
	history  *history.Store

	closers []func()
}

// newApp wires the controller and its collaborators from configuration
func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg}

	a.log = logger.NewWithCallback("signscan", isVerbose)
	if opts.logOut != nil {
		a.log.SetOutput(opts.logOut)
	}
	a.metrics = metrics.New()

	client, err := detect.New(&detect.Config{
		BaseURL: cfg.Endpoint.BaseURL,
		Timeout: cfg.Endpoint.Timeout,
	}, detect.WithMetrics(a.metrics), detect.WithLogger(a.log.WithComponent("detect")))
	if err != nil {
		return nil, fmt.Errorf("failed to create detection client: %w", err)
	}
	a.client = client

	a.previews = preview.NewManager(a.metrics, a.log.WithComponent("preview"))
	if opts.serve {
		if err := a.previews.Serve(cfg.Preview.ListenAddr); err != nil {
			return nil, fmt.Errorf("failed to start preview server: %w", err)
		}
	}
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.previews.Close(ctx); err != nil {
			a.log.Warn("failed to stop preview server: %v", err)
		}
	})

	a.ctrl = controller.New(intake.New(cfg.Analysis.MaxFileSize), a.previews,
		controller.WithLogger(a.log.WithComponent("controller")),
		controller.WithMetrics(a.metrics),
	)

	if cfg.Storage.HistoryEnabled {
		store, err := history.Open(config.ExpandPath(cfg.Storage.HistoryPath))
		if err != nil {
			// History is a convenience; analysis works without it
			a.log.Warn("history disabled: %v", err)
		} else {
			a.history = store
			a.closers = append(a.closers, func() { _ = store.Close() })
		}
	}

	return a, nil
}

// Close releases the controller, the preview server and the history store
func (a *app) Close() {
	a.ctrl.Close()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// record stores a finished analysis when history is enabled
func (a *app) record(ctx context.Context, state controller.State) {
	if a.history == nil {
		return
	}
	if _, err := a.history.Record(ctx, state); err != nil {
		a.log.Warn("failed to record history: %v", err)
	}
}

// analyzePath selects and analyzes one file on the caller's goroutine
func (a *app) analyzePath(ctx context.Context, path string) (controller.State, error) {
	candidate, err := intake.FromPath(path)
	if err != nil {
		return a.ctrl.State(), err
	}
	if err := a.ctrl.Submit(candidate); err != nil {
		return a.ctrl.State(), err
	}

	state, err := a.ctrl.AnalyzeSync(ctx, a.client)
	if state.Phase == controller.PhaseSucceeded || state.Phase == controller.PhaseFailed {
		a.record(ctx, state)
	}
	return state, err
}

// openLogFile opens the log destination for the interactive screen
func openLogFile(path string) (*os.File, error) {
	path = config.ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	// #nosec G304 - path comes from flags or config
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
