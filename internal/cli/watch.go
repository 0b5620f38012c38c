package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/yildizm/SignScan/internal/intake"
	"github.com/yildizm/SignScan/internal/logger"
)

var (
	watchSettle time.Duration
	watchServe  bool
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [folder]",
		Short: "Analyze every image or video written to a folder",
		Long: `Monitor a folder and analyze each supported file that appears in it.

A file is analyzed once writes to it have been quiet for the settle delay, so
a dash cam copying a long clip is not uploaded half-written. Results are
printed in the selected output format and recorded in the history.
Press Ctrl+C to stop watching.

Examples:
  signscan watch ~/DashCam
  signscan watch --settle 2s -o json ./incoming`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().DurationVar(&watchSettle, "settle", 0, "quiet period before a new file is analyzed (default from config)")
	cmd.Flags().BoolVar(&watchServe, "serve", false, "start the loopback server for previews and /metrics")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()
	if !cmd.Flag("settle").Changed {
		watchSettle = cfg.Watch.SettleDelay
	}

	f, err := newFormatter()
	if err != nil {
		return err
	}

	a, err := newApp(cfg, appOptions{serve: watchServe})
	if err != nil {
		return err
	}
	defer a.Close()

	folder, err := newDropFolder(args[0], watchSettle, a.log.WithComponent("watch"))
	if err != nil {
		return err
	}
	defer cleanupDropFolder(folder)

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Watching folder: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop...\n\n")
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go folder.Run(ctx)

	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-signals:
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
			}
			return nil

		case path, ok := <-folder.Paths():
			if !ok {
				return nil
			}
			state, err := a.analyzePath(ctx, path)
			if intake.IsSelectionError(err) {
				a.log.WarnWithFields("skipping dropped file", []logger.Field{logger.File(path), logger.Error(err)})
				continue
			}
			output, ferr := f.Format(state)
			if ferr != nil {
				return fmt.Errorf("failed to format output: %w", ferr)
			}
			if _, werr := out.Write(output); werr != nil {
				return fmt.Errorf("failed to write output: %w", werr)
			}
		}
	}
}

// dropFolder turns writes into a folder into settled file paths
type dropFolder struct {
	dir     string
	settle  time.Duration
	watcher *fsnotify.Watcher
	log     *logger.Logger
	paths   chan string
}

// newDropFolder starts watching dir
func newDropFolder(dir string, settle time.Duration, log *logger.Logger) (*dropFolder, error) {
	if err := validateWatchDir(dir); err != nil {
		return nil, fmt.Errorf("invalid watch folder: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		cleanupWatcher(watcher, log)
		return nil, fmt.Errorf("failed to watch folder: %w", err)
	}

	return &dropFolder{
		dir:     filepath.Clean(dir),
		settle:  settle,
		watcher: watcher,
		log:     log,
		paths:   make(chan string),
	}, nil
}

// Paths yields each settled file once per burst of writes. It is closed when Run returns.
func (d *dropFolder) Paths() <-chan string {
	return d.paths
}

// Run forwards settled paths until ctx is done or the watcher fails
func (d *dropFolder) Run(ctx context.Context) {
	defer close(d.paths)
	d.log.Debug("watching %s", d.dir)

	pending := make(map[string]time.Time)

	interval := d.settle / 2
	if interval < 20*time.Millisecond {
		interval = 20 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if path, ok := d.accept(event); ok {
				pending[path] = time.Now().Add(d.settle)
			}

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.log.Warn("watcher error: %v", err)

		case now := <-ticker.C:
			for _, path := range settledPaths(pending, now) {
				delete(pending, path)
				select {
				case d.paths <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// accept keeps create and write events for supported, non-hidden files
func (d *dropFolder) accept(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || !intake.IsSupported(name) {
		return "", false
	}
	return event.Name, true
}

// Close stops the watcher
func (d *dropFolder) Close() error {
	return d.watcher.Close()
}

// settledPaths returns the pending paths whose quiet period has passed, oldest first
func settledPaths(pending map[string]time.Time, now time.Time) []string {
	var ready []string
	for path, deadline := range pending {
		if !now.Before(deadline) {
			ready = append(ready, path)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		if pending[ready[i]].Equal(pending[ready[j]]) {
			return ready[i] < ready[j]
		}
		return pending[ready[i]].Before(pending[ready[j]])
	})
	return ready
}

// cleanupWatcher safely closes watcher with error logging
func cleanupWatcher(watcher *fsnotify.Watcher, log *logger.Logger) {
	if err := watcher.Close(); err != nil {
		log.Warn("failed to close watcher: %v", err)
	}
}

// cleanupDropFolder safely closes the folder watcher
func cleanupDropFolder(d *dropFolder) {
	if err := d.Close(); err != nil {
		d.log.Warn("failed to close watcher: %v", err)
	}
}

// validateWatchDir validates that a path is a folder that is safe to watch
func validateWatchDir(path string) error {
	// Check for empty path
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty folder path")
	}

	// Clean the path to resolve . and .. elements
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("cannot access folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot watch a file, must be a folder")
	}

	return nil
}
