package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yildizm/SignScan/internal/ui"
)

var (
	uiWatchDir string
	uiNoServe  bool
	uiStartDir string
)

func newUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive upload-analyze screen",
		Long: `Open the interactive screen. This is also what signscan does with no command.

Drop a file by pasting its path or dragging it onto the terminal, press o to
browse for one, then a (or enter) to analyze it. Selecting a new file at any
time replaces the current one; a result for a replaced file is discarded.

Examples:
  signscan
  signscan ui --watch ~/DashCam
  signscan ui --log-file /tmp/signscan.log -v`,
		Args: cobra.NoArgs,
		RunE: runUI,
	}

	addUIFlags(cmd)
	return cmd
}

// addUIFlags binds the interactive flags; the root command shares them
func addUIFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&uiWatchDir, "watch", "", "also select files written to this folder")
	cmd.Flags().BoolVar(&uiNoServe, "no-serve", false, "do not start the loopback preview server")
	cmd.Flags().StringVar(&uiStartDir, "dir", "", "directory the file picker opens in")
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	// The screen owns stdout and stderr, so logs go to a file
	var logOut io.Writer = io.Discard
	path := logFile
	if path == "" {
		path = cfg.Output.LogFile
	}
	if path != "" {
		f, err := openLogFile(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		logOut = f
	}

	a, err := newApp(cfg, appOptions{serve: !uiNoServe, logOut: logOut})
	if err != nil {
		return err
	}
	defer a.Close()

	opts := ui.Options{
		Analyzer: a.client,
		Logger:   a.log,
		Verbose:  isVerbose(),
		StartDir: uiStartDir,
	}
	if a.history != nil {
		opts.History = a.history
	}

	if uiWatchDir != "" {
		folder, err := newDropFolder(uiWatchDir, cfg.Watch.SettleDelay, a.log.WithComponent("watch"))
		if err != nil {
			return err
		}
		defer cleanupDropFolder(folder)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go folder.Run(ctx)
		opts.Drops = folder.Paths()
	}

	if err := ui.Run(a.ctrl, opts); err != nil {
		return fmt.Errorf("interactive screen failed: %w", err)
	}

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Previews released: %d\n", a.previews.Released())
	}
	return nil
}
