package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yildizm/SignScan/internal/config"
	"github.com/yildizm/SignScan/internal/history"
)

var (
	historyLimit int
	historyClear bool
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently analyzed files",
		Long: `Show the analyses recorded by the interactive screen, analyze and watch,
newest first. Use --clear to delete them.`,
		Example: `  signscan history
  signscan history --limit 5 -o json
  signscan history --clear`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
	cmd.Flags().BoolVar(&historyClear, "clear", false, "delete all recorded analyses")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()
	if !cfg.Storage.HistoryEnabled {
		return fmt.Errorf("history is disabled (storage.history_enabled is false)")
	}

	store, err := history.Open(config.ExpandPath(cfg.Storage.HistoryPath))
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()

	if historyClear {
		n, err := store.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Cleared %d recorded analyses\n", GetEmoji("success"), n)
		return nil
	}

	entries, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	if getOutputFormat() == "json" {
		return writeJSON(out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No analyses recorded yet")
		return nil
	}

	fmt.Fprintf(out, "%s Recent analyses:\n\n", GetEmoji("history"))
	for _, e := range entries {
		fmt.Fprintln(out, formatHistoryEntry(e))
	}
	return nil
}

// formatHistoryEntry renders one history line
func formatHistoryEntry(e history.Entry) string {
	parts := []string{
		e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		GetPhaseEmoji(e.Phase),
		e.FileName,
	}

	if e.ErrorMessage != "" {
		parts = append(parts, e.ErrorMessage)
	} else {
		parts = append(parts, fmt.Sprintf("%d sign(s)", e.DetectionCount))
		if len(e.Detections) > 0 {
			names := make([]string, 0, len(e.Detections))
			for _, d := range e.Detections {
				names = append(names, d.SignType)
			}
			parts = append(parts, strings.Join(names, ", "))
		}
		if e.ProcessingTime != nil {
			parts = append(parts, fmt.Sprintf("%.2fs", *e.ProcessingTime))
		}
	}

	return strings.Join(parts, "  ")
}
