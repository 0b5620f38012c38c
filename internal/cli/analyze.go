package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yildizm/SignScan/internal/controller"
)

var (
	analyzeOutputFile string
	analyzeServe      bool
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze one image or video for traffic signs",
		Long: `Upload one image or video to the detection service and print what it found.

The result is printed in the selected output format. A failed analysis still
prints its error line and exits non-zero.

Examples:
  signscan analyze dashcam.jpg
  signscan analyze -o json clip.mp4
  signscan analyze -o markdown --output-file report.md stop.png`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVar(&analyzeOutputFile, "output-file", "", "save output to file instead of stdout")
	cmd.Flags().BoolVar(&analyzeServe, "serve", false, "serve the preview over the loopback server while analyzing")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	f, err := newFormatter()
	if err != nil {
		return err
	}

	// Validate and sanitize file path
	if err := validateFilePath(args[0]); err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	a, err := newApp(cfg, appOptions{serve: analyzeServe})
	if err != nil {
		return err
	}
	defer a.Close()

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Analyzing file: %s\n", args[0])
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Endpoint.Timeout)
	defer cancel()

	state, analyzeErr := a.analyzePath(ctx, args[0])
	if state.Phase != controller.PhaseSucceeded && state.Phase != controller.PhaseFailed {
		// Rejected before any request was made
		return analyzeErr
	}

	output, err := f.Format(state)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if err := handleOutputDestination(cmd, output); err != nil {
		return err
	}

	if state.Phase == controller.PhaseFailed {
		return fmt.Errorf("analysis failed: %s", state.Err.Message)
	}
	return nil
}

// handleOutputDestination writes output to file or stdout
func handleOutputDestination(cmd *cobra.Command, output []byte) error {
	if analyzeOutputFile != "" {
		if err := writeOutputBytesToFile(output, analyzeOutputFile); err != nil {
			return fmt.Errorf("failed to write output to file: %w", err)
		}

		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Output saved to: %s\n", analyzeOutputFile)
		}
		return nil
	}

	_, err := cmd.OutOrStdout().Write(output)
	return err
}

func validateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", cleanPath)
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", cleanPath)
	}

	return nil
}

// writeOutputBytesToFile writes output to a file with proper error handling
func writeOutputBytesToFile(output []byte, filePath string) error {
	cleanPath := filepath.Clean(filePath)

	// Create or truncate the file
	file, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close output file: %v\n", closeErr)
		}
	}()

	// Write the output
	if _, err := file.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	// Sync to ensure data is written
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	return nil
}
