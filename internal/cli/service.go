package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yildizm/SignScan/internal/config"
	"github.com/yildizm/SignScan/internal/detect"
	"github.com/yildizm/SignScan/internal/logger"
)

func newSignsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signs",
		Short: "List the traffic signs the detection service recognizes",
		Example: `  signscan signs
  signscan signs -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(GetGlobalConfig())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), GetGlobalConfig().Endpoint.Timeout)
			defer cancel()

			signs, err := client.SupportedSigns(ctx)
			if err != nil {
				return fmt.Errorf("failed to list supported signs: %w", err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() == "json" {
				return writeJSON(out, signs)
			}

			fmt.Fprintf(out, "%s Supported signs (%d):\n", GetEmoji("sign"), signs.TotalCount)
			for _, sign := range signs.Signs {
				fmt.Fprintf(out, "  • %s\n", sign)
			}
			return nil
		},
	}
}

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the detection service is reachable",
		Example: `  signscan health
  SIGNSCAN_ENDPOINT_BASE_URL=http://10.0.0.5:5000 signscan health`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Endpoint.Timeout)
			defer cancel()

			health, err := client.HealthCheck(ctx)
			if err != nil {
				return fmt.Errorf("detection service at %s is unavailable: %w", client.BaseURL(), err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() == "json" {
				return writeJSON(out, health)
			}

			symbol := GetEmoji("success")
			if health.Status != "healthy" && health.Status != "ok" {
				symbol = GetEmoji("warning")
			}
			fmt.Fprintf(out, "%s %s: %s\n", symbol, health.Status, health.Message)
			if health.Version != "" {
				fmt.Fprintf(out, "   Version: %s\n", health.Version)
			}
			fmt.Fprintf(out, "   Endpoint: %s\n", client.BaseURL())
			return nil
		},
	}
}

// newClient builds a detection client without the rest of the app
func newClient(cfg *config.Config) (*detect.Client, error) {
	log := logger.NewWithCallback("detect", isVerbose)
	client, err := detect.New(&detect.Config{
		BaseURL: cfg.Endpoint.BaseURL,
		Timeout: cfg.Endpoint.Timeout,
	}, detect.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("failed to create detection client: %w", err)
	}
	return client, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
