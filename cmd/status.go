package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/siaka/internal/config"
	"github.com/guilhermegouw/siaka/internal/subject"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configuration, models and storage in use",
		Long: `Display the current Ds Siaka status including:
  - Configured provider and key source
  - Model used for each subject
  - Where conversations are stored
  - Configuration problems, if any`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	path := configPath(cmd)

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Fprintln(out, "Ds Siaka Status")
	fmt.Fprintln(out, strings.Repeat("─", 40))
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Config File: %s", path)
	if config.IsFirstRunAt(path) {
		fmt.Fprint(out, " (not created yet)")
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Provider:")
	fmt.Fprintf(out, "  Type: %s\n", cfg.Provider.Type)
	if cfg.Provider.BaseURL != "" {
		fmt.Fprintf(out, "  Base URL: %s\n", cfg.Provider.BaseURL)
	}
	fmt.Fprintf(out, "  API Key: %s\n", keyStatus(cfg))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Models:")
	fmt.Fprintf(out, "  Light: %s\n", orNotSet(cfg.Models.Light))
	fmt.Fprintf(out, "  Heavy: %s (thinking budget %d)\n", orNotSet(cfg.Models.Heavy), cfg.ThinkingBudget)
	printRouting(out, cfg)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Storage:")
	fmt.Fprintf(out, "  Backend: %s\n", cfg.Storage())
	fmt.Fprintf(out, "  Data Directory: %s\n", cfg.DataDir())
	fmt.Fprintf(out, "  Export Directory: %s\n", cfg.ExportDir())

	result := config.Validate(cfg)
	if len(result.Errors) > 0 || len(result.Warnings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Problems:")
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  error: %s\n", e.Error())
		}
		for _, w := range result.WarningStrings() {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
	}

	return nil
}

func printRouting(out io.Writer, cfg *config.Config) {
	for _, s := range subject.All() {
		model := cfg.Models.Light
		if s.Tier() == subject.TierHeavy {
			model = cfg.Models.Heavy
		}
		info := s.Info()
		fmt.Fprintf(out, "    %s %-16s -> %s\n", info.Icon, info.Name, orNotSet(model))
	}
}

func keyStatus(cfg *config.Config) string {
	switch src := cfg.KeySource(); {
	case !cfg.HasAPIKey():
		return "Not configured"
	case src == "config":
		return "Configured (config file)"
	default:
		return "Configured ($" + src + ")"
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "(not configured)"
	}
	return s
}
