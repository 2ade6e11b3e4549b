// Package cmd provides the CLI commands for Ds Siaka.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/siaka/internal/app"
	"github.com/guilhermegouw/siaka/internal/config"
	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/tui"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "siaka",
		Short: "Ds Siaka - Aide aux Devoirs",
		Long: `Ds Siaka est un assistant d'aide aux devoirs dans le terminal.

Choisis une matière, pose ta question (avec une photo de l'exercice si besoin)
et retrouve l'historique de tes conversations.

Matières : Général, Maths, Sciences, Histoire, Littérature, Code.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	cmd.PersistentFlags().Bool("debug", false, "Write a debug log to the data directory")
	cmd.PersistentFlags().String("config", "", "Configuration file (default "+config.GlobalConfigPath()+")")

	cmd.AddCommand(
		newAskCmd(),
		newReplCmd(),
		newSessionsCmd(),
		newExportCmd(),
		newConfigCmd(),
		newStatusCmd(),
		newSubjectsCmd(),
		newShareCmd(),
		newVersionCmd(),
	)

	return cmd
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if config.NeedsSetup(a.Config()) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Aucune clé API configurée. Lance `siaka config set-key` ou définis GEMINI_API_KEY.")
	}

	err = tui.Run(cmd.Context(), a)
	if errors.Is(err, tui.ErrNotATerminal) {
		return fmt.Errorf("%w (use `siaka ask` or `siaka repl` instead)", err)
	}
	return err
}

// configPath returns the --config flag or the global config file.
func configPath(cmd *cobra.Command) string {
	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		return path
	}
	return config.GlobalConfigPath()
}

// loadConfig loads the configuration selected by the flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFromFile(configPath(cmd))
	if err != nil {
		return nil, err
	}
	if result := config.Validate(cfg); result.Error() != nil {
		return nil, result.Error()
	}
	return cfg, nil
}

// enableDebug turns on the debug log when asked by flag or configuration.
func enableDebug(cmd *cobra.Command, cfg *config.Config) func() {
	debugMode, _ := cmd.Flags().GetBool("debug")
	if !debugMode && (cfg.Options == nil || !cfg.Options.Debug) {
		return func() {}
	}

	logPath := cfg.DebugLogPath()
	if err := debug.Enable(logPath); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Failed to enable debug logging: %v\n", err)
		return func() {}
	}
	if debugMode {
		fmt.Fprintf(cmd.ErrOrStderr(), "Debug: %s\n", logPath)
	}
	return debug.Disable
}

// openApp loads the configuration and the stored sessions. cleanup saves
// and releases everything.
func openApp(cmd *cobra.Command) (*app.App, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	disableDebug := enableDebug(cmd, cfg)

	a, err := app.Open(cmd.Context(), cfg)
	if err != nil {
		disableDebug()
		return nil, nil, err
	}
	cleanup := func() {
		if err := a.Close(); err != nil {
			debug.Error("cmd", err, "closing app")
		}
		disableDebug()
	}
	return a, cleanup, nil
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}
