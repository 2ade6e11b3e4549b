package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/guilhermegouw/siaka/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change the configuration file",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file location",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), configPath(cmd))
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one field as written in the file (e.g. models.heavy)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, ok, err := config.GetConfigField(configPath(cmd), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s is not set", args[0])
				}
				if args[0] == "provider.api_key" && !strings.HasPrefix(value, "$") {
					value = maskKey(value)
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one field (e.g. models.heavy gemini-2.5-pro)",
			Example: `  siaka config set models.light gemini-2.5-flash
  siaka config set options.storage file
  siaka config set thinking_budget 8192`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := configPath(cmd)
				if err := config.SetConfigFieldAt(path, args[0], parseValue(args[1])); err != nil {
					return err
				}
				return reportConfig(cmd, path)
			},
		},
		&cobra.Command{
			Use:   "set-key [key]",
			Short: "Store the API key (prompted when not given)",
			Long: `Store the API key in the configuration file. The key may also be an
environment reference such as '$GEMINI_API_KEY', which is resolved at startup.
Without an argument the key is read from the terminal without echo, or from stdin.`,
			Args: cobra.MaximumNArgs(1),
			RunE: runSetKey,
		},
	)

	return cmd
}

func runSetKey(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		var err error
		key, err = readKey(cmd)
		if err != nil {
			return err
		}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("empty API key")
	}

	path := configPath(cmd)
	if err := config.SetAPIKey(path, key); err != nil {
		return err
	}
	return reportConfig(cmd, path)
}

// readKey prompts without echo on a terminal and reads one line otherwise.
func readKey(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Clé API : ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading key: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading key: %w", err)
	}
	return line, nil
}

// reportConfig reloads the file just written and prints what changed in
// effect, so mistakes show up immediately.
func reportConfig(cmd *cobra.Command, path string) error {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return err
	}
	result := config.Validate(cfg)
	for _, w := range result.WarningStrings() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
	if err := result.Error(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration enregistrée dans %s\n", path)
	return nil
}

// parseValue turns command-line text into the JSON type the field expects.
func parseValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
