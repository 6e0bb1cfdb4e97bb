package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/chorewheel/internal/logging"
)

var (
	flagServer    string
	flagToken     string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking CHOREWHEEL_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("CHOREWHEEL_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the chorewheel CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chorewheel",
		Short: "chorewheel: fair rotation of shared chores",
		Long:  "chorewheel tracks shared chores and decides, fairly, whose turn comes next.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(logging.Options{Level: flagLogLevel, Format: flagLogFormat, Writer: cmd.ErrOrStderr()})
			token := flagToken
			if token == "" {
				token = os.Getenv("CHOREWHEEL_TOKEN")
			}
			if token == "" {
				token = LoadToken(flagServer)
			}
			client = NewClient(flagServer, token, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "chorewheel server URL (or CHOREWHEEL_SERVER env)")
	root.PersistentFlags().StringVar(&flagToken, "token", "", "Bearer token (default: CHOREWHEEL_TOKEN env, then the stored login)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newUserCmd(),
		newSpaceCmd(),
		newRequestCmd(),
		newChoreCmd(),
		newCalendarCmd(),
	)

	return root
}

// printf writes formatted output to the command's stdout.
func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
