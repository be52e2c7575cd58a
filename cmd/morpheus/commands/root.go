// Package commands provides the CLI commands for MorpheusAI.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shubharthaksangharsha/morpheusAI/internal/app"
	"github.com/shubharthaksangharsha/morpheusAI/internal/config"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	printLogs bool
	logLevel  string
	workDir   string
	offline   bool
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "morpheus",
	Short: "MorpheusAI - a supervisor for capability agents",
	Long: `MorpheusAI routes natural-language requests to specialized agents:
a terminal, a file editor, a web browser, a planner and a tool invoker.

Run 'morpheus chat' for an interactive session, 'morpheus ask' for a
single request, or 'morpheus serve' to expose the HTTP API.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().StringVar(&workDir, "directory", "", "Working directory")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Skip the completion provider and route with the fallback rules only")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.SetVersionTemplate(fmt.Sprintf("morpheus %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(agentsCmd)
}

// Execute runs the root command.
func Execute() error {
	defer logging.Close()
	return rootCmd.Execute()
}

// setupLogging sends logs to stderr with --print-logs and to a log file
// under the state directory otherwise, so they do not mix with replies.
func setupLogging(cmd *cobra.Command, args []string) error {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(logLevel)
	if printLogs {
		cfg.Pretty = true
	} else {
		cfg.Output = io.Discard
		cfg.LogToFile = true
		cfg.LogDir = config.GetPaths().LogPath()
	}
	logging.Init(cfg)
	return nil
}

// GetWorkDir returns the working directory from flag or current directory.
func GetWorkDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

// openApp assembles the application for the working directory.
func openApp(ctx context.Context, opts app.Options) (*app.App, error) {
	dir, err := GetWorkDir(workDir)
	if err != nil {
		return nil, err
	}
	opts.Offline = opts.Offline || offline
	return app.New(ctx, dir, opts)
}
