// Package cli defines the Cobra commands for the commit-reflect binary.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/reflectdev/commit-reflect/internal/config"
)

var (
	debug      bool
	configPath string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "commit-reflect",
	Short: "Reflect on your git commits as you make them",
	Long: `commit-reflect runs an always-on REPL that a git post-commit hook
notifies about new commits. Each commit triggers a short guided
reflection which is saved to local storage for later analysis.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// The REPL owns stdout, so logs go to stderr.
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

		if configPath != "" {
			config.SetSettingsPath(configPath)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation starts the REPL.
		return replCmd.RunE(cmd, args)
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// Version returns the build version string.
func Version() string {
	return version
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file path (default: ~/.commit-reflect/settings.json)")

	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(reflectCmd)
	rootCmd.AddCommand(installHookCmd)
	rootCmd.AddCommand(uninstallHookCmd)
	rootCmd.AddCommand(statsCmd)
}
