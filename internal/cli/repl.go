package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/reflectdev/commit-reflect/internal/config"
	"github.com/reflectdev/commit-reflect/internal/gitutil"
	"github.com/reflectdev/commit-reflect/internal/repl"
	"github.com/reflectdev/commit-reflect/internal/storage"
	"github.com/reflectdev/commit-reflect/internal/watcher"
	"github.com/reflectdev/commit-reflect/pkg/models"
)

var (
	replPort    int
	replHost    string
	replProject string
	replStorage string
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Run the always-on reflection REPL",
	Long: `Starts the interactive REPL and a loopback listener for commit
notifications. Install the post-commit hook with "commit-reflect
install-hook" so commits reach the REPL automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.EnsureAll(); err != nil {
			return fmt.Errorf("prepare data directory: %w", err)
		}

		cfg, err := config.Load()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load settings, using defaults")
			cfg = config.Default()
		}
		if replStorage != "" {
			cfg.StorageBackends = splitBackends(replStorage)
		}

		port := config.GetPort()
		if cmd.Flags().Changed("port") {
			port = replPort
		}

		questions, err := models.LoadQuestionSetOrDefault(cfg.QuestionsPath)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}

		store, err := storage.Open(cfg)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close storage")
			}
		}()

		// Pick up settings edits without a restart.
		w, err := watcher.New(config.SettingsPath(), config.Reset)
		if err == nil {
			if err := w.Start(); err == nil {
				defer w.Stop()
			}
		} else {
			log.Warn().Err(err).Msg("Settings watcher unavailable")
		}

		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}
		project := replProject
		if project == "" {
			project = gitutil.ProjectName(cwd)
		}

		r := repl.New(repl.Options{
			Project:     project,
			Host:        replHost,
			Port:        port,
			WorkingDir:  cwd,
			ToolVersion: version,
			QuestionSet: questions,
			Store:       store,
		})
		return r.Run()
	},
}

func splitBackends(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	replCmd.Flags().IntVar(&replPort, "port", config.DefaultPort, "Port for the commit notification listener")
	replCmd.Flags().StringVar(&replHost, "listen-host", "127.0.0.1", "Listen address for commit notifications")
	replCmd.Flags().StringVar(&replProject, "project", "", "Project name (default: repository directory name)")
	replCmd.Flags().StringVar(&replStorage, "storage", "", "Comma-separated storage backends (jsonl,sqlite)")
}
