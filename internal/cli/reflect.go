package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/reflectdev/commit-reflect/internal/config"
	"github.com/reflectdev/commit-reflect/internal/gitutil"
	"github.com/reflectdev/commit-reflect/internal/repl"
	"github.com/reflectdev/commit-reflect/internal/session"
	"github.com/reflectdev/commit-reflect/internal/storage"
	"github.com/reflectdev/commit-reflect/pkg/models"
)

var (
	reflectCommit  string
	reflectProject string
	reflectBranch  string
)

var reflectCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Reflect on a single commit without the REPL",
	Long: `Runs one reflection session for a commit (HEAD by default) and
saves it. Useful for catching up on commits made while the REPL was
not running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.EnsureAll(); err != nil {
			return fmt.Errorf("prepare data directory: %w", err)
		}

		cfg, err := config.Load()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load settings, using defaults")
			cfg = config.Default()
		}

		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}

		commitCtx, err := gitutil.CommitContext(cwd, reflectCommit)
		if err != nil {
			return fmt.Errorf("get commit info: %w", err)
		}
		if reflectBranch != "" {
			commitCtx.Branch = reflectBranch
		}

		project := reflectProject
		if project == "" {
			project = gitutil.ProjectName(cwd)
		}

		questions, err := models.LoadQuestionSetOrDefault(cfg.QuestionsPath)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}

		store, err := storage.Open(cfg)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer store.Close()

		return runOneShot(cmd, commitCtx, project, questions, store)
	},
}

// runOneShot walks the question flow on stdin/stdout. Ctrl+C aborts with
// the conventional exit code for SIGINT.
func runOneShot(cmd *cobra.Command, commitCtx models.CommitContext, project string, questions *models.QuestionSet, store *storage.Multi) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	display := repl.NewDisplay(cmd.OutOrStdout())
	input := repl.NewInput(cmd.InOrStdin(), cmd.OutOrStdout())
	defer input.Stop()

	display.ShowMessage(fmt.Sprintf("Reflecting on commit %s (%s)", commitCtx.ShortHash(), commitCtx.Subject()))

	sess := session.New(commitCtx, questions)
	for {
		q, ok := sess.Current()
		if !ok {
			break
		}
		num, total := sess.Progress()
		display.ShowQuestion(q, num, total)

		answer, ok := readLine(ctx, input, cmd.OutOrStdout(), "> ")
		if !ok {
			display.ShowCancelled()
			return &exitError{code: 130, msg: "interrupted"}
		}
		if strings.TrimSpace(answer) == "" && !q.Required {
			if err := sess.Skip(); err != nil {
				display.ShowValidationError(err)
			}
			continue
		}
		if err := sess.Answer(answer); err != nil {
			display.ShowValidationError(err)
		}
	}

	reflection, err := sess.ToReflection(project, version, "cli")
	if err != nil {
		return fmt.Errorf("build reflection: %w", err)
	}
	display.ShowSummary(reflection)

	confirm, ok := readLine(ctx, input, cmd.OutOrStdout(), "Save reflection? (y/n): ")
	if !ok {
		display.ShowCancelled()
		return &exitError{code: 130, msg: "interrupted"}
	}
	switch strings.ToLower(strings.TrimSpace(confirm)) {
	case "y", "yes", "":
	default:
		display.ShowCancelled()
		return nil
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Write(saveCtx, reflection); err != nil {
		return fmt.Errorf("save reflection: %w", err)
	}
	display.ShowCompletion()
	return nil
}

// readLine prompts and waits for a line, returning false on interrupt.
func readLine(ctx context.Context, input *repl.Input, out io.Writer, prompt string) (string, bool) {
	input.ClearQueue()
	fmt.Fprint(out, prompt)
	select {
	case line := <-input.Lines():
		return line, true
	case <-ctx.Done():
		return "", false
	}
}

func init() {
	reflectCmd.Flags().StringVar(&reflectCommit, "commit", "HEAD", "Commit to reflect on")
	reflectCmd.Flags().StringVar(&reflectProject, "project", "", "Project name (default: repository directory name)")
	reflectCmd.Flags().StringVar(&reflectBranch, "branch", "", "Override the branch recorded with the reflection")
}
