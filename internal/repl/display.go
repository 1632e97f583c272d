package repl

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/reflectdev/commit-reflect/pkg/models"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	accentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle  = lipgloss.NewStyle().Bold(true)
)

const displayWidth = 60

// Display renders all REPL output to a writer.
type Display struct {
	out io.Writer
}

// NewDisplay writes to out (normally stdout).
func NewDisplay(out io.Writer) *Display {
	return &Display{out: out}
}

func (d *Display) separator() string {
	return separatorStyle.Render(strings.Repeat("=", displayWidth))
}

func (d *Display) thinSeparator() string {
	return separatorStyle.Render(strings.Repeat("-", displayWidth))
}

// ShowWelcome prints the startup banner.
func (d *Display) ShowWelcome(project string, port int) {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, d.separator())
	fmt.Fprintln(d.out, headerStyle.Render("COMMIT REFLECT REPL"))
	fmt.Fprintln(d.out, d.separator())
	fmt.Fprintf(d.out, "Project: %s\n", project)
	fmt.Fprintf(d.out, "Listening for commits on port %d\n", port)
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "Commands:")
	fmt.Fprintln(d.out, "  'status'  - Show queue status")
	fmt.Fprintln(d.out, "  'quit'    - Exit REPL")
	fmt.Fprintln(d.out, "  'help'    - Show this help")
	fmt.Fprintln(d.out, d.separator())
	fmt.Fprintln(d.out)
}

// ShowIdlePrompt redraws the waiting indicator on the current line.
func (d *Display) ShowIdlePrompt() {
	fmt.Fprint(d.out, "\r"+dimStyle.Render("[Waiting for commits...]")+" ")
}

// ClearLine blanks the current line before printing over an inline
// prompt.
func (d *Display) ClearLine() {
	fmt.Fprint(d.out, "\r"+strings.Repeat(" ", displayWidth)+"\r")
}

// ShowCommitDetected announces the commit about to be reflected on.
func (d *Display) ShowCommitDetected(commit QueuedCommit, pending int) {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, d.thinSeparator())
	fmt.Fprintf(d.out, "Commit detected: %s\n", accentStyle.Render(commit.ShortHash()))
	fmt.Fprintf(d.out, "  Project: %s\n", commit.Project)
	fmt.Fprintf(d.out, "  Branch:  %s\n", commit.Branch)
	if pending > 0 {
		fmt.Fprintf(d.out, "  (%d more commit(s) in queue)\n", pending)
	}
	fmt.Fprintln(d.out, d.thinSeparator())
}

// ShowQueuedNotification prints the inline note when a commit arrives
// during a reflection.
func (d *Display) ShowQueuedNotification(commit QueuedCommit, queueSize int) {
	fmt.Fprintf(d.out, "\n%s\n",
		dimStyle.Render(fmt.Sprintf("[Commit %s queued (%d pending)]", commit.ShortHash(), queueSize)))
}

// ShowQuestion renders one reflection question with options and hints.
func (d *Display) ShowQuestion(q models.Question, number, total int) {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, accentStyle.Render(fmt.Sprintf("[Question %d/%d]", number, total)))
	fmt.Fprintln(d.out, questionStyle.Render(q.Text))
	for i, opt := range q.Options {
		fmt.Fprintf(d.out, "  %d. %s\n", i+1, opt)
	}
	if q.HelpText != "" {
		fmt.Fprintln(d.out, dimStyle.Render("  ("+q.HelpText+")"))
	}
	if !q.Required {
		fmt.Fprintln(d.out, dimStyle.Render("  [Optional - press Enter to skip]"))
	}
}

// ShowValidationError reports a rejected answer.
func (d *Display) ShowValidationError(err error) {
	if err != nil {
		fmt.Fprintln(d.out, errorStyle.Render(fmt.Sprintf("Invalid: %s. Please try again.", err)))
	}
}

// ShowSummary prints every answered question before saving. Long answers
// are truncated.
func (d *Display) ShowSummary(r *models.Reflection) {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, d.separator())
	fmt.Fprintln(d.out, headerStyle.Render("REFLECTION SUMMARY"))
	fmt.Fprintln(d.out, d.separator())
	for _, a := range r.Answers {
		answer := a.Answer
		if len(answer) > 100 {
			answer = answer[:97] + "..."
		}
		fmt.Fprintln(d.out, a.QuestionText)
		fmt.Fprintf(d.out, "  -> %s\n\n", answer)
	}
	fmt.Fprintln(d.out, d.separator())
}

// ShowCompletion confirms a saved reflection.
func (d *Display) ShowCompletion() {
	fmt.Fprintf(d.out, "\n%s\n\n", successStyle.Render("Reflection saved successfully!"))
}

// ShowCancelled announces a cancelled reflection.
func (d *Display) ShowCancelled() {
	fmt.Fprint(d.out, "\nReflection cancelled.\n\n")
}

// ShowQueueStatus prints pending commits and the current one.
func (d *Display) ShowQueueStatus(q *CommitQueue) {
	fmt.Fprintln(d.out)
	if q.Size() == 0 {
		fmt.Fprintln(d.out, "Queue status: Empty (no pending commits)")
	} else {
		fmt.Fprintf(d.out, "Queue status: %d pending commit(s)\n", q.Size())
		for _, c := range q.All() {
			fmt.Fprintf(d.out, "  - %s (%s/%s) at %s\n",
				c.ShortHash(), c.Project, c.Branch, c.ReceivedAt.Format(time.TimeOnly))
		}
	}
	if current, ok := q.Current(); ok {
		fmt.Fprintf(d.out, "Currently processing: %s\n", current.ShortHash())
	}
	fmt.Fprintln(d.out)
}

// ShowHelp prints available commands.
func (d *Display) ShowHelp() {
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "Available commands:")
	fmt.Fprintln(d.out, "  status  - Show pending commits in queue")
	fmt.Fprintln(d.out, "  quit    - Exit the REPL")
	fmt.Fprintln(d.out, "  help    - Show this help message")
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "During reflection:")
	fmt.Fprintln(d.out, "  - Answer each question as prompted")
	fmt.Fprintln(d.out, "  - Press Enter to skip optional questions")
	fmt.Fprintln(d.out, "  - Press Ctrl+C to cancel current reflection")
	fmt.Fprintln(d.out)
}

// ShowError prints an error message.
func (d *Display) ShowError(message string) {
	fmt.Fprintf(d.out, "\n%s\n\n", errorStyle.Render("Error: "+message))
}

// ShowMessage prints a plain message.
func (d *Display) ShowMessage(message string) {
	fmt.Fprintln(d.out, message)
}

// ShowGoodbye prints the exit message.
func (d *Display) ShowGoodbye() {
	fmt.Fprint(d.out, "\nGoodbye!\n\n")
}
