package repl

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reflectdev/commit-reflect/internal/gitutil"
	"github.com/reflectdev/commit-reflect/internal/session"
	"github.com/reflectdev/commit-reflect/pkg/models"
)

// idlePollInterval is how often the home state wakes up to check the
// queue while waiting for keyboard input.
const idlePollInterval = 500 * time.Millisecond

// Saver persists completed reflections. *storage.Multi satisfies it.
type Saver interface {
	Write(ctx context.Context, r *models.Reflection) error
}

// ContextResolver turns a queued commit into full commit context.
// Swappable so tests can run without a git repository.
type ContextResolver func(commit QueuedCommit) (models.CommitContext, error)

// Options configures a REPL.
type Options struct {
	Project     string
	Host        string
	Port        int
	WorkingDir  string
	ToolVersion string
	QuestionSet *models.QuestionSet
	Store       Saver
	In          io.Reader
	Out         io.Writer
	Resolver    ContextResolver
}

// REPL ties the notification listener, commit queue, state machine,
// input and display together into the interactive reflection loop.
type REPL struct {
	opts    Options
	machine *StateMachine
	queue   *CommitQueue
	server  *NotificationServer
	input   *Input
	display *Display

	resolver   ContextResolver
	current    *session.Session
	sigCh      chan os.Signal
	shouldExit bool
}

// New builds a REPL from options, filling in defaults for anything
// unset.
func New(opts Options) *REPL {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.WorkingDir == "" {
		opts.WorkingDir = "."
	}

	r := &REPL{
		opts:    opts,
		machine: NewStateMachine(),
		queue:   NewCommitQueue(DefaultQueueSize),
		display: NewDisplay(opts.Out),
		sigCh:   make(chan os.Signal, 1),
	}
	r.input = NewInput(opts.In, opts.Out)
	r.server = NewNotificationServer(opts.Port, r.onCommitReceived)
	r.server.SetHost(opts.Host)

	r.resolver = opts.Resolver
	if r.resolver == nil {
		r.resolver = r.gitResolver
	}
	return r
}

// gitResolver reads commit context from the repository named in the
// notification, falling back to the working directory.
func (r *REPL) gitResolver(commit QueuedCommit) (models.CommitContext, error) {
	repoDir := commit.RepoPath
	if repoDir == "" {
		repoDir = r.opts.WorkingDir
	}
	ctx, err := gitutil.CommitContext(repoDir, commit.CommitHash)
	if err != nil {
		return models.CommitContext{}, err
	}
	if commit.Branch != "" && commit.Branch != "unknown" {
		ctx.Branch = commit.Branch
	}
	return ctx, nil
}

// Queue exposes the commit queue for status display and tests.
func (r *REPL) Queue() *CommitQueue { return r.queue }

// Machine exposes the state machine for tests.
func (r *REPL) Machine() *StateMachine { return r.machine }

// Server exposes the notification listener, mainly for its bound port.
func (r *REPL) Server() *NotificationServer { return r.server }

// Run starts the listener and drives the state machine until the user
// exits. It returns an error when the listener cannot bind.
func (r *REPL) Run() error {
	signal.Notify(r.sigCh, os.Interrupt)
	defer signal.Stop(r.sigCh)

	if err := r.server.Start(); err != nil {
		r.display.ShowError(err.Error() + ". Try a different port with --port")
		return err
	}
	defer func() {
		r.input.Stop()
		if err := r.server.Stop(); err != nil {
			log.Debug().Err(err).Msg("stop notification listener")
		}
	}()

	r.display.ShowWelcome(r.opts.Project, r.server.Port())
	log.Info().Str("project", r.opts.Project).Int("port", r.server.Port()).
		Msg("repl started")

	for !r.shouldExit {
		select {
		case <-r.sigCh:
			r.handleInterrupt()
			continue
		default:
		}

		switch r.machine.State() {
		case StateHome:
			r.handleHome()
		case StatePrompting:
			r.handlePrompting()
		case StateInReflection:
			r.handleReflection()
		case StateCompleting:
			r.handleCompleting()
		}
	}
	return nil
}

// readLine waits for a line, an interrupt, or (when timeout > 0) a
// timeout, whichever comes first.
func (r *REPL) readLine(timeout time.Duration) (line string, ok bool, interrupted bool) {
	var timerC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	select {
	case line := <-r.input.Lines():
		return line, true, false
	case <-r.sigCh:
		return "", false, true
	case <-timerC:
		return "", false, false
	}
}

func (r *REPL) handleHome() {
	if !r.queue.IsEmpty() {
		r.machine.TransitionTo(StatePrompting)
		return
	}

	r.display.ShowIdlePrompt()

	line, ok, interrupted := r.readLine(idlePollInterval)
	if interrupted {
		r.handleInterrupt()
		return
	}
	if ok {
		r.handleHomeCommand(line)
	}
}

func (r *REPL) handleHomeCommand(command string) {
	command = strings.ToLower(strings.TrimSpace(command))

	switch command {
	case "q", "quit", "exit":
		r.display.ShowGoodbye()
		r.shouldExit = true
	case "status":
		r.display.ClearLine()
		r.display.ShowQueueStatus(r.queue)
	case "help":
		r.display.ClearLine()
		r.display.ShowHelp()
	case "":
	default:
		r.display.ClearLine()
		r.display.ShowMessage("Unknown command: '" + command + "'. Type 'help' for available commands.")
	}
}

func (r *REPL) handlePrompting() {
	commit, ok := r.queue.Dequeue()
	if !ok {
		r.machine.TransitionTo(StateHome)
		return
	}

	r.display.ShowCommitDetected(commit, r.queue.Size())

	line, ok, interrupted := r.prompt("Start reflection? (y/n): ")
	if interrupted {
		r.handleInterrupt()
		return
	}

	// Empty input defaults to yes; anything unrecognized declines.
	accepted := false
	if ok {
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes", "":
			accepted = true
		}
	}

	if accepted {
		if r.startReflection(commit) {
			r.machine.TransitionTo(StateInReflection, func(ctx *StateContext) {
				ctx.CurrentCommitHash = commit.CommitHash
				ctx.QuestionIndex = 0
			})
		} else {
			// Failure abandons the commit and returns home; the home
			// handler picks up any remaining queue.
			r.queue.ClearCurrent()
			r.machine.TransitionTo(StateHome)
		}
		return
	}

	// Declined. With more commits pending, the next prompt follows
	// immediately.
	r.queue.ClearCurrent()
	if r.queue.IsEmpty() {
		r.machine.TransitionTo(StateHome)
	}
}

func (r *REPL) prompt(message string) (string, bool, bool) {
	_, _ = io.WriteString(r.opts.Out, message)
	return r.readLine(0)
}

func (r *REPL) startReflection(commit QueuedCommit) bool {
	commitCtx, err := r.resolver(commit)
	if err != nil {
		r.display.ShowError("Failed to get commit info: " + err.Error())
		return false
	}

	r.current = session.New(commitCtx, r.opts.QuestionSet)
	r.input.ClearQueue()
	return true
}

func (r *REPL) handleReflection() {
	if r.current == nil {
		r.machine.TransitionTo(StateHome)
		return
	}

	q, ok := r.current.Current()
	if !ok {
		r.machine.TransitionTo(StateCompleting)
		return
	}

	num, total := r.current.Progress()
	r.display.ShowQuestion(q, num, total)

	line, ok, interrupted := r.prompt("> ")
	if interrupted {
		r.handleInterrupt()
		return
	}
	if !ok {
		return
	}

	var err error
	if strings.TrimSpace(line) == "" && !q.Required {
		err = r.current.Skip()
	} else {
		err = r.current.Answer(line)
	}
	if err != nil {
		r.display.ShowValidationError(err)
	}
}

func (r *REPL) handleCompleting() {
	if r.current == nil {
		r.machine.TransitionTo(StateHome)
		return
	}

	reflection, err := r.current.ToReflection(r.opts.Project, r.opts.ToolVersion, "terminal")
	if err != nil {
		r.display.ShowError("Failed to finish reflection: " + err.Error())
		r.finishSession(StateHome)
		return
	}

	r.display.ShowSummary(reflection)

	line, ok, interrupted := r.prompt("Save reflection? (y/n): ")
	if interrupted {
		r.display.ShowCancelled()
		r.finishSession(StateHome)
		return
	}

	// Empty input defaults to yes; anything unrecognized cancels.
	save := false
	if ok {
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes", "":
			save = true
		}
	}

	if save {
		if r.saveReflection(reflection) {
			r.display.ShowCompletion()
		} else {
			r.display.ShowError("Failed to save reflection")
		}
	} else {
		r.display.ShowCancelled()
	}

	next := StateHome
	if !r.queue.IsEmpty() {
		next = StatePrompting
	}
	r.finishSession(next)
}

// finishSession clears the active session and moves to the next state.
func (r *REPL) finishSession(next State) {
	r.current = nil
	r.queue.ClearCurrent()
	r.machine.TransitionTo(next)
}

func (r *REPL) saveReflection(reflection *models.Reflection) bool {
	if r.opts.Store == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.opts.Store.Write(ctx, reflection); err != nil {
		log.Error().Err(err).Str("reflection_id", reflection.ID).Msg("save reflection")
		return false
	}
	log.Info().Str("reflection_id", reflection.ID).
		Str("commit", reflection.CommitContext.ShortHash()).Msg("reflection saved")
	return true
}

// onCommitReceived runs on the listener goroutine when a notification
// arrives.
func (r *REPL) onCommitReceived(commit QueuedCommit) {
	size := r.queue.Enqueue(commit)
	log.Debug().Str("commit", commit.ShortHash()).Int("queue_size", size).
		Msg("commit notification received")

	if r.machine.IsBusy() {
		r.display.ShowQueuedNotification(commit, size)
	} else if r.machine.IsIdle() {
		r.machine.TransitionTo(StatePrompting, func(ctx *StateContext) {
			ctx.PendingCount = size
		})
	}
}

// handleInterrupt maps Ctrl+C to the state-appropriate action: cancel
// the in-flight reflection, abort a save, or exit from idle.
func (r *REPL) handleInterrupt() {
	switch r.machine.State() {
	case StateInReflection:
		// Back to home; with commits still queued the home handler
		// prompts again immediately.
		r.display.ShowCancelled()
		r.current = nil
		r.queue.ClearCurrent()
		r.machine.TransitionTo(StateHome)
	case StateCompleting:
		r.display.ShowCancelled()
		r.current = nil
		r.queue.ClearCurrent()
		r.machine.TransitionTo(StateHome)
	default:
		r.display.ShowGoodbye()
		r.shouldExit = true
	}
}
