package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"
)

// inputBuffer bounds how many unread lines are held; further lines are
// dropped, matching a user typing ahead of the prompt.
const inputBuffer = 64

// Input reads lines from a reader in the background so the REPL loop can
// poll for input with a timeout while the listener keeps running.
type Input struct {
	lines   chan string
	out     io.Writer
	running atomic.Bool
}

// NewInput starts a reader goroutine consuming lines from r. Prompts are
// written to out.
func NewInput(r io.Reader, out io.Writer) *Input {
	in := &Input{
		lines: make(chan string, inputBuffer),
		out:   out,
	}
	in.running.Store(true)

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if !in.running.Load() {
				return
			}
			select {
			case in.lines <- strings.TrimRight(scanner.Text(), "\r"):
			default:
				// Buffer full; drop the line.
			}
		}
	}()
	return in
}

// Lines exposes the raw line channel so callers can select over input
// alongside signals and timers.
func (in *Input) Lines() <-chan string {
	return in.lines
}

// Stop ignores further input. The reader goroutine exits on the next
// line or EOF.
func (in *Input) Stop() {
	in.running.Store(false)
}

// IsRunning reports whether input is being consumed.
func (in *Input) IsRunning() bool {
	return in.running.Load()
}

// Get returns the next line of input. A zero timeout blocks until input
// arrives; otherwise it reports false when the timeout elapses first.
func (in *Input) Get(timeout time.Duration) (string, bool) {
	if timeout <= 0 {
		line, ok := <-in.lines
		return line, ok
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case line, ok := <-in.lines:
		return line, ok
	case <-timer.C:
		return "", false
	}
}

// Prompt writes message without a newline and waits for a line.
func (in *Input) Prompt(message string, timeout time.Duration) (string, bool) {
	fmt.Fprint(in.out, message)
	return in.Get(timeout)
}

// PromptYesNo prompts for a y/n answer. Empty input yields def. The
// second return is false on timeout or an unrecognized answer.
func (in *Input) PromptYesNo(message string, def bool, timeout time.Duration) (bool, bool) {
	response, ok := in.Prompt(message, timeout)
	if !ok {
		return false, false
	}

	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	case "":
		return def, true
	default:
		return false, false
	}
}

// ClearQueue discards buffered input, returning the number of lines
// dropped. Called when entering a reflection so stray keystrokes do not
// become answers.
func (in *Input) ClearQueue() int {
	count := 0
	for {
		select {
		case <-in.lines:
			count++
		default:
			return count
		}
	}
}
