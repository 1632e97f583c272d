package repl

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// State is a REPL state machine state.
type State int

const (
	// StateHome is idle, waiting for commits or commands.
	StateHome State = iota
	// StatePrompting shows the "Start reflection?" prompt.
	StatePrompting
	// StateInReflection is actively answering questions.
	StateInReflection
	// StateCompleting is saving and finishing a reflection.
	StateCompleting
)

func (s State) String() string {
	switch s {
	case StateHome:
		return "home"
	case StatePrompting:
		return "prompting"
	case StateInReflection:
		return "in_reflection"
	case StateCompleting:
		return "completing"
	default:
		return "unknown"
	}
}

// StateContext carries data across state transitions. Metadata holds
// anything without a dedicated field; it is created on first transition
// that applies an update.
type StateContext struct {
	CurrentCommitHash string
	PendingCount      int
	QuestionIndex     int
	LastError         string
	Metadata          map[string]any
}

// ContextUpdate mutates the state context during a transition.
type ContextUpdate func(*StateContext)

// TransitionListener is notified after each successful transition.
type TransitionListener func(from, to State, ctx StateContext)

var validTransitions = map[State][]State{
	StateHome:         {StatePrompting},
	StatePrompting:    {StateHome, StateInReflection},
	StateInReflection: {StateCompleting, StateHome},
	StateCompleting:   {StateHome, StatePrompting},
}

type listenerEntry struct {
	id int
	fn TransitionListener
}

// StateMachine validates REPL state transitions and notifies listeners.
type StateMachine struct {
	mu        sync.Mutex
	state     State
	ctx       StateContext
	listeners []listenerEntry
	nextID    int
}

// NewStateMachine starts in StateHome.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateHome}
}

// State returns the current state.
func (m *StateMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Context returns a copy of the current context.
func (m *StateMachine) Context() StateContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}

// TransitionTo moves to the target state when the transition is allowed,
// applying updates and notifying listeners. It reports whether the
// transition happened.
func (m *StateMachine) TransitionTo(target State, updates ...ContextUpdate) bool {
	m.mu.Lock()

	if !isValidTransition(m.state, target) {
		m.mu.Unlock()
		return false
	}

	from := m.state
	m.state = target
	if m.ctx.Metadata == nil && len(updates) > 0 {
		m.ctx.Metadata = make(map[string]any)
	}
	for _, update := range updates {
		update(&m.ctx)
	}
	ctx := m.ctx
	listeners := make([]TransitionListener, 0, len(m.listeners))
	for _, entry := range m.listeners {
		listeners = append(listeners, entry.fn)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		notifyListener(l, from, target, ctx)
	}
	return true
}

// notifyListener calls a listener, recovering panics so a bad listener
// cannot break transitions.
func notifyListener(l TransitionListener, from, to State, ctx StateContext) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).
				Str("from", from.String()).Str("to", to.String()).
				Msg("state transition listener panicked")
		}
	}()
	l(from, to, ctx)
}

// OnTransition registers a transition listener and returns an id for
// RemoveListener.
func (m *StateMachine) OnTransition(l TransitionListener) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.listeners = append(m.listeners, listenerEntry{id: m.nextID, fn: l})
	return m.nextID
}

// RemoveListener unregisters a listener by id, reporting whether it was
// registered.
func (m *StateMachine) RemoveListener(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, entry := range m.listeners {
		if entry.id == id {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving to target is currently allowed.
func (m *StateMachine) CanTransitionTo(target State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return isValidTransition(m.state, target)
}

// IsBusy reports whether incoming commits should queue rather than
// prompt immediately.
func (m *StateMachine) IsBusy() bool {
	s := m.State()
	return s == StateInReflection || s == StateCompleting
}

// IsIdle reports whether the machine is in the home state.
func (m *StateMachine) IsIdle() bool {
	return m.State() == StateHome
}

// Reset returns to StateHome with a fresh context.
func (m *StateMachine) Reset() {
	m.mu.Lock()
	m.state = StateHome
	m.ctx = StateContext{}
	m.mu.Unlock()
}

func isValidTransition(from, to State) bool {
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
