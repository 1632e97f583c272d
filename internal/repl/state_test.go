package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachineValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []State
	}{
		{name: "full reflection", path: []State{StatePrompting, StateInReflection, StateCompleting, StateHome}},
		{name: "decline prompt", path: []State{StatePrompting, StateHome}},
		{name: "cancel reflection", path: []State{StatePrompting, StateInReflection, StateHome}},
		{name: "chained prompts", path: []State{StatePrompting, StateInReflection, StateCompleting, StatePrompting}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStateMachine()
			require.Equal(t, StateHome, m.State())
			for _, target := range tt.path {
				require.True(t, m.TransitionTo(target), "transition to %s", target)
			}
		})
	}
}

func TestStateMachineInvalidTransitions(t *testing.T) {
	m := NewStateMachine()

	// Home can only go to Prompting
	assert.False(t, m.TransitionTo(StateInReflection))
	assert.False(t, m.TransitionTo(StateCompleting))
	assert.Equal(t, StateHome, m.State())

	require.True(t, m.TransitionTo(StatePrompting))
	assert.False(t, m.TransitionTo(StateCompleting))
	assert.Equal(t, StatePrompting, m.State())
}

func TestStateMachineBusyIdle(t *testing.T) {
	m := NewStateMachine()
	assert.True(t, m.IsIdle())
	assert.False(t, m.IsBusy())

	m.TransitionTo(StatePrompting)
	assert.False(t, m.IsIdle())
	assert.False(t, m.IsBusy())

	m.TransitionTo(StateInReflection)
	assert.True(t, m.IsBusy())

	m.TransitionTo(StateCompleting)
	assert.True(t, m.IsBusy())
}

func TestStateMachineContextUpdates(t *testing.T) {
	m := NewStateMachine()

	ok := m.TransitionTo(StatePrompting, func(ctx *StateContext) {
		ctx.CurrentCommitHash = "abc123"
		ctx.PendingCount = 2
	})
	require.True(t, ok)

	ctx := m.Context()
	assert.Equal(t, "abc123", ctx.CurrentCommitHash)
	assert.Equal(t, 2, ctx.PendingCount)

	// Failed transitions leave context untouched
	assert.False(t, m.TransitionTo(StatePrompting, func(ctx *StateContext) {
		ctx.PendingCount = 99
	}))
	assert.Equal(t, 2, m.Context().PendingCount)
}

func TestStateMachineListeners(t *testing.T) {
	m := NewStateMachine()

	var calls []string
	m.OnTransition(func(from, to State, _ StateContext) {
		calls = append(calls, from.String()+"->"+to.String())
	})
	// A panicking listener must not break transitions or later listeners
	m.OnTransition(func(_, _ State, _ StateContext) {
		panic("bad listener")
	})

	require.True(t, m.TransitionTo(StatePrompting))
	require.True(t, m.TransitionTo(StateInReflection))

	assert.Equal(t, []string{"home->prompting", "prompting->in_reflection"}, calls)
}

func TestStateMachineReset(t *testing.T) {
	m := NewStateMachine()
	m.TransitionTo(StatePrompting, func(ctx *StateContext) { ctx.PendingCount = 5 })

	m.Reset()

	assert.Equal(t, StateHome, m.State())
	assert.Equal(t, StateContext{}, m.Context())
}

func TestStateMachineCanTransitionTo(t *testing.T) {
	m := NewStateMachine()
	assert.True(t, m.CanTransitionTo(StatePrompting))
	assert.False(t, m.CanTransitionTo(StateCompleting))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "home", StateHome.String())
	assert.Equal(t, "prompting", StatePrompting.String())
	assert.Equal(t, "in_reflection", StateInReflection.String())
	assert.Equal(t, "completing", StateCompleting.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestStateMachineMetadata(t *testing.T) {
	m := NewStateMachine()

	ok := m.TransitionTo(StatePrompting, func(ctx *StateContext) {
		ctx.Metadata["source"] = "hook"
		ctx.Metadata["attempt"] = 2
	})
	require.True(t, ok)

	ctx := m.Context()
	assert.Equal(t, "hook", ctx.Metadata["source"])
	assert.Equal(t, 2, ctx.Metadata["attempt"])

	// Metadata persists across transitions.
	require.True(t, m.TransitionTo(StateHome))
	assert.Equal(t, "hook", m.Context().Metadata["source"])

	m.Reset()
	assert.Nil(t, m.Context().Metadata)
}

func TestStateMachineRemoveListener(t *testing.T) {
	m := NewStateMachine()

	var first, second int
	firstID := m.OnTransition(func(from, to State, ctx StateContext) { first++ })
	m.OnTransition(func(from, to State, ctx StateContext) { second++ })

	require.True(t, m.TransitionTo(StatePrompting))
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	assert.True(t, m.RemoveListener(firstID))
	require.True(t, m.TransitionTo(StateHome))
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)

	// Already removed.
	assert.False(t, m.RemoveListener(firstID))
}
