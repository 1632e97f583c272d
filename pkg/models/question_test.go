package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultQuestionSet(t *testing.T) {
	set := DefaultQuestionSet()

	require.NoError(t, set.Validate())
	assert.Equal(t, "2.0", set.Version)
	assert.Len(t, set.Questions, 10)

	sorted := set.Sorted()
	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, sorted[i-1].Order, sorted[i].Order)
	}

	q, ok := set.QuestionByID("work_type")
	require.True(t, ok)
	assert.Equal(t, QuestionTypeChoice, q.Type)
	assert.True(t, q.Required)

	_, ok = set.QuestionByID("nonexistent")
	assert.False(t, ok)
}

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name     string
		question Question
		wantErr  string
	}{
		{
			name:     "empty ID",
			question: Question{Text: "hello"},
			wantErr:  "ID cannot be empty",
		},
		{
			name:     "empty text",
			question: Question{ID: "q1"},
			wantErr:  "text cannot be empty",
		},
		{
			name:     "choice without options",
			question: Question{ID: "q1", Text: "pick", Type: QuestionTypeChoice},
			wantErr:  "requires options",
		},
		{
			name:     "scale with inverted bounds",
			question: Question{ID: "q1", Text: "rate", Type: QuestionTypeScale, MinValue: 5, MaxValue: 1},
			wantErr:  "min_value must be less than max_value",
		},
		{
			name:     "valid text question",
			question: Question{ID: "q1", Text: "describe", Type: QuestionTypeText},
		},
		{
			name: "valid choice question",
			question: Question{
				ID: "q1", Text: "pick", Type: QuestionTypeChoice,
				Options: []string{"a", "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.question.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeAnswerChoice(t *testing.T) {
	q := Question{
		ID: "work_type", Text: "kind?", Type: QuestionTypeChoice,
		Required: true,
		Options:  []string{"New Feature", "Bug fixing", "Refactor"},
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "numeric index", input: "2", want: "Bug fixing"},
		{name: "exact match", input: "Refactor", want: "Refactor"},
		{name: "case insensitive", input: "bug fixing", want: "Bug fixing"},
		{name: "whitespace trimmed", input: "  1  ", want: "New Feature"},
		{name: "index out of range", input: "4", wantErr: true},
		{name: "zero index", input: "0", wantErr: true},
		{name: "unknown text", input: "something else", wantErr: true},
		{name: "empty on required", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.NormalizeAnswer(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAnswerChoiceOtherText(t *testing.T) {
	q := Question{
		ID: "outcome", Text: "outcome?", Type: QuestionTypeChoice,
		Required:       true,
		Options:        []string{"Completed what I intended", "Spike"},
		AllowOtherText: true,
	}

	got, err := q.NormalizeAnswer("rolled back half of it")
	require.NoError(t, err)
	assert.Equal(t, "Other: rolled back half of it", got)

	got, err = q.NormalizeAnswer("2")
	require.NoError(t, err)
	assert.Equal(t, "Spike", got)

	// An out-of-range number is a mistyped index, not freeform text.
	_, err = q.NormalizeAnswer("9")
	assert.ErrorContains(t, err, "invalid option number")

	_, err = q.NormalizeAnswer("0")
	assert.ErrorContains(t, err, "invalid option number")
}

func TestNormalizeAnswerMultiChoice(t *testing.T) {
	q := Question{
		ID: "blockers", Text: "blockers?", Type: QuestionTypeMultiChoice,
		Options:        []string{"AI misunderstanding", "Tooling issues", "Other"},
		AllowOtherText: true,
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "mixed index and name", input: "1, tooling issues", want: "AI misunderstanding, Tooling issues"},
		{name: "duplicates removed", input: "1, 1, AI misunderstanding", want: "AI misunderstanding"},
		{name: "freeform other", input: "flaky CI", want: "Other: flaky CI"},
		{name: "empty optional skips", input: "", want: ""},
		{name: "skip keyword", input: "skip", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.NormalizeAnswer(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAnswerMultiChoiceStrict(t *testing.T) {
	q := Question{
		ID: "strict", Text: "pick", Type: QuestionTypeMultiChoice,
		Options: []string{"a", "b"},
	}

	_, err := q.NormalizeAnswer("a, nope")
	assert.Error(t, err)
}

func TestNormalizeAnswerMultiChoiceOutOfRangeNumber(t *testing.T) {
	q := Question{
		ID: "blockers", Text: "blockers?", Type: QuestionTypeMultiChoice,
		Options:        []string{"a", "b"},
		AllowOtherText: true,
	}

	_, err := q.NormalizeAnswer("1, 5")
	assert.ErrorContains(t, err, "invalid option number")
}

func TestNormalizeAnswerScale(t *testing.T) {
	q := Question{
		ID: "rating", Text: "rate", Type: QuestionTypeScale,
		Required: true, MinValue: 1, MaxValue: 5,
	}

	got, err := q.NormalizeAnswer("3")
	require.NoError(t, err)
	assert.Equal(t, "3", got)

	_, err = q.NormalizeAnswer("6")
	assert.ErrorContains(t, err, "between 1 and 5")

	_, err = q.NormalizeAnswer("abc")
	assert.ErrorContains(t, err, "invalid number")
}

func TestNormalizeAnswerBoolean(t *testing.T) {
	q := Question{ID: "b", Text: "yes?", Type: QuestionTypeBoolean, Required: true}

	for _, in := range []string{"y", "Yes", "TRUE"} {
		got, err := q.NormalizeAnswer(in)
		require.NoError(t, err)
		assert.Equal(t, "yes", got)
	}
	for _, in := range []string{"n", "No", "false"} {
		got, err := q.NormalizeAnswer(in)
		require.NoError(t, err)
		assert.Equal(t, "no", got)
	}

	_, err := q.NormalizeAnswer("maybe")
	assert.Error(t, err)
}

func TestNormalizeAnswerText(t *testing.T) {
	q := Question{ID: "t", Text: "how?", Type: QuestionTypeMultiline}

	got, err := q.NormalizeAnswer("  went smoothly  ")
	require.NoError(t, err)
	assert.Equal(t, "went smoothly", got)
}
