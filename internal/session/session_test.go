package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflectdev/commit-reflect/pkg/models"
)

func smallQuestionSet() *models.QuestionSet {
	return &models.QuestionSet{
		Name:    "test",
		Version: "1.0",
		Questions: []models.Question{
			{
				ID: "kind", Text: "What kind?", Type: models.QuestionTypeChoice,
				Required: true, Options: []string{"Feature", "Bugfix"}, Order: 1,
			},
			{
				ID: "notes", Text: "Notes?", Type: models.QuestionTypeMultiline,
				Required: false, Order: 2,
			},
			{
				ID: "confidence", Text: "Confidence?", Type: models.QuestionTypeScale,
				Required: true, MinValue: 1, MaxValue: 5, Order: 3,
			},
		},
	}
}

func testCommitContext() models.CommitContext {
	return models.CommitContext{
		CommitHash: "abc123def456",
		Branch:     "main",
		AuthorName: "Dev",
	}
}

func TestSessionFlow(t *testing.T) {
	s := New(testCommitContext(), smallQuestionSet())

	require.NotEmpty(t, s.ID())
	assert.False(t, s.IsComplete())

	q, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "kind", q.ID)

	num, total := s.Progress()
	assert.Equal(t, 1, num)
	assert.Equal(t, 3, total)

	// Invalid answer keeps the session on the same question
	require.Error(t, s.Answer("nonsense"))
	q, _ = s.Current()
	assert.Equal(t, "kind", q.ID)

	require.NoError(t, s.Answer("2"))
	require.NoError(t, s.Answer("went fine"))
	require.NoError(t, s.Answer("4"))

	assert.True(t, s.IsComplete())
	_, ok = s.Current()
	assert.False(t, ok)

	got, ok := s.AnswerFor("kind")
	require.True(t, ok)
	assert.Equal(t, "Bugfix", got)
}

func TestSessionSkipOptional(t *testing.T) {
	s := New(testCommitContext(), smallQuestionSet())

	require.NoError(t, s.Answer("1"))

	// Required questions cannot be skipped
	require.NoError(t, s.Skip())
	_, ok := s.AnswerFor("notes")
	assert.False(t, ok)

	err := s.Skip()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")

	require.NoError(t, s.Answer("3"))
	assert.True(t, s.IsComplete())
}

func TestSessionEmptyAnswerSkipsOptional(t *testing.T) {
	s := New(testCommitContext(), smallQuestionSet())

	require.NoError(t, s.Answer("1"))
	require.NoError(t, s.Answer(""))

	_, ok := s.AnswerFor("notes")
	assert.False(t, ok)

	q, _ := s.Current()
	assert.Equal(t, "confidence", q.ID)
}

func TestSessionBack(t *testing.T) {
	s := New(testCommitContext(), smallQuestionSet())

	assert.False(t, s.Back())

	require.NoError(t, s.Answer("1"))
	require.True(t, s.Back())

	q, _ := s.Current()
	assert.Equal(t, "kind", q.ID)
}

func TestSessionToReflection(t *testing.T) {
	s := New(testCommitContext(), smallQuestionSet())

	_, err := s.ToReflection("proj", "1.0.0", "terminal")
	assert.ErrorIs(t, err, ErrIncomplete)

	require.NoError(t, s.Answer("Feature"))
	require.NoError(t, s.Answer("learned a lot"))
	require.NoError(t, s.Answer("5"))

	r, err := s.ToReflection("proj", "1.0.0", "terminal")
	require.NoError(t, err)

	assert.Equal(t, s.ID(), r.SessionMetadata.SessionID)
	assert.Equal(t, "proj", r.SessionMetadata.ProjectName)
	assert.Equal(t, "terminal", r.SessionMetadata.Environment)
	assert.NotNil(t, r.SessionMetadata.CompletedAt)
	assert.Equal(t, "abc123def456", r.CommitContext.CommitHash)

	require.Len(t, r.Answers, 3)
	assert.Equal(t, "kind", r.Answers[0].QuestionID)
	assert.Equal(t, "Feature", r.Answers[0].Answer)
	assert.Equal(t, "confidence", r.Answers[2].QuestionID)
}

func TestSessionDefaultQuestions(t *testing.T) {
	s := New(testCommitContext(), nil)
	_, total := s.Progress()
	assert.Equal(t, 10, total)
}
