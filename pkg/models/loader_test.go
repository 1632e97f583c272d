package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadQuestionSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")

	yamlData := `name: Custom
version: "1.0"
questions:
  - id: mood
    text: How did this commit feel?
    type: choice
    required: true
    options:
      - Good
      - Bad
    order: 1
  - id: notes
    text: Anything else?
    type: multiline
    order: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0600))

	set, err := LoadQuestionSet(path)
	require.NoError(t, err)
	assert.Equal(t, "Custom", set.Name)
	require.Len(t, set.Questions, 2)
	assert.Equal(t, "mood", set.Questions[0].ID)
	assert.Equal(t, QuestionTypeChoice, set.Questions[0].Type)
	assert.True(t, set.Questions[0].Required)
	assert.False(t, set.Questions[1].Required)
}

func TestLoadQuestionSet_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadQuestionSet(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("questions: [not a mapping"), 0600))
	_, err = LoadQuestionSet(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("name: Empty\n"), 0600))
	_, err = LoadQuestionSet(empty)
	assert.ErrorContains(t, err, "no questions")
}

func TestLoadQuestionSetOrDefault(t *testing.T) {
	dir := t.TempDir()

	set, err := LoadQuestionSetOrDefault(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Len(t, set.Questions, len(DefaultQuestionSet().Questions))
}

func TestSaveQuestionSet_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")

	require.NoError(t, SaveQuestionSet(path, DefaultQuestionSet()))

	set, err := LoadQuestionSet(path)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultQuestionSet().Questions), len(set.Questions))
	assert.Equal(t, "work_type", set.Sorted()[0].ID)
}
