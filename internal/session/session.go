// Package session manages the question flow of a single reflection.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reflectdev/commit-reflect/pkg/models"
)

// ErrIncomplete is returned when converting a session to a reflection
// before every required question is answered.
var ErrIncomplete = errors.New("session is not complete")

// Session walks a question set for one commit, collecting validated
// answers in order.
type Session struct {
	id        string
	commitCtx models.CommitContext
	questions []models.Question
	answers   map[string]string
	index     int
	startedAt time.Time
}

// New creates a session over the given question set. A nil set uses the
// default questions.
func New(commitCtx models.CommitContext, set *models.QuestionSet) *Session {
	if set == nil {
		set = models.DefaultQuestionSet()
	}
	return &Session{
		id:        uuid.New().String(),
		commitCtx: commitCtx,
		questions: set.Sorted(),
		answers:   make(map[string]string),
		startedAt: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CommitContext returns the commit this session reflects on.
func (s *Session) CommitContext() models.CommitContext { return s.commitCtx }

// Questions returns the questions in presentation order.
func (s *Session) Questions() []models.Question { return s.questions }

// Current returns the question awaiting an answer, or false when every
// question has been visited.
func (s *Session) Current() (models.Question, bool) {
	if s.index >= len(s.questions) {
		return models.Question{}, false
	}
	return s.questions[s.index], true
}

// Answer validates raw input against the current question, stores the
// normalized answer and advances. Optional questions answered with empty
// input are skipped without storing.
func (s *Session) Answer(raw string) error {
	q, ok := s.Current()
	if !ok {
		return errors.New("no current question")
	}

	normalized, err := q.NormalizeAnswer(raw)
	if err != nil {
		return err
	}

	if normalized != "" {
		s.answers[q.ID] = normalized
	}
	s.index++
	return nil
}

// Skip advances past the current question without an answer. Required
// questions cannot be skipped.
func (s *Session) Skip() error {
	q, ok := s.Current()
	if !ok {
		return errors.New("no current question")
	}
	if q.Required {
		return fmt.Errorf("question %q is required and cannot be skipped", q.ID)
	}
	s.index++
	return nil
}

// Back returns to the previous question. It reports false at the first
// question.
func (s *Session) Back() bool {
	if s.index == 0 {
		return false
	}
	s.index--
	return true
}

// Progress returns the 1-based current question number and the total.
func (s *Session) Progress() (int, int) {
	current := s.index + 1
	if current > len(s.questions) {
		current = len(s.questions)
	}
	return current, len(s.questions)
}

// IsComplete reports whether every question has been visited and every
// required question has an answer.
func (s *Session) IsComplete() bool {
	if s.index < len(s.questions) {
		return false
	}
	for _, q := range s.questions {
		if q.Required {
			if _, ok := s.answers[q.ID]; !ok {
				return false
			}
		}
	}
	return true
}

// AnswerFor returns the stored answer for a question ID.
func (s *Session) AnswerFor(id string) (string, bool) {
	a, ok := s.answers[id]
	return a, ok
}

// ToReflection converts a completed session into a persistable
// reflection. Answers appear in question order.
func (s *Session) ToReflection(projectName, toolVersion, environment string) (*models.Reflection, error) {
	if !s.IsComplete() {
		return nil, ErrIncomplete
	}

	r := models.NewReflection(s.commitCtx, models.SessionMetadata{
		SessionID:   s.id,
		StartedAt:   s.startedAt,
		ProjectName: projectName,
		ToolVersion: toolVersion,
		Environment: environment,
	})
	for _, q := range s.questions {
		if answer, ok := s.answers[q.ID]; ok {
			r.AddAnswer(q.ID, q.Text, answer)
		}
	}
	r.MarkCompleted()
	return r, nil
}
