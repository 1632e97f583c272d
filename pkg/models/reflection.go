package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReflectionAnswer is a single answer to a reflection question.
type ReflectionAnswer struct {
	QuestionID   string    `json:"question_id"`
	QuestionText string    `json:"question_text"`
	Answer       string    `json:"answer"`
	AnsweredAt   time.Time `json:"answered_at"`
}

// CommitContext describes the commit a reflection is about.
type CommitContext struct {
	CommitHash    string    `json:"commit_hash"`
	CommitMessage string    `json:"commit_message"`
	Branch        string    `json:"branch"`
	AuthorName    string    `json:"author_name"`
	AuthorEmail   string    `json:"author_email"`
	Timestamp     time.Time `json:"timestamp"`
	FilesChanged  int       `json:"files_changed"`
	Insertions    int       `json:"insertions"`
	Deletions     int       `json:"deletions"`
	ChangedFiles  []string  `json:"changed_files,omitempty"`
}

// ShortHash returns the abbreviated commit hash.
func (c *CommitContext) ShortHash() string {
	if len(c.CommitHash) > 8 {
		return c.CommitHash[:8]
	}
	return c.CommitHash
}

// Subject returns the first line of the commit message.
func (c *CommitContext) Subject() string {
	for i := 0; i < len(c.CommitMessage); i++ {
		if c.CommitMessage[i] == '\n' {
			return c.CommitMessage[:i]
		}
	}
	return c.CommitMessage
}

// SessionMetadata describes the reflection session itself.
type SessionMetadata struct {
	SessionID   string     `json:"session_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ProjectName string     `json:"project_name,omitempty"`
	ToolVersion string     `json:"tool_version,omitempty"`
	Environment string     `json:"environment,omitempty"`
	Interrupted bool       `json:"interrupted"`
}

// Reflection is a complete reflection on a git commit, combining answers,
// commit context and session metadata.
type Reflection struct {
	ID              string             `json:"id"`
	Answers         []ReflectionAnswer `json:"answers"`
	CommitContext   CommitContext      `json:"commit_context"`
	SessionMetadata SessionMetadata    `json:"session_metadata"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewReflection creates a reflection with a fresh ID and timestamps.
func NewReflection(ctx CommitContext, meta SessionMetadata) *Reflection {
	now := time.Now()
	return &Reflection{
		ID:              uuid.New().String(),
		CommitContext:   ctx,
		SessionMetadata: meta,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AddAnswer appends an answer and bumps UpdatedAt.
func (r *Reflection) AddAnswer(questionID, questionText, answer string) {
	r.Answers = append(r.Answers, ReflectionAnswer{
		QuestionID:   questionID,
		QuestionText: questionText,
		Answer:       answer,
		AnsweredAt:   time.Now(),
	})
	r.UpdatedAt = time.Now()
}

// AnswerByQuestionID returns the answer for a question ID, if present.
func (r *Reflection) AnswerByQuestionID(id string) (ReflectionAnswer, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == id {
			return a, true
		}
	}
	return ReflectionAnswer{}, false
}

// MarkCompleted records the completion time on the session metadata.
func (r *Reflection) MarkCompleted() {
	now := time.Now()
	r.SessionMetadata.CompletedAt = &now
	r.UpdatedAt = now
}

// Summary returns a one-line description of the reflection.
func (r *Reflection) Summary() string {
	return fmt.Sprintf("Reflection for commit %s on %s branch (%d answers)",
		r.CommitContext.ShortHash(), r.CommitContext.Branch, len(r.Answers))
}
