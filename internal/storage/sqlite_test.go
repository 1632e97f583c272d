package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/reflectdev/commit-reflect/pkg/models"
)

// SQLiteSuite is a test suite for the SQLite backend.
type SQLiteSuite struct {
	suite.Suite
	store *SQLite
}

func (s *SQLiteSuite) SetupTest() {
	var err error
	s.store, err = NewSQLite(filepath.Join(s.T().TempDir(), "reflections.db"), 2)
	s.Require().NoError(err)
}

func (s *SQLiteSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func TestSQLiteSuite(t *testing.T) {
	suite.Run(t, new(SQLiteSuite))
}

func testReflection() *models.Reflection {
	r := models.NewReflection(
		models.CommitContext{
			CommitHash:    "abc123def4567890",
			CommitMessage: "feat: add listener",
			Branch:        "main",
			AuthorName:    "Dev",
			AuthorEmail:   "dev@example.com",
			Timestamp:     time.Now().Add(-time.Minute),
			FilesChanged:  2,
			Insertions:    40,
			Deletions:     3,
			ChangedFiles:  []string{"server.go", "server_test.go"},
		},
		models.SessionMetadata{
			SessionID:   "sess-1",
			StartedAt:   time.Now(),
			ProjectName: "commit-reflect",
			ToolVersion: "1.0.0",
			Environment: "terminal",
		},
	)
	r.AddAnswer("work_type", "What kind of work?", "New Feature")
	r.AddAnswer("difficulty", "How difficult?", "Moderate")
	return r
}

func (s *SQLiteSuite) TestWriteAndGet() {
	r := testReflection()
	ctx := context.Background()

	s.Require().NoError(s.store.Write(ctx, r))

	got, err := s.store.Get(ctx, r.ID)
	s.Require().NoError(err)

	s.Equal(r.ID, got.ID)
	s.Equal(r.CommitContext.CommitHash, got.CommitContext.CommitHash)
	s.Equal(r.CommitContext.ChangedFiles, got.CommitContext.ChangedFiles)
	s.Equal(r.SessionMetadata.ProjectName, got.SessionMetadata.ProjectName)
	s.Equal(r.SessionMetadata.SessionID, got.SessionMetadata.SessionID)
	s.False(got.SessionMetadata.Interrupted)
	s.Require().Len(got.Answers, 2)
	s.Equal("New Feature", got.Answers[0].Answer)
	s.Equal("difficulty", got.Answers[1].QuestionID)
}

func (s *SQLiteSuite) TestWriteUpsert() {
	r := testReflection()
	ctx := context.Background()

	s.Require().NoError(s.store.Write(ctx, r))

	// Second write of the same reflection updates in place
	r.MarkCompleted()
	r.AddAnswer("outcome", "Outcome?", "Completed what I intended")
	s.Require().NoError(s.store.Write(ctx, r))

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	got, err := s.store.Get(ctx, r.ID)
	s.Require().NoError(err)
	s.NotNil(got.SessionMetadata.CompletedAt)
	s.Len(got.Answers, 3)
}

func (s *SQLiteSuite) TestReadRecent() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r := testReflection()
		r.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		s.Require().NoError(s.store.Write(ctx, r))
	}

	recent, err := s.store.ReadRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.True(recent[0].CreatedAt.After(recent[1].CreatedAt))
	s.Len(recent[0].Answers, 2)
}

func (s *SQLiteSuite) TestInterruptedFlag() {
	ctx := context.Background()

	r := testReflection()
	r.SessionMetadata.Interrupted = true
	s.Require().NoError(s.store.Write(ctx, r))

	got, err := s.store.Get(ctx, r.ID)
	s.Require().NoError(err)
	s.True(got.SessionMetadata.Interrupted)
}

func (s *SQLiteSuite) TestMigrationIdempotent() {
	// Re-opening the same database must not fail or duplicate schema
	path := filepath.Join(s.T().TempDir(), "reopen.db")

	store, err := NewSQLite(path, 1)
	s.Require().NoError(err)
	s.Require().NoError(store.Write(context.Background(), testReflection()))
	s.Require().NoError(store.Close())

	store, err = NewSQLite(path, 1)
	s.Require().NoError(err)
	defer store.Close()

	n, err := store.Count(context.Background())
	s.Require().NoError(err)
	s.Equal(1, n)
}
