package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/reflectdev/commit-reflect/pkg/models"
)

const schemaVersion = 1

// SQLite persists reflections to a local SQLite database with one row per
// reflection and one row per answer.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the database at path, runs migrations and enables WAL
// mode for concurrent readers.
func NewSQLite(path string, maxConns int) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if maxConns <= 0 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// WAL mode and busy timeout keep concurrent readers from blocking the
	// single writer.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return s, nil
}

func (s *SQLite) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	var current int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current)
	if err != nil {
		return err
	}

	if current < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) migrateV1() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reflections (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			project_name TEXT,
			commit_hash TEXT NOT NULL,
			commit_message TEXT NOT NULL,
			branch TEXT NOT NULL,
			author_name TEXT NOT NULL,
			author_email TEXT NOT NULL,
			commit_timestamp TIMESTAMP NOT NULL,
			files_changed INTEGER DEFAULT 0,
			insertions INTEGER DEFAULT 0,
			deletions INTEGER DEFAULT 0,
			changed_files TEXT,
			session_id TEXT NOT NULL,
			session_started_at TIMESTAMP NOT NULL,
			session_completed_at TIMESTAMP,
			tool_version TEXT,
			environment TEXT,
			interrupted INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			reflection_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			question_text TEXT NOT NULL,
			answer TEXT NOT NULL,
			answered_at TIMESTAMP NOT NULL,
			FOREIGN KEY (reflection_id) REFERENCES reflections(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reflections_created_at ON reflections(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reflections_project_name ON reflections(project_name)`,
		`CREATE INDEX IF NOT EXISTS idx_reflections_commit_hash ON reflections(commit_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_reflections_branch ON reflections(branch)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_reflection_id ON answers(reflection_id)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_question_id ON answers(question_id)`,
		`INSERT INTO schema_version (version) VALUES (1)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Name implements Backend.
func (s *SQLite) Name() string { return "sqlite" }

// Write upserts the reflection and replaces its answers in one transaction.
func (s *SQLite) Write(ctx context.Context, r *models.Reflection) error {
	changedFiles, err := json.Marshal(r.CommitContext.ChangedFiles)
	if err != nil {
		return fmt.Errorf("marshal changed files: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ctxData := r.CommitContext
	meta := r.SessionMetadata

	var completedAt sql.NullString
	if meta.CompletedAt != nil {
		completedAt = sql.NullString{String: meta.CompletedAt.Format(time.RFC3339Nano), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reflections (
			id, created_at, updated_at, project_name,
			commit_hash, commit_message, branch, author_name, author_email,
			commit_timestamp, files_changed, insertions, deletions, changed_files,
			session_id, session_started_at, session_completed_at,
			tool_version, environment, interrupted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at,
			session_completed_at = excluded.session_completed_at,
			interrupted = excluded.interrupted
	`,
		r.ID,
		r.CreatedAt.Format(time.RFC3339Nano),
		r.UpdatedAt.Format(time.RFC3339Nano),
		nullString(meta.ProjectName),
		ctxData.CommitHash,
		ctxData.CommitMessage,
		ctxData.Branch,
		ctxData.AuthorName,
		ctxData.AuthorEmail,
		ctxData.Timestamp.Format(time.RFC3339Nano),
		ctxData.FilesChanged,
		ctxData.Insertions,
		ctxData.Deletions,
		string(changedFiles),
		meta.SessionID,
		meta.StartedAt.Format(time.RFC3339Nano),
		completedAt,
		nullString(meta.ToolVersion),
		nullString(meta.Environment),
		boolToInt(meta.Interrupted),
	)
	if err != nil {
		return fmt.Errorf("insert reflection: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE reflection_id = ?`, r.ID); err != nil {
		return fmt.Errorf("clear answers: %w", err)
	}
	for _, a := range r.Answers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO answers (reflection_id, question_id, question_text, answer, answered_at)
			VALUES (?, ?, ?, ?, ?)
		`, r.ID, a.QuestionID, a.QuestionText, a.Answer, a.AnsweredAt.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert answer %s: %w", a.QuestionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ReadRecent returns up to limit reflections with their answers, most
// recent first.
func (s *SQLite) ReadRecent(ctx context.Context, limit int) ([]*models.Reflection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, updated_at, project_name,
			commit_hash, commit_message, branch, author_name, author_email,
			commit_timestamp, files_changed, insertions, deletions, changed_files,
			session_id, session_started_at, session_completed_at,
			tool_version, environment, interrupted
		FROM reflections
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reflections: %w", err)
	}
	defer rows.Close()

	var result []*models.Reflection
	for rows.Next() {
		r, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range result {
		if err := s.loadAnswers(ctx, r); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Get returns a single reflection by ID, or sql.ErrNoRows when absent.
func (s *SQLite) Get(ctx context.Context, id string) (*models.Reflection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, project_name,
			commit_hash, commit_message, branch, author_name, author_email,
			commit_timestamp, files_changed, insertions, deletions, changed_files,
			session_id, session_started_at, session_completed_at,
			tool_version, environment, interrupted
		FROM reflections WHERE id = ?
	`, id)

	r, err := scanReflection(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadAnswers(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Count returns the total number of stored reflections.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reflections`).Scan(&n)
	return n, err
}

// DB exposes the underlying handle for analytics queries.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) loadAnswers(ctx context.Context, r *models.Reflection) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question_id, question_text, answer, answered_at
		FROM answers WHERE reflection_id = ? ORDER BY id
	`, r.ID)
	if err != nil {
		return fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.ReflectionAnswer
		var answeredAt string
		if err := rows.Scan(&a.QuestionID, &a.QuestionText, &a.Answer, &answeredAt); err != nil {
			return err
		}
		a.AnsweredAt = parseTime(answeredAt)
		r.Answers = append(r.Answers, a)
	}
	return rows.Err()
}

func scanReflection(scanner interface{ Scan(...any) error }) (*models.Reflection, error) {
	var (
		r            models.Reflection
		createdAt    string
		updatedAt    string
		projectName  sql.NullString
		commitTS     string
		changedFiles sql.NullString
		startedAt    string
		completedAt  sql.NullString
		toolVersion  sql.NullString
		environment  sql.NullString
		interrupted  int
	)
	if err := scanner.Scan(
		&r.ID, &createdAt, &updatedAt, &projectName,
		&r.CommitContext.CommitHash, &r.CommitContext.CommitMessage,
		&r.CommitContext.Branch, &r.CommitContext.AuthorName, &r.CommitContext.AuthorEmail,
		&commitTS, &r.CommitContext.FilesChanged, &r.CommitContext.Insertions,
		&r.CommitContext.Deletions, &changedFiles,
		&r.SessionMetadata.SessionID, &startedAt, &completedAt,
		&toolVersion, &environment, &interrupted,
	); err != nil {
		return nil, err
	}

	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	r.CommitContext.Timestamp = parseTime(commitTS)
	r.SessionMetadata.ProjectName = projectName.String
	r.SessionMetadata.StartedAt = parseTime(startedAt)
	if completedAt.Valid {
		t := parseTime(completedAt.String)
		r.SessionMetadata.CompletedAt = &t
	}
	r.SessionMetadata.ToolVersion = toolVersion.String
	r.SessionMetadata.Environment = environment.String
	r.SessionMetadata.Interrupted = interrupted != 0

	if changedFiles.Valid && changedFiles.String != "" {
		_ = json.Unmarshal([]byte(changedFiles.String), &r.CommitContext.ChangedFiles)
	}
	return &r, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
