package storage

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/reflectdev/commit-reflect/pkg/models"
)

// JSONL is an append-only JSON Lines backend, one reflection per line.
type JSONL struct {
	path string
	mu   sync.Mutex
	file *os.File
}

// NewJSONL opens (creating if needed) the JSONL file at path.
func NewJSONL(path string) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open jsonl file: %w", err)
	}
	return &JSONL{path: path, file: f}, nil
}

// Name implements Backend.
func (j *JSONL) Name() string { return "jsonl" }

// Write appends the reflection as a single JSON line and syncs to disk.
func (j *JSONL) Write(ctx context.Context, r *models.Reflection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reflection: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Write(data); err != nil {
		return fmt.Errorf("append reflection: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("sync jsonl file: %w", err)
	}
	return nil
}

// ReadRecent returns up to limit reflections, most recent first. Lines
// that fail to parse are skipped rather than failing the whole read.
func (j *JSONL) ReadRecent(ctx context.Context, limit int) ([]*models.Reflection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open jsonl file: %w", err)
	}
	defer f.Close()

	var all []*models.Reflection
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r models.Reflection
		if err := json.Unmarshal(line, &r); err != nil {
			continue
		}
		all = append(all, &r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan jsonl file: %w", err)
	}

	// Newest last on disk, newest first in the result.
	for i, k := 0, len(all)-1; i < k; i, k = i+1, k-1 {
		all[i], all[k] = all[k], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Close closes the append handle.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
