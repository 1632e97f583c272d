// Package gitutil extracts commit metadata for reflection context.
package gitutil

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/reflectdev/commit-reflect/pkg/models"
)

// ErrNotRepository is returned when the given path is not inside a git
// repository.
var ErrNotRepository = errors.New("not in a git repository")

// Open opens the repository containing path, walking up to find .git.
func Open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

// IsRepository reports whether path is inside a git repository.
func IsRepository(path string) bool {
	_, err := Open(path)
	return err == nil
}

// CurrentBranch returns the checked-out branch name, or a
// "detached-<hash>" marker when HEAD is detached.
func CurrentBranch(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	hash := head.Hash().String()
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return "detached-" + hash, nil
}

// resolveCommit resolves a revision string to a commit object.
func resolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	return commit, nil
}

// CommitContext gathers full reflection context for the given revision
// (commit hash, branch name, or "HEAD") in the repository containing path.
func CommitContext(path, rev string) (models.CommitContext, error) {
	repo, err := Open(path)
	if err != nil {
		return models.CommitContext{}, err
	}

	commit, err := resolveCommit(repo, rev)
	if err != nil {
		return models.CommitContext{}, err
	}

	ctx := models.CommitContext{
		CommitHash:    commit.Hash.String(),
		CommitMessage: commit.Message,
		AuthorName:    commit.Author.Name,
		AuthorEmail:   commit.Author.Email,
		Timestamp:     commit.Author.When,
	}

	branch, err := CurrentBranch(repo)
	if err != nil {
		branch = "unknown"
	}
	ctx.Branch = branch

	// Stats diff against the first parent; the initial commit diffs
	// against the empty tree.
	stats, err := commit.Stats()
	if err == nil {
		ctx.FilesChanged = len(stats)
		for _, fs := range stats {
			ctx.ChangedFiles = append(ctx.ChangedFiles, fs.Name)
			ctx.Insertions += fs.Addition
			ctx.Deletions += fs.Deletion
		}
	}

	return ctx, nil
}

// ProjectName returns the repository directory name for the repo
// containing path, or "unknown" when unavailable.
func ProjectName(path string) string {
	repo, err := Open(path)
	if err != nil {
		return "unknown"
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "unknown"
	}
	return filepath.Base(wt.Filesystem.Root())
}

// RecentCommits returns up to count commit hashes, most recent first.
func RecentCommits(path string, count int) ([]string, error) {
	repo, err := Open(path)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	var hashes []string
	err = iter.ForEach(func(c *object.Commit) error {
		if len(hashes) >= count {
			return errStopIteration
		}
		hashes = append(hashes, c.Hash.String())
		return nil
	})
	if err != nil && !errors.Is(err, errStopIteration) {
		return nil, err
	}
	return hashes, nil
}

var errStopIteration = errors.New("stop iteration")
