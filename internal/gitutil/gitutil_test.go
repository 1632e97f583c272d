package gitutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a repository with a single commit touching two files.
func initTestRepo(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("main.go")
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	hash, err := wt.Commit("feat: initial commit\n\nwith a body", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir, hash.String()
}

func TestIsRepository(t *testing.T) {
	dir, _ := initTestRepo(t)

	assert.True(t, IsRepository(dir))
	assert.False(t, IsRepository(t.TempDir()))

	// Detection walks up from subdirectories
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))
	assert.True(t, IsRepository(sub))
}

func TestCommitContext(t *testing.T) {
	dir, hash := initTestRepo(t)

	ctx, err := CommitContext(dir, "HEAD")
	require.NoError(t, err)

	assert.Equal(t, hash, ctx.CommitHash)
	assert.Equal(t, "feat: initial commit\n\nwith a body", ctx.CommitMessage)
	assert.Equal(t, "Test Author", ctx.AuthorName)
	assert.Equal(t, "test@example.com", ctx.AuthorEmail)
	assert.False(t, ctx.Timestamp.IsZero())
	assert.Equal(t, 2, ctx.FilesChanged)
	assert.ElementsMatch(t, []string{"main.go", "README.md"}, ctx.ChangedFiles)
	assert.Equal(t, 2, ctx.Insertions)
	assert.Equal(t, 0, ctx.Deletions)
	assert.NotEmpty(t, ctx.Branch)
}

func TestCommitContextByHash(t *testing.T) {
	dir, hash := initTestRepo(t)

	ctx, err := CommitContext(dir, hash)
	require.NoError(t, err)
	assert.Equal(t, hash, ctx.CommitHash)
}

func TestCommitContextErrors(t *testing.T) {
	_, err := CommitContext(t.TempDir(), "HEAD")
	assert.ErrorIs(t, err, ErrNotRepository)

	dir, _ := initTestRepo(t)
	_, err = CommitContext(dir, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	assert.Error(t, err)
}

func TestProjectName(t *testing.T) {
	dir, _ := initTestRepo(t)
	assert.Equal(t, filepath.Base(dir), ProjectName(dir))
	assert.Equal(t, "unknown", ProjectName(t.TempDir()))
}

func TestRecentCommits(t *testing.T) {
	dir, first := initTestRepo(t)

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{})
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0644))
	_, err = wt.Add("main.go")
	require.NoError(t, err)
	second, err := wt.Commit("fix: add main func", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "t@e.com", When: time.Now()},
	})
	require.NoError(t, err)

	hashes, err := RecentCommits(dir, 10)
	require.NoError(t, err)
	require.Len(t, hashes, 2)
	assert.Equal(t, second.String(), hashes[0])
	assert.Equal(t, first, hashes[1])

	// Count limits results
	hashes, err = RecentCommits(dir, 1)
	require.NoError(t, err)
	require.Len(t, hashes, 1)
	assert.Equal(t, second.String(), hashes[0])
}
