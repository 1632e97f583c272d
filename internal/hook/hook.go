// Package hook installs and removes the git post-commit hook that notifies
// a running REPL about new commits.
package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/reflectdev/commit-reflect/internal/gitutil"
)

// marker identifies hooks written by this tool. Uninstall refuses to touch
// a post-commit hook that does not contain it.
const marker = "commit-reflect"

const hookTemplate = `#!/bin/sh
#
# post-commit hook for commit-reflect REPL integration
# Sends commit notification to REPL server (fails silently if not running)
#

REPL_PORT="${COMMIT_REFLECT_PORT:-%d}"
REPL_HOST="${COMMIT_REFLECT_HOST:-127.0.0.1}"
TIMEOUT=2

REPO_ROOT="$(git rev-parse --show-toplevel 2>/dev/null)"
if [ -z "$REPO_ROOT" ]; then
    exit 0
fi

COMMIT_HASH=$(git -C "$REPO_ROOT" rev-parse HEAD 2>/dev/null)
PROJECT=$(basename "$REPO_ROOT")
BRANCH=$(git -C "$REPO_ROOT" rev-parse --abbrev-ref HEAD 2>/dev/null || echo "unknown")

if [ -z "$COMMIT_HASH" ]; then
    exit 0
fi

# Attempt to notify REPL server (fail silently)
curl -s --max-time "$TIMEOUT" \
    -X POST "http://${REPL_HOST}:${REPL_PORT}/commit" \
    -d "hash=${COMMIT_HASH}&project=${PROJECT}&branch=${BRANCH}&repo_path=${REPO_ROOT}" \
    >/dev/null 2>&1 || true

# Always exit successfully (don't block commit)
exit 0
`

// ErrExists is returned by Install when a post-commit hook from another
// tool is already present and force is false.
var ErrExists = fmt.Errorf("post-commit hook already exists")

// Script renders the hook script for the given port.
func Script(port int) string {
	return fmt.Sprintf(hookTemplate, port)
}

// Path returns the post-commit hook path for a repository, or an error if
// repoPath is not a git repository.
func Path(repoPath string) (string, error) {
	if !gitutil.IsRepository(repoPath) {
		return "", fmt.Errorf("%s: %w", repoPath, gitutil.ErrNotRepository)
	}
	return filepath.Join(repoPath, ".git", "hooks", "post-commit"), nil
}

// Install writes the post-commit hook into repoPath. An existing hook from
// this tool is left alone unless force is set; a foreign hook is never
// overwritten without force.
func Install(repoPath string, port int, force bool) (string, error) {
	hookPath, err := Path(repoPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(hookPath), 0755); err != nil {
		return "", fmt.Errorf("create hooks dir: %w", err)
	}

	if existing, err := os.ReadFile(hookPath); err == nil && !force {
		if strings.Contains(string(existing), marker) {
			log.Debug().Str("path", hookPath).Msg("Hook already installed")
			return hookPath, nil
		}
		return "", fmt.Errorf("%w at %s (use --force to overwrite)", ErrExists, hookPath)
	}

	if err := os.WriteFile(hookPath, []byte(Script(port)), 0755); err != nil {
		return "", fmt.Errorf("write hook: %w", err)
	}
	log.Info().Str("path", hookPath).Int("port", port).Msg("Installed post-commit hook")
	return hookPath, nil
}

// Uninstall removes the post-commit hook from repoPath. It refuses to
// delete a hook it did not install.
func Uninstall(repoPath string) error {
	hookPath, err := Path(repoPath)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(hookPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("no post-commit hook found at %s", hookPath)
	}
	if err != nil {
		return fmt.Errorf("read hook: %w", err)
	}
	if !strings.Contains(string(content), marker) {
		return fmt.Errorf("post-commit hook at %s was not installed by this tool, not removing", hookPath)
	}

	if err := os.Remove(hookPath); err != nil {
		return fmt.Errorf("remove hook: %w", err)
	}
	log.Info().Str("path", hookPath).Msg("Removed post-commit hook")
	return nil
}

// IsInstalled reports whether a hook from this tool is present in repoPath.
func IsInstalled(repoPath string) bool {
	hookPath, err := Path(repoPath)
	if err != nil {
		return false
	}
	content, err := os.ReadFile(hookPath)
	if err != nil {
		return false
	}
	return strings.Contains(string(content), marker)
}
