package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reflectdev/commit-reflect/internal/config"
	"github.com/reflectdev/commit-reflect/internal/hook"
)

var (
	hookRepoPath string
	hookPort     int
	hookForce    bool
)

var installHookCmd = &cobra.Command{
	Use:   "install-hook",
	Short: "Install the git post-commit hook in a repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoPath, err := resolveRepoPath()
		if err != nil {
			return err
		}

		port := hookPort
		if !cmd.Flags().Changed("port") {
			port = config.GetPort()
		}

		hookPath, err := hook.Install(repoPath, port, hookForce)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed post-commit hook at %s\n", hookPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Hook will notify the REPL on port %d\n", port)
		return nil
	},
}

var uninstallHookCmd = &cobra.Command{
	Use:   "uninstall-hook",
	Short: "Remove the git post-commit hook from a repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoPath, err := resolveRepoPath()
		if err != nil {
			return err
		}
		if err := hook.Uninstall(repoPath); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Removed post-commit hook")
		return nil
	},
}

func resolveRepoPath() (string, error) {
	if hookRepoPath != "" {
		return hookRepoPath, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}

func init() {
	for _, cmd := range []*cobra.Command{installHookCmd, uninstallHookCmd} {
		cmd.Flags().StringVar(&hookRepoPath, "repo", "", "Repository path (default: current directory)")
	}
	installHookCmd.Flags().IntVar(&hookPort, "port", config.DefaultPort, "Port the hook notifies")
	installHookCmd.Flags().BoolVar(&hookForce, "force", false, "Overwrite an existing post-commit hook")
}
