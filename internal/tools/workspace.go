package tools

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/l0l1/l0l1-go/internal/config"
)

// ResolveWorkspace determines the workspace for scoping patterns.
// Priority: explicit input > configured default > git origin > cwd basename.
func ResolveWorkspace(cfg *config.Config, explicit string) string {
	if explicit != "" {
		return explicit
	}

	if cfg.DefaultWorkspace != "" {
		return cfg.DefaultWorkspace
	}

	if !cfg.WorkspaceFromCWD {
		return ""
	}

	if origin := getGitOriginName(); origin != "" {
		return origin
	}

	if cwd, err := os.Getwd(); err == nil {
		return filepath.Base(cwd)
	}

	return ""
}

// getGitOriginName extracts repo name from git remote origin URL.
// Handles: git@github.com:owner/repo.git, https://github.com/owner/repo.git
func getGitOriginName() string {
	cmd := exec.Command("git", "config", "--get", "remote.origin.url")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return parseRepoName(strings.TrimSpace(string(output)))
}

// parseRepoName extracts repo name from git URL.
func parseRepoName(url string) string {
	if url == "" {
		return ""
	}

	url = strings.TrimSuffix(url, ".git")

	// SSH format: git@github.com:owner/repo
	if strings.HasPrefix(url, "git@") {
		parts := strings.Split(url, ":")
		if len(parts) == 2 {
			pathParts := strings.Split(parts[1], "/")
			if len(pathParts) > 0 {
				return pathParts[len(pathParts)-1]
			}
		}
	}

	// HTTPS format: https://github.com/owner/repo
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		parts := strings.Split(url, "/")
		if len(parts) > 0 {
			return parts[len(parts)-1]
		}
	}

	return ""
}
