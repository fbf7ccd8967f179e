package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/l0l1/l0l1-go/internal/config"
)

func TestResolveWorkspaceExplicitWins(t *testing.T) {
	cfg := &config.Config{DefaultWorkspace: "configured"}
	assert.Equal(t, "explicit", ResolveWorkspace(cfg, "explicit"))
}

func TestResolveWorkspaceDefault(t *testing.T) {
	cfg := &config.Config{DefaultWorkspace: "configured"}
	assert.Equal(t, "configured", ResolveWorkspace(cfg, ""))
}

func TestResolveWorkspaceDisabled(t *testing.T) {
	cfg := &config.Config{}
	assert.Equal(t, "", ResolveWorkspace(cfg, ""))
}

func TestParseRepoName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"git@github.com:owner/repo.git", "repo"},
		{"https://github.com/owner/repo.git", "repo"},
		{"https://github.com/owner/repo", "repo"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseRepoName(tt.url), "url: %s", tt.url)
	}
}
