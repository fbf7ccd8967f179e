// Package tools provides MCP tool handlers and registration.
package tools

import (
	"log/slog"

	"github.com/l0l1/l0l1-go/internal/learning"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Learning *learning.Service
	Logger   *slog.Logger
}
