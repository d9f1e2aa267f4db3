// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"backlog/internal/config"
)

// NewConfig returns a validated config rooted in a per-test temp
// directory so tests never touch real user paths.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DatabasePath = filepath.Join(dir, "backlog.db")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.ExportDir = filepath.Join(dir, "exports")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}
