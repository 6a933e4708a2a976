// Package fs implements the filesystem-backed patch engine. It is the only
// package in the module that touches the file tree.
package fs

import (
	"os"
	"path/filepath"
)

// DefaultWorkspaceDir returns the default workspace directory for docsync
// state such as the patch audit trail. Uses XDG_STATE_HOME if set,
// otherwise falls back to ~/.local/state/docsync, or the system temp
// directory if home is unavailable.
func DefaultWorkspaceDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "docsync")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "docsync")
	}
	return filepath.Join(home, ".local", "state", "docsync")
}

// exists reports whether a file or directory is present at path.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
