// Package dotdir resolves the .gridiron/ directory that holds config.toml
// and local store files.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const dirName = ".gridiron"

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to a .gridiron/ directory, creating it
// when missing. Precedence:
//  1. Provided override
//  2. Local ./.gridiron/ dir
//  3. Home ~/.gridiron/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating gridiron directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
