package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ProjectFileName is the project-local configuration overlay.
const ProjectFileName = ".batchkit.yaml"

// EnvProjectDir points at the directory holding the project overlay.
const EnvProjectDir = "BATCHKIT_PROJECT_DIR"

// ErrNoProject is returned by FindProjectFile when no overlay exists between
// the start directory and the filesystem root.
var ErrNoProject = errors.New("no project configuration found")

// FindProjectFile walks up from dir looking for ProjectFileName and returns
// its absolute path.
func FindProjectFile(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}

	for {
		candidate := filepath.Join(current, ProjectFileName)
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrNoProject
		}
		current = parent
	}
}

// ResolveProjectFile determines the project overlay path. It checks (in order):
//  1. flagValue (--project-dir)
//  2. BATCHKIT_PROJECT_DIR
//  3. a walk up from startDir
//
// An explicit directory is used as-is even if the overlay does not exist;
// Load then reports the missing file. Returns "" when no project is found.
func ResolveProjectFile(flagValue, startDir string, lookupEnv func(string) (string, bool)) string {
	if flagValue != "" {
		return projectFileIn(flagValue)
	}
	if lookupEnv != nil {
		if dir, ok := lookupEnv(EnvProjectDir); ok && dir != "" {
			return projectFileIn(dir)
		}
	}
	if startDir == "" {
		return ""
	}
	path, err := FindProjectFile(startDir)
	if err != nil {
		return ""
	}
	return path
}

func projectFileIn(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if filepath.Base(dir) == ProjectFileName {
		return dir
	}
	return filepath.Join(dir, ProjectFileName)
}
