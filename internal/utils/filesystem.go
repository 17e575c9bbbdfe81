package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// RulesFileName is the well-known creation-rules file at the project root.
const RulesFileName = ".sops.yaml"

// FindProjectRoot traverses up from the working directory to find the
// directory containing .sops.yaml. Returns the project root if found,
// empty string otherwise. Stops searching when it reaches one level
// above the user's home directory.
func FindProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return FindProjectRootFrom(currentDir)
}

// FindProjectRootFrom is FindProjectRoot starting at an explicit directory.
func FindProjectRootFrom(startDir string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	currentDir := startDir
	for {
		// Stop searching at one level above home directory.
		if currentDir == path.Join(homeDir, "..") {
			return "", nil
		}

		rulesPath := filepath.Join(currentDir, RulesFileName)
		fileInfo, err := os.Stat(rulesPath)
		// No error means the path exists.
		if err == nil {
			if !fileInfo.IsDir() {
				return currentDir, nil
			}
		} else if !os.IsNotExist(err) {
			// Return any error that's not "file not found" (like permission issues).
			return "", fmt.Errorf("error checking for %s at %s: %w", RulesFileName, currentDir, err)
		}

		parentDir := filepath.Dir(currentDir)

		// If we've reached the filesystem root and haven't found .sops.yaml.
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}
