package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindProjectRootFrom_FindsRulesFile(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "secrets", "prod")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create nested dirs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, RulesFileName), []byte("creation_rules: []\n"), 0644); err != nil {
		t.Fatalf("Failed to write rules file: %v", err)
	}

	root, err := FindProjectRootFrom(nested)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if root != tmpDir {
		t.Errorf("Expected root %s, got: %s", tmpDir, root)
	}
}

func TestFindProjectRootFrom_NoRulesFile(t *testing.T) {
	tmpDir := t.TempDir()

	root, err := FindProjectRootFrom(tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if root != "" {
		t.Errorf("Expected empty root, got: %s", root)
	}
}

func TestFindProjectRootFrom_DirectoryNamedLikeRulesFile(t *testing.T) {
	tmpDir := t.TempDir()
	// A directory named .sops.yaml must not count as a rules file.
	if err := os.MkdirAll(filepath.Join(tmpDir, RulesFileName), 0755); err != nil {
		t.Fatalf("Failed to create decoy dir: %v", err)
	}

	root, err := FindProjectRootFrom(tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if root != "" {
		t.Errorf("Expected empty root for decoy directory, got: %s", root)
	}
}
