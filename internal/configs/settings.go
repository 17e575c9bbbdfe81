package configs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/tamahere/sops-pilot/internal/utils"
)

type UserSettings struct {
	UserConfigsPath string
}

type ProjectSettings struct {
	ProjectName string
	ProjectPath string
	RulesPath   string
}

var (
	UserPilotSettings    *UserSettings
	ProjectPilotSettings *ProjectSettings
)

func init() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	// Independent of what repo you are in, so it is ok to init here.
	UserPilotSettings = &UserSettings{
		UserConfigsPath: filepath.Join(configDir, "sops-pilot"),
	}
	ProjectPilotSettings = &ProjectSettings{}
}

// InitProjectSettings locates the enclosing project by walking up to the
// directory holding .sops.yaml. An empty ProjectPath means no project.
func InitProjectSettings() error {
	projectPath, err := utils.FindProjectRoot()
	if err != nil {
		return fmt.Errorf("error getting project root: %w", err)
	}

	projectName := ""
	rulesPath := ""
	if projectPath != "" {
		projectName = filepath.Base(projectPath)
		rulesPath = filepath.Join(projectPath, utils.RulesFileName)
	}

	ProjectPilotSettings = &ProjectSettings{
		ProjectName: projectName,
		ProjectPath: projectPath,
		RulesPath:   rulesPath,
	}

	return nil
}
