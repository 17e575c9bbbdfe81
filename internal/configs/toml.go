package configs

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// configDirPerm keeps the sops-pilot config directory private to the
// user; the config can name key material locations.
const configDirPerm = 0700

// SaveTOML encodes data as TOML at filePath, creating the enclosing
// directory if needed.
func SaveTOML(filePath string, data any) error {
	if err := os.MkdirAll(filepath.Dir(filePath), configDirPerm); err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(data)
}

// LoadTOML decodes the TOML file at filePath into data. Keys in the
// file without a matching field are ignored, so older binaries tolerate
// settings written by newer ones.
func LoadTOML(filePath string, data any) error {
	_, err := toml.DecodeFile(filePath, data)
	return err
}
