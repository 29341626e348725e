package interfaces

import (
	"os"
	"path/filepath"
)

const appDirName = "chainboy"

// ConfigDir returns the per-user directory where the configuration file is looked up
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName), nil
}
