package config

import (
	"os"
	"path/filepath"
)

const (
	folderEnvVar      = "BLOGADMIN_DATA_FOLDER"
	durableStoreFile  = "session.db"
	defaultConfigFile = "config.toml"
)

type StorageConfig interface {
	GetDataFolder() string
	GetDurableStorePath() string
}

type Storage struct {
	file *fileValues
}

var _ StorageConfig = Storage{}

// GetDataFolder is where the remember-me token database lives.
func (s Storage) GetDataFolder() string {
	return getEnv(folderEnvVar, s.file.str(func(f *fileValues) string { return f.DataFolder }, defaultDataFolder()))
}

func (s Storage) GetDurableStorePath() string {
	return filepath.Join(s.GetDataFolder(), durableStoreFile)
}

// DefaultConfigPath is config.toml in BLOGADMIN_DATA_FOLDER, falling back to ~/.blogadmin
// (or ./.blogadmin without a home dir).
func DefaultConfigPath() string {
	return filepath.Join(getEnv(folderEnvVar, defaultDataFolder()), defaultConfigFile)
}

func defaultDataFolder() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".blogadmin"
	}
	return filepath.Join(home, ".blogadmin")
}
