package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of <config_dir>/config.yaml. All fields are
// optional; absence of the file is not an error.
type File struct {
	Shell     string `yaml:"shell"`
	PluginDir string `yaml:"plugin_dir"`
	Theme     string `yaml:"theme"`
	Debug     bool   `yaml:"debug"`
}

type Config struct {
	ConfigDir string
	PluginDir string
	Shell     string
	Theme     string
	Debug     bool
	DBPath    string
	LogPath   string
}

// Dir returns the bark config directory, creating it if needed.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	dir := filepath.Join(base, "bark")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

func Load() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(dir)
}

// LoadFrom reads config.yaml from the given directory and fills defaults.
func LoadFrom(dir string) (Config, error) {
	var file File
	raw, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("parse config.yaml: %w", err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return Config{}, fmt.Errorf("read config.yaml: %w", err)
	}

	pluginDir := file.PluginDir
	if pluginDir == "" {
		pluginDir = filepath.Join(dir, "plugins")
	}
	return Config{
		ConfigDir: dir,
		PluginDir: pluginDir,
		Shell:     file.Shell,
		Theme:     file.Theme,
		Debug:     file.Debug,
		DBPath:    filepath.Join(dir, "bark.db"),
		LogPath:   filepath.Join(dir, "bark.log"),
	}, nil
}
