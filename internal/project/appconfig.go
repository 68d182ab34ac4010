package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/piwi3910/roomlayout/internal/model"
)

// HomeEnv overrides the preferences directory when set.
const HomeEnv = "ROOMLAYOUT_HOME"

const appConfigFile = "config.json"

// DefaultConfigDir is where preferences and user templates live: $ROOMLAYOUT_HOME
// when set, ~/.roomlayout otherwise (./.roomlayout without a home directory).
func DefaultConfigDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".roomlayout")
}

// DefaultConfigPath is the preferences file inside DefaultConfigDir.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), appConfigFile)
}

// SaveAppConfig writes the user's preferences. The file is replaced in one
// rename so a crash never leaves half a preferences file behind.
func SaveAppConfig(path string, cfg model.AppConfig) error {
	return writeJSON(path, tidyAppConfig(cfg))
}

// LoadAppConfig reads preferences from path on top of DefaultAppConfig, so
// keys missing from the file keep their defaults. A missing file yields the
// defaults; a file that is not valid JSON is a configuration error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	cfg := model.DefaultAppConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return model.AppConfig{}, fmt.Errorf("reading preferences: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.AppConfig{}, fmt.Errorf("%w: preferences %s: %v", model.ErrConfiguration, path, err)
	}
	return tidyAppConfig(cfg), nil
}

// tidyAppConfig repairs values a hand-edited file may carry: non-positive
// label counts fall back to the default and the recent list loses blanks and
// repeats, keeping the first occurrence, up to model.MaxRecentProjects.
func tidyAppConfig(cfg model.AppConfig) model.AppConfig {
	if cfg.LabelsPerPage <= 0 {
		cfg.LabelsPerPage = model.DefaultAppConfig().LabelsPerPage
	}
	recent := make([]string, 0, len(cfg.RecentProjects))
	seen := make(map[string]bool, len(cfg.RecentProjects))
	for _, p := range cfg.RecentProjects {
		if p == "" || seen[p] || len(recent) == model.MaxRecentProjects {
			continue
		}
		seen[p] = true
		recent = append(recent, p)
	}
	cfg.RecentProjects = recent
	return cfg
}

// writeJSON encodes v as indented JSON into a temporary file next to path
// and renames it into place, creating parent directories as needed.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
