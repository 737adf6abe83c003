// Package config persists the terminal's user settings between runs: the
// last-used serial port and the last-used log file path. Absence of the
// settings file is non-fatal and leaves the defaults unset.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName    = "swarm-terminal"
	settingsFileName = "settings.json"
)

// Settings are the persisted user preferences. The JSON keys mirror the
// setting names the GUI tool used, so the two can share intent if not a
// file format.
type Settings struct {
	// PortName is the system location of the last-used serial port.
	PortName string `json:"port_name,omitempty"`
	// FileLocation is the last-used log file path.
	FileLocation string `json:"file_location,omitempty"`
}

// Manager loads and saves Settings in a JSON file.
type Manager struct {
	configDir string
}

// NewManager creates a settings manager rooted at configDir. An empty
// configDir selects the per-user default under os.UserConfigDir.
func NewManager(configDir string) *Manager {
	return &Manager{configDir: configDir}
}

func (m *Manager) dir() (string, error) {
	if m.configDir != "" {
		return m.configDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(base, configDirName), nil
}

func (m *Manager) settingsPath() (string, error) {
	dir, err := m.dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, settingsFileName), nil
}

// Load reads the persisted settings. A missing settings file yields zero
// Settings and no error; a corrupt file is an error.
func (m *Manager) Load() (Settings, error) {
	path, err := m.settingsPath()
	if err != nil {
		return Settings{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// Save writes the settings, creating the config directory if needed.
func (m *Manager) Save(s Settings) error {
	dir, err := m.dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	path := filepath.Join(dir, settingsFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
