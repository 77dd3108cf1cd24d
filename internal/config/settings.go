package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/BurntSushi/toml"
)

const (
	appName      = "frigatemx"
	settingsFile = "settings.toml"
)

const settingsHeader = `# frigatemx tool settings
# Camera and broker passwords are NEVER stored in this file.
# They are prompted when needed or read from Frigate's own config.yaml.

`

var (
	globalSettings     *Settings
	globalSettingsOnce sync.Once
	globalSettingsErr  error

	// fileMutex serializes Save and ReloadSettings against each other.
	fileMutex sync.Mutex
)

// GetConfigDir returns the per-user directory holding this tool's
// settings. Linux follows XDG ($XDG_CONFIG_HOME, else ~/.config).
// macOS gets the same dotfile layout rather than Library/Application
// Support since both tools are terminal programs. Windows uses
// %LOCALAPPDATA%.
func GetConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appName), nil
		}
		profile := os.Getenv("USERPROFILE")
		if profile == "" {
			return "", errors.New("neither LOCALAPPDATA nor USERPROFILE is set")
		}
		return filepath.Join(profile, "AppData", "Local", appName), nil
	}

	if runtime.GOOS != "darwin" {
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
			return filepath.Join(dir, appName), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// GetSettingsPath returns the full path to the settings file.
func GetSettingsPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, settingsFile), nil
}

// ensureConfigDir creates the settings directory if missing. The
// settings name hosts and usernames, so the directory is user-only.
func ensureConfigDir() error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// LoadSettings returns the tool settings, reading them from disk on the
// first call. Later calls get the same instance. A missing file is not
// an error: defaults let both tools run before any setup has happened.
func LoadSettings() (*Settings, error) {
	globalSettingsOnce.Do(func() {
		globalSettings, globalSettingsErr = loadSettingsFromDisk()
	})
	return globalSettings, globalSettingsErr
}

func loadSettingsFromDisk() (*Settings, error) {
	path, err := GetSettingsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.Version != 0 && s.Version != SettingsVersion {
		return nil, fmt.Errorf("settings version %d not supported (this build writes %d)", s.Version, SettingsVersion)
	}
	s.applyDefaults()
	return &s, nil
}

// Save writes the settings to disk. The content lands in a sibling temp
// file first and moves into place with a rename, so a crash mid-write
// cannot leave a torn settings file behind.
func (s *Settings) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := ensureConfigDir(); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	path, err := GetSettingsPath()
	if err != nil {
		return err
	}
	s.syncDurationStrings()

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	err = encodeSettings(f, s)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func encodeSettings(w io.Writer, s *Settings) error {
	if _, err := io.WriteString(w, settingsHeader); err != nil {
		return err
	}
	return toml.NewEncoder(w).Encode(s)
}

// ReloadSettings drops the cached instance and rereads the file,
// picking up edits made by another process.
func ReloadSettings() (*Settings, error) {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	globalSettingsOnce = sync.Once{}
	return LoadSettings()
}

// FrigateDir resolves the Frigate checkout directory, expanding the
// default $HOME/frigate when no directory is configured.
func (s *Settings) FrigateDir() (string, error) {
	if s.Frigate.Dir != "" {
		return s.Frigate.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "frigate"), nil
}

// FrigateConfigPath resolves the path to Frigate's config.yaml,
// honoring the config_path override when set.
func (s *Settings) FrigateConfigPath() (string, error) {
	if s.Frigate.ConfigPath != "" {
		return s.Frigate.ConfigPath, nil
	}
	dir, err := s.FrigateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config", "config.yaml"), nil
}
