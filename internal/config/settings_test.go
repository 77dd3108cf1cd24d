package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.Version != SettingsVersion {
		t.Errorf("Version = %d, want %d", s.Version, SettingsVersion)
	}
	if s.Frigate.ContainerName != "frigate" {
		t.Errorf("ContainerName = %q, want %q", s.Frigate.ContainerName, "frigate")
	}
	if s.Frigate.ImageTag != "frigate" {
		t.Errorf("ImageTag = %q, want %q", s.Frigate.ImageTag, "frigate")
	}
	if s.Frigate.RepoURL != "https://github.com/blakeblackshear/frigate.git" {
		t.Errorf("RepoURL = %q", s.Frigate.RepoURL)
	}
	if s.Discovery.Timeout != 3*time.Second {
		t.Errorf("Discovery.Timeout = %v, want 3s", s.Discovery.Timeout)
	}
	if !s.Discovery.EnableMDNS {
		t.Error("EnableMDNS = false, want true")
	}
	if s.MQTT.Port != 1883 {
		t.Errorf("MQTT.Port = %d, want 1883", s.MQTT.Port)
	}
}

func TestSettings_applyDefaults(t *testing.T) {
	tests := []struct {
		name        string
		settings    Settings
		wantTimeout time.Duration
		wantWatch   time.Duration
		wantName    string
	}{
		{
			name:        "empty settings get all defaults",
			settings:    Settings{},
			wantTimeout: 3 * time.Second,
			wantWatch:   time.Second,
			wantName:    "frigate",
		},
		{
			name: "explicit values survive",
			settings: Settings{
				Version: 1,
				Frigate: FrigateSettings{
					ContainerName:    "frigate-dev",
					WatchIntervalStr: "5s",
				},
				Discovery: DiscoverySettings{TimeoutStr: "10s"},
			},
			wantTimeout: 10 * time.Second,
			wantWatch:   5 * time.Second,
			wantName:    "frigate-dev",
		},
		{
			name: "malformed durations fall back",
			settings: Settings{
				Frigate:   FrigateSettings{WatchIntervalStr: "fast"},
				Discovery: DiscoverySettings{TimeoutStr: "-2s"},
			},
			wantTimeout: 3 * time.Second,
			wantWatch:   time.Second,
			wantName:    "frigate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.settings.applyDefaults()

			if tt.settings.Discovery.Timeout != tt.wantTimeout {
				t.Errorf("Discovery.Timeout = %v, want %v", tt.settings.Discovery.Timeout, tt.wantTimeout)
			}
			if tt.settings.Frigate.WatchInterval != tt.wantWatch {
				t.Errorf("Frigate.WatchInterval = %v, want %v", tt.settings.Frigate.WatchInterval, tt.wantWatch)
			}
			if tt.settings.Frigate.ContainerName != tt.wantName {
				t.Errorf("Frigate.ContainerName = %q, want %q", tt.settings.Frigate.ContainerName, tt.wantName)
			}
		})
	}
}

func TestSettings_SaveAndReload(t *testing.T) {
	// Point XDG_CONFIG_HOME at a temp dir so the test never touches real settings
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	s := DefaultSettings()
	s.Frigate.Dir = "/opt/frigate"
	s.Discovery.Timeout = 7 * time.Second

	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	settingsPath := filepath.Join(tmpDir, appName, settingsFile)
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		t.Fatalf("settings file not written: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "NEVER stored") {
		t.Error("settings file missing security header")
	}
	if !strings.Contains(content, `dir = "/opt/frigate"`) {
		t.Errorf("settings file missing frigate dir:\n%s", content)
	}
	if !strings.Contains(content, `timeout = "7s"`) {
		t.Errorf("settings file missing discovery timeout:\n%s", content)
	}

	loaded, err := loadSettingsFromDisk()
	if err != nil {
		t.Fatalf("loadSettingsFromDisk() error = %v", err)
	}
	if loaded.Frigate.Dir != "/opt/frigate" {
		t.Errorf("loaded Frigate.Dir = %q, want /opt/frigate", loaded.Frigate.Dir)
	}
	if loaded.Discovery.Timeout != 7*time.Second {
		t.Errorf("loaded Discovery.Timeout = %v, want 7s", loaded.Discovery.Timeout)
	}
}

func TestLoadSettings_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	loaded, err := loadSettingsFromDisk()
	if err != nil {
		t.Fatalf("loadSettingsFromDisk() error = %v", err)
	}
	if loaded.Frigate.ContainerName != "frigate" {
		t.Errorf("missing file should yield defaults, got container name %q", loaded.Frigate.ContainerName)
	}
}

func TestLoadSettings_UnsupportedVersion(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, appName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, settingsFile), []byte("version = 99\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadSettingsFromDisk(); err == nil {
		t.Error("expected error for unsupported settings version")
	}
}

func TestSettings_FrigateConfigPath(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     string
	}{
		{
			name: "explicit override wins",
			settings: Settings{
				Frigate: FrigateSettings{
					Dir:        "/opt/frigate",
					ConfigPath: "/etc/frigate/config.yaml",
				},
			},
			want: "/etc/frigate/config.yaml",
		},
		{
			name: "derived from checkout dir",
			settings: Settings{
				Frigate: FrigateSettings{Dir: "/opt/frigate"},
			},
			want: filepath.Join("/opt/frigate", "config", "config.yaml"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.settings.FrigateConfigPath()
			if err != nil {
				t.Fatalf("FrigateConfigPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FrigateConfigPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
