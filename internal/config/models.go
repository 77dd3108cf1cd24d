package config

import "time"

// SettingsVersion is the current settings schema version.
const SettingsVersion = 1

// Settings holds tool-level preferences for the frigatemx commands.
// It never stores camera credentials; those are prompted when needed
// or read from the Frigate configuration itself.
type Settings struct {
	// Version is the settings schema version (currently 1)
	Version int `toml:"version"`

	// Frigate holds checkout and container preferences
	Frigate FrigateSettings `toml:"frigate"`

	// Discovery holds network scan preferences
	Discovery DiscoverySettings `toml:"discovery"`

	// MQTT holds broker defaults for connectivity tests
	MQTT MQTTSettings `toml:"mqtt"`
}

// FrigateSettings configures where the Frigate checkout lives and how the
// container is named.
type FrigateSettings struct {
	// Dir is the Frigate git checkout directory. Empty means $HOME/frigate.
	Dir string `toml:"dir"`

	// ConfigPath overrides the path to Frigate's config.yaml.
	// Empty means {Dir}/config/config.yaml.
	ConfigPath string `toml:"config_path"`

	// ContainerName is the docker container name (default "frigate")
	ContainerName string `toml:"container_name"`

	// ImageTag is the docker image tag built from the checkout (default "frigate")
	ImageTag string `toml:"image_tag"`

	// RepoURL is the git remote used for cloning (default upstream Frigate)
	RepoURL string `toml:"repo_url"`

	// WatchInterval is how often the watcher polls config.yaml for changes
	WatchInterval    time.Duration `toml:"-"`
	WatchIntervalStr string        `toml:"watch_interval"`
}

// DiscoverySettings configures the camera network scan.
type DiscoverySettings struct {
	// Timeout is how long a scan collects responses
	Timeout    time.Duration `toml:"-"`
	TimeoutStr string        `toml:"timeout"`

	// EnableMDNS also browses mDNS for cameras that do not answer ONVIF probes
	EnableMDNS bool `toml:"enable_mdns"`

	// DefaultUsername is pre-filled when adding a discovered camera
	DefaultUsername string `toml:"default_username"`
}

// MQTTSettings holds broker defaults used by the mqtt-test command.
// The broker password is never stored; it is prompted when required.
type MQTTSettings struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
}

// DefaultSettings returns settings with all defaults applied.
func DefaultSettings() *Settings {
	return &Settings{
		Version: SettingsVersion,
		Frigate: FrigateSettings{
			ContainerName:    "frigate",
			ImageTag:         "frigate",
			RepoURL:          "https://github.com/blakeblackshear/frigate.git",
			WatchInterval:    time.Second,
			WatchIntervalStr: "1s",
		},
		Discovery: DiscoverySettings{
			Timeout:         3 * time.Second,
			TimeoutStr:      "3s",
			EnableMDNS:      true,
			DefaultUsername: "admin",
		},
		MQTT: MQTTSettings{
			Host: "127.0.0.1",
			Port: 1883,
		},
	}
}

// applyDefaults fills zero values after decoding so partially written
// settings files keep working.
func (s *Settings) applyDefaults() {
	def := DefaultSettings()

	if s.Version == 0 {
		s.Version = def.Version
	}
	if s.Frigate.ContainerName == "" {
		s.Frigate.ContainerName = def.Frigate.ContainerName
	}
	if s.Frigate.ImageTag == "" {
		s.Frigate.ImageTag = def.Frigate.ImageTag
	}
	if s.Frigate.RepoURL == "" {
		s.Frigate.RepoURL = def.Frigate.RepoURL
	}
	if s.Discovery.DefaultUsername == "" {
		s.Discovery.DefaultUsername = def.Discovery.DefaultUsername
	}
	if s.MQTT.Host == "" {
		s.MQTT.Host = def.MQTT.Host
	}
	if s.MQTT.Port == 0 {
		s.MQTT.Port = def.MQTT.Port
	}

	// Durations round-trip as strings
	s.Frigate.WatchInterval = parseDurationOr(s.Frigate.WatchIntervalStr, def.Frigate.WatchInterval)
	s.Discovery.Timeout = parseDurationOr(s.Discovery.TimeoutStr, def.Discovery.Timeout)
}

// syncDurationStrings refreshes the string forms before encoding.
func (s *Settings) syncDurationStrings() {
	if s.Frigate.WatchInterval > 0 {
		s.Frigate.WatchIntervalStr = s.Frigate.WatchInterval.String()
	}
	if s.Discovery.Timeout > 0 {
		s.Discovery.TimeoutStr = s.Discovery.Timeout.String()
	}
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
