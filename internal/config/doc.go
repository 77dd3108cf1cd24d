// Package config holds the persistent settings shared by both
// frigatemx tools: where the Frigate checkout lives, what the
// container is called, discovery timeouts, and MQTT defaults.
//
// Settings are a TOML file under the per-user config directory,
// $XDG_CONFIG_HOME/frigatemx or ~/.config/frigatemx on Linux and
// macOS, %LOCALAPPDATA%\frigatemx on Windows.
//
// The file never holds credentials. Camera and MQTT broker passwords
// are prompted when an operation needs them, or read from Frigate's
// own config.yaml, which is the one place they already live.
//
//	settings, err := config.LoadSettings()
//	if err != nil {
//	    return err
//	}
//	path, err := settings.FrigateConfigPath()
//	// ...
//	if err := settings.Save(); err != nil {
//	    return err
//	}
//
// LoadSettings caches behind a sync.Once. Save goes through a temp
// file and rename, so a crash mid-write cannot tear the file.
package config
