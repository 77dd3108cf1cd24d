package frigateconf

import (
	"fmt"
	"strings"
)

// AutoStreamURL builds the RTSP URL used when no explicit stream path was
// entered for a camera.
func AutoStreamURL(username, password, ip string) string {
	return fmt.Sprintf("rtsp://%s:%s@%s:554/cam/realmonitor?channel=1&subtype=0", username, password, ip)
}

// SplitObjects turns a comma-separated objects field into a track list,
// dropping empty items.
func SplitObjects(text string) []string {
	var out []string
	for _, obj := range strings.Split(text, ",") {
		obj = strings.TrimSpace(obj)
		if obj != "" {
			out = append(out, obj)
		}
	}
	return out
}

// DetectManualURL reports whether a stream URL was entered or customized
// by hand rather than auto-generated. A URL carrying the user's actual
// credentials and address counts as manual; the known placeholder
// credential patterns count as generated.
func DetectManualURL(url, username, password, ip string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return false
	}
	if username != "" && password != "" && ip != "" {
		if strings.Contains(url, fmt.Sprintf("%s:%s@%s", username, password, ip)) {
			return true
		}
	}
	if strings.HasPrefix(url, "rtsp://") {
		for _, pattern := range []string{
			"rtsp://admin:password@",
			"rtsp://user:pass@",
			"rtsp://username:password@",
		} {
			if strings.Contains(url, pattern) {
				return false
			}
		}
	}
	return true
}

// CameraBuilder assembles a camera entry from form input. It validates
// the fields and applies the standard detect, snapshot and recording
// defaults.
//
// Example usage:
//
//	name, entry, err := NewCameraBuilder("backyard").
//	    SetAddress("192.168.1.50").
//	    SetCredentials("admin", "secret").
//	    SetObjects("person, car").
//	    EnableRecording(7, 3).
//	    Build()
type CameraBuilder struct {
	name     string
	ip       string
	username string
	password string
	url      string

	objects []string

	recordEnabled bool
	alertDays     int
	detectionDays int

	width  int
	height int
	fps    int
}

// NewCameraBuilder starts a builder for a camera with the given name.
func NewCameraBuilder(name string) *CameraBuilder {
	return &CameraBuilder{
		name:   strings.TrimSpace(name),
		width:  DefaultDetectWidth,
		height: DefaultDetectHeight,
		fps:    DefaultDetectFPS,
	}
}

// SetName changes the camera name.
func (b *CameraBuilder) SetName(name string) *CameraBuilder {
	b.name = strings.TrimSpace(name)
	return b
}

// SetAddress sets the camera IP used for the auto-generated stream URL.
func (b *CameraBuilder) SetAddress(ip string) *CameraBuilder {
	b.ip = strings.TrimSpace(ip)
	return b
}

// SetCredentials sets the camera login used for the auto-generated
// stream URL. The credentials end up inside the config file's stream
// path; they are never stored in the tool settings.
func (b *CameraBuilder) SetCredentials(username, password string) *CameraBuilder {
	b.username = strings.TrimSpace(username)
	b.password = password
	return b
}

// SetStreamURL sets an explicit stream path, overriding the
// auto-generated one.
func (b *CameraBuilder) SetStreamURL(url string) *CameraBuilder {
	b.url = strings.TrimSpace(url)
	return b
}

// SetObjects sets the tracked objects from a comma-separated field.
func (b *CameraBuilder) SetObjects(text string) *CameraBuilder {
	b.objects = SplitObjects(text)
	return b
}

// SetTrackedObjects sets the tracked objects directly.
func (b *CameraBuilder) SetTrackedObjects(objects []string) *CameraBuilder {
	b.objects = objects
	return b
}

// EnableRecording adds a record block with the given retention.
func (b *CameraBuilder) EnableRecording(alertDays, detectionDays int) *CameraBuilder {
	b.recordEnabled = true
	b.alertDays = alertDays
	b.detectionDays = detectionDays
	return b
}

// DisableRecording removes the record block.
func (b *CameraBuilder) DisableRecording() *CameraBuilder {
	b.recordEnabled = false
	return b
}

// SetDetectSize overrides the default detection resolution.
func (b *CameraBuilder) SetDetectSize(width, height int) *CameraBuilder {
	b.width = width
	b.height = height
	return b
}

// SetDetectFPS overrides the default detection rate.
func (b *CameraBuilder) SetDetectFPS(fps int) *CameraBuilder {
	b.fps = fps
	return b
}

// StreamURL returns the stream path the entry will use: the explicit URL
// when set, otherwise the auto-generated one.
func (b *CameraBuilder) StreamURL() string {
	if b.url != "" {
		return b.url
	}
	if b.username != "" && b.password != "" && b.ip != "" {
		return AutoStreamURL(b.username, b.password, b.ip)
	}
	return ""
}

// HasStreamSource reports whether enough input exists to produce a
// stream path.
func (b *CameraBuilder) HasStreamSource() bool {
	return b.StreamURL() != ""
}

// Validate checks the builder state against the form rules.
func (b *CameraBuilder) Validate() error {
	if err := ValidateCameraName(b.name); err != nil {
		return err
	}
	if b.url != "" {
		if err := ValidateRTSPURL(b.url); err != nil {
			return err
		}
		if err := ValidateStreamPath(b.url); err != nil {
			return err
		}
	} else {
		if err := ValidateIPAddress(b.ip); err != nil {
			return err
		}
		if err := ValidateUsername(b.username); err != nil {
			return err
		}
		if err := ValidatePassword(b.password); err != nil {
			return err
		}
	}
	if len(b.objects) == 0 {
		return NewValidationError("at least one object type is required (e.g., person)")
	}
	return nil
}

// Build validates the input and returns the camera name and entry.
func (b *CameraBuilder) Build() (string, *CameraEntry, error) {
	if err := b.Validate(); err != nil {
		return "", nil, err
	}

	roles := []string{"detect"}
	if b.recordEnabled {
		roles = append(roles, "record")
	}

	detect := DefaultDetect()
	detect.Width = b.width
	detect.Height = b.height
	detect.FPS = b.fps
	snapshots := DefaultSnapshots()

	entry := &CameraEntry{
		FFmpeg: FFmpegConfig{
			Inputs: []StreamInput{{
				Path:  b.StreamURL(),
				Roles: roles,
			}},
		},
		Detect:    &detect,
		Objects:   &ObjectsConfig{Track: b.objects},
		Snapshots: &snapshots,
	}
	if b.recordEnabled {
		entry.Record = &RecordConfig{
			Enabled:    true,
			Alerts:     RetainBlock{Retain: RetainDays{Days: b.alertDays}},
			Detections: RetainBlock{Retain: RetainDays{Days: b.detectionDays}},
		}
	}
	return b.name, entry, nil
}
