package frigateapi

import (
	"sort"
	"time"
)

// Stats is the payload of GET /api/stats and of the periodic stats
// frames on the websocket bridge.
type Stats struct {
	// Cameras maps camera name to its per-process counters.
	Cameras map[string]CameraStats `json:"cameras"`

	// Detectors maps detector name (memx0, memx1, ...) to its state.
	Detectors map[string]DetectorStats `json:"detectors"`

	// Service describes the frigate process itself.
	Service ServiceStats `json:"service"`

	// DetectionFPS is the aggregate detection rate across all cameras.
	DetectionFPS float64 `json:"detection_fps"`
}

// CameraStats holds the per-camera pipeline counters.
type CameraStats struct {
	// CameraFPS is the rate frames arrive from the stream.
	CameraFPS float64 `json:"camera_fps"`

	// ProcessFPS is the rate frames make it through the pipeline.
	ProcessFPS float64 `json:"process_fps"`

	// SkippedFPS is the rate frames are dropped under load.
	SkippedFPS float64 `json:"skipped_fps"`

	// DetectionFPS is the rate frames are sent to the detector.
	DetectionFPS float64 `json:"detection_fps"`

	// PID is the camera process ID inside the container.
	PID int `json:"pid"`
}

// DetectorStats holds the accelerator state for one detector.
type DetectorStats struct {
	// InferenceSpeed is the average inference time in milliseconds.
	InferenceSpeed float64 `json:"inference_speed"`

	// DetectionStart is non-zero while an inference is in flight.
	DetectionStart float64 `json:"detection_start"`

	// PID is the detector process ID inside the container.
	PID int `json:"pid"`
}

// ServiceStats describes the running frigate service.
type ServiceStats struct {
	// Uptime is the service uptime in seconds.
	Uptime int64 `json:"uptime"`

	// Version is the running frigate version string.
	Version string `json:"version"`

	// LatestVersion is the newest release frigate knows about.
	LatestVersion string `json:"latest_version"`

	// Storage maps mount points to their usage.
	Storage map[string]StorageStats `json:"storage"`

	// Temperatures maps sensor names to degrees Celsius.
	Temperatures map[string]float64 `json:"temperatures"`

	// LastUpdated is the unix timestamp of this snapshot.
	LastUpdated int64 `json:"last_updated"`
}

// StorageStats is the usage of one storage mount, in megabytes.
type StorageStats struct {
	Total float64 `json:"total"`
	Used  float64 `json:"used"`
	Free  float64 `json:"free"`
	Mount string  `json:"mount_type"`
}

// CameraNames returns the camera names in stable sorted order, for
// rendering.
func (s *Stats) CameraNames() []string {
	names := make([]string, 0, len(s.Cameras))
	for name := range s.Cameras {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectorNames returns the detector names in stable sorted order.
func (s *Stats) DetectorNames() []string {
	names := make([]string, 0, len(s.Detectors))
	for name := range s.Detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UptimeDuration converts the uptime seconds to a time.Duration.
func (s ServiceStats) UptimeDuration() time.Duration {
	return time.Duration(s.Uptime) * time.Second
}

// Message is one frame from frigate's websocket bridge at /ws. The
// payload is itself a string; for JSON topics like stats it contains
// an encoded document.
type Message struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
	Retain  bool   `json:"retain"`
}
