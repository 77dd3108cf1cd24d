package discovery

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status describes how much we learned about a camera during discovery.
type Status int

const (
	// StatusDiscovered means the camera answered the probe but was not identified
	StatusDiscovered Status = iota
	// StatusIdentified means the manufacturer was extracted from the response
	StatusIdentified
	// StatusDetailed means a GetDeviceInformation call filled in model/firmware
	StatusDetailed
)

// String returns a human-readable status name
func (s Status) String() string {
	switch s {
	case StatusDiscovered:
		return "Discovered"
	case StatusIdentified:
		return "Identified"
	case StatusDetailed:
		return "Detailed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Source records which scan produced a camera.
type Source int

const (
	// SourceONVIF means the camera answered a WS-Discovery probe
	SourceONVIF Source = iota
	// SourceMDNS means the camera was found via mDNS browsing
	SourceMDNS
)

// String returns a human-readable source name
func (s Source) String() string {
	switch s {
	case SourceONVIF:
		return "onvif"
	case SourceMDNS:
		return "mdns"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Camera represents a camera found during one discovery run. Cameras are
// immutable once emitted and live only for the session; nothing here is
// persisted until the user adds the camera to Frigate's config.
type Camera struct {
	// ID is a stable identifier for list keying in the UI. It survives
	// renames, unlike the display name.
	ID string

	// IP is the IPv4 address the response came from
	IP string

	// Name is the display name (defaults to Camera_{last octet})
	Name string

	// Manufacturer is the detected vendor, or "Unknown"
	Manufacturer string

	// Model is the camera model when known (defaults to "ONVIF Camera")
	Model string

	// Firmware is the firmware version when a device info call succeeded
	Firmware string

	// RTSPURL is the best-guess stream URL for this camera
	RTSPURL string

	// ONVIFURL is the device service endpoint used for enrichment
	ONVIFURL string

	// Status tracks how far identification got
	Status Status

	// Source records which scanner found the camera
	Source Source

	// DiscoveredAt is when the response arrived
	DiscoveredAt time.Time
}

// NewCamera creates a camera with the defaults every response starts from:
// unknown manufacturer, generic model, and an unauthenticated live URL.
func NewCamera(ip string) *Camera {
	return &Camera{
		ID:           uuid.NewString(),
		IP:           ip,
		Name:         DefaultName(ip),
		Manufacturer: "Unknown",
		Model:        "ONVIF Camera",
		RTSPURL:      fmt.Sprintf("rtsp://%s:554/live", ip),
		ONVIFURL:     ONVIFEndpoint(ip),
		Status:       StatusDiscovered,
		Source:       SourceONVIF,
		DiscoveredAt: time.Now(),
	}
}

// DefaultName builds the placeholder display name from the last octet of
// the IP, e.g. "Camera_42" for 192.168.1.42.
func DefaultName(ip string) string {
	parts := strings.Split(ip, ".")
	return "Camera_" + parts[len(parts)-1]
}

// ONVIFEndpoint returns the standard device service URL for an IP.
func ONVIFEndpoint(ip string) string {
	return fmt.Sprintf("http://%s/onvif/device_service", ip)
}

// String returns a human-readable string representation of the camera
func (c *Camera) String() string {
	return fmt.Sprintf("%s (%s) at %s [%s]", c.Name, c.Manufacturer, c.IP, c.Status)
}

// Identified reports whether a manufacturer was detected.
func (c *Camera) Identified() bool {
	return c.Manufacturer != "" && c.Manufacturer != "Unknown"
}
