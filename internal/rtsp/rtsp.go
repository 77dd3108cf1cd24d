// Package rtsp synthesizes manufacturer-specific RTSP stream URLs for
// discovered cameras. All functions are pure and safe to call repeatedly
// while form fields change.
package rtsp

import (
	"fmt"
	"strings"
)

// DefaultPort is the RTSP port used for all synthesized URLs.
const DefaultPort = 554

// Result holds the synthesized stream URLs for one camera.
type Result struct {
	// MainStream is the full-resolution stream URL (Frigate record role)
	MainStream string

	// SubStream is the low-resolution stream URL (Frigate detect role)
	SubStream string

	// DefaultURL is the URL pre-filled into camera forms
	DefaultURL string

	// Alternatives lists additional candidate paths for unknown vendors
	Alternatives []string

	// ManufacturerDetected reports whether a vendor template matched
	ManufacturerDetected bool
}

// vendorPaths holds the per-vendor path templates. The default path is
// pre-filled into forms; for most vendors it equals the main stream.
type vendorPaths struct {
	keyword string
	main    string
	sub     string
	def     string
}

// vendorTable is matched in order, first match wins. Keywords are compared
// against the lowercased manufacturer string as substrings.
var vendorTable = []vendorPaths{
	{
		keyword: "hikvision",
		main:    "/Streaming/Channels/101",
		sub:     "/Streaming/Channels/102",
		def:     "/h264/ch1/main/av_stream",
	},
	{
		keyword: "dahua",
		main:    "/cam/realmonitor?channel=1&subtype=0",
		sub:     "/cam/realmonitor?channel=1&subtype=1",
		def:     "/cam/realmonitor?channel=1&subtype=0",
	},
	{
		keyword: "amcrest",
		main:    "/cam/realmonitor?channel=1&subtype=0",
		sub:     "/cam/realmonitor?channel=1&subtype=1",
		def:     "/cam/realmonitor?channel=1&subtype=0",
	},
	{
		keyword: "reolink",
		main:    "/h264Preview_01_main",
		sub:     "/h264Preview_01_sub",
		def:     "/h264Preview_01_main",
	},
	{
		keyword: "axis",
		main:    "/axis-media/media.amp",
		sub:     "/axis-media/media.amp?resolution=320x240",
		def:     "/axis-media/media.amp",
	},
	{
		keyword: "foscam",
		main:    "/videoMain",
		sub:     "/videoSub",
		def:     "/videoMain",
	},
	{
		keyword: "vivotek",
		main:    "/live.sdp",
		sub:     "/live2.sdp",
		def:     "/live.sdp",
	},
	{
		keyword: "bosch",
		main:    "/rtsp_tunnel",
		sub:     "/rtsp_tunnel?inst=2",
		def:     "/rtsp_tunnel",
	},
	{
		keyword: "sony",
		main:    "/media/video1",
		sub:     "/media/video2",
		def:     "/media/video1",
	},
	{
		keyword: "uniview",
		main:    "/media/video1",
		sub:     "/media/video2",
		def:     "/media/video1",
	},
}

// genericPaths are tried for vendors without a template. The first entry
// doubles as main, sub, and default.
var genericPaths = []string{"/stream1", "/live", "/media/video1"}

// Synthesize maps a manufacturer name to its RTSP URL templates.
// The manufacturer is matched case-insensitively as a substring, so
// "Hikvision Digital Technology Co." matches the hikvision template.
// Unknown manufacturers get a generic fallback with
// ManufacturerDetected=false.
func Synthesize(ip, manufacturer, username, password string) Result {
	lower := strings.ToLower(manufacturer)

	for _, vendor := range vendorTable {
		if strings.Contains(lower, vendor.keyword) {
			return Result{
				MainStream:           StreamURL(ip, username, password, vendor.main),
				SubStream:            StreamURL(ip, username, password, vendor.sub),
				DefaultURL:           StreamURL(ip, username, password, vendor.def),
				ManufacturerDetected: true,
			}
		}
	}

	alternatives := make([]string, len(genericPaths))
	for i, path := range genericPaths {
		alternatives[i] = StreamURL(ip, username, password, path)
	}

	return Result{
		MainStream:           alternatives[0],
		SubStream:            alternatives[0],
		DefaultURL:           alternatives[0],
		Alternatives:         alternatives,
		ManufacturerDetected: false,
	}
}

// StreamURL builds a single RTSP URL for the given path. Credentials are
// substituted verbatim; when both are empty the user:pass@ block is omitted.
func StreamURL(ip, username, password, path string) string {
	if username == "" && password == "" {
		return fmt.Sprintf("rtsp://%s:%d%s", ip, DefaultPort, path)
	}
	return fmt.Sprintf("rtsp://%s:%s@%s:%d%s", username, password, ip, DefaultPort, path)
}

// KnownVendors returns the vendor keywords with templates, in match order.
// Used by the camera form to hint which manufacturers get exact URLs.
func KnownVendors() []string {
	vendors := make([]string, len(vendorTable))
	for i, vendor := range vendorTable {
		vendors[i] = vendor.keyword
	}
	return vendors
}
