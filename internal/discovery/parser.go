package discovery

import (
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/arlott/frigatemx/internal/rtsp"
)

// Manufacturer extraction from WS-Discovery responses. Identification runs
// three methods in order and stops at the first hit:
//
//  1. lowercase substring match over the raw response text
//  2. the same match over every element text of the embedded XML
//  3. the same match over ONVIF scope tokens pulled out by regex
//
// A camera that matches none of them keeps manufacturer "Unknown" and is
// still reported; identification failure never drops a response.

// vendorKeywords maps a canonical vendor name to the substrings that
// identify it in responses.
type vendorKeywords struct {
	name     string
	keywords []string
}

// manufacturerTable is matched in order, first match wins. The order is
// fixed and significant: earlier vendors shadow later ones when keyword
// sets overlap.
var manufacturerTable = []vendorKeywords{
	{"hikvision", []string{"hikvision", "hik-vision", "hikcvision"}},
	{"dahua", []string{"dahua", "dh-", "dahua technology"}},
	{"axis", []string{"axis", "axis communications"}},
	{"bosch", []string{"bosch", "bosch security"}},
	{"sony", []string{"sony"}},
	{"panasonic", []string{"panasonic", "matsushita"}},
	{"samsung", []string{"samsung", "hanwha"}},
	{"vivotek", []string{"vivotek"}},
	{"foscam", []string{"foscam"}},
	{"reolink", []string{"reolink"}},
	{"amcrest", []string{"amcrest"}},
	{"uniview", []string{"uniview", "unv"}},
	{"honeywell", []string{"honeywell"}},
}

// scopePatterns extract vendor hints from ONVIF scope URIs and other URLs
// embedded in the response.
var scopePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)onvif://www\.onvif\.org/([^/\s]+)`),
	regexp.MustCompile(`(?i)http://[^/]*([^./]+)\.[^/]*/`),
}

// ParseResponse converts one raw discovery response into a Camera.
// It never returns nil: unidentifiable responses still produce a camera
// with manufacturer "Unknown".
func ParseResponse(raw string, ip string) *Camera {
	camera := NewCamera(ip)

	manufacturer := ExtractManufacturer(raw)
	if manufacturer != "Unknown" {
		camera.Manufacturer = manufacturer
		camera.Status = StatusIdentified
		// Placeholder credentials; the camera form replaces them as the
		// user types real ones.
		camera.RTSPURL = rtsp.Synthesize(ip, manufacturer, "admin", "password").DefaultURL
	}

	return camera
}

// ExtractManufacturer runs the three identification methods over a raw
// response and returns the canonical vendor name, or "Unknown".
func ExtractManufacturer(raw string) string {
	// Method 1: substring match over the whole response
	if name, ok := matchKeywords(strings.ToLower(raw)); ok {
		return name
	}

	// Method 2: substring match over XML element texts
	for _, text := range xmlElementTexts(raw) {
		if name, ok := matchKeywords(strings.ToLower(text)); ok {
			return name
		}
	}

	// Method 3: substring match over scope tokens
	for _, pattern := range scopePatterns {
		for _, match := range pattern.FindAllStringSubmatch(raw, -1) {
			if len(match) < 2 {
				continue
			}
			if name, ok := matchKeywords(strings.ToLower(match[1])); ok {
				return name
			}
		}
	}

	return "Unknown"
}

// matchKeywords checks text against the manufacturer table in order.
func matchKeywords(text string) (string, bool) {
	for _, vendor := range manufacturerTable {
		for _, keyword := range vendor.keywords {
			if strings.Contains(text, keyword) {
				return titleCase(vendor.name), true
			}
		}
	}
	return "", false
}

// xmlElementTexts walks the XML portion of a response and collects every
// element's character data. Malformed XML yields whatever tokens decoded
// before the error; parse failures are not reported.
func xmlElementTexts(raw string) []string {
	start := strings.Index(raw, "<")
	if start < 0 {
		return nil
	}

	decoder := xml.NewDecoder(strings.NewReader(raw[start:]))
	var texts []string
	for {
		token, err := decoder.Token()
		if err != nil {
			return texts
		}
		if chars, ok := token.(xml.CharData); ok {
			text := strings.TrimSpace(string(chars))
			if text != "" {
				texts = append(texts, text)
			}
		}
	}
}

// titleCase uppercases the first letter of a vendor name (vendor names in
// the table are single lowercase words).
func titleCase(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
