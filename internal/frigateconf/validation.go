package frigateconf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// placeholderTokens mark template stream paths that were never filled in.
// Entries carrying one of these are not real cameras and are dropped.
var placeholderTokens = []string{
	"username:password",
	"camera_ip",
	"your_camera_ip",
	"your_ip_here",
	"example.com",
}

// allowedPathPrefixes are the stream path schemes Frigate accepts.
var allowedPathPrefixes = []string{"rtsp://", "http://", "/dev/"}

var (
	cameraNameRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\s]+$`)
	usernameRe   = regexp.MustCompile(`^[a-zA-Z0-9_\-\.@]+$`)
	objectRe     = regexp.MustCompile(`^[a-zA-Z0-9_\-\s]+$`)
	ipv4Re       = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)
	rtspURLRe    = regexp.MustCompile(`^rtsp://([a-zA-Z0-9_\-\.@]+):(.+)@(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}):?(\d+)?/.+`)
)

// PlaceholderIn reports the first placeholder token found in a stream
// path, matching case-insensitively.
func PlaceholderIn(path string) (string, bool) {
	lower := strings.ToLower(path)
	for _, tok := range placeholderTokens {
		if strings.Contains(lower, tok) {
			return tok, true
		}
	}
	return "", false
}

// ValidateStreamPath checks that a stream path has an accepted scheme and
// carries no placeholder value.
func ValidateStreamPath(path string) error {
	p := strings.TrimSpace(path)
	if p == "" {
		return NewValidationError("stream path is empty")
	}
	ok := false
	for _, prefix := range allowedPathPrefixes {
		if strings.HasPrefix(p, prefix) {
			ok = true
			break
		}
	}
	if !ok {
		return NewValidationError(fmt.Sprintf("stream path must start with rtsp://, http:// or /dev/: %q", p))
	}
	if tok, found := PlaceholderIn(p); found {
		return NewValidationError(fmt.Sprintf("stream path contains placeholder %q", tok))
	}
	return nil
}

// ValidateCameraNode checks the structural shape a camera entry needs to
// be usable: a mapping with ffmpeg.inputs whose first input has a valid
// stream path.
func ValidateCameraNode(name string, node *yaml.Node) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("camera name is empty")
	}
	if node == nil || node.Kind != yaml.MappingNode {
		return NewValidationError("camera entry is not a mapping")
	}
	ff, ok := mapGet(node, "ffmpeg")
	if !ok || ff.Kind != yaml.MappingNode {
		return NewValidationError("missing ffmpeg section")
	}
	inputs, ok := mapGet(ff, "inputs")
	if !ok || inputs.Kind != yaml.SequenceNode || len(inputs.Content) == 0 {
		return NewValidationError("ffmpeg.inputs is missing or empty")
	}
	first := inputs.Content[0]
	if first.Kind != yaml.MappingNode {
		return NewValidationError("first ffmpeg input is not a mapping")
	}
	path, ok := mapGet(first, "path")
	if !ok || path.Kind != yaml.ScalarNode || strings.TrimSpace(path.Value) == "" {
		return NewValidationError("first ffmpeg input has no stream path")
	}
	return ValidateStreamPath(path.Value)
}

// filterCameras removes entries that fail validation, returning the
// dropped names and a note per drop.
func filterCameras(set *CameraSet) (dropped []string, notes []string) {
	for _, name := range set.Names() {
		node, _ := set.Node(name)
		if err := ValidateCameraNode(name, node); err != nil {
			set.Delete(name)
			dropped = append(dropped, name)
			notes = append(notes, fmt.Sprintf("camera %q dropped: %s", name, validationMessage(err)))
		}
	}
	return dropped, notes
}

// Form field validators used before a camera entry is built.

// ValidateCameraName checks a camera name entered in a form.
func ValidateCameraName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return NewValidationError("camera name is required")
	case len(name) < 2:
		return NewValidationError("camera name must be at least 2 characters")
	case len(name) > 50:
		return NewValidationError("camera name must be less than 50 characters")
	case !cameraNameRe.MatchString(name):
		return NewValidationError("camera name can only contain letters, numbers, spaces, hyphens, and underscores")
	}
	return nil
}

// ValidateIPAddress checks a dotted-quad camera address.
func ValidateIPAddress(ip string) error {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return NewValidationError("IP address is required")
	}
	m := ipv4Re.FindStringSubmatch(ip)
	if m == nil {
		return NewValidationError("IP address must be in format xxx.xxx.xxx.xxx")
	}
	for i, part := range m[1:] {
		octet, _ := strconv.Atoi(part)
		if octet > 255 {
			return NewValidationError(fmt.Sprintf("IP address octet %d must be 0-255", i+1))
		}
		if i == 0 && octet == 0 {
			return NewValidationError("first octet cannot be 0")
		}
	}
	return nil
}

// ValidateUsername checks a camera login name.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return NewValidationError("username is required")
	case len(username) < 2:
		return NewValidationError("username must be at least 2 characters")
	case len(username) > 50:
		return NewValidationError("username must be less than 50 characters")
	case !usernameRe.MatchString(username):
		return NewValidationError("username can only contain letters, numbers, and common symbols (_ - . @)")
	}
	return nil
}

// ValidatePassword checks a camera password.
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return NewValidationError("password is required")
	case len(password) > 100:
		return NewValidationError("password must be less than 100 characters")
	}
	return nil
}

// ValidateRTSPURL checks an explicitly entered stream URL. An empty URL
// is accepted; the address and credential fields cover that case.
func ValidateRTSPURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if !strings.HasPrefix(url, "rtsp://") {
		return NewValidationError("RTSP URL must start with 'rtsp://'")
	}
	if !rtspURLRe.MatchString(url) {
		return NewValidationError("RTSP URL format should be: rtsp://username:password@ip:port/path")
	}
	return nil
}

// ValidateObjectsList checks a comma-separated list of tracked objects.
func ValidateObjectsList(objectsText string) error {
	objectsText = strings.TrimSpace(objectsText)
	if objectsText == "" {
		return NewValidationError("at least one object type is required (e.g., person)")
	}
	valid := 0
	for _, obj := range strings.Split(objectsText, ",") {
		obj = strings.TrimSpace(obj)
		if obj == "" {
			continue
		}
		switch {
		case len(obj) < 2:
			return NewValidationError(fmt.Sprintf("object '%s' is too short", obj))
		case len(obj) > 30:
			return NewValidationError(fmt.Sprintf("object '%s' is too long", obj))
		case !objectRe.MatchString(obj):
			return NewValidationError(fmt.Sprintf("object '%s' contains invalid characters", obj))
		}
		valid++
	}
	if valid == 0 {
		return NewValidationError("no valid objects found in the list")
	}
	return nil
}

// ValidateDocument checks every camera entry and the model section,
// returning all problems found.
func ValidateDocument(doc *Document) []error {
	var problems []error
	cams := doc.Cameras()
	for _, name := range cams.Names() {
		node, _ := cams.Node(name)
		if err := ValidateCameraNode(name, node); err != nil {
			problems = append(problems, fmt.Errorf("camera %q: %w", name, err))
		}
	}
	if doc.Has("model") {
		problems = append(problems, ValidateModelSection(doc.Model())...)
	}
	return problems
}

// FormatValidationErrors renders a list of validation problems for
// display.
func FormatValidationErrors(errs []error) string {
	if len(errs) == 0 {
		return "No validation errors"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n", len(errs)))
	for i, err := range errs {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
