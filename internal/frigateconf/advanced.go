package frigateconf

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MQTT broker defaults applied when the section is enabled without
// explicit values.
const (
	DefaultMQTTPort    = 1883
	DefaultTopicPrefix = "frigate"
)

// Value sets accepted by the model section.
var (
	ModelTypes        = []string{"yolo-generic", "yolonas", "yolox", "ssd"}
	InputTensors      = []string{"nchw", "nhwc", "hwnc", "hwcn"}
	InputDTypes       = []string{"float", "float_denorm", "int"}
	DetectSizePresets = []int{320, 416, 640}
)

var memxKeyRe = regexp.MustCompile(`^memx\d+$`)

// MQTT returns the typed view of the mqtt section. Keys the struct does
// not model (for example user and password) stay in the document and
// survive SetMQTT.
func (d *Document) MQTT() MQTTSection {
	var m MQTTSection
	if sec, ok := mapGet(d.root, "mqtt"); ok && sec.Kind == yaml.MappingNode {
		_ = sec.Decode(&m)
	}
	return m
}

// SetMQTT writes the typed mqtt fields into the section in place, so
// sibling keys the tool does not manage are preserved. Zero-valued
// optional fields remove their key.
func (d *Document) SetMQTT(m MQTTSection) {
	sec := d.ensureSection("mqtt")
	mapSet(sec, "enabled", boolNode(m.Enabled))
	setOrDeleteStr(sec, "host", m.Host)
	if m.Port != 0 {
		mapSet(sec, "port", intNode(m.Port))
	} else {
		mapDelete(sec, "port")
	}
	setOrDeleteStr(sec, "topic_prefix", m.TopicPrefix)
}

// Model returns the typed view of the model section.
func (d *Document) Model() ModelSection {
	var m ModelSection
	if sec, ok := mapGet(d.root, "model"); ok && sec.Kind == yaml.MappingNode {
		_ = sec.Decode(&m)
	}
	return m
}

// SetModel writes the model fields in place, preserving sibling keys.
func (d *Document) SetModel(m ModelSection) {
	sec := d.ensureSection("model")
	mapSet(sec, "model_type", strNode(m.ModelType))
	mapSet(sec, "width", intNode(m.Width))
	mapSet(sec, "height", intNode(m.Height))
	mapSet(sec, "input_tensor", strNode(m.InputTensor))
	mapSet(sec, "input_dtype", strNode(m.InputDType))
	mapSet(sec, "labelmap_path", strNode(m.LabelmapPath))
	setOrDeleteStr(sec, "path", m.Path)
}

// DetectorCount reports how many memx detector entries the document has.
func (d *Document) DetectorCount() int {
	sec, ok := mapGet(d.root, "detectors")
	if !ok || sec.Kind != yaml.MappingNode {
		return 0
	}
	count := 0
	for _, key := range mapKeys(sec) {
		if memxKeyRe.MatchString(key) {
			count++
		}
	}
	return count
}

// SetDetectorCount rewrites the memx detector entries for n accelerators
// (memx0 .. memx{n-1}, one PCIe device each). Detector entries with other
// names are kept after them.
func (d *Document) SetDetectorCount(n int) {
	if n < 1 {
		n = 1
	}
	out := newMapNode()
	for i := 0; i < n; i++ {
		spec := newMapNode()
		mapSet(spec, "type", strNode(DetectorType))
		mapSet(spec, "device", strNode(fmt.Sprintf("PCIe:%d", i)))
		mapSet(out, DetectorName(i), spec)
	}
	if sec, ok := mapGet(d.root, "detectors"); ok && sec.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(sec.Content); i += 2 {
			if key := sec.Content[i].Value; !memxKeyRe.MatchString(key) {
				out.Content = append(out.Content, sec.Content[i], sec.Content[i+1])
			}
		}
	}
	d.SetSection("detectors", out)
}

// HWAccelArgs returns the ffmpeg hardware acceleration preset, or the
// empty string when unset.
func (d *Document) HWAccelArgs() string {
	sec, ok := mapGet(d.root, "ffmpeg")
	if !ok || sec.Kind != yaml.MappingNode {
		return ""
	}
	v, ok := mapGet(sec, "hwaccel_args")
	if !ok || v.Kind != yaml.ScalarNode {
		return ""
	}
	return v.Value
}

// SetHWAccelArgs sets or clears the global ffmpeg hwaccel_args. Clearing
// the last key removes the ffmpeg section entirely.
func (d *Document) SetHWAccelArgs(args string) {
	args = strings.TrimSpace(args)
	if args != "" {
		mapSet(d.ensureSection("ffmpeg"), "hwaccel_args", strNode(args))
		return
	}
	sec, ok := mapGet(d.root, "ffmpeg")
	if !ok || sec.Kind != yaml.MappingNode {
		return
	}
	mapDelete(sec, "hwaccel_args")
	if len(sec.Content) == 0 {
		d.DeleteSection("ffmpeg")
	}
}

// setOrDeleteStr writes a string key, removing it when the value is
// empty.
func setOrDeleteStr(m *yaml.Node, key, value string) {
	if value != "" {
		mapSet(m, key, strNode(value))
	} else {
		mapDelete(m, key)
	}
}

// ValidateModelSection checks the model fields against the values the
// MemryX detector supports.
func ValidateModelSection(m ModelSection) []error {
	var problems []error
	if !containsString(ModelTypes, m.ModelType) {
		problems = append(problems, NewValidationError(fmt.Sprintf(
			"model_type %q is not supported (expected one of %s)", m.ModelType, strings.Join(ModelTypes, ", "))))
	}
	if m.Width <= 0 || m.Height <= 0 {
		problems = append(problems, NewValidationError(fmt.Sprintf(
			"model size %dx%d is invalid; width and height must be positive", m.Width, m.Height)))
	}
	if !containsString(InputTensors, m.InputTensor) {
		problems = append(problems, NewValidationError(fmt.Sprintf(
			"input_tensor %q is not supported (expected one of %s)", m.InputTensor, strings.Join(InputTensors, ", "))))
	}
	if !containsString(InputDTypes, m.InputDType) {
		problems = append(problems, NewValidationError(fmt.Sprintf(
			"input_dtype %q is not supported (expected one of %s)", m.InputDType, strings.Join(InputDTypes, ", "))))
	}
	if strings.TrimSpace(m.LabelmapPath) == "" {
		problems = append(problems, NewValidationError("labelmap_path is required"))
	}
	return problems
}

// ValidateMQTTSection checks the mqtt fields entered in the advanced
// settings form.
func ValidateMQTTSection(m MQTTSection) []error {
	var problems []error
	if m.Enabled && strings.TrimSpace(m.Host) == "" {
		problems = append(problems, NewValidationError("mqtt host is required when mqtt is enabled"))
	}
	if m.Port < 0 || m.Port > 65535 {
		problems = append(problems, NewValidationError(fmt.Sprintf("mqtt port %d is out of range (1-65535)", m.Port)))
	}
	return problems
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// CountMemryXDevices counts accelerator device nodes under devDir,
// ignoring the *_feature companion nodes the driver also creates.
func CountMemryXDevices(devDir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(devDir, "memx*"))
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range matches {
		if strings.HasSuffix(filepath.Base(m), "_feature") {
			continue
		}
		count++
	}
	return count, nil
}

// DetectMemryXDevices counts the MemryX accelerators present on this
// host.
func DetectMemryXDevices() (int, error) {
	return CountMemryXDevices("/dev")
}
