package frigateconf

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ConfigVersion is the Frigate release line pinned by generated configs.
const ConfigVersion = "0.17-0"

// Defaults for the MemryX detector pipeline.
const (
	DetectorType        = "memryx"
	DefaultLabelmapPath = "/labelmap/coco-80.txt"
	DefaultModelSize    = 320
)

// Detect defaults applied to newly built camera entries.
const (
	DefaultDetectWidth  = 2560
	DefaultDetectHeight = 1440
	DefaultDetectFPS    = 5
)

// Retention defaults applied when recording is first enabled.
const (
	DefaultAlertRetainDays     = 7
	DefaultDetectionRetainDays = 3
)

// DefaultTrackedObjects seeds the objects.track list for new cameras.
var DefaultTrackedObjects = []string{"person", "car", "dog"}

// MQTTSection mirrors the mqtt block of a Frigate config. Zero values on
// the optional fields mean the key is absent on disk.
type MQTTSection struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host,omitempty"`
	Port        int    `yaml:"port,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
}

// DetectorSpec is a single entry under detectors.
type DetectorSpec struct {
	Type   string `yaml:"type"`
	Device string `yaml:"device"`
}

// ModelSection mirrors the model block.
type ModelSection struct {
	ModelType    string `yaml:"model_type"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	InputTensor  string `yaml:"input_tensor"`
	InputDType   string `yaml:"input_dtype"`
	LabelmapPath string `yaml:"labelmap_path"`
	Path         string `yaml:"path,omitempty"`
}

// CameraEntry is the typed view of a camera the tool builds or edits.
// Cameras the tool never touches stay in the document as raw YAML nodes
// so that keys this struct does not model survive a save.
type CameraEntry struct {
	FFmpeg    FFmpegConfig     `yaml:"ffmpeg"`
	Detect    *DetectConfig    `yaml:"detect,omitempty"`
	Objects   *ObjectsConfig   `yaml:"objects,omitempty"`
	Snapshots *SnapshotsConfig `yaml:"snapshots,omitempty"`
	Record    *RecordConfig    `yaml:"record,omitempty"`
}

// FFmpegConfig holds the stream inputs of one camera.
type FFmpegConfig struct {
	Inputs []StreamInput `yaml:"inputs"`
}

// StreamInput is one ffmpeg input: an RTSP (or http:// or /dev/) path and
// the Frigate roles it serves.
type StreamInput struct {
	Path  string   `yaml:"path"`
	Roles []string `yaml:"roles"`
}

// DetectConfig controls the detection resolution and rate.
type DetectConfig struct {
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
	FPS     int  `yaml:"fps"`
	Enabled bool `yaml:"enabled"`
}

// ObjectsConfig lists the labels Frigate should track.
type ObjectsConfig struct {
	Track []string `yaml:"track"`
}

// SnapshotsConfig controls event snapshots.
type SnapshotsConfig struct {
	Enabled     bool           `yaml:"enabled"`
	BoundingBox bool           `yaml:"bounding_box"`
	Retain      SnapshotRetain `yaml:"retain"`
}

// SnapshotRetain sets how many days snapshots are kept.
type SnapshotRetain struct {
	Default int `yaml:"default"`
}

// RecordConfig controls continuous recording retention.
type RecordConfig struct {
	Enabled    bool        `yaml:"enabled"`
	Alerts     RetainBlock `yaml:"alerts"`
	Detections RetainBlock `yaml:"detections"`
}

// RetainBlock wraps a retain.days setting.
type RetainBlock struct {
	Retain RetainDays `yaml:"retain"`
}

// RetainDays holds a retention period in days.
type RetainDays struct {
	Days int `yaml:"days"`
}

// DefaultMQTT returns the mqtt section written when none exists.
func DefaultMQTT() MQTTSection {
	return MQTTSection{Enabled: false}
}

// DefaultModel returns the yolo-generic model section for the MemryX
// runtime.
func DefaultModel() ModelSection {
	return ModelSection{
		ModelType:    "yolo-generic",
		Width:        DefaultModelSize,
		Height:       DefaultModelSize,
		InputTensor:  "nchw",
		InputDType:   "float",
		LabelmapPath: DefaultLabelmapPath,
	}
}

// DetectorName returns the detectors key for the accelerator at index i.
func DetectorName(i int) string {
	return fmt.Sprintf("memx%d", i)
}

// DefaultDetector returns the detector spec for the accelerator at index i.
func DefaultDetector(i int) DetectorSpec {
	return DetectorSpec{Type: DetectorType, Device: fmt.Sprintf("PCIe:%d", i)}
}

// DefaultDetect returns the detect block applied to new cameras.
func DefaultDetect() DetectConfig {
	return DetectConfig{
		Width:   DefaultDetectWidth,
		Height:  DefaultDetectHeight,
		FPS:     DefaultDetectFPS,
		Enabled: true,
	}
}

// DefaultSnapshots returns the snapshots block applied to new cameras.
func DefaultSnapshots() SnapshotsConfig {
	return SnapshotsConfig{Enabled: false, BoundingBox: true}
}

// CameraSet holds the cameras section as named entries in file order.
// Entry values are YAML subtrees shared with the document they came from.
type CameraSet struct {
	names []string
	nodes map[string]*yaml.Node
}

// NewCameraSet returns an empty set.
func NewCameraSet() *CameraSet {
	return &CameraSet{nodes: make(map[string]*yaml.Node)}
}

// Len reports how many cameras the set holds.
func (cs *CameraSet) Len() int {
	return len(cs.names)
}

// Names returns the camera names in file order.
func (cs *CameraSet) Names() []string {
	out := make([]string, len(cs.names))
	copy(out, cs.names)
	return out
}

// Has reports whether a camera with the given name exists.
func (cs *CameraSet) Has(name string) bool {
	_, ok := cs.nodes[name]
	return ok
}

// Node returns the raw YAML subtree for a camera.
func (cs *CameraSet) Node(name string) (*yaml.Node, bool) {
	n, ok := cs.nodes[name]
	return n, ok
}

// SetNode stores a raw camera subtree, keeping the position of an
// existing entry with the same name.
func (cs *CameraSet) SetNode(name string, node *yaml.Node) {
	if _, ok := cs.nodes[name]; !ok {
		cs.names = append(cs.names, name)
	}
	cs.nodes[name] = node
}

// Entry decodes a camera into its typed view.
func (cs *CameraSet) Entry(name string) (*CameraEntry, error) {
	node, ok := cs.nodes[name]
	if !ok {
		return nil, NewValidationError(fmt.Sprintf("no camera named %q", name))
	}
	var entry CameraEntry
	if err := node.Decode(&entry); err != nil {
		return nil, NewParseError("", fmt.Sprintf("camera %q has an unexpected shape", name), err)
	}
	return &entry, nil
}

// Set stores a typed camera entry, keeping the position of an existing
// entry with the same name.
func (cs *CameraSet) Set(name string, entry *CameraEntry) error {
	node, err := encodeNode(entry)
	if err != nil {
		return NewSaveError("", fmt.Sprintf("could not encode camera %q", name), err)
	}
	cs.SetNode(name, node)
	return nil
}

// Delete removes a camera, reporting whether it existed.
func (cs *CameraSet) Delete(name string) bool {
	if _, ok := cs.nodes[name]; !ok {
		return false
	}
	delete(cs.nodes, name)
	for i, n := range cs.names {
		if n == name {
			cs.names = append(cs.names[:i], cs.names[i+1:]...)
			break
		}
	}
	return true
}

// Rename changes a camera's key while keeping its position and content.
func (cs *CameraSet) Rename(oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	node, ok := cs.nodes[oldName]
	if !ok {
		return NewValidationError(fmt.Sprintf("no camera named %q", oldName))
	}
	if _, exists := cs.nodes[newName]; exists {
		return NewValidationError(fmt.Sprintf("a camera named %q already exists", newName))
	}
	if err := ValidateCameraName(newName); err != nil {
		return err
	}
	delete(cs.nodes, oldName)
	cs.nodes[newName] = node
	for i, n := range cs.names {
		if n == oldName {
			cs.names[i] = newName
			break
		}
	}
	return nil
}
