package frigateconf

import (
	"bytes"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Serialized order of the top-level sections. Keys outside this list keep
// their relative position after the known sections; version always goes
// last.
var sectionOrder = []string{"mqtt", "detectors", "model", "ffmpeg", "cameras"}

// Document wraps the parsed top-level mapping of a config.yaml. Sections
// the tool does not edit are held as raw YAML subtrees so their content,
// ordering and comments survive a load/save round trip.
type Document struct {
	root *yaml.Node
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{root: newMapNode()}
}

// ParseDocument strictly parses YAML into a Document. Empty input and a
// null document both yield an empty document; any other non-mapping top
// level is a parse error.
func ParseDocument(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, NewParseError("", "invalid YAML", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return NewDocument(), nil
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		node = node.Content[0]
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return NewDocument(), nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, NewParseError("", "top level of the configuration is not a mapping", nil)
	}
	return &Document{root: node}, nil
}

// Keys returns the top-level section names in file order.
func (d *Document) Keys() []string {
	return mapKeys(d.root)
}

// Has reports whether a top-level section exists.
func (d *Document) Has(name string) bool {
	_, ok := mapGet(d.root, name)
	return ok
}

// Section returns the value subtree of a top-level section.
func (d *Document) Section(name string) (*yaml.Node, bool) {
	return mapGet(d.root, name)
}

// SetSection replaces a top-level section, appending it if absent.
func (d *Document) SetSection(name string, value *yaml.Node) {
	mapSet(d.root, name, value)
}

// DeleteSection removes a top-level section, reporting whether it existed.
func (d *Document) DeleteSection(name string) bool {
	return mapDelete(d.root, name)
}

// Version returns the version value, or the empty string when unset.
func (d *Document) Version() string {
	v, ok := mapGet(d.root, "version")
	if !ok || v.Kind != yaml.ScalarNode {
		return ""
	}
	return v.Value
}

// Cameras returns the cameras section as an ordered set. The returned
// subtrees are shared with the document; use SetCameras to apply
// structural changes such as deletions.
func (d *Document) Cameras() *CameraSet {
	set := NewCameraSet()
	sec, ok := mapGet(d.root, "cameras")
	if !ok || sec.Kind != yaml.MappingNode {
		return set
	}
	for i := 0; i+1 < len(sec.Content); i += 2 {
		set.SetNode(sec.Content[i].Value, sec.Content[i+1])
	}
	return set
}

// SetCameras replaces the cameras section with the given set.
func (d *Document) SetCameras(set *CameraSet) {
	m := newMapNode()
	for _, name := range set.names {
		m.Content = append(m.Content, strNode(name), set.nodes[name])
	}
	d.SetSection("cameras", m)
}

// EnsureDefaults guarantees the structural sections are present before a
// save: mqtt, detectors (repaired outright when memx0 is missing), model
// and version.
func (d *Document) EnsureDefaults() {
	if !d.Has("mqtt") {
		d.SetMQTT(DefaultMQTT())
	}
	det, ok := mapGet(d.root, "detectors")
	if !ok || det.Kind != yaml.MappingNode || !hasKey(det, DetectorName(0)) {
		// A flattened or foreign detectors section is replaced outright,
		// not merged; recovery can leave stray leaf keys behind.
		d.DeleteSection("detectors")
		d.SetDetectorCount(1)
	}
	if !d.Has("model") {
		d.SetModel(DefaultModel())
	}
	if !d.Has("version") {
		d.SetSection("version", strNode(ConfigVersion))
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	return &Document{root: cloneNode(d.root)}
}

// Marshal serializes the document with the blank-line layout used for
// generated configs. Section order is left as is; Store.Save reorders
// before marshaling.
func (d *Document) Marshal() ([]byte, error) {
	data, err := encodeYAML(d.root)
	if err != nil {
		return nil, err
	}
	return FormatDocument(data), nil
}

// reorder rewrites the top-level key order: known sections first, other
// keys in their current relative order, version last.
func (d *Document) reorder() {
	content := d.root.Content
	used := make(map[string]bool, len(sectionOrder)+1)
	out := make([]*yaml.Node, 0, len(content))
	for _, name := range sectionOrder {
		if k, v, ok := mapEntry(d.root, name); ok {
			out = append(out, k, v)
			used[name] = true
		}
	}
	for i := 0; i+1 < len(content); i += 2 {
		name := content[i].Value
		if used[name] || name == "version" {
			continue
		}
		out = append(out, content[i], content[i+1])
	}
	if k, v, ok := mapEntry(d.root, "version"); ok {
		out = append(out, k, v)
	}
	d.root.Content = out
}

// ensureSection returns the mapping node for a top-level section,
// creating or replacing it when it is absent or not a mapping.
func (d *Document) ensureSection(name string) *yaml.Node {
	if sec, ok := mapGet(d.root, name); ok && sec.Kind == yaml.MappingNode {
		return sec
	}
	sec := newMapNode()
	d.SetSection(name, sec)
	return sec
}

// keyNode returns the key node of a top-level section, used to attach
// comments.
func (d *Document) keyNode(name string) (*yaml.Node, bool) {
	k, _, ok := mapEntry(d.root, name)
	return k, ok
}

// baseDocument returns the plain default document: mqtt off, one MemryX
// detector, yolo-generic model, empty cameras and the pinned version.
func baseDocument() *Document {
	d := NewDocument()
	d.SetMQTT(DefaultMQTT())
	d.SetDetectorCount(1)
	d.SetModel(DefaultModel())
	d.SetCameras(NewCameraSet())
	d.SetSection("version", strNode(ConfigVersion))
	return d
}

// DefaultDocument returns the starter configuration written by setup.
func DefaultDocument() *Document {
	d := baseDocument()
	if key, ok := d.keyNode("mqtt"); ok {
		key.HeadComment = "Frigate configuration.\nAdd cameras with the camera wizard or edit this file directly."
	}
	if key, ok := d.keyNode("version"); ok {
		key.FootComment = "For more configuration options see\nhttps://docs.frigate.video/configuration/"
	}
	return d
}

// encodeYAML serializes a node tree with two-space indentation.
func encodeYAML(root *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		enc.Close()
		return nil, NewSaveError("", "could not serialize configuration", err)
	}
	if err := enc.Close(); err != nil {
		return nil, NewSaveError("", "could not serialize configuration", err)
	}
	return buf.Bytes(), nil
}

// encodeNode converts a Go value into its YAML node representation.
func encodeNode(v interface{}) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return &n, nil
}

// Node constructors and mapping helpers. yaml.v3 mapping nodes store
// key/value pairs as alternating Content entries.

func newMapNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func newSeqNode(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items}
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

func intNode(n int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(n)}
}

func floatNode(f float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}
}

func mapEntry(m *yaml.Node, key string) (*yaml.Node, *yaml.Node, bool) {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil, nil, false
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i], m.Content[i+1], true
		}
	}
	return nil, nil, false
}

func mapGet(m *yaml.Node, key string) (*yaml.Node, bool) {
	_, v, ok := mapEntry(m, key)
	return v, ok
}

func hasKey(m *yaml.Node, key string) bool {
	_, ok := mapGet(m, key)
	return ok
}

func mapSet(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, strNode(key), value)
}

func mapDelete(m *yaml.Node, key string) bool {
	if m == nil || m.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}

func mapKeys(m *yaml.Node) []string {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// cloneNode deep-copies a node tree. Alias nodes keep their original
// target so anchors stay consistent within the copy.
func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := *n
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			out.Content[i] = cloneNode(c)
		}
	}
	return &out
}

// stripComments clears all comments from a node tree; used when comparing
// section content.
func stripComments(n *yaml.Node) {
	if n == nil {
		return
	}
	n.HeadComment = ""
	n.LineComment = ""
	n.FootComment = ""
	for _, c := range n.Content {
		stripComments(c)
	}
}
