package frigateconf

import (
	"os"
	"path/filepath"
	"testing"
)

// TestSetMQTTPreservesSiblingKeys tests that keys outside the typed view
// survive an mqtt edit
func TestSetMQTTPreservesSiblingKeys(t *testing.T) {
	doc := mustParse(t, `mqtt:
  enabled: false
  user: mqtt_user
  password: mqtt_pass
`)

	doc.SetMQTT(MQTTSection{Enabled: true, Host: "broker.local", Port: 1883, TopicPrefix: "frigate"})

	sec, _ := doc.Section("mqtt")
	for _, key := range []string{"user", "password"} {
		if !hasKey(sec, key) {
			t.Errorf("mqtt.%s was dropped by SetMQTT", key)
		}
	}
	got := doc.MQTT()
	if !got.Enabled || got.Host != "broker.local" || got.Port != 1883 || got.TopicPrefix != "frigate" {
		t.Errorf("MQTT() = %+v", got)
	}

	// Disabling with zero optional values removes those keys but keeps
	// the section and its unknown keys.
	doc.SetMQTT(MQTTSection{Enabled: false})
	sec, _ = doc.Section("mqtt")
	for _, key := range []string{"host", "port", "topic_prefix"} {
		if hasKey(sec, key) {
			t.Errorf("mqtt.%s should be removed when zero", key)
		}
	}
	if !hasKey(sec, "user") {
		t.Error("mqtt.user was dropped on disable")
	}
}

// TestSetModelPreservesSiblingKeys tests in-place model edits
func TestSetModelPreservesSiblingKeys(t *testing.T) {
	doc := mustParse(t, `model:
  model_type: yolo-generic
  width: 320
  height: 320
  input_tensor: nchw
  input_dtype: float
  labelmap_path: /labelmap/coco-80.txt
  custom_key: kept
`)

	m := doc.Model()
	m.Width = 640
	m.Height = 640
	m.Path = "/models/custom.dfp"
	doc.SetModel(m)

	sec, _ := doc.Section("model")
	if !hasKey(sec, "custom_key") {
		t.Error("model.custom_key was dropped by SetModel")
	}
	got := doc.Model()
	if got.Width != 640 || got.Height != 640 || got.Path != "/models/custom.dfp" {
		t.Errorf("Model() = %+v", got)
	}

	// Clearing the model path removes the key.
	got.Path = ""
	doc.SetModel(got)
	sec, _ = doc.Section("model")
	if hasKey(sec, "path") {
		t.Error("model.path should be removed when empty")
	}
}

// TestSetDetectorCount tests detector entry generation
func TestSetDetectorCount(t *testing.T) {
	doc := mustParse(t, `detectors:
  memx0:
    type: memryx
    device: PCIe:0
  coral:
    type: edgetpu
    device: usb
`)

	doc.SetDetectorCount(3)

	if got := doc.DetectorCount(); got != 3 {
		t.Fatalf("DetectorCount() = %d, want 3", got)
	}
	sec, _ := doc.Section("detectors")
	wantKeys := []string{"memx0", "memx1", "memx2", "coral"}
	gotKeys := mapKeys(sec)
	if len(gotKeys) != len(wantKeys) {
		t.Fatalf("detector keys = %v, want %v", gotKeys, wantKeys)
	}
	for i := range wantKeys {
		if gotKeys[i] != wantKeys[i] {
			t.Fatalf("detector keys = %v, want %v", gotKeys, wantKeys)
		}
	}

	memx2, _ := mapGet(sec, "memx2")
	dev, _ := mapGet(memx2, "device")
	if dev == nil || dev.Value != "PCIe:2" {
		t.Errorf("memx2 device = %v, want PCIe:2", dev)
	}

	// Shrinking drops the extra entries, the floor is one device.
	doc.SetDetectorCount(0)
	if got := doc.DetectorCount(); got != 1 {
		t.Errorf("DetectorCount() after clamp = %d, want 1", got)
	}
	sec, _ = doc.Section("detectors")
	if !hasKey(sec, "coral") {
		t.Error("non-memx detector entry was dropped")
	}
}

// TestHWAccelArgs tests the global ffmpeg hwaccel preset accessors
func TestHWAccelArgs(t *testing.T) {
	doc := NewDocument()
	if got := doc.HWAccelArgs(); got != "" {
		t.Errorf("HWAccelArgs() on empty doc = %q", got)
	}

	doc.SetHWAccelArgs("preset-vaapi")
	if got := doc.HWAccelArgs(); got != "preset-vaapi" {
		t.Errorf("HWAccelArgs() = %q, want preset-vaapi", got)
	}

	// Clearing the only key removes the whole section.
	doc.SetHWAccelArgs("")
	if doc.Has("ffmpeg") {
		t.Error("empty ffmpeg section should be removed")
	}

	// With sibling keys the section stays.
	doc2 := mustParse(t, "ffmpeg:\n  input_args: preset-rtsp-restream\n  hwaccel_args: preset-vaapi\n")
	doc2.SetHWAccelArgs("")
	if !doc2.Has("ffmpeg") {
		t.Fatal("ffmpeg section with other keys was removed")
	}
	sec, _ := doc2.Section("ffmpeg")
	if hasKey(sec, "hwaccel_args") {
		t.Error("hwaccel_args not removed")
	}
	if !hasKey(sec, "input_args") {
		t.Error("input_args was dropped")
	}
}

// TestValidateModelSection tests model field validation
func TestValidateModelSection(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ModelSection)
		wantCount int
	}{
		{"Valid: defaults", func(m *ModelSection) {}, 0},
		{"Valid: yolonas at 640", func(m *ModelSection) {
			m.ModelType = "yolonas"
			m.Width, m.Height = 640, 640
		}, 0},
		{"Invalid: unknown model type", func(m *ModelSection) { m.ModelType = "resnet" }, 1},
		{"Invalid: zero size", func(m *ModelSection) { m.Width = 0 }, 1},
		{"Invalid: unknown tensor layout", func(m *ModelSection) { m.InputTensor = "chwn" }, 1},
		{"Invalid: unknown dtype", func(m *ModelSection) { m.InputDType = "double" }, 1},
		{"Invalid: missing labelmap", func(m *ModelSection) { m.LabelmapPath = " " }, 1},
		{"Invalid: everything wrong", func(m *ModelSection) {
			*m = ModelSection{ModelType: "bad", InputTensor: "bad", InputDType: "bad"}
		}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultModel()
			tt.mutate(&m)
			errs := ValidateModelSection(m)
			if len(errs) != tt.wantCount {
				t.Errorf("ValidateModelSection() got %d errors, want %d", len(errs), tt.wantCount)
				for i, err := range errs {
					t.Logf("  Error %d: %v", i+1, err)
				}
			}
		})
	}
}

// TestValidateMQTTSection tests mqtt form validation
func TestValidateMQTTSection(t *testing.T) {
	tests := []struct {
		name      string
		section   MQTTSection
		wantCount int
	}{
		{"Valid: disabled and empty", MQTTSection{}, 0},
		{"Valid: enabled with host", MQTTSection{Enabled: true, Host: "broker.local", Port: 1883}, 0},
		{"Invalid: enabled without host", MQTTSection{Enabled: true}, 1},
		{"Invalid: port out of range", MQTTSection{Host: "x", Port: 70000}, 1},
		{"Invalid: negative port", MQTTSection{Host: "x", Port: -1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateMQTTSection(tt.section)
			if len(errs) != tt.wantCount {
				t.Errorf("ValidateMQTTSection() got %d errors, want %d: %v", len(errs), tt.wantCount, errs)
			}
		})
	}
}

// TestCountMemryXDevices tests device node counting
func TestCountMemryXDevices(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"memx0", "memx1", "memx0_feature", "memx1_feature", "video0"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := CountMemryXDevices(dir)
	if err != nil {
		t.Fatalf("CountMemryXDevices() error = %v", err)
	}
	if got != 2 {
		t.Errorf("CountMemryXDevices() = %d, want 2", got)
	}

	empty, err := CountMemryXDevices(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("CountMemryXDevices(missing) error = %v", err)
	}
	if empty != 0 {
		t.Errorf("CountMemryXDevices(missing) = %d, want 0", empty)
	}
}
