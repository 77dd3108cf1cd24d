package frigateapi

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestStatsDecode(t *testing.T) {
	var stats Stats
	if err := json.Unmarshal([]byte(mockStatsResponse), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}

	if len(stats.Cameras) != 2 {
		t.Errorf("decoded %d cameras, want 2", len(stats.Cameras))
	}
	garage := stats.Cameras["garage"]
	if garage.SkippedFPS != 0.1 || garage.PID != 432 {
		t.Errorf("garage = %+v", garage)
	}

	storage, ok := stats.Service.Storage["/media/frigate/recordings"]
	if !ok {
		t.Fatal("recordings mount missing from storage stats")
	}
	if storage.Mount != "ext4" {
		t.Errorf("mount_type = %q, want ext4", storage.Mount)
	}
	if storage.Free != 118888.6 {
		t.Errorf("free = %v", storage.Free)
	}

	if stats.Service.LastUpdated != 1724580000 {
		t.Errorf("last_updated = %d", stats.Service.LastUpdated)
	}
}

func TestStats_SortedNames(t *testing.T) {
	stats := &Stats{
		Cameras: map[string]CameraStats{
			"garage":   {},
			"backyard": {},
			"front":    {},
		},
		Detectors: map[string]DetectorStats{
			"memx1": {},
			"memx0": {},
		},
	}

	wantCameras := []string{"backyard", "front", "garage"}
	if got := stats.CameraNames(); !reflect.DeepEqual(got, wantCameras) {
		t.Errorf("CameraNames() = %v, want %v", got, wantCameras)
	}

	wantDetectors := []string{"memx0", "memx1"}
	if got := stats.DetectorNames(); !reflect.DeepEqual(got, wantDetectors) {
		t.Errorf("DetectorNames() = %v, want %v", got, wantDetectors)
	}
}

func TestUptimeDuration(t *testing.T) {
	service := ServiceStats{Uptime: 4125}
	if got := service.UptimeDuration(); got != 4125*time.Second {
		t.Errorf("UptimeDuration() = %v, want %v", got, 4125*time.Second)
	}
}
