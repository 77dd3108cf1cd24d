package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestMDNSScanner_parseServiceEntry(t *testing.T) {
	scanner := NewMDNSScanner()

	tests := []struct {
		name             string
		entry            *zeroconf.ServiceEntry
		wantNil          bool
		wantIP           string
		wantName         string
		wantManufacturer string
		wantStatus       Status
	}{
		{
			name: "axis camera advertisement",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{
					Instance: "AXIS M3045 - ACCC8E123456",
					Service:  "_axis-video._tcp",
				},
				HostName: "axis-accc8e123456.local.",
				Port:     554,
				AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
			},
			wantIP:           "192.168.4.16",
			wantName:         "AXIS M3045 - ACCC8E123456",
			wantManufacturer: "Axis",
			wantStatus:       StatusIdentified,
		},
		{
			name: "generic rtsp advertisement stays unknown",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{
					Instance: "Streamer",
					Service:  "_rtsp._tcp",
				},
				HostName: "streamer.local.",
				Port:     8554,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantIP:           "10.0.0.5",
			wantName:         "Streamer",
			wantManufacturer: "Unknown",
			wantStatus:       StatusDiscovered,
		},
		{
			name: "manufacturer hint in TXT records",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{
					Instance: "Cam 1",
					Service:  "_rtsp._tcp",
				},
				HostName: "cam1.local.",
				Port:     554,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.7")},
				Text:     []string{"vendor=Reolink", "model=RLC-810A"},
			},
			wantIP:           "10.0.0.7",
			wantName:         "Cam 1",
			wantManufacturer: "Reolink",
			wantStatus:       StatusIdentified,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Ghost"},
				HostName:      "ghost.local.",
			},
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{
					Instance: "V6 Cam",
					Service:  "_rtsp._tcp",
				},
				HostName: "v6cam.local.",
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:           "fe80::1",
			wantName:         "V6 Cam",
			wantManufacturer: "Unknown",
			wantStatus:       StatusDiscovered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			camera := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if camera != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", camera)
				}
				return
			}

			if camera == nil {
				t.Fatal("parseServiceEntry() = nil, want camera")
			}
			if camera.IP != tt.wantIP {
				t.Errorf("IP = %q, want %q", camera.IP, tt.wantIP)
			}
			if camera.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", camera.Name, tt.wantName)
			}
			if camera.Manufacturer != tt.wantManufacturer {
				t.Errorf("Manufacturer = %q, want %q", camera.Manufacturer, tt.wantManufacturer)
			}
			if camera.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", camera.Status, tt.wantStatus)
			}
			if camera.Source != SourceMDNS {
				t.Errorf("Source = %v, want mdns", camera.Source)
			}
			if time.Since(camera.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", camera.DiscoveredAt)
			}
		})
	}
}

func TestMergeCameras(t *testing.T) {
	onvifCam := NewCamera("192.168.1.10")
	onvifCam.Manufacturer = "Dahua"

	mdnsDupe := NewCamera("192.168.1.10")
	mdnsDupe.Source = SourceMDNS

	mdnsOnly := NewCamera("192.168.1.20")
	mdnsOnly.Source = SourceMDNS

	merged := MergeCameras([]*Camera{onvifCam}, []*Camera{mdnsDupe, mdnsOnly})

	if len(merged) != 2 {
		t.Fatalf("MergeCameras() returned %d cameras, want 2", len(merged))
	}
	if merged[0] != onvifCam {
		t.Error("primary camera should win the IP conflict")
	}
	if merged[1] != mdnsOnly {
		t.Error("mdns-only camera should survive the merge")
	}
}

func TestMergeCameras_Empty(t *testing.T) {
	if got := MergeCameras(nil, nil); len(got) != 0 {
		t.Errorf("MergeCameras(nil, nil) = %v, want empty", got)
	}

	solo := []*Camera{NewCamera("10.0.0.1")}
	if got := MergeCameras(nil, solo); len(got) != 1 {
		t.Errorf("MergeCameras(nil, solo) returned %d cameras, want 1", len(got))
	}
}
