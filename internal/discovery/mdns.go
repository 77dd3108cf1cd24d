package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/arlott/frigatemx/internal/rtsp"
)

// mDNS fallback discovery. Some cameras never answer WS-Discovery probes
// but do advertise RTSP or vendor services over mDNS. Browsing those
// service types catches them; results merge into the same Camera model
// and are deduplicated against WS-Discovery hits by IP.

const (
	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultMDNSTimeout is the default timeout for mDNS browsing
	DefaultMDNSTimeout = 3 * time.Second
)

// mdnsServiceTypes are the service types browsed for cameras.
var mdnsServiceTypes = []string{"_axis-video._tcp", "_rtsp._tcp"}

// MDNSScanner browses mDNS for cameras that do not speak WS-Discovery.
type MDNSScanner struct {
	// Timeout is the maximum time to wait for advertisements
	Timeout time.Duration

	// OnCamera is invoked for every camera as it is found (may be nil)
	OnCamera func(*Camera)
}

// NewMDNSScanner creates a new mDNS scanner with default settings
func NewMDNSScanner() *MDNSScanner {
	return &MDNSScanner{
		Timeout: DefaultMDNSTimeout,
	}
}

// Scan browses all camera service types until the timeout elapses or ctx
// is cancelled. Resolver failures return a typed error; cameras found
// before cancellation are always returned.
func (s *MDNSScanner) Scan(ctx context.Context) ([]*Camera, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	var (
		mu      sync.Mutex
		cameras []*Camera
		seen    = make(map[string]bool)
		wg      sync.WaitGroup
	)

	for _, serviceType := range mdnsServiceTypes {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, NewSocketError("failed to create mDNS resolver", err)
		}

		entries := make(chan *zeroconf.ServiceEntry)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range entries {
				camera := s.parseServiceEntry(entry)
				if camera == nil {
					continue
				}
				mu.Lock()
				if seen[camera.IP] {
					mu.Unlock()
					continue
				}
				seen[camera.IP] = true
				cameras = append(cameras, camera)
				mu.Unlock()
				if s.OnCamera != nil {
					s.OnCamera(camera)
				}
			}
		}()

		if err := resolver.Browse(ctx, serviceType, ServiceDomain, entries); err != nil {
			cancel()
			wg.Wait()
			return cameras, NewSocketError(fmt.Sprintf("failed to browse %s", serviceType), err)
		}
	}

	// Wait for the browse window to close, then for collectors to drain
	<-ctx.Done()
	wg.Wait()

	return cameras, nil
}

// parseServiceEntry converts a zeroconf service entry to a Camera.
// Returns nil if the entry has no usable address.
func (s *MDNSScanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Camera {
	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	camera := NewCamera(ip)
	camera.Source = SourceMDNS

	if entry.Instance != "" {
		camera.Name = entry.Instance
	}

	// Everything the advertisement tells us is fair game for vendor matching
	searchText := strings.Join([]string{
		entry.Instance,
		entry.HostName,
		entry.Service,
		strings.Join(entry.Text, " "),
	}, " ")

	if manufacturer := ExtractManufacturer(searchText); manufacturer != "Unknown" {
		camera.Manufacturer = manufacturer
		camera.Status = StatusIdentified
		camera.RTSPURL = rtsp.Synthesize(ip, manufacturer, "admin", "password").DefaultURL
	}

	return camera
}

// timeout returns the configured timeout, defaulted when zero.
func (s *MDNSScanner) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultMDNSTimeout
	}
	return s.Timeout
}

// MergeCameras combines two result sets, deduplicating by IP. Entries
// from the primary set win because WS-Discovery responses carry more
// detail than mDNS advertisements.
func MergeCameras(primary, secondary []*Camera) []*Camera {
	merged := make([]*Camera, 0, len(primary)+len(secondary))
	seen := make(map[string]bool, len(primary))

	for _, camera := range primary {
		merged = append(merged, camera)
		seen[camera.IP] = true
	}
	for _, camera := range secondary {
		if !seen[camera.IP] {
			merged = append(merged, camera)
			seen[camera.IP] = true
		}
	}

	return merged
}
