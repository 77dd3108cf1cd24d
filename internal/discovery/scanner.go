package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/arlott/frigatemx/internal/logging"
)

const (
	// DefaultScanWindow is how long a scan collects responses after the probe
	DefaultScanWindow = 3 * time.Second

	// readInterval bounds each socket read so cancellation is noticed
	// promptly between datagrams
	readInterval = 500 * time.Millisecond

	// maxDatagramSize is the receive buffer size for discovery responses
	maxDatagramSize = 4096
)

// Scanner performs one WS-Discovery scan: multicast a probe, collect
// responses for a fixed window, and parse each unique responder into a
// Camera. Scans run on whatever goroutine calls Scan; callers that need a
// UI to stay responsive run it through a Registry session.
type Scanner struct {
	// Window is how long to collect responses (default 3s)
	Window time.Duration

	// SkipEnrichment disables the unicast GetDeviceInformation stage.
	// Scans finish faster but unidentified cameras stay Unknown.
	SkipEnrichment bool

	// OnCamera is invoked for every camera as it is found (may be nil)
	OnCamera func(*Camera)

	// OnProgress receives human-readable status lines (may be nil)
	OnProgress func(string)

	logger *zap.Logger
}

// NewScanner creates a scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{
		Window: DefaultScanWindow,
		logger: logging.GetLogger(),
	}
}

// Scan multicasts one probe and collects responses until the window
// elapses or ctx is cancelled. Cancellation returns the cameras found so
// far with a nil error. Socket failures return a typed error and no
// cameras; callers present that as an empty result, not a crash.
func (s *Scanner) Scan(ctx context.Context) ([]*Camera, error) {
	maddr, err := net.ResolveUDPAddr("udp4", MulticastAddress)
	if err != nil {
		return nil, NewSocketError("failed to resolve multicast address", err)
	}

	// Ephemeral local port; responses come back unicast to it
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, NewSocketError("failed to open UDP socket", err)
	}
	defer conn.Close()

	messageID := NewMessageID()
	probe := BuildProbeMessage(messageID)

	if _, err := conn.WriteToUDP(probe, maddr); err != nil {
		return nil, NewSendError(err)
	}

	logging.LogProbeSent(conn.LocalAddr().String(), MulticastAddress, messageID)
	s.progress("Scanning for ONVIF cameras...")

	deadline := time.Now().Add(s.window())
	seen := make(map[string]bool)
	var cameras []*Camera
	buf := make([]byte, maxDatagramSize)

	for time.Now().Before(deadline) {
		// Cooperative cancellation, checked every iteration
		select {
		case <-ctx.Done():
			return cameras, nil
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(readInterval))
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			// Unexpected read errors skip the datagram, never the scan
			s.logger.Debug("discovery read failed", zap.Error(err))
			continue
		}

		ip := addr.IP.String()
		if seen[ip] {
			continue
		}
		seen[ip] = true

		logging.LogProbeResponse(addr.String(), n, buf[:n])

		camera := ParseResponse(string(buf[:n]), ip)
		if !camera.Identified() && !s.SkipEnrichment {
			EnrichCamera(ctx, camera)
		}
		if !camera.Identified() {
			logging.LogRawBytes("unidentified probe response", buf[:n])
		}

		s.logger.Info("camera discovered",
			zap.String("ip", camera.IP),
			zap.String("manufacturer", camera.Manufacturer),
			zap.String("status", camera.Status.String()),
		)

		cameras = append(cameras, camera)
		if s.OnCamera != nil {
			s.OnCamera(camera)
		}
		s.progress(fmt.Sprintf("Found camera: %s", ip))
	}

	return cameras, nil
}

// window returns the configured collect window, defaulted when zero.
func (s *Scanner) window() time.Duration {
	if s.Window <= 0 {
		return DefaultScanWindow
	}
	return s.Window
}

func (s *Scanner) progress(msg string) {
	if s.OnProgress != nil {
		s.OnProgress(msg)
	}
}

// ScanNetwork is a convenience function that runs one scan with default
// settings and a custom window.
func ScanNetwork(ctx context.Context, window time.Duration) ([]*Camera, error) {
	scanner := NewScanner()
	scanner.Window = window
	return scanner.Scan(ctx)
}
