// Package discovery finds ONVIF cameras on the local network.
//
// The primary mechanism is WS-Discovery: one SOAP probe is multicast to
// 239.255.255.250:3702 and responses are collected for a fixed window.
// Cameras that stay silent to probes are picked up by an mDNS fallback
// that browses "_axis-video._tcp" and "_rtsp._tcp".
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. Multicasts a WS-Discovery probe with a fresh urn:uuid MessageID
//  2. Collects response datagrams for the scan window (default 3s)
//  3. Deduplicates responders by source IP
//  4. Identifies the manufacturer from the response text, embedded XML,
//     or ONVIF scope URIs (fixed table, first match wins)
//  5. For still-unknown cameras, tries a 1-second unicast
//     GetDeviceInformation call to fill in manufacturer/model/firmware
//
// A camera is never dropped because identification failed; it is reported
// with manufacturer "Unknown" and generic stream URLs.
//
// # Usage Example
//
//	registry := discovery.NewRegistry()
//	session, ctx, err := registry.Begin(context.Background())
//	if err != nil {
//	    // another scan is running
//	}
//	defer registry.End(session)
//
//	scanner := discovery.NewScanner()
//	cameras, err := scanner.Scan(ctx)
//	for _, camera := range cameras {
//	    fmt.Printf("Found: %s at %s (%s)\n",
//	        camera.Name, camera.IP, camera.Manufacturer)
//	}
//
// # Network Requirements
//
//   - Requires multicast support on the network interface
//   - Cameras must be on the same local network segment
//   - Firewall must allow outbound UDP to port 3702 (WS-Discovery)
//     and port 5353 (mDNS)
//
// # Concurrency
//
// A Registry enforces one scan at a time per consumer and provides a
// bounded Shutdown for program exit. Scans honor context cancellation at
// every loop iteration and every socket timeout.
package discovery
