// Package frigateapi provides a client for a running frigate instance.
//
// This package talks to frigate's unauthenticated HTTP API on port 5000
// and to its websocket bridge at /ws. It is how the launcher and the
// dashboard see what a started container is actually doing.
//
// # Usage Example
//
//	// Create client for a locally launched frigate
//	client := frigateapi.NewClient(frigateapi.DefaultHost, frigateapi.DefaultPort)
//
//	// Health check
//	if err := client.Ping(); err != nil {
//	    fmt.Println(frigateapi.GetTroubleshootingHint(err))
//	    return
//	}
//
//	// Current version and stats snapshot
//	version, err := client.Version()
//	stats, err := client.Stats()
//
// # Retries and Caching
//
// Requests that fail with retryable errors (timeouts, refused
// connections, 5xx responses) are retried with exponential backoff up
// to MaxRetries. Stats snapshots are cached for CacheDuration so a UI
// redrawing faster than frigate updates does not hammer the API;
// RefreshStats bypasses the cache.
//
// # Live Stream
//
// Stream reads frigate's websocket bridge, which relays topic/payload
// frames. StreamStats filters it down to decoded stats snapshots:
//
//	err := client.StreamStats(ctx, func(stats *frigateapi.Stats) {
//	    render(stats)
//	})
//
// The stream runs until ctx is cancelled, the peer closes normally
// (both return nil or ctx.Err()), or the connection breaks.
//
// # Thread Safety
//
// Client instances are safe for concurrent use.
package frigateapi
