package frigateapi

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arlott/frigatemx/internal/logging"
)

const (
	// Time allowed to write a control message to the peer
	writeWait = 10 * time.Second

	// Time allowed between reads before the connection is considered dead
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size accepted from the bridge
	maxMessageSize = 512 * 1024
)

// Stream dials frigate's websocket bridge at /ws and delivers every
// frame to onMessage until ctx ends or the connection drops. Frames
// that do not decode are logged and skipped, a newer frigate may
// publish topics this tool does not know.
func (c *Client) Stream(ctx context.Context, onMessage func(Message)) error {
	wsURL, err := c.websocketURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.HTTPClient.Timeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return NewNetworkError("websocket dial failed", err)
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The pinger keeps the read deadline fed and tears the connection
	// down on cancellation so the blocked read below can exit.
	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				_ = conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			logging.Error("websocket stream broken", zap.Error(err))
			return NewNetworkError("websocket read failed", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.Debug("skipping undecodable websocket frame",
				zap.Int("length", len(data)),
				zap.Error(err))
			continue
		}
		onMessage(msg)
	}
}

// StreamStats filters the bridge down to stats frames, decoding each
// into a Stats snapshot for the dashboard.
func (c *Client) StreamStats(ctx context.Context, onStats func(*Stats)) error {
	return c.Stream(ctx, func(msg Message) {
		if msg.Topic != "stats" {
			return
		}
		var stats Stats
		if err := json.Unmarshal([]byte(msg.Payload), &stats); err != nil {
			logging.Debug("skipping undecodable stats frame",
				zap.Error(err))
			return
		}
		onStats(&stats)
	})
}

// websocketURL derives the ws:// endpoint from the client's base URL.
func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", NewNetworkError("invalid base URL", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String(), nil
}
