package frigateapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newBridgeServer starts a test server that upgrades /ws and hands the
// connection to the given handler, mimicking frigate's websocket bridge.
func newBridgeServer(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			t.Errorf("websocket connected to %s, want /ws", r.URL.Path)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
}

// closeNormally sends a close frame and waits for the client's reply so
// the handler does not tear the socket down mid-frame.
func closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	conn.ReadMessage()
}

func TestStream_DeliversFrames(t *testing.T) {
	server := newBridgeServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(Message{Topic: "mqtt_state", Payload: "online", Retain: true})
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteJSON(Message{Topic: "stats", Payload: "{}"})
		closeNormally(conn)
	})
	defer server.Close()

	client := NewClientWithURL(server.URL)
	var got []Message
	err := client.Stream(context.Background(), func(msg Message) {
		got = append(got, msg)
	})
	if err != nil {
		t.Fatalf("Stream() error = %v, want nil on normal close", err)
	}

	if len(got) != 2 {
		t.Fatalf("received %d messages, want 2 (garbage frame skipped)", len(got))
	}
	if got[0].Topic != "mqtt_state" || got[0].Payload != "online" || !got[0].Retain {
		t.Errorf("first message = %+v", got[0])
	}
	if got[1].Topic != "stats" {
		t.Errorf("second message topic = %q, want stats", got[1].Topic)
	}
}

func TestStreamStats(t *testing.T) {
	server := newBridgeServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(Message{Topic: "mqtt_state", Payload: "online"})
		conn.WriteJSON(Message{Topic: "stats", Payload: mockStatsResponse})
		closeNormally(conn)
	})
	defer server.Close()

	client := NewClientWithURL(server.URL)
	var got []*Stats
	err := client.StreamStats(context.Background(), func(stats *Stats) {
		got = append(got, stats)
	})
	if err != nil {
		t.Fatalf("StreamStats() error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("received %d stats frames, want 1 (other topics filtered)", len(got))
	}
	if fps := got[0].Cameras["front_door"].CameraFPS; fps != 5.1 {
		t.Errorf("front_door camera_fps = %v, want 5.1", fps)
	}
	if got[0].Service.Uptime != 4125 {
		t.Errorf("uptime = %d, want 4125", got[0].Service.Uptime)
	}
}

func TestStream_ContextCancel(t *testing.T) {
	server := newBridgeServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(Message{Topic: "stats", Payload: "{}"})
		// Hold the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClientWithURL(server.URL)
	err := client.Stream(ctx, func(msg Message) {
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Stream() error = %v, want context.Canceled", err)
	}
}

func TestStream_DialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClientWithURL(url)
	err := client.Stream(context.Background(), func(msg Message) {
		t.Error("no messages expected from a dead server")
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *APIError", err)
	}
	if !IsRetryable(err) {
		t.Error("a failed dial should be retryable")
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		baseURL string
		want    string
	}{
		{"http://localhost:5000", "ws://localhost:5000/ws"},
		{"https://nvr.example.com", "wss://nvr.example.com/ws"},
		{"http://192.168.1.50:5000/", "ws://192.168.1.50:5000/ws"},
	}

	for _, tt := range tests {
		client := NewClientWithURL(tt.baseURL)
		got, err := client.websocketURL()
		if err != nil {
			t.Errorf("websocketURL(%s) error = %v", tt.baseURL, err)
			continue
		}
		if got != tt.want {
			t.Errorf("websocketURL(%s) = %s, want %s", tt.baseURL, got, tt.want)
		}
	}
}
