package mqttprobe

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func TestBrokerURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit port", Config{Host: "broker.local", Port: 8883}, "tcp://broker.local:8883"},
		{"default port", Config{Host: "192.168.1.10"}, "tcp://192.168.1.10:1883"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.brokerURL(); got != tt.want {
				t.Errorf("brokerURL() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAvailabilityTopic(t *testing.T) {
	cfg := Config{TopicPrefix: "frigate_house"}
	if got := cfg.availabilityTopic(); got != "frigate_house/available" {
		t.Errorf("availabilityTopic() = %s", got)
	}

	cfg = Config{}
	if got := cfg.availabilityTopic(); got != "frigate/available" {
		t.Errorf("availabilityTopic() = %s, want the frigate default prefix", got)
	}
}

func TestTest_EmptyHost(t *testing.T) {
	err := Test(context.Background(), Config{Port: 1883})
	if err == nil {
		t.Fatal("Test() should reject an empty host")
	}
	if !strings.Contains(err.Error(), "host") {
		t.Errorf("error = %v, should name the missing host", err)
	}
}

func TestTest_ConnectionRefused(t *testing.T) {
	// Grab a port nothing listens on.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = Test(ctx, Config{Host: "127.0.0.1", Port: port})
	if err == nil {
		t.Fatal("Test() should fail against a closed port")
	}
	if !strings.Contains(err.Error(), "failed to connect") {
		t.Errorf("error = %v, should report the connect failure", err)
	}
}

func TestTest_ContextEndsSilentBroker(t *testing.T) {
	// A listener that accepts and never answers keeps paho waiting for
	// the CONNACK, so the context deadline is what ends the probe.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(io.Discard, conn)
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = Test(ctx, Config{Host: "127.0.0.1", Port: port})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Test() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("probe took %v, the context should end it promptly", elapsed)
	}
}
