// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// WebSocket is a bridge that carries the serial byte stream in binary
// WebSocket messages
type WebSocket struct {
	url  string
	cfg  Config
	conn *websocket.Conn
	buf  frameBuffer

	messages chan []byte
	done     chan struct{}

	mu      sync.Mutex
	readErr error
}

// NewWebSocket returns an unopened WebSocket transport
func NewWebSocket(wsURL string, cfg Config) *WebSocket {
	return &WebSocket{url: wsURL, cfg: cfg}
}

// Open dials the bridge, authenticating with HTTP Basic auth when a
// username and password are configured
func (w *WebSocket) Open() error {
	u, err := url.Parse(w.url)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: timeoutOr(w.cfg.DialTimeout, DefaultConfig().DialTimeout),
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: w.cfg.SkipTLSVerify,
		}
	}

	headers := http.Header{}
	if w.cfg.Username != "" && w.cfg.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(w.cfg.Username + ":" + w.cfg.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, w.url, headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("WebSocket connection failed: %w", err)
	}

	w.conn = conn
	w.messages = make(chan []byte, 16)
	w.done = make(chan struct{})
	w.readErr = nil
	go w.receive(conn, w.messages, w.done)
	return nil
}

// receive forwards binary messages until the connection fails. A read
// deadline would leave a gorilla connection unusable, so reads block here
// and ReadUntil applies its timeout to the channel instead.
func (w *WebSocket) receive(conn *websocket.Conn, messages chan<- []byte, done chan<- struct{}) {
	defer close(done)
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			log.WithError(err).WithField("url", w.url).Debug("WebSocket receive stopped")
			w.mu.Lock()
			w.readErr = err
			w.mu.Unlock()
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		messages <- data
	}
}

// Close closes the connection and waits for the receiver to stop
func (w *WebSocket) Close() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	// drain so a blocked receiver can observe the closed connection
	for stopped := false; !stopped; {
		select {
		case <-w.messages:
		case <-w.done:
			stopped = true
		}
	}
	w.conn = nil
	return err
}

// IsOpen reports whether the connection is open
func (w *WebSocket) IsOpen() bool {
	return w.conn != nil
}

// ResetBuffers discards received messages that have not been read
func (w *WebSocket) ResetBuffers() error {
	if w.conn == nil {
		return ErrClosed
	}
	w.buf.reset()
	for {
		select {
		case <-w.messages:
		default:
			return nil
		}
	}
}

func (w *WebSocket) Write(p []byte) (int, error) {
	if w.conn == nil {
		return 0, ErrClosed
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush is a no-op; each write is sent as one message
func (w *WebSocket) Flush() error {
	return nil
}

// ReadUntil reads up to and including delim or until the timeout expires
func (w *WebSocket) ReadUntil(delim byte, timeout time.Duration) ([]byte, error) {
	if w.conn == nil {
		return nil, ErrClosed
	}
	timeout = timeoutOr(timeout, w.cfg.ReadTimeout)
	return w.buf.readUntil(delim, timeout, func(remaining time.Duration) ([]byte, error) {
		timer := time.NewTimer(remaining)
		defer timer.Stop()

		select {
		case data := <-w.messages:
			return data, nil
		case <-w.done:
			w.mu.Lock()
			defer w.mu.Unlock()
			return nil, w.readErr
		case <-timer.C:
			return nil, nil
		}
	})
}

// String describes the connection for log output
func (w *WebSocket) String() string {
	return fmt.Sprintf("WebSocket: %s", w.url)
}
