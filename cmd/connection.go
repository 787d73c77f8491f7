// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/Thermoquad/refstat/internal/config"
)

// EnvPassword holds the WebSocket bridge password
const EnvPassword = "REFSTAT_PASSWORD"

// ErrConnectionClosed is returned by Read once the link has gone away
var ErrConnectionClosed = errors.New("connection closed")

// Connection is the byte transport to the referee box. Read waits at most
// the read timeout and returns 0, nil when nothing arrived, which is what
// Session.Poll expects from a quiet link.
type Connection interface {
	io.ReadWriteCloser
	SetReadTimeout(d time.Duration) error
}

// SerialConnection is the referee UART
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// SetReadTimeout bounds each Read. Zero or less blocks until data arrives.
func (s *SerialConnection) SetReadTimeout(d time.Duration) error {
	if d <= 0 {
		d = serial.NoTimeout
	}
	return s.port.SetReadTimeout(d)
}

// serialMode maps the configured line settings onto a serial.Mode
func serialMode(cfg config.SerialConfig) (*serial.Mode, error) {
	mode := &serial.Mode{BaudRate: cfg.Baud, DataBits: cfg.DataBits}

	switch cfg.Parity {
	case "none", "":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", cfg.Parity)
	}

	switch cfg.StopBits {
	case 1, 0:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", cfg.StopBits)
	}
	return mode, nil
}

// lineSettings formats data bits, parity and stop bits as in "8N1"
func lineSettings(cfg config.SerialConfig) string {
	parity := "N"
	switch cfg.Parity {
	case "odd":
		parity = "O"
	case "even":
		parity = "E"
	}
	return fmt.Sprintf("%d%s%d", cfg.DataBits, parity, cfg.StopBits)
}

// OpenSerialConnection opens the port and drops whatever the driver
// buffered before we got there, so the first poll starts on fresh bytes
func OpenSerialConnection(cfg config.SerialConfig) (*SerialConnection, error) {
	mode, err := serialMode(cfg)
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("reset serial input %s: %w", cfg.Port, err)
	}
	return &SerialConnection{port: port}, nil
}

// WebSocketConnection reads a serial bridge that forwards the UART in binary
// messages. A pump goroutine receives messages until Close; Read takes them
// with the configured timeout.
type WebSocketConnection struct {
	conn *websocket.Conn

	msgs      chan []byte
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	err       error // set by pump before msgs is closed

	timeout time.Duration
	pending []byte
}

func newWebSocketConnection(conn *websocket.Conn) *WebSocketConnection {
	w := &WebSocketConnection{
		conn: conn,
		msgs:    make(chan []byte, 16),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.pump()
	return w
}

func (w *WebSocketConnection) pump() {
	defer close(w.stopped)
	defer close(w.msgs)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.err = err
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		select {
		case w.msgs <- data:
		case <-w.done:
			return
		}
	}
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	select {
	case <-w.done:
		return 0, ErrConnectionClosed
	default:
	}

	if len(w.pending) == 0 {
		var expired <-chan time.Time
		if w.timeout > 0 {
			timer := time.NewTimer(w.timeout)
			defer timer.Stop()
			expired = timer.C
		}

		select {
		case data, ok := <-w.msgs:
			if !ok {
				return 0, w.closedErr()
			}
			w.pending = data
		case <-w.done:
			return 0, ErrConnectionClosed
		case <-expired:
			return 0, nil
		}
	}

	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

// closedErr reports why the pump stopped. A close frame from the bridge or
// our own Close is a normal end of stream.
func (w *WebSocketConnection) closedErr() error {
	select {
	case <-w.done:
		return ErrConnectionClosed
	default:
	}
	if w.err == nil || websocket.IsCloseError(w.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return ErrConnectionClosed
	}
	return fmt.Errorf("websocket read: %w", w.err)
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the socket and waits for the pump to exit, even when no
// one is reading its messages
func (w *WebSocketConnection) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.conn.Close()
		<-w.stopped
	})
	return err
}

func (w *WebSocketConnection) SetReadTimeout(d time.Duration) error {
	w.timeout = d
	return nil
}

// OpenWebSocketConnection dials a serial bridge. password is only sent when
// a username is configured.
func OpenWebSocketConnection(ctx context.Context, cfg config.WebSocketConfig, password string) (*WebSocketConnection, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.NoSSLVerify}
	}

	headers := http.Header{}
	if cfg.Username != "" {
		token := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + password))
		headers.Set("Authorization", "Basic "+token)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, cfg.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}
	return newWebSocketConnection(conn), nil
}

// bridgePassword takes the password from EnvPassword, else prompts on the
// terminal, else reads one line from stdin
func bridgePassword() (string, error) {
	if pw := os.Getenv(EnvPassword); pw != "" {
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// OpenConnection opens the WebSocket bridge when a URL is configured, else
// the serial port, and applies the session poll interval as read timeout
func OpenConnection(ctx context.Context, cfg config.Config) (Connection, string, error) {
	var (
		conn Connection
		info string
	)

	switch {
	case cfg.WebSocket.URL != "":
		password := ""
		if cfg.WebSocket.Username != "" {
			var err error
			if password, err = bridgePassword(); err != nil {
				return nil, "", err
			}
		}
		ws, err := OpenWebSocketConnection(ctx, cfg.WebSocket, password)
		if err != nil {
			return nil, "", err
		}
		conn, info = ws, fmt.Sprintf("WebSocket: %s", cfg.WebSocket.URL)

	case cfg.Serial.Port != "":
		sc, err := OpenSerialConnection(cfg.Serial)
		if err != nil {
			return nil, "", err
		}
		conn = sc
		info = fmt.Sprintf("Serial: %s @ %d baud %s", cfg.Serial.Port, cfg.Serial.Baud, lineSettings(cfg.Serial))

	default:
		return nil, "", errors.New("either --port or --url must be specified")
	}

	if err := conn.SetReadTimeout(cfg.Session.PollInterval); err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("set read timeout: %w", err)
	}
	return conn, info, nil
}
