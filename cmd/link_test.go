// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"

	"github.com/Thermoquad/refstat/internal/config"
	"github.com/Thermoquad/refstat/pkg/referee"
)

// scriptedConn returns one scripted read per call, then err. A nil entry is
// a read that timed out.
type scriptedConn struct {
	reads   [][]byte
	err     error
	timeout time.Duration
	written bytes.Buffer
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	if len(c.reads) == 0 {
		return 0, c.err
	}
	n := copy(p, c.reads[0])
	c.reads = c.reads[1:]
	return n, nil
}

func (c *scriptedConn) Write(p []byte) (int, error) { return c.written.Write(p) }
func (c *scriptedConn) Close() error                { return nil }

func (c *scriptedConn) SetReadTimeout(d time.Duration) error {
	c.timeout = d
	return nil
}

// ============================================================
// Link Tests
// ============================================================

func TestLinkRun_SplitFrameAndQuietReads(t *testing.T) {
	frame, err := referee.EncodeFrame(3, referee.CmdGameResult, []byte{0x02})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	conn := &scriptedConn{
		reads: [][]byte{frame[:4], nil, nil, frame[4:]},
		err:   ErrConnectionClosed,
	}
	l := &link{conn: conn, session: referee.NewSession()}

	polls := 0
	if err := l.run(context.Background(), func() error { polls++; return nil }); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := l.session.Snapshot().GameResult.Winner; got != 2 {
		t.Errorf("winner = %d, expected 2", got)
	}
	if polls != 4 {
		t.Errorf("afterPoll ran %d times, expected 4", polls)
	}
}

func TestLinkRun_Stops(t *testing.T) {
	t.Run("errStop", func(t *testing.T) {
		l := &link{conn: &scriptedConn{reads: make([][]byte, 10)}, session: referee.NewSession()}
		polls := 0
		err := l.run(context.Background(), func() error {
			polls++
			if polls == 3 {
				return errStop
			}
			return nil
		})
		if err != nil || polls != 3 {
			t.Errorf("run = %v after %d polls, expected nil after 3", err, polls)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		l := &link{conn: &scriptedConn{reads: make([][]byte, 10)}, session: referee.NewSession()}
		if err := l.run(ctx, nil); err != nil {
			t.Errorf("run = %v, expected nil", err)
		}
	})

	t.Run("read error", func(t *testing.T) {
		wantErr := errors.New("port gone")
		l := &link{conn: &scriptedConn{err: wantErr}, session: referee.NewSession()}
		if err := l.run(context.Background(), nil); !errors.Is(err, wantErr) {
			t.Errorf("run = %v, expected %v", err, wantErr)
		}
	})
}

// ============================================================
// Serial Tests
// ============================================================

func TestSerialMode(t *testing.T) {
	mode, err := serialMode(config.Default().Serial)
	if err != nil {
		t.Fatalf("serialMode: %v", err)
	}
	if mode.BaudRate != 115200 || mode.DataBits != 8 || mode.Parity != serial.NoParity || mode.StopBits != serial.OneStopBit {
		t.Errorf("default mode = %+v, expected 115200 8N1", mode)
	}

	mode, err = serialMode(config.SerialConfig{Baud: 9600, DataBits: 7, Parity: "even", StopBits: 2})
	if err != nil {
		t.Fatalf("serialMode: %v", err)
	}
	if mode.Parity != serial.EvenParity || mode.StopBits != serial.TwoStopBits {
		t.Errorf("mode = %+v, expected 7E2", mode)
	}

	if _, err := serialMode(config.SerialConfig{Baud: 9600, DataBits: 8, Parity: "mark", StopBits: 1}); err == nil {
		t.Error("expected error for mark parity")
	}
	if got := lineSettings(config.SerialConfig{DataBits: 8, Parity: "odd", StopBits: 1}); got != "8O1" {
		t.Errorf("lineSettings = %q, expected 8O1", got)
	}
}

// ============================================================
// WebSocket Tests
// ============================================================

// startBridge runs serve on every upgraded connection and returns a ws:// URL
func startBridge(t *testing.T, serve func(*websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()
		serve(c)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// waitClosed reads until the client goes away
func waitClosed(c *websocket.Conn) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func dialBridge(t *testing.T, url string) *WebSocketConnection {
	t.Helper()
	ws, err := OpenWebSocketConnection(context.Background(), config.WebSocketConfig{URL: url}, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestWebSocketConnection_ReadSplitsMessages(t *testing.T) {
	url := startBridge(t, func(c *websocket.Conn) {
		c.WriteMessage(websocket.TextMessage, []byte("status"))
		c.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3, 4, 5})
		c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		waitClosed(c)
	})
	ws := dialBridge(t, url)
	ws.SetReadTimeout(time.Second)

	p := make([]byte, 3)
	if n, err := ws.Read(p); err != nil || !bytes.Equal(p[:n], []byte{1, 2, 3}) {
		t.Fatalf("first read = % X, %v", p[:n], err)
	}
	if n, err := ws.Read(p); err != nil || !bytes.Equal(p[:n], []byte{4, 5}) {
		t.Fatalf("second read = % X, %v", p[:n], err)
	}
	if _, err := ws.Read(p); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("read after close frame = %v, expected ErrConnectionClosed", err)
	}
}

func TestWebSocketConnection_ReadTimeout(t *testing.T) {
	url := startBridge(t, waitClosed)
	ws := dialBridge(t, url)
	ws.SetReadTimeout(20 * time.Millisecond)

	start := time.Now()
	n, err := ws.Read(make([]byte, 8))
	if n != 0 || err != nil {
		t.Errorf("idle read = %d, %v; expected 0, nil", n, err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("idle read took %v", elapsed)
	}

	ws.Close()
	if _, err := ws.Read(make([]byte, 8)); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("read after Close = %v, expected ErrConnectionClosed", err)
	}
}

func TestWebSocketConnection_CloseWithUnreadMessages(t *testing.T) {
	url := startBridge(t, func(c *websocket.Conn) {
		for i := 0; i < 64; i++ {
			if err := c.WriteMessage(websocket.BinaryMessage, []byte{byte(i)}); err != nil {
				return
			}
		}
		waitClosed(c)
	})
	ws := dialBridge(t, url)

	// nobody reads: the pump fills its queue and blocks on the next message
	deadline := time.Now().Add(2 * time.Second)
	for len(ws.msgs) < cap(ws.msgs) {
		if time.Now().After(deadline) {
			t.Fatalf("queue holds %d messages, expected %d", len(ws.msgs), cap(ws.msgs))
		}
		time.Sleep(5 * time.Millisecond)
	}

	closed := make(chan struct{})
	go func() {
		ws.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return while messages were unread")
	}
}

func TestWebSocketConnection_FeedsSession(t *testing.T) {
	frame, err := referee.EncodeFrame(3, referee.CmdGameResult, []byte{0x01})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	url := startBridge(t, func(c *websocket.Conn) {
		c.WriteMessage(websocket.BinaryMessage, frame[:6])
		c.WriteMessage(websocket.BinaryMessage, frame[6:])
		c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		waitClosed(c)
	})
	ws := dialBridge(t, url)
	ws.SetReadTimeout(time.Second)

	l := &link{conn: ws, session: referee.NewSession()}
	if err := l.run(context.Background(), nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := l.session.Snapshot().GameResult.Winner; got != 1 {
		t.Errorf("winner = %d, expected 1", got)
	}
}

func TestResolveIdentity_FromFlag(t *testing.T) {
	ident, err := resolveIdentity(context.Background(), nil, uint8(referee.BlueStandard4), time.Second)
	if err != nil {
		t.Fatalf("resolveIdentity: %v", err)
	}
	if ident.ClientID != 0x0100+uint16(referee.BlueStandard4) || ident.Alliance != referee.AllianceBlue {
		t.Errorf("identity = %+v", ident)
	}

	_, err = resolveIdentity(context.Background(), nil, 50, time.Second)
	if err == nil || !strings.Contains(err.Error(), "unknown robot id 50") {
		t.Errorf("err = %v, expected unknown robot id", err)
	}
}
