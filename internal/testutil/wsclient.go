package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Frame is a decoded JSON websocket frame.
type Frame map[string]any

// Type returns the frame's "type" discriminator.
func (f Frame) Type() string {
	s, _ := f["type"].(string)
	return s
}

// WSClient is a websocket JSON test client for integration testing.
type WSClient struct {
	conn *websocket.Conn
	t    testing.TB
}

// NewWSClient dials the websocket at url, which may use an http:// scheme.
//
// Precondition: url must point at a listening websocket endpoint.
// Postcondition: Returns a connected WSClient closed at test cleanup, or
// fails the test.
func NewWSClient(t testing.TB, url string) *WSClient {
	t.Helper()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url = "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", url, err, time.Since(start))
	}
	t.Cleanup(func() {
		conn.Close(websocket.StatusNormalClosure, "")
	})

	t.Logf("websocket client connected to %s [%s]", url, time.Since(start))
	return &WSClient{conn: conn, t: t}
}

// Send writes v as one JSON text frame.
func (c *WSClient) Send(v any) {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, c.conn, v); err != nil {
		c.t.Fatalf("sending %v: %v", v, err)
	}
}

// SendRaw writes data as a text frame without encoding it.
func (c *WSClient) SendRaw(data []byte) {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		c.t.Fatalf("sending %q: %v", data, err)
	}
}

// Read returns the next frame, failing the test after timeout.
func (c *WSClient) Read(timeout time.Duration) Frame {
	c.t.Helper()
	f, err := c.TryRead(timeout)
	if err != nil {
		c.t.Fatalf("reading frame: %v", err)
	}
	return f
}

// TryRead returns the next frame or the error that prevented reading one
// within timeout.
func (c *WSClient) TryRead(timeout time.Duration) (Frame, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	var f Frame
	err := wsjson.Read(ctx, c.conn, &f)
	return f, err
}

// ReadUntil returns every frame up to and including the first of type typ.
//
// Precondition: typ must be non-empty.
// Postcondition: The last returned frame has type typ, or the test fails on
// timeout.
func (c *WSClient) ReadUntil(typ string, timeout time.Duration) []Frame {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	var out []Frame
	for {
		f, err := c.TryRead(time.Until(deadline))
		if err != nil {
			c.t.Fatalf("reading until %q: got %d frames, error: %v", typ, len(out), err)
		}
		out = append(out, f)
		if f.Type() == typ {
			return out
		}
	}
}
