package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var errConnClosed = errors.New("connection closed")

// fakeConn satisfies Conn in memory so hub tests run without a network.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errConnClosed
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return 0, nil, errConnClosed
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) SetReadDeadline(t time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(t time.Time) error  { return nil }
func (f *fakeConn) SetReadLimit(limit int64)            {}
func (f *fakeConn) SetPongHandler(h func(string) error) {}

func newTestHub() *Hub {
	return NewHub(nil)
}

// attachClient wires a fake connection straight into the hub, bypassing the
// register channel so tests stay synchronous.
func attachClient(h *Hub) *Client {
	client := NewClient(h, &fakeConn{})
	h.registerClient(client)
	return client
}

// drainEvents decodes everything currently buffered for the client.
func drainEvents(c *Client) []ServerEvent {
	var events []ServerEvent
	for {
		select {
		case data := <-c.send:
			var event ServerEvent
			if err := json.Unmarshal(data, &event); err == nil {
				events = append(events, event)
			}
		default:
			return events
		}
	}
}

func eventNames(events []ServerEvent) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Event)
	}
	return names
}
