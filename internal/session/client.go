// Package session fans generated order-flow messages and phase-transition
// events out to WebSocket subscribers, adapted from the teacher's ITCH
// client/manager pair: a registered Client owns a buffered send channel a
// dedicated write pump drains and tracks its own per-instrument
// subscriptions, and the Manager fans messages out to subscribed clients.
// The wire format is JSON-only, since GeneratedMessage has
// no canonical binary encoding the way an ITCH message does — the
// teacher's Format enum and binary encode path are dropped accordingly.
package session

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Client represents a connected WebSocket client.
type Client struct {
	ID   uint64
	Conn *websocket.Conn

	mu          sync.RWMutex
	instruments map[uint64]bool // instrument id -> subscribed
	allInstr    bool            // subscribed to every instrument

	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once

	Dropped uint64
}

var clientIDCounter uint64

// NewClient creates a new client wrapping a WebSocket connection.
func NewClient(conn *websocket.Conn, bufferSize int) *Client {
	return &Client{
		ID:          atomic.AddUint64(&clientIDCounter, 1),
		Conn:        conn,
		instruments: make(map[uint64]bool),
		sendCh:      make(chan []byte, bufferSize),
		done:        make(chan struct{}),
	}
}

// Subscribe adds instruments to the client's subscription.
func (c *Client) Subscribe(instrumentIDs []uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range instrumentIDs {
		c.instruments[id] = true
	}
}

// SubscribeAll subscribes the client to every instrument.
func (c *Client) SubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allInstr = true
}

// Unsubscribe removes instruments from the client's subscription.
func (c *Client) Unsubscribe(instrumentIDs []uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range instrumentIDs {
		delete(c.instruments, id)
	}
}

// IsSubscribed reports whether the client receives messages for instrumentID.
func (c *Client) IsSubscribed(instrumentID uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.allInstr {
		return true
	}
	return c.instruments[instrumentID]
}

// IsAllSubscribed reports whether the client subscribed to every instrument.
func (c *Client) IsAllSubscribed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allInstr
}

// SubscribedInstruments returns the explicitly subscribed instrument ids, or
// nil if the client is subscribed to everything.
func (c *Client) SubscribedInstruments() []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.allInstr {
		return nil
	}
	ids := make([]uint64, 0, len(c.instruments))
	for id := range c.instruments {
		ids = append(ids, id)
	}
	return ids
}

// Send enqueues data to be sent to the client. Returns false if the buffer
// is full (message dropped).
func (c *Client) Send(data []byte) bool {
	select {
	case c.sendCh <- data:
		return true
	default:
		atomic.AddUint64(&c.Dropped, 1)
		return false
	}
}

// SendCh returns the send channel for the write pump.
func (c *Client) SendCh() <-chan []byte {
	return c.sendCh
}

// Done returns a channel that is closed when the client is disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close terminates the client connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}
