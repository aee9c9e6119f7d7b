package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ordersim/venue-simulator/internal/domain"
)

// Listing is the minimal instrument identity the session gateway needs to
// resolve a client's symbol subscription to an instrument id.
type Listing struct {
	InstrumentID uint64
	Symbol       string
}

// wireMessage is the JSON envelope broadcast for one GeneratedMessage.
type wireMessage struct {
	Kind          string    `json:"kind"`
	InstrumentID  uint64    `json:"instrument_id"`
	Symbol        string    `json:"symbol"`
	MessageType   string    `json:"message_type"`
	Side          string    `json:"side,omitempty"`
	Price         string    `json:"price,omitempty"`
	Quantity      string    `json:"quantity,omitempty"`
	ClientOrderID string    `json:"client_order_id,omitempty"`
	OrigClOrdID   string    `json:"orig_client_order_id,omitempty"`
	PartyID       string    `json:"party_id,omitempty"`
	OrderStatus   string    `json:"order_status,omitempty"`
	MessageNumber uint64    `json:"message_number"`
	Timestamp     time.Time `json:"timestamp"`
}

// wirePhaseEvent is the JSON envelope broadcast for one phase transition.
type wirePhaseEvent struct {
	Kind         string    `json:"kind"`
	InstrumentID uint64    `json:"instrument_id"`
	Symbol       string    `json:"symbol"`
	Prev         string    `json:"prev_phase"`
	Next         string    `json:"next_phase"`
	AllowCancels bool      `json:"allow_cancels_on_halt"`
	Timestamp    time.Time `json:"timestamp"`
}

// Manager handles client registration, subscriptions, and message fan-out.
type Manager struct {
	mu         sync.RWMutex
	clients    map[uint64]*Client
	listings   []Listing
	bySymbol   map[string]uint64 // symbol -> instrument id
	bufferSize int
}

// NewManager creates a session manager.
func NewManager(listings []Listing, bufferSize int) *Manager {
	bySymbol := make(map[string]uint64, len(listings))
	for _, l := range listings {
		bySymbol[l.Symbol] = l.InstrumentID
	}
	return &Manager{
		clients:    make(map[uint64]*Client),
		listings:   listings,
		bySymbol:   bySymbol,
		bufferSize: bufferSize,
	}
}

// Register adds a new client. Returns the client for further use.
func (m *Manager) Register(conn *websocket.Conn) *Client {
	c := NewClient(conn, m.bufferSize)

	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()

	log.Printf("client %d connected (%s)", c.ID, conn.RemoteAddr())
	return c
}

// Unregister removes a client.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	delete(m.clients, c.ID)
	m.mu.Unlock()

	c.Close()
	log.Printf("client %d disconnected", c.ID)
}

// ResolveSymbols converts symbol strings to instrument ids.
// Returns all=true for "*" (every instrument).
func (m *Manager) ResolveSymbols(symbols []string) (ids []uint64, all bool) {
	for _, s := range symbols {
		if s == "*" {
			return nil, true
		}
		if id, ok := m.bySymbol[s]; ok {
			ids = append(ids, id)
		}
	}
	return ids, false
}

// Broadcast sends a batch of generated messages for one instrument to every
// subscribed client. Messages are JSON-encoded once per call and fanned out.
func (m *Manager) Broadcast(instrumentID uint64, symbol string, msgs []domain.GeneratedMessage) {
	if len(msgs) == 0 {
		return
	}

	var encoded [][]byte
	var once sync.Once

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		if !c.IsSubscribed(instrumentID) {
			continue
		}
		once.Do(func() {
			encoded = encodeMessages(instrumentID, symbol, msgs)
		})
		for _, data := range encoded {
			c.Send(data) // buffer full: message dropped, counted on the client
		}
	}
}

// BroadcastPhase sends one phase-transition event to every client subscribed
// to instrumentID.
func (m *Manager) BroadcastPhase(instrumentID uint64, symbol string, prev, next domain.TradingPhase, allowCancels bool) {
	evt := wirePhaseEvent{
		Kind:         "phase",
		InstrumentID: instrumentID,
		Symbol:       symbol,
		Prev:         prev.String(),
		Next:         next.String(),
		AllowCancels: allowCancels,
		Timestamp:    time.Now(),
	}
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("session: encode phase event: %v", err)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.clients {
		if !c.IsSubscribed(instrumentID) {
			continue
		}
		c.Send(data)
	}
}

// SendTo sends messages directly to a specific client.
func (m *Manager) SendTo(c *Client, instrumentID uint64, symbol string, msgs []domain.GeneratedMessage) {
	for _, data := range encodeMessages(instrumentID, symbol, msgs) {
		c.Send(data)
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Listings returns the configured instrument listings.
func (m *Manager) Listings() []Listing {
	return m.listings
}

func encodeMessages(instrumentID uint64, symbol string, msgs []domain.GeneratedMessage) [][]byte {
	now := time.Now()
	out := make([][]byte, 0, len(msgs))
	for _, msg := range msgs {
		wire := wireMessage{
			Kind:          "message",
			InstrumentID:  instrumentID,
			Symbol:        symbol,
			MessageType:   msg.MessageType.String(),
			Side:          msg.Side.String(),
			Price:         msg.Price.String(),
			Quantity:      msg.Quantity.String(),
			ClientOrderID: msg.ClientOrderID,
			OrigClOrdID:   msg.OrigClientOrderID,
			PartyID:       msg.Party.PartyID,
			OrderStatus:   msg.OrderStatus.String(),
			MessageNumber: msg.MessageNumber,
			Timestamp:     now,
		}
		data, err := json.Marshal(wire)
		if err != nil {
			log.Printf("session: encode message: %v", err)
			continue
		}
		out = append(out, data)
	}
	return out
}
