// Command replaywatch connects to the venue simulator's WebSocket feed,
// subscribes to symbols, and prints every generated order message and phase
// transition in human-readable form.
//
// Usage:
//
//	replaywatch                              # connect to localhost:8100, subscribe to all
//	replaywatch -url ws://host:8100/feed      # custom endpoint
//	replaywatch -symbols NEXO,QBIT            # subscribe to specific symbols
//	replaywatch -raw                          # print raw JSON instead of formatted lines
//	replaywatch -stats 10                     # print message rate stats every N seconds
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	url := flag.String("url", "ws://localhost:8100/feed", "WebSocket endpoint")
	symbols := flag.String("symbols", "*", "Comma-separated symbols or * for all")
	raw := flag.Bool("raw", false, "Print raw JSON instead of formatted lines")
	statsInterval := flag.Int("stats", 0, "Print message rate stats every N seconds (0 = off)")
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	log.Printf("connecting to %s", *url)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	log.Println("connected")

	symList := strings.Split(*symbols, ",")
	sendControl(conn, controlMessage{Action: "subscribe", Symbols: symList})
	log.Printf("subscribed to %s", *symbols)

	var msgCount uint64
	if *statsInterval > 0 {
		go printStats(&msgCount, *statsInterval)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Println("shutting down...")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(200 * time.Millisecond)
		os.Exit(0)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("read: %v", err)
		}
		atomic.AddUint64(&msgCount, 1)

		if *raw {
			fmt.Println(string(data))
			continue
		}
		printEnvelope(data)
	}
}

// controlMessage is the client -> server control frame accepted by
// internal/session's readPump.
type controlMessage struct {
	Action  string   `json:"action"`
	Symbols []string `json:"symbols,omitempty"`
}

func sendControl(conn *websocket.Conn, msg controlMessage) {
	data, _ := json.Marshal(msg)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Fatalf("send control: %v", err)
	}
}

func printStats(msgCount *uint64, intervalSec int) {
	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()
	var last uint64
	for range ticker.C {
		cur := atomic.LoadUint64(msgCount)
		delta := cur - last
		rate := float64(delta) / float64(intervalSec)
		log.Printf("[stats] %d msgs total | %.1f msgs/sec", cur, rate)
		last = cur
	}
}

// kindEnvelope peeks at the "kind" discriminator shared by every wire
// message internal/session emits (listings, message, phase).
type kindEnvelope struct {
	Kind string `json:"kind"`
}

type listingsEnvelope struct {
	Listings []struct {
		InstrumentID uint64 `json:"InstrumentID"`
		Symbol       string `json:"Symbol"`
	} `json:"listings"`
}

type messageEnvelope struct {
	InstrumentID  uint64 `json:"instrument_id"`
	Symbol        string `json:"symbol"`
	MessageType   string `json:"message_type"`
	Side          string `json:"side"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	ClientOrderID string `json:"client_order_id"`
	OrigClOrdID   string `json:"orig_client_order_id"`
	PartyID       string `json:"party_id"`
	OrderStatus   string `json:"order_status"`
	MessageNumber uint64 `json:"message_number"`
}

type phaseEnvelope struct {
	InstrumentID uint64 `json:"instrument_id"`
	Symbol       string `json:"symbol"`
	Prev         string `json:"prev_phase"`
	Next         string `json:"next_phase"`
	AllowCancels bool   `json:"allow_cancels_on_halt"`
}

func printEnvelope(data []byte) {
	var env kindEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		fmt.Printf("??? undecodable frame: %v\n", err)
		return
	}

	switch env.Kind {
	case "listings":
		var l listingsEnvelope
		if err := json.Unmarshal(data, &l); err != nil {
			fmt.Printf("LISTINGS undecodable: %v\n", err)
			return
		}
		var names []string
		for _, li := range l.Listings {
			names = append(names, fmt.Sprintf("%s(%d)", li.Symbol, li.InstrumentID))
		}
		fmt.Printf("LISTINGS %s\n", strings.Join(names, ", "))

	case "message":
		var m messageEnvelope
		if err := json.Unmarshal(data, &m); err != nil {
			fmt.Printf("MESSAGE  undecodable: %v\n", err)
			return
		}
		fmt.Printf("MESSAGE  #%-8d %-8s %-12s %-4s %8s @ %-10s clOrdID=%-10s status=%s party=%s\n",
			m.MessageNumber, m.Symbol, m.MessageType, m.Side, m.Quantity, m.Price, m.ClientOrderID, m.OrderStatus, m.PartyID)

	case "phase":
		var p phaseEnvelope
		if err := json.Unmarshal(data, &p); err != nil {
			fmt.Printf("PHASE    undecodable: %v\n", err)
			return
		}
		fmt.Printf("PHASE    %-8s %s -> %s  allowCancelsOnHalt=%v\n", p.Symbol, p.Prev, p.Next, p.AllowCancels)

	default:
		fmt.Printf("UNKNOWN  kind=%q\n", env.Kind)
	}
}
