// Package dispatch wires the Random Generation Algorithm and the Historical
// Replier to the venue's Trading Request/Reply Channel (spec §6) and the
// Registry Updater (spec §4.10): outbound messages are converted, sent, and
// reflected into the registry at emission time; inbound replies are
// converted, reflected into the registry, and fanned out to session
// subscribers and the archiver. This is the glue the teacher's main.go
// inlines directly between orderbook.Simulator and session.Manager.Broadcast
// — split out here because a single venue reply pump now serves every
// instrument instead of one per-symbol loop owning its own book.
package dispatch

import (
	"log"

	"github.com/ordersim/venue-simulator/internal/archive"
	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/instrument"
	"github.com/ordersim/venue-simulator/internal/metrics"
	"github.com/ordersim/venue-simulator/internal/protocol"
	"github.com/ordersim/venue-simulator/internal/session"
	"github.com/ordersim/venue-simulator/internal/venue"
)

// Dispatcher implements both randomgen.Publisher/historical.Publisher
// (outbound) and venue.ReplyHandler (inbound) for every instrument sharing
// one venue channel.
type Dispatcher struct {
	channel  venue.RequestChannel
	mgr      *session.Manager
	archiver *archive.Archiver

	byInstrument map[uint64]*instrument.Context
	updaters     map[uint64]*protocol.Updater
}

// New constructs a Dispatcher bound to channel, fanning out to mgr and
// recording every outbound/inbound message to archiver (which may be nil to
// disable archival).
func New(channel venue.RequestChannel, mgr *session.Manager, archiver *archive.Archiver) *Dispatcher {
	return &Dispatcher{
		channel:      channel,
		mgr:          mgr,
		archiver:     archiver,
		byInstrument: make(map[uint64]*instrument.Context),
		updaters:     make(map[uint64]*protocol.Updater),
	}
}

// Register binds ctx's Order Registry to the dispatcher so replies for its
// instrument can be applied and broadcast.
func (d *Dispatcher) Register(ctx *instrument.Context) {
	d.byInstrument[ctx.Descriptor.InstrumentID] = ctx
	d.updaters[ctx.Descriptor.InstrumentID] = protocol.NewUpdater(ctx.Registry)
}

// Publish implements randomgen.Publisher and historical.Publisher: it
// converts msg to a venue request, sends it, and — on success — applies the
// outbound half of the Registry Updater and fans the message out.
func (d *Dispatcher) Publish(ctx *instrument.Context, msg domain.GeneratedMessage) bool {
	req, err := protocol.ToRequest(msg)
	if err != nil {
		log.Printf("dispatch: %s: %v", ctx.Descriptor.Symbol, err)
		return false
	}

	if err := d.send(req); err != nil {
		log.Printf("dispatch: %s: venue channel: %v", ctx.Descriptor.Symbol, err)
		return false
	}

	if updater, ok := d.updaters[ctx.Descriptor.InstrumentID]; ok {
		updater.ApplyOutbound(msg)
	}
	d.record(ctx, msg)
	return true
}

func (d *Dispatcher) send(req any) error {
	switch r := req.(type) {
	case venue.OrderPlacementRequest:
		return d.channel.PlaceOrder(r)
	case venue.OrderModificationRequest:
		return d.channel.ModifyOrder(r)
	case venue.OrderCancellationRequest:
		return d.channel.CancelOrder(r)
	default:
		return nil
	}
}

// record fans msg out to subscribed session clients, archives it, and
// updates its instrument's metrics.
func (d *Dispatcher) record(ctx *instrument.Context, msg domain.GeneratedMessage) {
	msg.Instrument = ctx.Descriptor
	if d.mgr != nil {
		d.mgr.Broadcast(ctx.Descriptor.InstrumentID, ctx.Descriptor.Symbol, []domain.GeneratedMessage{msg})
	}
	if d.archiver != nil {
		d.archiver.Record(msg)
	}
	metrics.RecordMessage(ctx.Descriptor.Symbol, msg.MessageType.String())
	metrics.SetRegistrySize(ctx.Descriptor.Symbol, ctx.Registry.Len())
}

func (d *Dispatcher) handleReply(instrumentID uint64, reply any) {
	ctx, ok := d.byInstrument[instrumentID]
	if !ok {
		log.Printf("dispatch: reply for unknown instrument %d ignored", instrumentID)
		return
	}

	msg, err := protocol.FromReply(reply)
	if err != nil {
		log.Printf("dispatch: %s: %v", ctx.Descriptor.Symbol, err)
		return
	}

	if updater, ok := d.updaters[instrumentID]; ok {
		updater.ApplyInbound(msg)
	}
	msg.MessageNumber = ctx.NextMessageNumber()
	d.record(ctx, msg)
}

// OnPlacementConfirmation implements venue.ReplyHandler.
func (d *Dispatcher) OnPlacementConfirmation(c venue.OrderPlacementConfirmation) {
	d.handleReply(c.InstrumentID, c)
}

// OnPlacementReject implements venue.ReplyHandler.
func (d *Dispatcher) OnPlacementReject(c venue.OrderPlacementReject) {
	d.handleReply(c.InstrumentID, c)
}

// OnModificationConfirmation implements venue.ReplyHandler.
func (d *Dispatcher) OnModificationConfirmation(c venue.OrderModificationConfirmation) {
	d.handleReply(c.InstrumentID, c)
}

// OnCancellationConfirmation implements venue.ReplyHandler.
func (d *Dispatcher) OnCancellationConfirmation(c venue.OrderCancellationConfirmation) {
	d.handleReply(c.InstrumentID, c)
}

// OnExecutionReport implements venue.ReplyHandler.
func (d *Dispatcher) OnExecutionReport(c venue.ExecutionReport) {
	d.handleReply(c.InstrumentID, c)
}
