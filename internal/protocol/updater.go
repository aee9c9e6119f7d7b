package protocol

import (
	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/registry"
)

// Updater is the Registry Updater of spec §4.10: it mutates one
// instrument's Order Registry in response to inbound venue replies,
// converted to GeneratedMessage by FromReply (ApplyInbound). Outbound-only
// message shapes are registry actions taken when the generator's
// own emission is accepted, not when a reply arrives — see ApplyOutbound.
type Updater struct {
	registry *registry.Registry
}

// NewUpdater constructs an Updater bound to reg.
func NewUpdater(reg *registry.Registry) *Updater {
	return &Updater{registry: reg}
}

// ApplyOutbound runs the "outbound only" half of spec §4.10's table: a
// NewOrderSingle the generator emitted is added to the registry at
// emission time (not on confirmation, since the spec treats the emission
// itself as the add point for resting orders), and an accepted
// OrderCancelReplaceRequest re-indexes the existing entry. Aggressive
// (non-resting) messages are ignored, per §4.10's final paragraph.
func (u *Updater) ApplyOutbound(msg domain.GeneratedMessage) bool {
	if !msg.IsResting() {
		return true
	}
	switch msg.MessageType {
	case domain.NewOrderSingle:
		return u.registry.Add(domain.OrderData{
			OrderID: msg.ClientOrderID,
			OwnerID: msg.Party.PartyID,
			Price:   msg.Price,
			Qty:     msg.Quantity,
			Side:    msg.Side,
		})
	case domain.OrderCancelReplaceRequest:
		newID := msg.ClientOrderID
		newPrice := msg.Price
		newQty := msg.Quantity
		return u.registry.UpdateByID(msg.OrigClientOrderID, domain.OrderPatch{
			NewOrderID: &newID,
			NewPrice:   &newPrice,
			NewQty:     &newQty,
		})
	case domain.OrderCancelRequest:
		// Removal deferred to the cancel confirmation (§4.10).
		return true
	default:
		return true
	}
}

// ApplyInbound runs the ExecutionReport half of spec §4.10's table plus the
// cancel-confirmation removal that OrderCancelRequest defers to. msg is the
// result of FromReply on an inbound venue reply.
func (u *Updater) ApplyInbound(msg domain.GeneratedMessage) bool {
	switch msg.MessageType {
	case domain.OrderCancelRequest:
		// Cancellation confirmation: remove now.
		_, ok := u.registry.RemoveByID(msg.OrigClientOrderID)
		return ok
	case domain.ExecutionReport:
		switch msg.OrderStatus {
		case domain.OrderStatusNew, domain.OrderStatusModified:
			return true // no-op: already reflected by the outbound path
		case domain.OrderStatusPartiallyFilled:
			leaves := msg.LeavesQty
			return u.registry.UpdateByID(msg.ClientOrderID, domain.OrderPatch{NewQty: &leaves})
		case domain.OrderStatusFilled, domain.OrderStatusCancelled, domain.OrderStatusRejected:
			_, ok := u.registry.RemoveByID(msg.ClientOrderID)
			return ok
		default:
			return true
		}
	default:
		return true
	}
}
