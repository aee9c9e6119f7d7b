// Package protocol adapts domain.GeneratedMessage to and from the venue
// wire types of spec §6, and implements the Registry Updater of spec §4.10.
package protocol

import (
	"fmt"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/simerrors"
	"github.com/ordersim/venue-simulator/internal/venue"
)

// ToRequest converts an outbound GeneratedMessage into the wire request the
// venue's Trading Request Channel expects. msg.Instrument.InstrumentID must
// already be populated.
func ToRequest(msg domain.GeneratedMessage) (any, error) {
	switch msg.MessageType {
	case domain.NewOrderSingle:
		return venue.OrderPlacementRequest{
			InstrumentID:  msg.Instrument.InstrumentID,
			ClientOrderID: msg.ClientOrderID,
			Side:          msg.Side,
			OrderType:     msg.OrderType,
			TimeInForce:   msg.TimeInForce,
			Price:         msg.Price,
			Quantity:      msg.Quantity,
			Party:         msg.Party,
		}, nil
	case domain.OrderCancelReplaceRequest:
		return venue.OrderModificationRequest{
			InstrumentID:      msg.Instrument.InstrumentID,
			ClientOrderID:     msg.ClientOrderID,
			OrigClientOrderID: msg.OrigClientOrderID,
			Price:             msg.Price,
			Quantity:          msg.Quantity,
			Party:             msg.Party,
		}, nil
	case domain.OrderCancelRequest:
		return venue.OrderCancellationRequest{
			InstrumentID:      msg.Instrument.InstrumentID,
			OrigClientOrderID: msg.OrigClientOrderID,
			Party:             msg.Party,
		}, nil
	default:
		return nil, fmt.Errorf("protocol: cannot convert message type %v to a request: %w", msg.MessageType, simerrors.ErrInvalidArgument)
	}
}

// FromReply converts an inbound venue reply into the canonical
// GeneratedMessage form, validating the mandatory fields spec §7's
// InvalidArgument taxonomy entry requires (non-empty client_order_id, and
// for placements/modifications a non-empty owner party_id).
//
// Round-trip law (spec §8): for any OrderPlacementConfirmation c,
// FromReply(c) yields client_order_id/side/order_type/time_in_force/price
// equal to c's, with order_status = New.
func FromReply(reply any) (domain.GeneratedMessage, error) {
	switch r := reply.(type) {
	case venue.OrderPlacementConfirmation:
		if r.ClientOrderID == "" {
			return domain.GeneratedMessage{}, invalidArg("placement confirmation missing client_order_id")
		}
		if r.Party.PartyID == "" {
			return domain.GeneratedMessage{}, invalidArg("placement confirmation missing owner party_id")
		}
		return domain.GeneratedMessage{
			MessageType:   domain.NewOrderSingle,
			ClientOrderID: r.ClientOrderID,
			Side:          r.Side,
			OrderType:     r.OrderType,
			TimeInForce:   r.TimeInForce,
			Price:         r.Price,
			Quantity:      r.Quantity,
			Party:         r.Party,
			OrderStatus:   domain.OrderStatusNew,
		}, nil

	case venue.OrderPlacementReject:
		if r.ClientOrderID == "" {
			return domain.GeneratedMessage{}, invalidArg("placement reject missing client_order_id")
		}
		return domain.GeneratedMessage{
			MessageType:   domain.NewOrderSingle,
			ClientOrderID: r.ClientOrderID,
			OrderStatus:   domain.OrderStatusRejected,
		}, nil

	case venue.OrderModificationConfirmation:
		if r.ClientOrderID == "" || r.OrigClientOrderID == "" {
			return domain.GeneratedMessage{}, invalidArg("modification confirmation missing client_order_id/orig_client_order_id")
		}
		if r.Party.PartyID == "" {
			return domain.GeneratedMessage{}, invalidArg("modification confirmation missing owner party_id")
		}
		return domain.GeneratedMessage{
			MessageType:       domain.OrderCancelReplaceRequest,
			ClientOrderID:     r.ClientOrderID,
			OrigClientOrderID: r.OrigClientOrderID,
			Price:             r.Price,
			Quantity:          r.Quantity,
			Party:             r.Party,
			OrderStatus:       domain.OrderStatusModified,
		}, nil

	case venue.OrderCancellationConfirmation:
		if r.OrigClientOrderID == "" {
			return domain.GeneratedMessage{}, invalidArg("cancellation confirmation missing orig_client_order_id")
		}
		return domain.GeneratedMessage{
			MessageType:       domain.OrderCancelRequest,
			OrigClientOrderID: r.OrigClientOrderID,
			OrderStatus:       domain.OrderStatusCancelled,
		}, nil

	case venue.ExecutionReport:
		if r.ClientOrderID == "" {
			return domain.GeneratedMessage{}, invalidArg("execution report missing client_order_id")
		}
		if r.Status == domain.OrderStatusUnspecified {
			return domain.GeneratedMessage{}, invalidArg("execution report missing status")
		}
		// Round-trip law: quantity.value = cum_executed + leaves.
		return domain.GeneratedMessage{
			MessageType:   domain.ExecutionReport,
			ClientOrderID: r.ClientOrderID,
			Side:          r.Side,
			Price:         r.Price,
			Quantity:      r.CumQty.Add(r.LeavesQty),
			CumQty:        r.CumQty,
			LeavesQty:     r.LeavesQty,
			OrderStatus:   r.Status,
		}, nil

	default:
		return domain.GeneratedMessage{}, fmt.Errorf("protocol: unrecognised reply type %T: %w", reply, simerrors.ErrInvalidArgument)
	}
}

func invalidArg(reason string) error {
	return fmt.Errorf("protocol: %s: %w", reason, simerrors.ErrInvalidArgument)
}
