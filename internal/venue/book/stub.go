package book

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ordersim/venue-simulator/internal/domain"
	"github.com/ordersim/venue-simulator/internal/simerrors"
	"github.com/ordersim/venue-simulator/internal/venue"
)

// Stub is the in-memory matching-engine standing in for a real venue
// behind the spec §6 channel contracts. Replies are delivered on a
// dedicated pump goroutine, matching spec §5's "inbound replies are
// delivered on an external thread".
type Stub struct {
	mu     sync.RWMutex
	books  map[uint64]*Book
	replies chan any

	handlerMu sync.RWMutex
	handler   venue.ReplyHandler

	done chan struct{}
}

// NewStub constructs a Stub with its reply pump started.
func NewStub() *Stub {
	s := &Stub{
		books:   make(map[uint64]*Book),
		replies: make(chan any, 4096),
		done:    make(chan struct{}),
	}
	go s.pump()
	return s
}

// Close stops the reply pump.
func (s *Stub) Close() {
	close(s.done)
}

func (s *Stub) pump() {
	for {
		select {
		case <-s.done:
			return
		case r := <-s.replies:
			s.handlerMu.RLock()
			h := s.handler
			s.handlerMu.RUnlock()
			if h == nil {
				continue
			}
			dispatch(h, r)
		}
	}
}

func dispatch(h venue.ReplyHandler, r any) {
	switch v := r.(type) {
	case venue.OrderPlacementConfirmation:
		h.OnPlacementConfirmation(v)
	case venue.OrderPlacementReject:
		h.OnPlacementReject(v)
	case venue.OrderModificationConfirmation:
		h.OnModificationConfirmation(v)
	case venue.OrderCancellationConfirmation:
		h.OnCancellationConfirmation(v)
	case venue.ExecutionReport:
		h.OnExecutionReport(v)
	}
}

// Subscribe registers the single reply handler for this stub.
func (s *Stub) Subscribe(h venue.ReplyHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.handler = h
}

func (s *Stub) bookFor(instrumentID uint64) *Book {
	s.mu.RLock()
	b, ok := s.books[instrumentID]
	s.mu.RUnlock()
	if ok {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.books[instrumentID]; ok {
		return b
	}
	b = New()
	s.books[instrumentID] = b
	return b
}

func (s *Stub) bound() error {
	s.handlerMu.RLock()
	defer s.handlerMu.RUnlock()
	if s.handler == nil {
		return fmt.Errorf("venue channel: %w", simerrors.ErrChannelUnbound)
	}
	return nil
}

// PlaceOrder implements venue.RequestChannel.
func (s *Stub) PlaceOrder(req venue.OrderPlacementRequest) error {
	if err := s.bound(); err != nil {
		return err
	}
	b := s.bookFor(req.InstrumentID)

	resting := req.TimeInForce == domain.TimeInForceDay && req.OrderType == domain.OrderTypeLimit
	if resting {
		b.AddResting(&RestingOrder{
			ClientOrderID: req.ClientOrderID,
			OwnerID:       req.Party.PartyID,
			Side:          req.Side,
			Price:         req.Price,
			Qty:           req.Quantity,
		})
		s.replies <- venue.OrderPlacementConfirmation{
			InstrumentID:  req.InstrumentID,
			ClientOrderID: req.ClientOrderID,
			Side:          req.Side,
			OrderType:     req.OrderType,
			TimeInForce:   req.TimeInForce,
			Price:         req.Price,
			Quantity:      req.Quantity,
			Party:         req.Party,
		}
		return nil
	}

	isMarket := req.OrderType == domain.OrderTypeMarket
	fills, remaining := b.Cross(req.Side, req.Quantity, req.Price, isMarket)
	for _, f := range fills {
		status := domain.OrderStatusFilled
		if f.Remaining.IsPositive() {
			status = domain.OrderStatusPartiallyFilled
		}
		s.replies <- venue.ExecutionReport{
			InstrumentID:  req.InstrumentID,
			ClientOrderID: f.Order.ClientOrderID,
			Side:          f.Order.Side,
			Status:        status,
			CumQty:        f.FillQty,
			LeavesQty:     f.Remaining,
			Price:         f.Order.Price,
		}
	}

	cum := req.Quantity.Sub(remaining)
	aggressorStatus := domain.OrderStatusFilled
	if cum.IsZero() {
		aggressorStatus = domain.OrderStatusRejected
	} else if remaining.IsPositive() {
		aggressorStatus = domain.OrderStatusPartiallyFilled
	}
	s.replies <- venue.ExecutionReport{
		InstrumentID:  req.InstrumentID,
		ClientOrderID: req.ClientOrderID,
		Side:          req.Side,
		Status:        aggressorStatus,
		CumQty:        cum,
		LeavesQty:     decimal.Zero, // IOC/Market: unfilled remainder does not rest
		Price:         req.Price,
	}
	return nil
}

// ModifyOrder implements venue.RequestChannel.
func (s *Stub) ModifyOrder(req venue.OrderModificationRequest) error {
	if err := s.bound(); err != nil {
		return err
	}
	b := s.bookFor(req.InstrumentID)
	if !b.Replace(req.OrigClientOrderID, req.ClientOrderID, req.Price, req.Quantity) {
		return nil
	}
	s.replies <- venue.OrderModificationConfirmation{
		InstrumentID:      req.InstrumentID,
		ClientOrderID:     req.ClientOrderID,
		OrigClientOrderID: req.OrigClientOrderID,
		Price:             req.Price,
		Quantity:          req.Quantity,
		Party:             req.Party,
	}
	return nil
}

// CancelOrder implements venue.RequestChannel.
func (s *Stub) CancelOrder(req venue.OrderCancellationRequest) error {
	if err := s.bound(); err != nil {
		return err
	}
	b := s.bookFor(req.InstrumentID)
	if _, ok := b.Remove(req.OrigClientOrderID); !ok {
		return nil
	}
	s.replies <- venue.OrderCancellationConfirmation{
		InstrumentID:      req.InstrumentID,
		OrigClientOrderID: req.OrigClientOrderID,
	}
	return nil
}

// RequestMarketData implements venue.RequestChannel. The stub streams
// activity through the session gateway instead, so this just validates
// binding.
func (s *Stub) RequestMarketData(req venue.MarketDataRequest) error {
	return s.bound()
}

// RequestSecurityStatus implements venue.RequestChannel; trading status is
// driven by the Phase Scheduler in this repository, so this just validates
// binding.
func (s *Stub) RequestSecurityStatus(req venue.SecurityStatusRequest) error {
	return s.bound()
}

// RequestInstrumentState implements venue.RequestChannel's synchronous
// market_state() round trip (spec §4.2).
func (s *Stub) RequestInstrumentState(req venue.InstrumentStateRequest) (venue.InstrumentState, error) {
	if err := s.bound(); err != nil {
		return venue.InstrumentState{}, err
	}
	b := s.bookFor(req.InstrumentID)
	return venue.InstrumentState{
		BestBid:    b.BestBid(),
		BestOffer:  b.BestOffer(),
		BidDepth:   b.BidDepth(),
		OfferDepth: b.OfferDepth(),
	}, nil
}

// MarketState adapts RequestInstrumentState to the instrument.MarketStateFetcher
// interface consumed by instrument.Context.
func (s *Stub) MarketState(instrumentID uint64) (domain.MarketState, bool) {
	st, err := s.RequestInstrumentState(venue.InstrumentStateRequest{InstrumentID: instrumentID})
	if err != nil {
		return domain.MarketState{}, false
	}
	return domain.MarketState{
		BestBid:    st.BestBid,
		BestOffer:  st.BestOffer,
		BidDepth:   st.BidDepth,
		OfferDepth: st.OfferDepth,
	}, true
}
