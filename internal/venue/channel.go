package venue

// RequestChannel is the outbound Trading Request Channel of spec §6. An
// unbound implementation (a book.Stub with no reply handler subscribed)
// returns ErrChannelUnbound from every method so callers can log and
// continue rather than panic.
type RequestChannel interface {
	PlaceOrder(OrderPlacementRequest) error
	ModifyOrder(OrderModificationRequest) error
	CancelOrder(OrderCancellationRequest) error
	RequestMarketData(MarketDataRequest) error
	RequestSecurityStatus(SecurityStatusRequest) error
	RequestInstrumentState(InstrumentStateRequest) (InstrumentState, error)
}

// ReplyHandler is invoked once per inbound reply. Implementations
// (internal/dispatch.Dispatcher, which applies internal/protocol's Registry
// Updater) must not block for long: the
// reply channel delivers on a dedicated driver goroutine shared by every
// instrument.
type ReplyHandler interface {
	OnPlacementConfirmation(OrderPlacementConfirmation)
	OnPlacementReject(OrderPlacementReject)
	OnModificationConfirmation(OrderModificationConfirmation)
	OnCancellationConfirmation(OrderCancellationConfirmation)
	OnExecutionReport(ExecutionReport)
}

// ReplyChannel is the inbound Trading Reply Channel of spec §6.
type ReplyChannel interface {
	Subscribe(ReplyHandler)
}
