package domain

// Direction represents the side of a simulated trade (BUY or SELL).
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// IsValid reports whether the direction is one of the two known sides.
func (d Direction) IsValid() bool {
	return d == Buy || d == Sell
}

// TradeStatus represents the lifecycle state of a simulated trade.
// The only transition is OPEN -> CLOSED; CLOSED is terminal.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "OPEN"
	StatusClosed TradeStatus = "CLOSED"
)

// CloseReason indicates why a trade was closed.
type CloseReason string

const (
	CloseReasonStopLoss   CloseReason = "SL"
	CloseReasonTakeProfit CloseReason = "TP"
	CloseReasonManual     CloseReason = "MANUAL"
)
