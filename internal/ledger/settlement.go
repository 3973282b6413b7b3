package ledger

import "fxsim/internal/domain"

// EvaluateTriggers decides whether a price observation breaches a trade's
// stop-loss or take-profit threshold.
//
// The checks run in a fixed order: stop-loss before take-profit. On a gapping
// tick that crosses both thresholds the stop-loss wins; reversing the order
// would change outcomes under gapping price series. The returned exit price
// is the breached threshold itself, not the raw tick, which models an exact
// fill at the trigger with no slippage.
//
// A zero threshold is treated as unset and never triggers.
func EvaluateTriggers(t *domain.Trade, price float64) (exitPrice float64, reason domain.CloseReason, triggered bool) {
	if t.StopLoss > 0 {
		if t.Direction == domain.Buy && price <= t.StopLoss {
			return t.StopLoss, domain.CloseReasonStopLoss, true
		}
		if t.Direction == domain.Sell && price >= t.StopLoss {
			return t.StopLoss, domain.CloseReasonStopLoss, true
		}
	}
	if t.TakeProfit > 0 {
		if t.Direction == domain.Buy && price >= t.TakeProfit {
			return t.TakeProfit, domain.CloseReasonTakeProfit, true
		}
		if t.Direction == domain.Sell && price <= t.TakeProfit {
			return t.TakeProfit, domain.CloseReasonTakeProfit, true
		}
	}
	return 0, "", false
}
