package domain

import (
	"math"
	"strings"
)

// Pip value per lot by quote-currency code. JPY pairs quote with two fewer
// decimal places, so one pip carries a larger cash value. This is a flat
// contract-sizing heuristic for the simulation, not a real margin model:
// it ignores contract size and account-currency conversion.
var pipValues = map[string]float64{
	"JPY": 1000,
}

// defaultPipValue applies to every symbol without a table entry.
const defaultPipValue = 10

// PipValue returns the per-lot pip value scalar for a symbol.
func PipValue(symbol string) float64 {
	for code, v := range pipValues {
		if strings.Contains(symbol, code) {
			return v
		}
	}
	return defaultPipValue
}

// pipFactor converts a price distance into pips for display purposes.
func pipFactor(symbol string) float64 {
	if strings.Contains(symbol, "JPY") {
		return 100
	}
	return 10000
}

// Pips returns the absolute distance between two prices in pips.
func Pips(entry, current float64, symbol string) float64 {
	return math.Abs(current-entry) * pipFactor(symbol)
}

// ProfitLoss computes the signed mark-to-market P/L and its percentage of
// the entry price. A BUY profits when current > entry, a SELL when
// current < entry.
func ProfitLoss(direction Direction, entry, current, lots float64, symbol string) (pnl, pnlPercent float64) {
	priceDiff := current - entry
	if direction == Sell {
		priceDiff = entry - current
	}
	pnl = priceDiff * lots * PipValue(symbol)
	pnlPercent = (priceDiff / entry) * 100
	return pnl, pnlPercent
}

// PriceDecimals returns the display precision for a symbol's prices.
func PriceDecimals(symbol string) int {
	switch {
	case symbol == "BTCUSD":
		return 2
	case strings.Contains(symbol, "JPY"):
		return 3
	default:
		return 5
	}
}

// RoundPrice rounds a price to the symbol's display precision.
func RoundPrice(price float64, symbol string) float64 {
	factor := math.Pow(10, float64(PriceDecimals(symbol)))
	return math.Round(price*factor) / factor
}

// AutoStops derives stop-loss and take-profit levels for an entry using a
// symbol-aware stop distance and a 1:2 risk/reward ratio.
func AutoStops(entry float64, direction Direction, symbol string) (stopLoss, takeProfit float64) {
	var slDistance float64
	switch {
	case symbol == "BTCUSD":
		slDistance = 500
	case strings.Contains(symbol, "JPY"):
		slDistance = 0.5 // 50 pips
	default:
		slDistance = entry * 0.005
	}
	tpDistance := slDistance * 2

	if direction == Buy {
		stopLoss = entry - slDistance
		takeProfit = entry + tpDistance
	} else {
		stopLoss = entry + slDistance
		takeProfit = entry - tpDistance
	}
	return RoundPrice(stopLoss, symbol), RoundPrice(takeProfit, symbol)
}
