package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipValue(t *testing.T) {
	tests := []struct {
		symbol string
		want   float64
	}{
		{"EURUSD", 10},
		{"GBPUSD", 10},
		{"BTCUSD", 10},
		{"USDJPY", 1000},
		{"EURJPY", 1000},
		{"XAUUSD", 10},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.want, PipValue(tt.symbol))
		})
	}
}

func TestProfitLoss(t *testing.T) {
	tests := []struct {
		name            string
		direction       Direction
		entry, current  float64
		lots            float64
		symbol          string
		wantPNL         float64
		wantPNLPercent  float64
	}{
		{
			name:      "buy in profit",
			direction: Buy, entry: 1.0845, current: 1.0900, lots: 1.0, symbol: "EURUSD",
			wantPNL:        (1.0900 - 1.0845) * 10,
			wantPNLPercent: (1.0900 - 1.0845) / 1.0845 * 100,
		},
		{
			name:      "buy in loss",
			direction: Buy, entry: 1.0845, current: 1.0750, lots: 2.0, symbol: "EURUSD",
			wantPNL:        (1.0750 - 1.0845) * 2.0 * 10,
			wantPNLPercent: (1.0750 - 1.0845) / 1.0845 * 100,
		},
		{
			name:      "sell in profit",
			direction: Sell, entry: 1.0845, current: 1.0750, lots: 1.0, symbol: "EURUSD",
			wantPNL:        (1.0845 - 1.0750) * 10,
			wantPNLPercent: (1.0845 - 1.0750) / 1.0845 * 100,
		},
		{
			name:      "jpy pair uses larger pip value",
			direction: Sell, entry: 149.856, current: 148.856, lots: 0.5, symbol: "USDJPY",
			wantPNL:        (149.856 - 148.856) * 0.5 * 1000,
			wantPNLPercent: (149.856 - 148.856) / 149.856 * 100,
		},
		{
			name:      "flat price is flat pnl",
			direction: Buy, entry: 1.0845, current: 1.0845, lots: 1.0, symbol: "EURUSD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pnl, pnlPercent := ProfitLoss(tt.direction, tt.entry, tt.current, tt.lots, tt.symbol)
			assert.InDelta(t, tt.wantPNL, pnl, 1e-9)
			assert.InDelta(t, tt.wantPNLPercent, pnlPercent, 1e-9)
		})
	}
}

func TestPriceDecimals(t *testing.T) {
	assert.Equal(t, 2, PriceDecimals("BTCUSD"))
	assert.Equal(t, 3, PriceDecimals("USDJPY"))
	assert.Equal(t, 3, PriceDecimals("EURJPY"))
	assert.Equal(t, 5, PriceDecimals("EURUSD"))
}

func TestAutoStops(t *testing.T) {
	tests := []struct {
		name      string
		entry     float64
		direction Direction
		symbol    string
		wantSL    float64
		wantTP    float64
	}{
		{
			name:  "btc buy uses fixed distance",
			entry: 67342.5, direction: Buy, symbol: "BTCUSD",
			wantSL: 66842.5, wantTP: 68342.5,
		},
		{
			name:  "btc sell mirrors",
			entry: 67342.5, direction: Sell, symbol: "BTCUSD",
			wantSL: 67842.5, wantTP: 66342.5,
		},
		{
			name:  "jpy buy uses 50 pips",
			entry: 149.856, direction: Buy, symbol: "USDJPY",
			wantSL: 149.356, wantTP: 150.856,
		},
		{
			name:  "fx buy uses half percent",
			entry: 1.0845, direction: Buy, symbol: "EURUSD",
			wantSL: 1.07908, wantTP: 1.09535,
		},
		{
			name:  "fx sell mirrors",
			entry: 1.0845, direction: Sell, symbol: "EURUSD",
			wantSL: 1.08992, wantTP: 1.07366,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sl, tp := AutoStops(tt.entry, tt.direction, tt.symbol)
			assert.InDelta(t, tt.wantSL, sl, 1e-9)
			assert.InDelta(t, tt.wantTP, tp, 1e-9)
		})
	}
}

func TestPips(t *testing.T) {
	assert.InDelta(t, 55, Pips(1.0845, 1.0900, "EURUSD"), 1e-6)
	assert.InDelta(t, 100, Pips(149.856, 148.856, "USDJPY"), 1e-6)
	assert.InDelta(t, 55, Pips(1.0900, 1.0845, "EURUSD"), 1e-6) // distance is absolute
}
