package ledger

import (
	"testing"

	"fxsim/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateTriggers(t *testing.T) {
	tests := []struct {
		name          string
		direction     domain.Direction
		stopLoss      float64
		takeProfit    float64
		price         float64
		wantTriggered bool
		wantExit      float64
		wantReason    domain.CloseReason
	}{
		{
			name:      "buy price inside band",
			direction: domain.Buy, stopLoss: 1.0750, takeProfit: 1.0900,
			price: 1.0845,
		},
		{
			name:      "buy stop loss exact",
			direction: domain.Buy, stopLoss: 1.0750, takeProfit: 1.0900,
			price:         1.0750,
			wantTriggered: true, wantExit: 1.0750, wantReason: domain.CloseReasonStopLoss,
		},
		{
			name:      "buy stop loss gap through",
			direction: domain.Buy, stopLoss: 1.0750, takeProfit: 1.0900,
			price:         1.0600,
			wantTriggered: true, wantExit: 1.0750, wantReason: domain.CloseReasonStopLoss,
		},
		{
			name:      "buy take profit exact",
			direction: domain.Buy, stopLoss: 1.0750, takeProfit: 1.0900,
			price:         1.0900,
			wantTriggered: true, wantExit: 1.0900, wantReason: domain.CloseReasonTakeProfit,
		},
		{
			name:      "buy take profit overshoot fills at threshold",
			direction: domain.Buy, stopLoss: 1.0750, takeProfit: 1.0900,
			price:         1.0950,
			wantTriggered: true, wantExit: 1.0900, wantReason: domain.CloseReasonTakeProfit,
		},
		{
			name:      "sell stop loss exact",
			direction: domain.Sell, stopLoss: 150.356, takeProfit: 148.856,
			price:         150.356,
			wantTriggered: true, wantExit: 150.356, wantReason: domain.CloseReasonStopLoss,
		},
		{
			name:      "sell take profit undershoot fills at threshold",
			direction: domain.Sell, stopLoss: 150.356, takeProfit: 148.856,
			price:         148.500,
			wantTriggered: true, wantExit: 148.856, wantReason: domain.CloseReasonTakeProfit,
		},
		{
			name:      "sell price inside band",
			direction: domain.Sell, stopLoss: 150.356, takeProfit: 148.856,
			price: 149.500,
		},
		{
			name:      "unset stops never trigger",
			direction: domain.Buy,
			price:     0.0001,
		},
		{
			name:      "take profit alone",
			direction: domain.Buy, takeProfit: 1.0900,
			price:         1.0950,
			wantTriggered: true, wantExit: 1.0900, wantReason: domain.CloseReasonTakeProfit,
		},
		{
			name:      "stop loss alone",
			direction: domain.Sell, stopLoss: 1.1000,
			price:         1.1100,
			wantTriggered: true, wantExit: 1.1000, wantReason: domain.CloseReasonStopLoss,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := &domain.Trade{
				Direction:  tt.direction,
				StopLoss:   tt.stopLoss,
				TakeProfit: tt.takeProfit,
				Status:     domain.StatusOpen,
			}

			exit, reason, triggered := EvaluateTriggers(trade, tt.price)
			assert.Equal(t, tt.wantTriggered, triggered)
			if tt.wantTriggered {
				assert.Equal(t, tt.wantExit, exit)
				assert.Equal(t, tt.wantReason, reason)
			}
		})
	}
}

// A tick that gaps through both thresholds at once settles on the stop loss.
func TestEvaluateTriggers_StopLossWinsOnGap(t *testing.T) {
	// Crossed thresholds make a single price satisfy both checks, the
	// degenerate stand-in for a tick gapping through the whole band.
	trade := &domain.Trade{
		Direction:  domain.Buy,
		StopLoss:   1.0900,
		TakeProfit: 1.0800,
		Status:     domain.StatusOpen,
	}

	exit, reason, triggered := EvaluateTriggers(trade, 1.0850)
	assert.True(t, triggered)
	assert.Equal(t, 1.0900, exit)
	assert.Equal(t, domain.CloseReasonStopLoss, reason)
}
