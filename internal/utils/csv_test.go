package utils

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"fxsim/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTradesCSV(t *testing.T) {
	openTime := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	closeTime := openTime.Add(2 * time.Hour)

	trades := []*domain.Trade{
		{
			ID: "open-1", Symbol: "EURUSD", Direction: domain.Buy, Lots: 0.5,
			EntryPrice: 1.0845, CurrentPrice: 1.0850, StopLoss: 1.0750, TakeProfit: 1.0900,
			OpenTime: openTime, PNL: 0.025, Status: domain.StatusOpen,
		},
		{
			ID: "closed-1", Symbol: "USDJPY", Direction: domain.Sell, Lots: 0.2,
			EntryPrice: 149.856, CurrentPrice: 148.856, OpenTime: openTime,
			CloseTime: closeTime, ExitPrice: 148.856, PNL: 200,
			Status: domain.StatusClosed, CloseReason: domain.CloseReasonTakeProfit,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, trades))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "id,symbol,direction,lots,entry_price,current_price,stop_loss,take_profit,open_time,close_time,exit_price,pnl,pnl_percent,status,close_reason", lines[0])

	// Open trades leave the close columns empty.
	assert.Contains(t, lines[1], "open-1,EURUSD,BUY,0.5,1.0845,1.085,1.075,1.09,2024-03-15T09:30:00Z,,,")
	assert.Contains(t, lines[2], "2024-03-15T11:30:00Z,148.856,200")
	assert.Contains(t, lines[2], "CLOSED,TP")
}

func TestWriteTradesCSV_EmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1) // header only
}
