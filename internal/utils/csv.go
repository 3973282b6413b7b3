package utils

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"fxsim/internal/domain"
)

// WriteTradesCSV streams the trade list as CSV, one row per trade. Close
// fields stay empty while a trade is OPEN.
func WriteTradesCSV(w io.Writer, trades []*domain.Trade) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write([]string{
		"id", "symbol", "direction", "lots", "entry_price", "current_price",
		"stop_loss", "take_profit", "open_time", "close_time", "exit_price",
		"pnl", "pnl_percent", "status", "close_reason",
	})

	for _, t := range trades {
		closeTime := ""
		exitPrice := ""
		if t.Status == domain.StatusClosed {
			closeTime = t.CloseTime.Format(time.RFC3339)
			exitPrice = formatFloat(t.ExitPrice)
		}
		writer.Write([]string{
			t.ID,
			t.Symbol,
			string(t.Direction),
			formatFloat(t.Lots),
			formatFloat(t.EntryPrice),
			formatFloat(t.CurrentPrice),
			formatFloat(t.StopLoss),
			formatFloat(t.TakeProfit),
			t.OpenTime.Format(time.RFC3339),
			closeTime,
			exitPrice,
			formatFloat(t.PNL),
			formatFloat(t.PNLPercent),
			string(t.Status),
			string(t.CloseReason),
		})
	}
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
