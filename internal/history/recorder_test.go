package history

import (
	"testing"
	"time"

	"fxsim/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteAt(symbol string, price float64, at time.Time) domain.Quote {
	return domain.Quote{Symbol: symbol, Price: price, Time: at}
}

func TestRecorder_LatestPerSymbol(t *testing.T) {
	r := NewRecorder(10)
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	r.Record(quoteAt("EURUSD", 1.0845, base))
	r.Record(quoteAt("EURUSD", 1.0850, base.Add(time.Second)))
	r.Record(quoteAt("USDJPY", 149.856, base))

	latest, ok := r.Latest("EURUSD")
	require.True(t, ok)
	assert.Equal(t, 1.0850, latest.Price)

	_, ok = r.Latest("GBPUSD")
	assert.False(t, ok)

	all := r.LatestAll()
	require.Len(t, all, 2)
	assert.Equal(t, "EURUSD", all[0].Symbol)
	assert.Equal(t, "USDJPY", all[1].Symbol)
}

func TestRecorder_EvictsOldestBeyondCapacity(t *testing.T) {
	r := NewRecorder(3)
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r.Record(quoteAt("EURUSD", 1.0+float64(i), base.Add(time.Duration(i)*time.Second)))
	}

	candles := r.Candles("EURUSD", "1h", 0)
	require.Len(t, candles, 1)
	// Only the newest three ticks remain.
	assert.Equal(t, 3.0, candles[0].Open)
	assert.Equal(t, 5.0, candles[0].High)
	assert.Equal(t, 3.0, candles[0].Low)
	assert.Equal(t, 5.0, candles[0].Close)
}

func TestRecorder_CandleAggregation(t *testing.T) {
	r := NewRecorder(100)
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	// First minute bucket.
	r.Record(quoteAt("EURUSD", 1.0850, base))
	r.Record(quoteAt("EURUSD", 1.0860, base.Add(10*time.Second)))
	r.Record(quoteAt("EURUSD", 1.0840, base.Add(20*time.Second)))
	r.Record(quoteAt("EURUSD", 1.0855, base.Add(30*time.Second)))
	// Second minute bucket.
	r.Record(quoteAt("EURUSD", 1.0856, base.Add(70*time.Second)))
	r.Record(quoteAt("EURUSD", 1.0852, base.Add(80*time.Second)))

	candles := r.Candles("EURUSD", "1m", 0)
	require.Len(t, candles, 2)

	first := candles[0]
	assert.Equal(t, base, first.Time)
	assert.Equal(t, 1.0850, first.Open)
	assert.Equal(t, 1.0860, first.High)
	assert.Equal(t, 1.0840, first.Low)
	assert.Equal(t, 1.0855, first.Close)

	second := candles[1]
	assert.Equal(t, base.Add(time.Minute), second.Time)
	assert.Equal(t, 1.0856, second.Open)
	assert.Equal(t, 1.0852, second.Close)
}

func TestRecorder_CandleLimitKeepsNewest(t *testing.T) {
	r := NewRecorder(100)
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r.Record(quoteAt("EURUSD", 1.0+float64(i), base.Add(time.Duration(i)*time.Minute)))
	}

	candles := r.Candles("EURUSD", "1m", 2)
	require.Len(t, candles, 2)
	assert.Equal(t, base.Add(3*time.Minute), candles[0].Time)
	assert.Equal(t, base.Add(4*time.Minute), candles[1].Time)
}

func TestRecorder_UnknownTimeframeFallsBack(t *testing.T) {
	r := NewRecorder(100)
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	r.Record(quoteAt("EURUSD", 1.0845, base))
	r.Record(quoteAt("EURUSD", 1.0850, base.Add(20*time.Minute)))

	// 15m buckets: the ticks land in separate buckets.
	candles := r.Candles("EURUSD", "bogus", 0)
	require.Len(t, candles, 2)
}

func TestRecorder_NoTicksNoCandles(t *testing.T) {
	r := NewRecorder(100)
	assert.Nil(t, r.Candles("EURUSD", "1m", 0))
}
