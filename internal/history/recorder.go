package history

import (
	"sort"
	"sync"
	"time"

	"fxsim/internal/domain"
)

// Timeframe bucket sizes for candle aggregation.
var timeframes = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1D":  24 * time.Hour,
}

const defaultTimeframe = 15 * time.Minute

// Recorder keeps a bounded window of recent ticks per symbol and aggregates
// OHLC candles from them on demand. It is safe for concurrent use: the feed
// goroutine writes while HTTP handlers read.
type Recorder struct {
	mu       sync.RWMutex
	capacity int
	ticks    map[string][]domain.Quote
}

// NewRecorder creates a Recorder retaining up to capacity ticks per symbol.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Recorder{
		capacity: capacity,
		ticks:    make(map[string][]domain.Quote),
	}
}

// Record appends a tick, evicting the oldest once the window is full.
func (r *Recorder) Record(q domain.Quote) {
	r.mu.Lock()
	defer r.mu.Unlock()

	window := append(r.ticks[q.Symbol], q)
	if len(window) > r.capacity {
		window = window[len(window)-r.capacity:]
	}
	r.ticks[q.Symbol] = window
}

// Latest returns the most recent tick for a symbol.
func (r *Recorder) Latest(symbol string) (domain.Quote, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	window := r.ticks[symbol]
	if len(window) == 0 {
		return domain.Quote{}, false
	}
	return window[len(window)-1], true
}

// LatestAll returns the most recent tick per symbol, sorted by symbol for
// stable display.
func (r *Recorder) LatestAll() []domain.Quote {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Quote, 0, len(r.ticks))
	for _, window := range r.ticks {
		if len(window) > 0 {
			out = append(out, window[len(window)-1])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Candles aggregates the recorded ticks of a symbol into OHLC candles of the
// given timeframe and returns at most limit of the newest ones, oldest first.
// Unknown timeframes fall back to 15m.
func (r *Recorder) Candles(symbol, timeframe string, limit int) []domain.Candle {
	bucket, ok := timeframes[timeframe]
	if !ok {
		bucket = defaultTimeframe
	}
	if limit <= 0 {
		limit = 100
	}

	r.mu.RLock()
	window := r.ticks[symbol]
	ticks := make([]domain.Quote, len(window))
	copy(ticks, window)
	r.mu.RUnlock()

	if len(ticks) == 0 {
		return nil
	}

	grouped := make(map[int64][]domain.Quote)
	for _, q := range ticks {
		key := q.Time.Truncate(bucket).Unix()
		grouped[key] = append(grouped[key], q)
	}

	keys := make([]int64, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	candles := make([]domain.Candle, 0, len(keys))
	for _, k := range keys {
		group := grouped[k]
		c := domain.Candle{
			Time:   time.Unix(k, 0).UTC(),
			Symbol: symbol,
			Open:   group[0].Price,
			Close:  group[len(group)-1].Price,
			High:   group[0].Price,
			Low:    group[0].Price,
		}
		for _, q := range group {
			if q.Price > c.High {
				c.High = q.Price
			}
			if q.Price < c.Low {
				c.Low = q.Price
			}
		}
		candles = append(candles, c)
	}

	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles
}
