package collector

import (
	"context"
	"fmt"
	"time"

	"StonksBot/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultLookbackDays is how many trading days are requested per symbol.
const DefaultLookbackDays = 5

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Closes []float64
	Err    error
	Calls  []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.OHLCV, error) {
	m.Calls = append(m.Calls, symbol)
	if m.Err != nil {
		return nil, m.Err
	}
	closes := m.Closes
	if len(closes) > days {
		closes = closes[len(closes)-days:]
	}
	return mockBars(closes), nil
}

func mockBars(closes []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	start := time.Date(2025, 1, 6, 21, 0, 0, 0, time.UTC)
	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		bars[i] = model.OHLCV{
			Time:  start.AddDate(0, 0, i),
			Open:  p,
			High:  p,
			Low:   p,
			Close: p,
		}
	}
	return bars
}

// Collector pulls the last two closes for a symbol.
type Collector struct {
	Fetcher      Fetcher
	LookbackDays int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookbackDays int) *Collector {
	if lookbackDays < 2 {
		lookbackDays = DefaultLookbackDays
	}
	return &Collector{Fetcher: fetcher, LookbackDays: lookbackDays}
}

// Collect fetches recent daily bars and returns the latest and previous close.
// ok is false when the provider returned fewer than two bars; that is a skip
// condition, not an error.
func (c *Collector) Collect(ctx context.Context, symbol string) (obs model.PriceObservation, ok bool, err error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.LookbackDays)
	if err != nil {
		return model.PriceObservation{}, false, fmt.Errorf("fetch daily bars for %s: %w", symbol, err)
	}
	if len(bars) < 2 {
		return model.PriceObservation{}, false, nil
	}
	return model.PriceObservation{
		Symbol:   symbol,
		Latest:   bars[len(bars)-1].Close,
		Previous: bars[len(bars)-2].Close,
	}, true, nil
}
