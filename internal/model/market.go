package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Index is one tracked market index and the name used in posts.
type Index struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// PriceObservation holds the two most recent closes for a symbol.
type PriceObservation struct {
	Symbol   string
	Latest   decimal.Decimal
	Previous decimal.Decimal
}
