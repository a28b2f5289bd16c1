package notifier

import (
	"fmt"
	"strings"

	"StonksBot/internal/calculator"
	"StonksBot/internal/model"

	"github.com/shopspring/decimal"
)

// FormatMarketMessage builds the post text for one index. Any change that is
// not strictly positive, including zero, is reported as "not stonks".
func FormatMarketMessage(name string, obs model.PriceObservation) (model.MarketMessage, error) {
	change, pct, err := calculator.Delta(obs.Latest, obs.Previous)
	if err != nil {
		return model.MarketMessage{}, fmt.Errorf("compute delta for %s: %w", obs.Symbol, err)
	}

	if change.IsPositive() {
		return model.MarketMessage{
			Text: fmt.Sprintf("stonks\n\n%s 📈: %s (+%s, %s%%)",
				name, fixed2(obs.Latest), fixed2(change), fixed2(pct)),
			Direction: model.Rising,
		}, nil
	}
	return model.MarketMessage{
		Text: fmt.Sprintf("not stonks\n\n%s 📉: %s (%s, %s%%)",
			name, fixed2(obs.Latest), fixed2(change), fixed2(pct)),
		Direction: model.Falling,
	}, nil
}

// fixed2 renders d with two decimals, rounding halves to even and keeping the
// minus sign on negative values that round to zero ("-0.00").
func fixed2(d decimal.Decimal) string {
	s := d.StringFixedBank(2)
	if d.IsNegative() && !strings.HasPrefix(s, "-") {
		return "-" + s
	}
	return s
}
