package currency

import (
	"errors"
	"math"
)

// The product list shows prices in USD plus a converted EUR column.
// Rates are fixed at compile time; there is no lifecycle or refresh.
var rates = map[string]map[string]float64{
	"usd": {
		"eur": 0.98,
	},
}

var ErrRateNotFound = errors.New("currency rate not found")

// Convert turns amount in the from currency into the to currency.
// An unknown from currency is an error; a known from currency with no
// configured target yields 0. The result is rounded half-up to two
// decimal places.
func Convert(amount float64, from, to string) (float64, error) {
	targets, ok := rates[from]
	if !ok {
		return 0, ErrRateNotFound
	}

	rate := targets[to]

	return math.Round(amount*rate*100) / 100, nil
}
