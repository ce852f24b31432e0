package models

import "github.com/shopspring/decimal"

func init() {
	// Money goes over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// MaxAmount is the largest value a NUMERIC(10,2) money column holds.
var MaxAmount = decimal.RequireFromString("99999999.99")

// MaxItemQuantity bounds the quantity of a single order line.
const MaxItemQuantity = 1000

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
