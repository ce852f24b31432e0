// Package pricing computes order totals. Every amount is rounded to cents
// half away from zero, and the total is the sum of the rounded parts.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/safar/go-food-order/internal/models"
)

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Terms are the restaurant-side inputs. A null DeliveryFee falls back to
// Rates.DefaultDeliveryFee.
type Terms struct {
	DeliveryFee  decimal.NullDecimal
	MinimumOrder decimal.Decimal
}

type Rates struct {
	TaxRate            decimal.Decimal
	DefaultDeliveryFee decimal.Decimal
}

type Breakdown struct {
	LineTotals   []decimal.Decimal
	Subtotal     decimal.Decimal
	DeliveryFee  decimal.Decimal
	TaxAmount    decimal.Decimal
	TipAmount    decimal.Decimal
	TotalAmount  decimal.Decimal
	MinimumOrder decimal.Decimal
	MeetsMinimum bool
}

func Quote(lines []Line, terms Terms, tip decimal.Decimal, rates Rates) Breakdown {
	b := Breakdown{
		LineTotals:   make([]decimal.Decimal, len(lines)),
		Subtotal:     decimal.Zero,
		MinimumOrder: models.Round2(terms.MinimumOrder),
	}

	for i, line := range lines {
		total := models.Round2(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		b.LineTotals[i] = total
		b.Subtotal = b.Subtotal.Add(total)
	}

	fee := rates.DefaultDeliveryFee
	if terms.DeliveryFee.Valid {
		fee = terms.DeliveryFee.Decimal
	}
	b.DeliveryFee = models.Round2(fee)
	b.TaxAmount = models.Round2(b.Subtotal.Mul(rates.TaxRate))
	b.TipAmount = models.Round2(tip)
	b.TotalAmount = b.Subtotal.Add(b.DeliveryFee).Add(b.TaxAmount).Add(b.TipAmount)
	b.MeetsMinimum = b.Subtotal.GreaterThanOrEqual(b.MinimumOrder)

	return b
}

func MinimumOrderMessage(minimum decimal.Decimal) string {
	return fmt.Sprintf("Order does not meet minimum amount of $%s", minimum.StringFixed(2))
}
