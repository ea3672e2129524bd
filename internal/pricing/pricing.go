// Package pricing computes order line totals and the order total.
// It does no I/O: catalog prices are resolved by the caller.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/vendor-backoffice/internal/apperr"
)

// Scale is the number of decimals money is stored with.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Line is a requested order line. Nil prices fall back to the catalog price,
// nil discounts to zero.
type Line struct {
	ProductID       string
	Quantity        int
	UnitPriceBase   *decimal.Decimal
	UnitPriceFinal  *decimal.Decimal
	DiscountAmount  *decimal.Decimal
	DiscountPercent *decimal.Decimal
}

type PricedLine struct {
	ProductID       string
	Quantity        int
	UnitPriceBase   decimal.Decimal
	UnitPriceFinal  decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountPercent decimal.Decimal
	LineTotal       decimal.Decimal
}

type Result struct {
	Lines []PricedLine
	// Computed is the sum of line totals, Total is what the order stores.
	Computed decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal returns max(0, final*qty - discountAmount - final*qty*discountPercent/100)
// rounded to Scale.
func LineTotal(unitFinal decimal.Decimal, quantity int, discountAmount, discountPercent decimal.Decimal) decimal.Decimal {
	raw := unitFinal.Mul(decimal.NewFromInt(int64(quantity)))
	fromPercent := raw.Mul(discountPercent).Div(hundred)
	total := raw.Sub(discountAmount).Sub(fromPercent)
	if total.IsNegative() {
		return decimal.Zero.Round(Scale)
	}
	return total.Round(Scale)
}

// Price resolves every line against catalog (productID -> current price) and
// sums the totals. explicitTotal, when set, is used verbatim as the order
// total; it is not checked against the computed sum.
func Price(lines []Line, catalog map[string]decimal.Decimal, explicitTotal *decimal.Decimal) (Result, error) {
	res := Result{Lines: make([]PricedLine, 0, len(lines)), Computed: decimal.Zero.Round(Scale)}

	for i, l := range lines {
		price, ok := catalog[l.ProductID]
		if !ok {
			return Result{}, apperr.Validationf("items[%d]: product %s has no price", i, l.ProductID)
		}
		if l.Quantity < 1 {
			return Result{}, apperr.Validationf("items[%d]: quantity must be >= 1", i)
		}

		base := orDefault(l.UnitPriceBase, price)
		final := orDefault(l.UnitPriceFinal, base)
		discAmount := orDefault(l.DiscountAmount, decimal.Zero)
		discPercent := orDefault(l.DiscountPercent, decimal.Zero)

		for _, f := range []struct {
			name string
			v    decimal.Decimal
		}{
			{"unitPriceBase", base},
			{"unitPriceFinal", final},
			{"discountAmount", discAmount},
			{"discountPercent", discPercent},
		} {
			if f.v.IsNegative() {
				return Result{}, apperr.Validationf("items[%d]: %s must not be negative", i, f.name)
			}
		}

		// the item columns hold two decimals; the line total is computed
		// from the stored values so a re-read snapshot reproduces it
		base = base.Round(Scale)
		final = final.Round(Scale)
		discAmount = discAmount.Round(Scale)
		discPercent = discPercent.Round(Scale)

		pl := PricedLine{
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			UnitPriceBase:   base,
			UnitPriceFinal:  final,
			DiscountAmount:  discAmount,
			DiscountPercent: discPercent,
			LineTotal:       LineTotal(final, l.Quantity, discAmount, discPercent),
		}
		res.Lines = append(res.Lines, pl)
		res.Computed = res.Computed.Add(pl.LineTotal)
	}

	res.Total = res.Computed
	if explicitTotal != nil {
		res.Total = *explicitTotal
	}
	return res, nil
}

func orDefault(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v == nil {
		return def
	}
	return *v
}
