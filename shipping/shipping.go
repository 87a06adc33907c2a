// Package shipping estimates boxes and weight for a cart. The cost is
// informational only; shipping is settled with the customer out of band.
package shipping

import (
	"fmt"

	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/shopspring/decimal"
)

var (
	// DefaultItemWeight is used for products without a positive weight (kg).
	DefaultItemWeight = decimal.RequireFromString("0.25")
	// MaxWeightPerBox is the capacity of one box (kg).
	MaxWeightPerBox = decimal.NewFromInt(1)
	// CostPerBox is the flat rate quoted per box.
	CostPerBox = decimal.NewFromInt(160)
)

type Estimate struct {
	TotalWeight decimal.Decimal `json:"totalWeight"`
	Boxes       int             `json:"boxes"`
	Cost        decimal.Decimal `json:"cost"`
	IsFree      bool            `json:"isFree"`
	Details     string          `json:"details"`
}

// ItemWeight returns the product weight, falling back to DefaultItemWeight.
func ItemWeight(p *models.Product) decimal.Decimal {
	if p == nil || !p.Weight.Valid || !p.Weight.Decimal.IsPositive() {
		return DefaultItemWeight
	}
	return p.Weight.Decimal
}

func TotalWeight(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(ItemWeight(items[i].Product).Mul(decimal.NewFromInt(int64(items[i].Quantity))))
	}
	return total
}

// BoxesNeeded is ceil(weight / MaxWeightPerBox), zero for an empty load.
func BoxesNeeded(totalWeight decimal.Decimal) int {
	if !totalWeight.IsPositive() {
		return 0
	}
	return int(totalWeight.Div(MaxWeightPerBox).Ceil().IntPart())
}

func Calculate(items []models.CartItem) Estimate {
	weight := TotalWeight(items)
	boxes := BoxesNeeded(weight)
	cost := CostPerBox.Mul(decimal.NewFromInt(int64(boxes)))

	return Estimate{
		TotalWeight: weight,
		Boxes:       boxes,
		Cost:        cost,
		IsFree:      cost.IsZero(),
		Details:     fmt.Sprintf("%d box(es) - %s kg total", boxes, weight.StringFixed(2)),
	}
}
