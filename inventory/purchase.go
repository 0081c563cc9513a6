/*
purchase.go - Stock replenishment and weighted-average-cost repricing

PURPOSE:
  When a purchase is recorded, each bought line both raises the material's
  stock and moves its unit price to the weighted average of the existing
  stock value and the newly purchased value:

    totalValue = oldQty*oldPrice + boughtQty*paidPrice
    totalQty   = oldQty + boughtQty
    newPrice   = totalQty > 0 ? totalValue/totalQty : 0

  Buying zero quantity therefore leaves the price unchanged, and the very
  first purchase of a fresh material (qty 0, price 0) sets the price to
  exactly what was paid.

TRANSACTION:
  ApplyPurchase runs once per purchased line, inside the same transaction
  as the purchase record insert, so a failure anywhere rolls back the
  entire purchase.
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PurchaseItem is one replenishment line: a known material, how much was
// bought, and the unit price paid.
type PurchaseItem struct {
	MaterialID string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
}

// ApplyPurchase increases a material's stock and reprices it by weighted
// average cost. The material must already exist; purchases of brand-new
// materials insert the zero-stock row first and then call this.
func ApplyPurchase(ctx context.Context, store Store, item PurchaseItem) error {
	mat, err := store.GetMaterial(ctx, item.MaterialID)
	if err != nil {
		return err
	}
	if mat == nil {
		return fmt.Errorf("purchase %s: %w", item.MaterialID, ErrMaterialNotFound)
	}

	totalValue := mat.Quantity.Mul(mat.Price).Add(item.Quantity.Mul(item.UnitPrice))
	totalQty := mat.Quantity.Add(item.Quantity)

	newPrice := decimal.Zero
	if totalQty.IsPositive() {
		newPrice = totalValue.Div(totalQty)
	}

	return store.SetMaterialStock(ctx, mat.ID, totalQty, newPrice)
}
