/*
verifier.go - Aggregate stock sufficiency check

PURPOSE:
  Before any deduction touches the ledger, the whole order is checked in
  aggregate: requirements for the same material across all line items are
  summed and compared against current stock. Either every requirement is
  satisfiable or the order is rejected with one message per failing
  material and nothing is mutated.

IDEMPOTENCY:
  Verification is read-only. Running it twice against the same state yields
  the same message list both times.
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// VerifyStock aggregates the requirement list per material, fetches current
// stock for exactly that set in one batch, and returns a human-readable
// message for every material that is missing or short. An empty slice means
// the order is satisfiable in aggregate.
//
// Messages are ordered by first appearance of the material in the
// requirement list so repeated runs produce identical output.
func VerifyStock(ctx context.Context, store Store, reqs []Requirement) ([]string, error) {
	totals := make(map[string]decimal.Decimal)
	var order []string

	for _, req := range reqs {
		if _, seen := totals[req.MaterialID]; !seen {
			order = append(order, req.MaterialID)
		}
		totals[req.MaterialID] = totals[req.MaterialID].Add(req.Quantity)
	}

	if len(order) == 0 {
		return nil, nil
	}

	materials, err := store.GetMaterials(ctx, order)
	if err != nil {
		return nil, err
	}

	var errs []string
	for _, id := range order {
		required := totals[id]
		mat, ok := materials[id]
		if !ok {
			errs = append(errs, fmt.Sprintf("Material ID %s not found in database.", id))
			continue
		}
		if mat.Quantity.LessThan(required) {
			errs = append(errs, fmt.Sprintf("Insufficient stock for %q. Required: %s, Available: %s.",
				mat.Name, required.StringFixed(2), mat.Quantity.String()))
		}
	}

	return errs, nil
}
