/*
resolver.go - Recipe resolution: order lines to material requirements

PURPOSE:
  Expands what was sold into what must be deducted. A ProductLine fans out
  into one Requirement per recipe line (scaled by the billed quantity); a
  MaterialLine becomes a single Requirement as-is.

DETERMINISM:
  Requirements come out in input order, recipe lines in store order. The
  deduction engine processes them sequentially, so resolution order decides
  which scrap pieces get consumed when several lines compete for the same
  material.
*/
package inventory

import "context"

// ResolveLines expands order lines into the flat requirement list the
// verifier and the deduction engine consume.
//
// A nil line contributes nothing; that is a no-op at this stage, not an
// error (the surrounding order may legitimately carry description-only
// items such as delivery fees).
func ResolveLines(ctx context.Context, store Store, lines []OrderLine) ([]Requirement, error) {
	var reqs []Requirement

	for _, line := range lines {
		switch l := line.(type) {
		case ProductLine:
			recipe, err := store.RecipeFor(ctx, l.ProductID)
			if err != nil {
				return nil, err
			}
			for _, ing := range recipe {
				reqs = append(reqs, Requirement{
					MaterialID: ing.MaterialID,
					Quantity:   ing.QuantityRequired.Mul(l.Quantity),
					IsSheet:    ing.MaterialType == MaterialTypeSheet,
					CutLength:  ing.CutLength,
					CutWidth:   ing.CutWidth,
				})
			}

		case MaterialLine:
			req := Requirement{
				MaterialID: l.MaterialID,
				Quantity:   l.Quantity,
				CutLength:  l.CutLength,
				CutWidth:   l.CutWidth,
			}
			// Sheet semantics depend on the material's type. A missing
			// material resolves as non-sheet; verification reports it.
			mat, err := store.GetMaterial(ctx, l.MaterialID)
			if err != nil {
				return nil, err
			}
			if mat != nil {
				req.IsSheet = mat.IsSheet()
			}
			reqs = append(reqs, req)

		case nil:
			continue
		}
	}

	return reqs, nil
}
