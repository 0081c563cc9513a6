/*
engine.go - Stock deduction and scrap lifecycle

PURPOSE:
  The state-changing heart of the inventory core. For each resolved
  requirement it decides, in order:

    1. Non-sheet material: subtract directly from main stock.
    2. Sheet material: try to satisfy the cut from an existing scrap piece
       (dimensional match when cut dimensions and nominal sheet dimensions
       are known, area match otherwise). A reused piece is shrunk in place,
       or deleted when the remainder is consumed or too small to keep.
    3. No scrap fits: subtract from main stock and, when the offcut of the
       full sheet is still usable, record it as a new scrap piece with a
       provenance note referencing the invoice.

SELECTION RULE:
  The only documented rule is "smallest qualifying piece first": smallest
  area for dimensional matches, smallest quantity for area matches. Ties on
  area fall to whichever candidate the store returned first.

CONSTANTS:
  consumedTolerance (5):  both remainders below this => piece fully consumed
  usabilityFloor    (10): any dimension below this   => sliver, discard
  scrapEpsilon (0.001):   residual area quantity at or below this => delete

  Units are whatever the shop measures sheets in (centimeters in practice).

ORDERING:
  Requirements are processed sequentially in input order. Verification
  guarantees aggregate main-stock sufficiency, but which particular scrap
  pieces get consumed depends on this order; that is accepted behavior.
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	consumedTolerance = decimal.NewFromInt(5)
	usabilityFloor    = decimal.NewFromInt(10)
	scrapEpsilon      = decimal.NewFromFloat(0.001)
)

// Sheet-fraction quantities are stored to 4 decimal places, raw area
// quantities to 2. Display rounding elsewhere never feeds back into these.
const (
	sheetFractionPlaces = 4
	areaQuantityPlaces  = 2
)

// Deduct commits one order's requirements against main stock and the scrap
// ledger. It must run inside the same transaction as the verification that
// preceded it; any error aborts the whole transaction.
//
// invoiceNumber is only used for provenance notes on generated scrap.
func Deduct(ctx context.Context, store Store, invoiceNumber int64, reqs []Requirement) error {
	for _, req := range reqs {
		if err := deductOne(ctx, store, invoiceNumber, req); err != nil {
			return err
		}
	}
	return nil
}

func deductOne(ctx context.Context, store Store, invoiceNumber int64, req Requirement) error {
	mat, err := store.GetMaterial(ctx, req.MaterialID)
	if err != nil {
		return err
	}
	if mat == nil {
		return fmt.Errorf("deduct %s: %w", req.MaterialID, ErrMaterialNotFound)
	}

	if !req.IsSheet {
		return takeFromMainStock(ctx, store, *mat, req.Quantity)
	}

	dimensional := req.hasCutDims() && mat.HasSheetDims()

	piece, err := findScrap(ctx, store, *mat, req, dimensional)
	if err != nil {
		return err
	}
	if piece != nil {
		if dimensional && piece.HasDimensions() {
			return consumeScrapDimensional(ctx, store, *mat, *piece, req)
		}
		return consumeScrapArea(ctx, store, *piece, req.Quantity)
	}

	// No reusable offcut: cut a new sheet from main stock.
	if err := takeFromMainStock(ctx, store, *mat, req.Quantity); err != nil {
		return err
	}
	if req.hasCutDims() && mat.HasSheetDims() {
		return generateOffcut(ctx, store, *mat, req, invoiceNumber)
	}
	return nil
}

// findScrap returns the smallest qualifying scrap piece, or nil. A lookup
// failure aborts the deduction; falling through to main stock would turn an
// infrastructure fault into a silent full-sheet cut.
func findScrap(ctx context.Context, store Store, mat Material, req Requirement, dimensional bool) (*ScrapPiece, error) {
	pieces, err := store.ScrapForMaterial(ctx, mat.ID)
	if err != nil {
		return nil, err
	}

	var best *ScrapPiece
	for i := range pieces {
		p := &pieces[i]
		if dimensional {
			if !p.HasDimensions() {
				continue
			}
			if p.Length.LessThan(req.CutLength) || p.Width.LessThan(req.CutWidth) {
				continue
			}
			if best == nil || p.Area().LessThan(best.Area()) {
				best = p
			}
		} else {
			if p.Quantity.LessThan(req.Quantity) {
				continue
			}
			if best == nil || p.Quantity.LessThan(best.Quantity) {
				best = p
			}
		}
	}
	return best, nil
}

// consumeScrapDimensional cuts the requested piece out of a dimensionally
// matched offcut. The remainder either disappears (consumed or sliver) or
// shrinks the piece in place, re-expressed as a fraction of a full sheet.
func consumeScrapDimensional(ctx context.Context, store Store, mat Material, piece ScrapPiece, req Requirement) error {
	remL := piece.Length.Sub(req.CutLength)
	remW := piece.Width.Sub(req.CutWidth)

	if remL.LessThan(consumedTolerance) && remW.LessThan(consumedTolerance) {
		return store.DeleteScrap(ctx, piece.ID)
	}

	finalL := decimal.Max(remL, decimal.Zero)
	finalW := decimal.Max(remW, decimal.Zero)
	if finalL.LessThan(usabilityFloor) || finalW.LessThan(usabilityFloor) {
		// One usable dimension is not enough to keep a sliver around.
		return store.DeleteScrap(ctx, piece.ID)
	}

	piece.Length = finalL
	piece.Width = finalW
	piece.Quantity = finalL.Mul(finalW).Div(mat.SheetArea()).Round(sheetFractionPlaces)
	piece.Dimensions = DimensionLabel(finalL, finalW)
	return store.UpdateScrap(ctx, piece)
}

// consumeScrapArea subtracts from a piece tracked only by quantity.
func consumeScrapArea(ctx context.Context, store Store, piece ScrapPiece, amount decimal.Decimal) error {
	remaining := piece.Quantity.Sub(amount)
	if !remaining.GreaterThan(scrapEpsilon) {
		return store.DeleteScrap(ctx, piece.ID)
	}
	piece.Quantity = remaining.Round(areaQuantityPlaces)
	return store.UpdateScrap(ctx, piece)
}

// takeFromMainStock subtracts from the material's quantity, refusing to go
// negative. Verification should make the refusal unreachable; if it fires,
// the caller's transaction aborts with nothing applied.
func takeFromMainStock(ctx context.Context, store Store, mat Material, amount decimal.Decimal) error {
	remaining := mat.Quantity.Sub(amount)
	if remaining.IsNegative() {
		return &NegativeStockError{
			MaterialID: mat.ID,
			Requested:  amount.String(),
			Available:  mat.Quantity.String(),
		}
	}
	return store.SetMaterialQuantity(ctx, mat.ID, remaining)
}

// generateOffcut records the leftover of a freshly cut sheet as new scrap,
// provided both remainder dimensions clear the usability floor.
func generateOffcut(ctx context.Context, store Store, mat Material, req Requirement, invoiceNumber int64) error {
	remL := mat.Length.Sub(req.CutLength)
	remW := mat.Width.Sub(req.CutWidth)

	if !remL.GreaterThan(usabilityFloor) || !remW.GreaterThan(usabilityFloor) {
		return nil // offcut too small to be useful
	}

	return store.CreateScrap(ctx, ScrapPiece{
		MaterialID: mat.ID,
		Quantity:   remL.Mul(remW).Div(mat.SheetArea()).Round(sheetFractionPlaces),
		Length:     remL,
		Width:      remW,
		Dimensions: DimensionLabel(remL, remW),
		Notes:      fmt.Sprintf("Offcut from Invoice #%06d", invoiceNumber),
	})
}

// =============================================================================
// ORDER PIPELINE - verify then deduct, one transaction
// =============================================================================

// CommitOrder runs the full pipeline for one order against a (transaction
// scoped) store: resolve lines, verify aggregate sufficiency, deduct.
// A *ShortageError is returned when verification fails; the caller's
// transaction must roll back on any error.
func CommitOrder(ctx context.Context, store Store, invoiceNumber int64, lines []OrderLine) error {
	reqs, err := ResolveLines(ctx, store, lines)
	if err != nil {
		return err
	}
	shortages, err := VerifyStock(ctx, store, reqs)
	if err != nil {
		return err
	}
	if len(shortages) > 0 {
		return &ShortageError{Shortages: shortages}
	}
	return Deduct(ctx, store, invoiceNumber, reqs)
}
