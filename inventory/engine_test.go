package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faycal-henaoui/wood-workshop/inventory"
	"github.com/faycal-henaoui/wood-workshop/inventory/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// plywood is the canonical sheet material: nominal 280x130, 5 sheets in
// stock at 50 per sheet.
func plywood() inventory.Material {
	return inventory.Material{
		ID:       "mat-plywood",
		Name:     "Plywood",
		Type:     inventory.MaterialTypeSheet,
		Quantity: dec(5),
		Unit:     "sheet",
		Price:    dec(50),
		Length:   dec(280),
		Width:    dec(130),
	}
}

func screws() inventory.Material {
	return inventory.Material{
		ID:       "mat-screws",
		Name:     "Wood Screws",
		Type:     "Hardware",
		Quantity: dec(100),
		Unit:     "pcs",
		Price:    dec(0.5),
	}
}

func sheetCut(materialID string, qty, cutL, cutW float64) inventory.Requirement {
	return inventory.Requirement{
		MaterialID: materialID,
		Quantity:   dec(qty),
		IsSheet:    true,
		CutLength:  dec(cutL),
		CutWidth:   dec(cutW),
	}
}

func materialQty(t *testing.T, m *store.Memory, id string) decimal.Decimal {
	t.Helper()
	mat, err := m.GetMaterial(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, mat)
	return mat.Quantity
}

// =============================================================================
// OFFCUT GENERATION
// =============================================================================

func TestDeduct_SheetCut_GeneratesOffcut(t *testing.T) {
	// GIVEN: Plywood 280x130, 5 sheets in stock, no scrap
	// WHEN: Cutting one 200x100 piece
	// THEN: Main stock drops by 1 and an "80 x 30" offcut is recorded with
	//       quantity (80*30)/(280*130) rounded to 4 places

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())

	err := inventory.Deduct(ctx, m, 123, []inventory.Requirement{
		sheetCut("mat-plywood", 1, 200, 100),
	})
	require.NoError(t, err)

	assert.True(t, materialQty(t, m, "mat-plywood").Equal(dec(4)))

	pieces, err := m.ScrapForMaterial(ctx, "mat-plywood")
	require.NoError(t, err)
	require.Len(t, pieces, 1)

	piece := pieces[0]
	assert.Equal(t, "80 x 30", piece.Dimensions)
	assert.Equal(t, "0.0659", piece.Quantity.StringFixed(4))
	assert.Equal(t, "Offcut from Invoice #000123", piece.Notes)
	assert.True(t, piece.Length.Equal(dec(80)))
	assert.True(t, piece.Width.Equal(dec(30)))
}

func TestDeduct_SheetCut_TinyOffcutDiscarded(t *testing.T) {
	// GIVEN: Plywood 280x130
	// WHEN: Cutting a 275x125 piece (remainders 5x5, below the usability floor)
	// THEN: Stock is deducted but no scrap piece is created

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())

	err := inventory.Deduct(ctx, m, 1, []inventory.Requirement{
		sheetCut("mat-plywood", 1, 275, 125),
	})
	require.NoError(t, err)

	assert.True(t, materialQty(t, m, "mat-plywood").Equal(dec(4)))

	pieces, err := m.ScrapForMaterial(ctx, "mat-plywood")
	require.NoError(t, err)
	assert.Empty(t, pieces)
}

func TestDeduct_SheetCut_NoDimensions_NoOffcut(t *testing.T) {
	// GIVEN: Plywood with stock but a requirement without cut dimensions
	// WHEN: Deducting 2 sheets
	// THEN: Stock drops by 2 and nothing enters the scrap ledger

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())

	err := inventory.Deduct(ctx, m, 1, []inventory.Requirement{
		{MaterialID: "mat-plywood", Quantity: dec(2), IsSheet: true},
	})
	require.NoError(t, err)

	assert.True(t, materialQty(t, m, "mat-plywood").Equal(dec(3)))

	pieces, err := m.ScrapForMaterial(ctx, "mat-plywood")
	require.NoError(t, err)
	assert.Empty(t, pieces)
}

// =============================================================================
// SCRAP REUSE - DIMENSIONAL MATCHING
// =============================================================================

func TestDeduct_DimensionalReuse_MainStockUntouched(t *testing.T) {
	// GIVEN: A 200x100 scrap piece that fits the requested 100x50 cut
	// WHEN: Deducting the cut
	// THEN: The scrap piece shrinks to 100x50, re-expressed as a sheet
	//       fraction, and main stock is unchanged

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())
	id := m.PutScrap(inventory.ScrapPiece{
		MaterialID: "mat-plywood",
		Quantity:   dec(0.5494),
		Length:     dec(200),
		Width:      dec(100),
		Dimensions: "200 x 100",
	})

	err := inventory.Deduct(ctx, m, 1, []inventory.Requirement{
		sheetCut("mat-plywood", 1, 100, 50),
	})
	require.NoError(t, err)

	assert.True(t, materialQty(t, m, "mat-plywood").Equal(dec(5)), "main stock must not move on scrap reuse")

	piece := m.Scrap(id)
	require.NotNil(t, piece)
	assert.Equal(t, "100 x 50", piece.Dimensions)
	assert.True(t, piece.Length.Equal(dec(100)))
	assert.True(t, piece.Width.Equal(dec(50)))
	// (100*50)/(280*130) = 0.13736... -> 0.1374
	assert.Equal(t, "0.1374", piece.Quantity.StringFixed(4))
}

func TestDeduct_DimensionalReuse_FullyConsumed(t *testing.T) {
	// GIVEN: A 90x40 scrap piece and an 88x38 cut (both remainders below the
	//        consumed tolerance of 5)
	// WHEN: Deducting the cut
	// THEN: The piece is deleted and main stock is unchanged

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())
	id := m.PutScrap(inventory.ScrapPiece{
		MaterialID: "mat-plywood",
		Quantity:   dec(0.0989),
		Length:     dec(90),
		Width:      dec(40),
		Dimensions: "90 x 40",
	})

	err := inventory.Deduct(ctx, m, 1, []inventory.Requirement{
		sheetCut("mat-plywood", 1, 88, 38),
	})
	require.NoError(t, err)

	assert.Nil(t, m.Scrap(id))
	assert.True(t, materialQty(t, m, "mat-plywood").Equal(dec(5)))
}

func TestDeduct_DimensionalReuse_SliverDiscarded(t *testing.T) {
	// GIVEN: A 90x40 scrap piece and an 80x35 cut (width remainder 5 is past
	//        the consumed tolerance check but below the usability floor)
	// WHEN: Deducting the cut
	// THEN: The sliver is deleted rather than kept

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())
	id := m.PutScrap(inventory.ScrapPiece{
		MaterialID: "mat-plywood",
		Quantity:   dec(0.0989),
		Length:     dec(90),
		Width:      dec(40),
		Dimensions: "90 x 40",
	})

	err := inventory.Deduct(ctx, m, 1, []inventory.Requirement{
		sheetCut("mat-plywood", 1, 80, 35),
	})
	require.NoError(t, err)

	assert.Nil(t, m.Scrap(id))
	assert.True(t, materialQty(t, m, "mat-plywood").Equal(dec(5)))
}

func TestDeduct_DimensionalReuse_RemainderExactlyAtFloorIsKept(t *testing.T) {
	// GIVEN: A 90x40 scrap piece and an 80x30 cut, leaving exactly 10x10
	// WHEN: Deducting the cut
	// THEN: A remainder sitting exactly on the usability floor survives;
	//       only dimensions strictly below 10 are slivers

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())
	id := m.PutScrap(inventory.ScrapPiece{
		MaterialID: "mat-plywood",
		Quantity:   dec(0.0989),
		Length:     dec(90),
		Width:      dec(40),
		Dimensions: "90 x 40",
	})

	err := inventory.Deduct(ctx, m, 1, []inventory.Requirement{
		sheetCut("mat-plywood", 1, 80, 30),
	})
	require.NoError(t, err)

	piece := m.Scrap(id)
	require.NotNil(t, piece)
	assert.Equal(t, "10 x 10", piece.Dimensions)
	// (10*10)/(280*130) = 0.00274... -> 0.0027
	assert.Equal(t, "0.0027", piece.Quantity.StringFixed(4))
	assert.True(t, materialQty(t, m, "mat-plywood").Equal(dec(5)))
}

func TestDeduct_DimensionalReuse_PicksSmallestQualifyingPiece(t *testing.T) {
	// GIVEN: Two scrap pieces that both fit a 100x50 cut
	// WHEN: Deducting the cut
	// THEN: The smaller-area piece is consumed, the larger one is untouched

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())
	bigID := m.PutScrap(inventory.ScrapPiece{
		MaterialID: "mat-plywood",
		Quantity:   dec(0.7143),
		Length:     dec(260),
		Width:      dec(100),
		Dimensions: "260 x 100",
	})
	smallID := m.PutScrap(inventory.ScrapPiece{
		MaterialID: "mat-plywood",
		Quantity:   dec(0.2473),
		Length:     dec(150),
		Width:      dec(60),
		Dimensions: "150 x 60",
	})

	err := inventory.Deduct(ctx, m, 1, []inventory.Requirement{
		sheetCut("mat-plywood", 1, 100, 50),
	})
	require.NoError(t, err)

	big := m.Scrap(bigID)
	require.NotNil(t, big)
	assert.Equal(t, "260 x 100", big.Dimensions, "larger piece must be untouched")

	small := m.Scrap(smallID)
	require.NotNil(t, small)
	assert.Equal(t, "50 x 10", small.Dimensions)
}

func TestDeduct_DimensionalMismatch_FallsBackToMainStock(t *testing.T) {
	// GIVEN: One scrap piece that is too small for the requested cut
	// WHEN: Deducting a 200x100 cut
	// THEN: Main stock is used and the undersized piece survives

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())
	id := m.PutScrap(inventory.ScrapPiece{
		MaterialID: "mat-plywood",
		Quantity:   dec(0.0989),
		Length:     dec(90),
		Width:      dec(40),
		Dimensions: "90 x 40",
	})

	err := inventory.Deduct(ctx, m, 7, []inventory.Requirement{
		sheetCut("mat-plywood", 1, 200, 100),
	})
	require.NoError(t, err)

	assert.True(t, materialQty(t, m, "mat-plywood").Equal(dec(4)))
	require.NotNil(t, m.Scrap(id))

	// The fallback also generated the 80x30 offcut of the fresh sheet.
	pieces, err := m.ScrapForMaterial(ctx, "mat-plywood")
	require.NoError(t, err)
	assert.Len(t, pieces, 2)
}

// =============================================================================
// SCRAP REUSE - AREA MATCHING
// =============================================================================

func TestDeduct_AreaReuse_PartialConsumption(t *testing.T) {
	// GIVEN: A non-dimensional scrap piece with quantity 0.5 and a sheet
	//        requirement of 0.2 without cut dimensions
	// WHEN: Deducting
	// THEN: The piece shrinks to 0.3 and main stock is unchanged

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())
	id := m.PutScrap(inventory.ScrapPiece{
		MaterialID: "mat-plywood",
		Quantity:   dec(0.5),
	})

	err := inventory.Deduct(ctx, m, 1, []inventory.Requirement{
		{MaterialID: "mat-plywood", Quantity: dec(0.2), IsSheet: true},
	})
	require.NoError(t, err)

	piece := m.Scrap(id)
	require.NotNil(t, piece)
	assert.Equal(t, "0.30", piece.Quantity.StringFixed(2))
	assert.True(t, materialQty(t, m, "mat-plywood").Equal(dec(5)))
}

func TestDeduct_AreaReuse_ExhaustedPieceDeleted(t *testing.T) {
	// GIVEN: A scrap piece with quantity 0.2 and a requirement of 0.2
	// WHEN: Deducting
	// THEN: The remainder is within epsilon of zero, so the piece is deleted

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())
	id := m.PutScrap(inventory.ScrapPiece{
		MaterialID: "mat-plywood",
		Quantity:   dec(0.2),
	})

	err := inventory.Deduct(ctx, m, 1, []inventory.Requirement{
		{MaterialID: "mat-plywood", Quantity: dec(0.2), IsSheet: true},
	})
	require.NoError(t, err)

	assert.Nil(t, m.Scrap(id))
	assert.True(t, materialQty(t, m, "mat-plywood").Equal(dec(5)))
}

// =============================================================================
// NON-SHEET DEDUCTION AND DEFENSES
// =============================================================================

func TestDeduct_NonSheet_SubtractsDirectly(t *testing.T) {
	// GIVEN: 100 screws in stock
	// WHEN: Deducting 24
	// THEN: 76 remain, scrap ledger untouched

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(screws())

	err := inventory.Deduct(ctx, m, 1, []inventory.Requirement{
		{MaterialID: "mat-screws", Quantity: dec(24)},
	})
	require.NoError(t, err)

	assert.True(t, materialQty(t, m, "mat-screws").Equal(dec(76)))
}

func TestDeduct_NegativeStock_Refused(t *testing.T) {
	// GIVEN: 2 screws in stock
	// WHEN: Deducting 3 (verification was skipped or raced)
	// THEN: A NegativeStockError aborts the deduction, stock untouched

	ctx := context.Background()
	m := store.NewMemory()
	mat := screws()
	mat.Quantity = dec(2)
	m.PutMaterial(mat)

	err := inventory.Deduct(ctx, m, 1, []inventory.Requirement{
		{MaterialID: "mat-screws", Quantity: dec(3)},
	})
	require.Error(t, err)

	var nse *inventory.NegativeStockError
	assert.ErrorAs(t, err, &nse)
	assert.True(t, materialQty(t, m, "mat-screws").Equal(dec(2)))
}

func TestDeduct_UnknownMaterial_Errors(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: Deducting against a missing material
	// THEN: ErrMaterialNotFound

	err := inventory.Deduct(context.Background(), store.NewMemory(), 1, []inventory.Requirement{
		{MaterialID: "mat-ghost", Quantity: dec(1)},
	})
	assert.ErrorIs(t, err, inventory.ErrMaterialNotFound)
}

// brokenScrapStore fails every scrap lookup while delegating the rest.
type brokenScrapStore struct {
	inventory.Store
	err error
}

func (s brokenScrapStore) ScrapForMaterial(ctx context.Context, materialID string) ([]inventory.ScrapPiece, error) {
	return nil, s.err
}

func TestDeduct_ScrapLookupFailure_AbortsDeduction(t *testing.T) {
	// GIVEN: A store whose scrap lookups fail, with a matching offcut that
	//        would normally absorb the cut
	// WHEN: Deducting a sheet cut
	// THEN: The failure propagates and main stock is untouched; a lookup
	//       fault must never be mistaken for "no scrap" and cut a new sheet

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())
	m.PutScrap(inventory.ScrapPiece{
		MaterialID: "mat-plywood",
		Quantity:   dec(0.5495),
		Length:     dec(200),
		Width:      dec(100),
		Dimensions: "200 x 100",
	})
	lost := errors.New("connection lost")

	err := inventory.Deduct(ctx, brokenScrapStore{Store: m, err: lost}, 1, []inventory.Requirement{
		sheetCut("mat-plywood", 1, 200, 100),
	})

	require.ErrorIs(t, err, lost)
	assert.True(t, materialQty(t, m, "mat-plywood").Equal(dec(5)))
}

// =============================================================================
// COMMIT ORDER - full pipeline with rollback
// =============================================================================

func TestCommitOrder_Shortage_RollsBackEverything(t *testing.T) {
	// GIVEN: An order whose second line exceeds stock
	// WHEN: Committing inside a transaction scope
	// THEN: A ShortageError surfaces and no mutation survives

	ctx := context.Background()
	tm := store.NewTxMemory()
	tm.PutMaterial(plywood())
	mat := screws()
	mat.Quantity = dec(10)
	tm.PutMaterial(mat)

	err := tm.WithTx(ctx, func(s inventory.Store) error {
		return inventory.CommitOrder(ctx, s, 42, []inventory.OrderLine{
			inventory.MaterialLine{MaterialID: "mat-plywood", Quantity: dec(1), CutLength: dec(200), CutWidth: dec(100)},
			inventory.MaterialLine{MaterialID: "mat-screws", Quantity: dec(50)},
		})
	})
	require.Error(t, err)

	var shortage *inventory.ShortageError
	require.ErrorAs(t, err, &shortage)
	require.Len(t, shortage.Shortages, 1)
	assert.Equal(t, `Insufficient stock for "Wood Screws". Required: 50.00, Available: 10.`, shortage.Shortages[0])

	// Rolled back: plywood untouched, no scrap generated.
	assert.True(t, materialQty(t, tm.Memory, "mat-plywood").Equal(dec(5)))
	pieces, err := tm.ScrapForMaterial(ctx, "mat-plywood")
	require.NoError(t, err)
	assert.Empty(t, pieces)
}

func TestCommitOrder_ProductRecipe_Expanded(t *testing.T) {
	// GIVEN: A product whose recipe takes 0.5 sheet of plywood and 8 screws
	//        per unit
	// WHEN: Committing an order for 2 units
	// THEN: Plywood drops by 1 and screws by 16

	ctx := context.Background()
	tm := store.NewTxMemory()
	tm.PutMaterial(plywood())
	tm.PutMaterial(screws())
	tm.PutRecipe("prod-shelf", []inventory.RecipeLine{
		{ProductID: "prod-shelf", MaterialID: "mat-plywood", MaterialType: inventory.MaterialTypeSheet, QuantityRequired: dec(0.5)},
		{ProductID: "prod-shelf", MaterialID: "mat-screws", MaterialType: "Hardware", QuantityRequired: dec(8)},
	})

	err := tm.WithTx(ctx, func(s inventory.Store) error {
		return inventory.CommitOrder(ctx, s, 42, []inventory.OrderLine{
			inventory.ProductLine{ProductID: "prod-shelf", Quantity: dec(2)},
		})
	})
	require.NoError(t, err)

	assert.True(t, materialQty(t, tm.Memory, "mat-plywood").Equal(dec(4)))
	assert.True(t, materialQty(t, tm.Memory, "mat-screws").Equal(dec(84)))
}
