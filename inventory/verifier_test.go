package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faycal-henaoui/wood-workshop/inventory"
	"github.com/faycal-henaoui/wood-workshop/inventory/store"
)

// =============================================================================
// STOCK VERIFIER
// =============================================================================

func TestVerifyStock_SufficientStock_NoMessages(t *testing.T) {
	// GIVEN: Requirements all within stock
	// WHEN: Verifying
	// THEN: No shortage messages

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())
	m.PutMaterial(screws())

	msgs, err := inventory.VerifyStock(ctx, m, []inventory.Requirement{
		{MaterialID: "mat-plywood", Quantity: dec(3)},
		{MaterialID: "mat-screws", Quantity: dec(99)},
	})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestVerifyStock_AggregatesAcrossLines(t *testing.T) {
	// GIVEN: Two lines for the same material that are individually fine but
	//        together exceed stock (5 sheets available, 3+3 requested)
	// WHEN: Verifying
	// THEN: Exactly one shortage message for the aggregated total

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())

	msgs, err := inventory.VerifyStock(ctx, m, []inventory.Requirement{
		{MaterialID: "mat-plywood", Quantity: dec(3)},
		{MaterialID: "mat-plywood", Quantity: dec(3)},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, `Insufficient stock for "Plywood". Required: 6.00, Available: 5.`, msgs[0])
}

func TestVerifyStock_MissingMaterial_Reported(t *testing.T) {
	// GIVEN: A requirement referencing a deleted material
	// WHEN: Verifying
	// THEN: The not-found message names the ID

	ctx := context.Background()
	m := store.NewMemory()

	msgs, err := inventory.VerifyStock(ctx, m, []inventory.Requirement{
		{MaterialID: "mat-ghost", Quantity: dec(1)},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Material ID mat-ghost not found in database.", msgs[0])
}

func TestVerifyStock_RepeatedRuns_SameOutput(t *testing.T) {
	// GIVEN: An unmet requirement
	// WHEN: Verifying twice against untouched state
	// THEN: Identical message lists, no mutation either time

	ctx := context.Background()
	m := store.NewMemory()
	mat := screws()
	mat.Quantity = dec(1)
	m.PutMaterial(mat)

	reqs := []inventory.Requirement{{MaterialID: "mat-screws", Quantity: dec(10)}}

	first, err := inventory.VerifyStock(ctx, m, reqs)
	require.NoError(t, err)
	second, err := inventory.VerifyStock(ctx, m, reqs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, materialQty(t, m, "mat-screws").Equal(dec(1)))
}

func TestVerifyStock_EmptyRequirements_Pass(t *testing.T) {
	msgs, err := inventory.VerifyStock(context.Background(), store.NewMemory(), nil)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

// =============================================================================
// RECIPE RESOLVER
// =============================================================================

func TestResolveLines_ProductLine_ScalesRecipe(t *testing.T) {
	// GIVEN: A recipe requiring 0.5 sheet + 8 screws per unit
	// WHEN: Resolving a line for 3 units
	// THEN: Requirements are scaled by 3 and carry cut dimensions

	ctx := context.Background()
	m := store.NewMemory()
	m.PutRecipe("prod-shelf", []inventory.RecipeLine{
		{ProductID: "prod-shelf", MaterialID: "mat-plywood", MaterialType: inventory.MaterialTypeSheet,
			QuantityRequired: dec(0.5), CutLength: dec(120), CutWidth: dec(60)},
		{ProductID: "prod-shelf", MaterialID: "mat-screws", MaterialType: "Hardware", QuantityRequired: dec(8)},
	})

	reqs, err := inventory.ResolveLines(ctx, m, []inventory.OrderLine{
		inventory.ProductLine{ProductID: "prod-shelf", Quantity: dec(3)},
	})
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, "mat-plywood", reqs[0].MaterialID)
	assert.True(t, reqs[0].Quantity.Equal(dec(1.5)))
	assert.True(t, reqs[0].IsSheet)
	assert.True(t, reqs[0].CutLength.Equal(dec(120)))

	assert.Equal(t, "mat-screws", reqs[1].MaterialID)
	assert.True(t, reqs[1].Quantity.Equal(dec(24)))
	assert.False(t, reqs[1].IsSheet)
}

func TestResolveLines_MaterialLine_SheetTypeFromStore(t *testing.T) {
	// GIVEN: A direct material line against a sheet material
	// WHEN: Resolving
	// THEN: IsSheet is read from the material's type

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(plywood())

	reqs, err := inventory.ResolveLines(ctx, m, []inventory.OrderLine{
		inventory.MaterialLine{MaterialID: "mat-plywood", Quantity: dec(1), CutLength: dec(100), CutWidth: dec(50)},
	})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].IsSheet)
}

func TestResolveLines_NilLine_Skipped(t *testing.T) {
	// Description-only items (delivery fees etc.) resolve to nothing.
	reqs, err := inventory.ResolveLines(context.Background(), store.NewMemory(), []inventory.OrderLine{nil})
	require.NoError(t, err)
	assert.Empty(t, reqs)
}
