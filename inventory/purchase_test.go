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
// WEIGHTED AVERAGE COST REPRICING
// =============================================================================

func TestApplyPurchase_WeightedAverage(t *testing.T) {
	// GIVEN: 10 units in stock at price 5
	// WHEN: Buying 10 more at price 7
	// THEN: 20 units at price 6

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(inventory.Material{ID: "mat-oak", Name: "Oak Board", Quantity: dec(10), Price: dec(5)})

	err := inventory.ApplyPurchase(ctx, m, inventory.PurchaseItem{
		MaterialID: "mat-oak", Quantity: dec(10), UnitPrice: dec(7),
	})
	require.NoError(t, err)

	mat, err := m.GetMaterial(ctx, "mat-oak")
	require.NoError(t, err)
	require.NotNil(t, mat)
	assert.True(t, mat.Quantity.Equal(dec(20)))
	assert.True(t, mat.Price.Equal(dec(6)))
}

func TestApplyPurchase_ZeroQuantity_PriceUnchanged(t *testing.T) {
	// GIVEN: 10 units at price 5
	// WHEN: Recording a zero-quantity line at price 9
	// THEN: Quantity and price are unchanged

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(inventory.Material{ID: "mat-oak", Name: "Oak Board", Quantity: dec(10), Price: dec(5)})

	err := inventory.ApplyPurchase(ctx, m, inventory.PurchaseItem{
		MaterialID: "mat-oak", Quantity: dec(0), UnitPrice: dec(9),
	})
	require.NoError(t, err)

	mat, err := m.GetMaterial(ctx, "mat-oak")
	require.NoError(t, err)
	assert.True(t, mat.Quantity.Equal(dec(10)))
	assert.True(t, mat.Price.Equal(dec(5)))
}

func TestApplyPurchase_FreshMaterial_PricedAtPaid(t *testing.T) {
	// GIVEN: A brand-new material inserted with zero stock and price
	// WHEN: Buying 4 at price 12.5
	// THEN: The price becomes exactly what was paid

	ctx := context.Background()
	m := store.NewMemory()
	m.PutMaterial(inventory.Material{ID: "mat-new", Name: "MDF Panel"})

	err := inventory.ApplyPurchase(ctx, m, inventory.PurchaseItem{
		MaterialID: "mat-new", Quantity: dec(4), UnitPrice: dec(12.5),
	})
	require.NoError(t, err)

	mat, err := m.GetMaterial(ctx, "mat-new")
	require.NoError(t, err)
	assert.True(t, mat.Quantity.Equal(dec(4)))
	assert.True(t, mat.Price.Equal(dec(12.5)))
}

func TestApplyPurchase_UnknownMaterial_Errors(t *testing.T) {
	err := inventory.ApplyPurchase(context.Background(), store.NewMemory(), inventory.PurchaseItem{
		MaterialID: "mat-ghost", Quantity: dec(1), UnitPrice: dec(1),
	})
	assert.ErrorIs(t, err, inventory.ErrMaterialNotFound)
}
