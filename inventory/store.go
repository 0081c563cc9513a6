/*
store.go - Persistence interface for the inventory core

PURPOSE:
  Defines the interface between the stock algorithms and the database.
  The core never touches SQL; it reads materials, recipes, and scrap through
  Store and writes back through the same handle, which may be transaction
  scoped.

TRANSACTION CONTRACT:
  Every order-level operation (verify + deduct, purchase + reprice) must run
  inside TxStore.WithTx. The Store passed to the callback sees and writes
  uncommitted state; returning an error rolls everything back, so no partial
  deduction ever survives.

SCRAP SELECTION:
  ScrapForMaterial returns every candidate piece; choosing the smallest
  qualifying piece is the engine's job, not the store's. This keeps the only
  documented selection rule in one testable place and lets any Store
  implementation stay dumb.

IMPLEMENTATIONS:
  - store/sqlite: production store (plus all record CRUD)
  - inventory/store: in-memory store for tests
*/
package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - What the core needs from persistence
// =============================================================================

// Store is the persistence surface of the inventory core.
// Implementations must return (nil, nil) from GetMaterial for a missing row
// so callers can distinguish "absent" from "failed".
type Store interface {
	// GetMaterial returns one material, or (nil, nil) if it doesn't exist.
	GetMaterial(ctx context.Context, id string) (*Material, error)

	// GetMaterials returns the subset of the given materials that exist,
	// keyed by ID. Missing IDs are simply absent from the map.
	GetMaterials(ctx context.Context, ids []string) (map[string]Material, error)

	// SetMaterialQuantity overwrites a material's stock level.
	SetMaterialQuantity(ctx context.Context, id string, quantity decimal.Decimal) error

	// SetMaterialStock overwrites a material's stock level and unit price
	// together (used by the WAC updater).
	SetMaterialStock(ctx context.Context, id string, quantity, price decimal.Decimal) error

	// RecipeFor returns the bill of materials for a product, joined with
	// each material's type. Empty for an unknown product.
	RecipeFor(ctx context.Context, productID string) ([]RecipeLine, error)

	// ScrapForMaterial returns all scrap pieces of one material in a
	// deterministic order (oldest first).
	ScrapForMaterial(ctx context.Context, materialID string) ([]ScrapPiece, error)

	// CreateScrap inserts a new scrap piece.
	CreateScrap(ctx context.Context, piece ScrapPiece) error

	// UpdateScrap rewrites an existing piece (smaller dimensions/quantity
	// after partial consumption).
	UpdateScrap(ctx context.Context, piece ScrapPiece) error

	// DeleteScrap removes a fully consumed or unusable piece.
	DeleteScrap(ctx context.Context, id string) error
}

// =============================================================================
// TRANSACTIONAL STORE - Atomic verify+deduct scope
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
