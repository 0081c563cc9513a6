/*
Package inventory provides the stock management core for the workshop.

PURPOSE:
  This package contains the domain types and algorithms that decide how an
  order consumes raw material: expanding product recipes into material
  requirements, verifying stock sufficiency up front, deducting from main
  stock or reusable scrap offcuts, and repricing materials on purchase
  using weighted average cost.

KEY CONCEPTS IN THIS FILE (types.go):
  - Material: A raw material with stock level, price, and (for sheet goods)
    nominal full-sheet dimensions
  - ScrapPiece: A leftover offcut retained for reuse in future cuts
  - OrderLine: What was sold (a product or a direct material), as a tagged
    variant so the two shapes cannot be confused
  - Requirement: The uniform output of recipe resolution

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all quantity/price arithmetic to
     avoid floating-point drift across many small scrap updates
  2. Explicit storage: All algorithms operate on an injected Store; there is
     no package-level database handle
  3. Atomicity: Verify and deduct for one order always run inside a single
     transaction scope (see TxStore in store.go)

SEE ALSO:
  - resolver.go: OrderLine -> []Requirement expansion
  - verifier.go: Aggregate sufficiency check
  - engine.go: Deduction and scrap lifecycle
  - purchase.go: Weighted-average-cost repricing
*/
package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MATERIAL - A raw material tracked in the shop's single inventory
// =============================================================================

// MaterialTypeSheet is the one material type with special behavior: sheet
// goods are billed in whole sheets but consumed fractionally by area, and
// their offcuts feed the scrap ledger.
const MaterialTypeSheet = "Sheet"

// Material is a raw material row. Quantity is an integer count for unit
// materials and may be fractional (net of scrap) for sheet materials.
// Length and Width are the nominal dimensions of one full sheet and are
// only meaningful when Type == MaterialTypeSheet.
type Material struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit"`
	Price             decimal.Decimal `json:"price"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	Length            decimal.Decimal `json:"length"`
	Width             decimal.Decimal `json:"width"`
	CreatedAt         time.Time       `json:"created_at"`
}

// IsSheet reports whether this material follows sheet semantics.
func (m Material) IsSheet() bool { return m.Type == MaterialTypeSheet }

// HasSheetDims reports whether nominal full-sheet dimensions are known.
// Dimensional scrap matching requires them.
func (m Material) HasSheetDims() bool {
	return m.Length.IsPositive() && m.Width.IsPositive()
}

// SheetArea returns the nominal area of one full sheet.
func (m Material) SheetArea() decimal.Decimal { return m.Length.Mul(m.Width) }

// =============================================================================
// SCRAP PIECE - A reusable offcut, weakly owned by its material
// =============================================================================

// ScrapPiece is one leftover piece of sheet material. Quantity is the
// sheet-equivalent fraction (piece area / nominal sheet area) when the piece
// has known dimensions, or a raw leftover amount otherwise. Dimensions is a
// display label like "80 x 30".
type ScrapPiece struct {
	ID         string          `json:"id"`
	MaterialID string          `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Length     decimal.Decimal `json:"length"`
	Width      decimal.Decimal `json:"width"`
	Dimensions string          `json:"dimensions"`
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
}

// HasDimensions reports whether the piece carries usable length x width
// and can participate in dimensional matching.
func (p ScrapPiece) HasDimensions() bool {
	return p.Length.IsPositive() && p.Width.IsPositive()
}

// Area returns length x width. Zero for non-dimensional pieces.
func (p ScrapPiece) Area() decimal.Decimal { return p.Length.Mul(p.Width) }

// DimensionLabel formats a length x width pair the way scrap rows store it.
func DimensionLabel(length, width decimal.Decimal) string {
	return fmt.Sprintf("%s x %s", length.String(), width.String())
}

// =============================================================================
// RECIPE LINE - One material requirement of a product's bill of materials
// =============================================================================

// RecipeLine links a product to one of its constituent materials.
// QuantityRequired is the amount consumed per single unit of the product.
// CutLength/CutWidth describe the nominal piece this line cuts from a sheet
// (zero for non-sheet materials).
type RecipeLine struct {
	ProductID        string          `json:"product_id"`
	MaterialID       string          `json:"material_id"`
	MaterialType     string          `json:"material_type"`
	QuantityRequired decimal.Decimal `json:"quantity_required"`
	CutLength        decimal.Decimal `json:"cut_length"`
	CutWidth         decimal.Decimal `json:"cut_width"`
}

// =============================================================================
// ORDER LINE - Tagged variant: a sold product OR a direct material
// =============================================================================

// OrderLine is one line of an order as seen by the inventory core.
// It is a closed sum: either a ProductLine (expanded through the product's
// recipe) or a MaterialLine (a single direct requirement).
type OrderLine interface {
	orderLine()
}

// ProductLine sells Quantity units of a catalog product.
type ProductLine struct {
	ProductID string
	Quantity  decimal.Decimal
}

// MaterialLine sells Quantity of a material directly. For sheet materials
// the caller may supply the cut dimensions of the requested piece.
type MaterialLine struct {
	MaterialID string
	Quantity   decimal.Decimal
	CutLength  decimal.Decimal
	CutWidth   decimal.Decimal
}

func (ProductLine) orderLine()  {}
func (MaterialLine) orderLine() {}

// =============================================================================
// REQUIREMENT - Uniform output of recipe resolution
// =============================================================================

// Requirement is one resolved material demand: deduct Quantity of the
// material, using sheet/scrap semantics when IsSheet is set. CutLength and
// CutWidth drive dimensional scrap matching and offcut generation.
type Requirement struct {
	MaterialID string
	Quantity   decimal.Decimal
	IsSheet    bool
	CutLength  decimal.Decimal
	CutWidth   decimal.Decimal
}

// hasCutDims reports whether the requirement names a concrete piece size.
func (r Requirement) hasCutDims() bool {
	return r.CutLength.IsPositive() && r.CutWidth.IsPositive()
}
