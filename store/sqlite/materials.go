package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/faycal-henaoui/wood-workshop/inventory"
)

// =============================================================================
// MATERIALS (inventory.Store + CRUD)
// =============================================================================

const materialCols = `id, name, type, quantity, unit, price, low_stock_threshold, length, width, created_at`

func scanMaterial(row interface{ Scan(...any) error }) (*inventory.Material, error) {
	var m inventory.Material
	var qty, price, threshold, length, width, created sql.NullString
	err := row.Scan(&m.ID, &m.Name, &m.Type, &qty, &m.Unit, &price, &threshold, &length, &width, &created)
	if err != nil {
		return nil, err
	}
	if m.Quantity, err = decCol(qty); err != nil {
		return nil, err
	}
	if m.Price, err = decCol(price); err != nil {
		return nil, err
	}
	thr, err := decCol(threshold)
	if err != nil {
		return nil, err
	}
	m.LowStockThreshold = int(thr.IntPart())
	if m.Length, err = decCol(length); err != nil {
		return nil, err
	}
	if m.Width, err = decCol(width); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = timeCol(created); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMaterial returns one material, or (nil, nil) when the row is absent.
func (c conn) GetMaterial(ctx context.Context, id string) (*inventory.Material, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+materialCols+` FROM materials WHERE id = ?`, id)
	m, err := scanMaterial(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	return m, nil
}

// GetMaterials returns the existing subset of the given IDs, keyed by ID.
func (c conn) GetMaterials(ctx context.Context, ids []string) (map[string]inventory.Material, error) {
	out := make(map[string]inventory.Material, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT `+materialCols+` FROM materials WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get materials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out[m.ID] = *m
	}
	return out, rows.Err()
}

func (c conn) SetMaterialQuantity(ctx context.Context, id string, quantity decimal.Decimal) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE materials SET quantity = ? WHERE id = ?`, quantity.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update material quantity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrMaterialNotFound
	}
	return nil
}

func (c conn) SetMaterialStock(ctx context.Context, id string, quantity, price decimal.Decimal) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE materials SET quantity = ?, price = ? WHERE id = ?`,
		quantity.String(), price.String(), id)
	if err != nil {
		return fmt.Errorf("failed to update material stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrMaterialNotFound
	}
	return nil
}

// ListMaterials returns all materials ordered by name.
func (c conn) ListMaterials(ctx context.Context) ([]inventory.Material, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+materialCols+` FROM materials ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	defer rows.Close()

	var out []inventory.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// CreateMaterial inserts a material, assigning the ID and creation time.
func (c conn) CreateMaterial(ctx context.Context, m inventory.Material) (inventory.Material, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = m.CreatedAt.UTC()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO materials (`+materialCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Type, m.Quantity.String(), m.Unit, m.Price.String(),
		strconv.Itoa(m.LowStockThreshold), m.Length.String(), m.Width.String(), fmtTime(m.CreatedAt))
	if err != nil {
		return inventory.Material{}, fmt.Errorf("failed to create material: %w", err)
	}
	return m, nil
}

// UpdateMaterial rewrites every editable field of a material.
func (c conn) UpdateMaterial(ctx context.Context, m inventory.Material) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE materials
		 SET name = ?, type = ?, quantity = ?, unit = ?, price = ?,
		     low_stock_threshold = ?, length = ?, width = ?
		 WHERE id = ?`,
		m.Name, m.Type, m.Quantity.String(), m.Unit, m.Price.String(),
		strconv.Itoa(m.LowStockThreshold), m.Length.String(), m.Width.String(), m.ID)
	if err != nil {
		return fmt.Errorf("failed to update material: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrMaterialNotFound
	}
	return nil
}

// DeleteMaterial removes a material; its scrap cascades.
func (c conn) DeleteMaterial(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete material: %w", err)
	}
	return nil
}

// =============================================================================
// RECIPES
// =============================================================================

// RecipeFor returns a product's bill of materials joined with each
// material's type. Empty for an unknown product.
func (c conn) RecipeFor(ctx context.Context, productID string) ([]inventory.RecipeLine, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT pm.product_id, pm.material_id, m.type, pm.quantity_required, pm.cut_length, pm.cut_width
		 FROM product_materials pm
		 JOIN materials m ON pm.material_id = m.id
		 WHERE pm.product_id = ?
		 ORDER BY pm.position ASC`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	defer rows.Close()

	var out []inventory.RecipeLine
	for rows.Next() {
		var line inventory.RecipeLine
		var qty, cutL, cutW sql.NullString
		if err := rows.Scan(&line.ProductID, &line.MaterialID, &line.MaterialType, &qty, &cutL, &cutW); err != nil {
			return nil, err
		}
		if line.QuantityRequired, err = decCol(qty); err != nil {
			return nil, err
		}
		if line.CutLength, err = decCol(cutL); err != nil {
			return nil, err
		}
		if line.CutWidth, err = decCol(cutW); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// =============================================================================
// SCRAP (inventory.Store + listing surface)
// =============================================================================

const scrapCols = `id, material_id, quantity, dimensions, notes, length, width, created_at`

func scanScrap(row interface{ Scan(...any) error }, extra ...any) (*inventory.ScrapPiece, error) {
	var p inventory.ScrapPiece
	var qty, dims, notes, length, width, created sql.NullString
	dest := []any{&p.ID, &p.MaterialID, &qty, &dims, &notes, &length, &width, &created}
	dest = append(dest, extra...)
	err := row.Scan(dest...)
	if err != nil {
		return nil, err
	}
	p.Dimensions = strCol(dims)
	p.Notes = strCol(notes)
	if p.Quantity, err = decCol(qty); err != nil {
		return nil, err
	}
	if p.Length, err = decCol(length); err != nil {
		return nil, err
	}
	if p.Width, err = decCol(width); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = timeCol(created); err != nil {
		return nil, err
	}
	return &p, nil
}

// ScrapForMaterial returns every scrap piece of one material, oldest first.
func (c conn) ScrapForMaterial(ctx context.Context, materialID string) ([]inventory.ScrapPiece, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+scrapCols+` FROM scrap_materials
		 WHERE material_id = ?
		 ORDER BY created_at ASC, id ASC`, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scrap: %w", err)
	}
	defer rows.Close()

	var out []inventory.ScrapPiece
	for rows.Next() {
		p, err := scanScrap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (c conn) CreateScrap(ctx context.Context, piece inventory.ScrapPiece) error {
	if piece.ID == "" {
		piece.ID = uuid.NewString()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO scrap_materials (`+scrapCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		piece.ID, piece.MaterialID, piece.Quantity.String(), piece.Dimensions,
		piece.Notes, piece.Length.String(), piece.Width.String(), fmtTime(piece.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create scrap: %w", err)
	}
	return nil
}

func (c conn) UpdateScrap(ctx context.Context, piece inventory.ScrapPiece) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE scrap_materials
		 SET quantity = ?, dimensions = ?, notes = ?, length = ?, width = ?
		 WHERE id = ?`,
		piece.Quantity.String(), piece.Dimensions, piece.Notes,
		piece.Length.String(), piece.Width.String(), piece.ID)
	if err != nil {
		return fmt.Errorf("failed to update scrap: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scrap %s does not exist", piece.ID)
	}
	return nil
}

func (c conn) DeleteScrap(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM scrap_materials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scrap: %w", err)
	}
	return nil
}

// ScrapRow is a scrap piece joined with its material's name for listings.
type ScrapRow struct {
	inventory.ScrapPiece
	MaterialName string `json:"name"`
}

// ListScrap returns all scrap pieces with their material names, newest first.
func (c conn) ListScrap(ctx context.Context) ([]ScrapRow, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT s.id, s.material_id, s.quantity, s.dimensions, s.notes, s.length, s.width, s.created_at, m.name
		 FROM scrap_materials s
		 JOIN materials m ON s.material_id = m.id
		 ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scrap: %w", err)
	}
	defer rows.Close()

	var out []ScrapRow
	for rows.Next() {
		var name string
		p, err := scanScrap(rows, &name)
		if err != nil {
			return nil, err
		}
		out = append(out, ScrapRow{ScrapPiece: *p, MaterialName: name})
	}
	return out, rows.Err()
}

// =============================================================================
// MATERIAL TYPES
// =============================================================================

// ListMaterialTypes returns configured material categories ordered by name.
func (c conn) ListMaterialTypes(ctx context.Context) ([]inventory.MaterialType, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, unit FROM material_types ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list material types: %w", err)
	}
	defer rows.Close()

	var out []inventory.MaterialType
	for rows.Next() {
		var mt inventory.MaterialType
		if err := rows.Scan(&mt.ID, &mt.Name, &mt.Unit); err != nil {
			return nil, err
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

func (c conn) CreateMaterialType(ctx context.Context, mt inventory.MaterialType) (inventory.MaterialType, error) {
	if mt.ID == "" {
		mt.ID = uuid.NewString()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO material_types (id, name, unit) VALUES (?, ?, ?)`,
		mt.ID, mt.Name, mt.Unit)
	if err != nil {
		return inventory.MaterialType{}, fmt.Errorf("failed to create material type: %w", err)
	}
	return mt, nil
}

func (c conn) DeleteMaterialType(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM material_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete material type: %w", err)
	}
	return nil
}
