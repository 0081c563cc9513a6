package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/faycal-henaoui/wood-workshop/inventory"
)

// =============================================================================
// PRODUCTS
// =============================================================================

const productCols = `id, name, description, category, base_price, labor_cost, image_url, created_at`

func scanProduct(row interface{ Scan(...any) error }, extra ...any) (*inventory.Product, error) {
	var p inventory.Product
	var basePrice, laborCost, created sql.NullString
	dest := []any{&p.ID, &p.Name, &p.Description, &p.Category, &basePrice, &laborCost, &p.ImageURL, &created}
	dest = append(dest, extra...)
	err := row.Scan(dest...)
	if err != nil {
		return nil, err
	}
	if p.BasePrice, err = decCol(basePrice); err != nil {
		return nil, err
	}
	if p.LaborCost, err = decCol(laborCost); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = timeCol(created); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductRow is a product with the size of its bill of materials.
type ProductRow struct {
	inventory.Product
	MaterialCount int `json:"material_count"`
}

// ListProducts returns all products with their recipe line counts.
func (c conn) ListProducts(ctx context.Context) ([]ProductRow, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.description, p.category, p.base_price, p.labor_cost, p.image_url, p.created_at,
		        (SELECT COUNT(*) FROM product_materials pm WHERE pm.product_id = p.id) AS material_count
		 FROM products p
		 ORDER BY p.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []ProductRow
	for rows.Next() {
		var count int
		p, err := scanProduct(rows, &count)
		if err != nil {
			return nil, err
		}
		out = append(out, ProductRow{Product: *p, MaterialCount: count})
	}
	return out, rows.Err()
}

// GetProduct returns one product, or (nil, nil) when absent.
func (c conn) GetProduct(ctx context.Context, id string) (*inventory.Product, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// RecipeDetail is a recipe line joined with the material's display fields.
type RecipeDetail struct {
	inventory.RecipeLine
	MaterialName  string          `json:"name"`
	MaterialUnit  string          `json:"unit"`
	MaterialPrice decimal.Decimal `json:"price"`
}

// RecipeDetailFor returns a product's recipe with material name, unit and
// current price for the catalog view.
func (c conn) RecipeDetailFor(ctx context.Context, productID string) ([]RecipeDetail, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT pm.product_id, pm.material_id, m.type, pm.quantity_required, pm.cut_length, pm.cut_width,
		        m.name, m.unit, m.price
		 FROM product_materials pm
		 JOIN materials m ON pm.material_id = m.id
		 WHERE pm.product_id = ?
		 ORDER BY pm.position ASC`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe detail: %w", err)
	}
	defer rows.Close()

	var out []RecipeDetail
	for rows.Next() {
		var d RecipeDetail
		var qty, cutL, cutW, price sql.NullString
		if err := rows.Scan(&d.ProductID, &d.MaterialID, &d.MaterialType, &qty, &cutL, &cutW,
			&d.MaterialName, &d.MaterialUnit, &price); err != nil {
			return nil, err
		}
		if d.QuantityRequired, err = decCol(qty); err != nil {
			return nil, err
		}
		if d.CutLength, err = decCol(cutL); err != nil {
			return nil, err
		}
		if d.CutWidth, err = decCol(cutW); err != nil {
			return nil, err
		}
		if d.MaterialPrice, err = decCol(price); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateProduct inserts a product together with its recipe lines.
func (c conn) CreateProduct(ctx context.Context, p inventory.Product, recipe []inventory.RecipeLine) (inventory.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := fmtTime(p.CreatedAt)
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO products (`+productCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Category, p.BasePrice.String(),
		p.LaborCost.String(), p.ImageURL, now)
	if err != nil {
		return inventory.Product{}, fmt.Errorf("failed to create product: %w", err)
	}
	if err := c.insertRecipe(ctx, p.ID, recipe); err != nil {
		return inventory.Product{}, err
	}
	return p, nil
}

// UpdateProduct rewrites a product and replaces its recipe wholesale.
func (c conn) UpdateProduct(ctx context.Context, p inventory.Product, recipe []inventory.RecipeLine) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE products
		 SET name = ?, description = ?, category = ?, base_price = ?, labor_cost = ?, image_url = ?
		 WHERE id = ?`,
		p.Name, p.Description, p.Category, p.BasePrice.String(), p.LaborCost.String(), p.ImageURL, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inventory.ErrProductNotFound
	}

	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM product_materials WHERE product_id = ?`, p.ID); err != nil {
		return fmt.Errorf("failed to clear recipe: %w", err)
	}
	return c.insertRecipe(ctx, p.ID, recipe)
}

func (c conn) insertRecipe(ctx context.Context, productID string, recipe []inventory.RecipeLine) error {
	for i, line := range recipe {
		_, err := c.db.ExecContext(ctx,
			`INSERT INTO product_materials (id, product_id, material_id, quantity_required, cut_length, cut_width, position, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), productID, line.MaterialID,
			line.QuantityRequired.String(), line.CutLength.String(), line.CutWidth.String(),
			i, fmtTime(time.Time{}))
		if err != nil {
			return fmt.Errorf("failed to insert recipe line: %w", err)
		}
	}
	return nil
}

// DeleteProduct removes a product; its recipe cascades.
func (c conn) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// =============================================================================
// PRODUCT CATEGORIES
// =============================================================================

func (c conn) ListProductCategories(ctx context.Context) ([]inventory.ProductCategory, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name FROM product_categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []inventory.ProductCategory
	for rows.Next() {
		var pc inventory.ProductCategory
		if err := rows.Scan(&pc.ID, &pc.Name); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (c conn) CreateProductCategory(ctx context.Context, name string) (inventory.ProductCategory, error) {
	pc := inventory.ProductCategory{ID: uuid.NewString(), Name: name}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO product_categories (id, name) VALUES (?, ?)`, pc.ID, pc.Name)
	if err != nil {
		return inventory.ProductCategory{}, fmt.Errorf("failed to create category: %w", err)
	}
	return pc, nil
}

func (c conn) UpdateProductCategory(ctx context.Context, id, name string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE product_categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (c conn) DeleteProductCategory(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM product_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// =============================================================================
// CLIENTS
// =============================================================================

const clientCols = `id, name, phone, address, email, created_at`

func scanClient(row interface{ Scan(...any) error }) (*inventory.Client, error) {
	var cl inventory.Client
	var phone, address, email, created sql.NullString
	err := row.Scan(&cl.ID, &cl.Name, &phone, &address, &email, &created)
	if err != nil {
		return nil, err
	}
	cl.Phone = strCol(phone)
	cl.Address = strCol(address)
	cl.Email = strCol(email)
	if cl.CreatedAt, err = timeCol(created); err != nil {
		return nil, err
	}
	return &cl, nil
}

// ListClients returns all clients, newest first.
func (c conn) ListClients(ctx context.Context) ([]inventory.Client, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+clientCols+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var out []inventory.Client
	for rows.Next() {
		cl, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cl)
	}
	return out, rows.Err()
}

func (c conn) CreateClient(ctx context.Context, cl inventory.Client) (inventory.Client, error) {
	if cl.ID == "" {
		cl.ID = uuid.NewString()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO clients (`+clientCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
		cl.ID, cl.Name, cl.Phone, cl.Address, cl.Email, fmtTime(cl.CreatedAt))
	if err != nil {
		return inventory.Client{}, fmt.Errorf("failed to create client: %w", err)
	}
	return cl, nil
}

func (c conn) UpdateClient(ctx context.Context, cl inventory.Client) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE clients SET name = ?, phone = ?, address = ?, email = ? WHERE id = ?`,
		cl.Name, cl.Phone, cl.Address, cl.Email, cl.ID)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (c conn) DeleteClient(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

// FindOrCreateClient returns the first client with the given name, creating
// a bare record when none exists. Used by invoice creation.
func (c conn) FindOrCreateClient(ctx context.Context, name string) (string, error) {
	var id string
	err := c.db.QueryRowContext(ctx,
		`SELECT id FROM clients WHERE name = ? LIMIT 1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up client: %w", err)
	}

	cl, err := c.CreateClient(ctx, inventory.Client{Name: name})
	if err != nil {
		return "", err
	}
	return cl.ID, nil
}
