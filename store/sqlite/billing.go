package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/faycal-henaoui/wood-workshop/inventory"
)

// =============================================================================
// INVOICES
// =============================================================================

const invoiceCols = `id, client_id, invoice_number, total_amount, labor_cost, status, type, payment_method, created_at`

func scanInvoice(row interface{ Scan(...any) error }, extra ...any) (*inventory.Invoice, error) {
	var inv inventory.Invoice
	var clientID, total, labor, payment, created sql.NullString
	dest := []any{&inv.ID, &clientID, &inv.InvoiceNumber, &total, &labor, &inv.Status, &inv.Type, &payment, &created}
	dest = append(dest, extra...)
	err := row.Scan(dest...)
	if err != nil {
		return nil, err
	}
	inv.ClientID = strCol(clientID)
	inv.PaymentMethod = strCol(payment)
	if inv.TotalAmount, err = decCol(total); err != nil {
		return nil, err
	}
	if inv.LaborCost, err = decCol(labor); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = timeCol(created); err != nil {
		return nil, err
	}
	return &inv, nil
}

// NextInvoiceNumber returns the next value of the per-shop invoice sequence.
// Must be called inside the transaction that inserts the invoice.
func (c conn) NextInvoiceNumber(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(invoice_number), 0) + 1 FROM invoices`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	return n, nil
}

// CreateInvoice inserts an invoice header.
func (c conn) CreateInvoice(ctx context.Context, inv inventory.Invoice) (inventory.Invoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO invoices (`+invoiceCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ClientID, inv.InvoiceNumber, inv.TotalAmount.String(),
		inv.LaborCost.String(), string(inv.Status), string(inv.Type),
		inv.PaymentMethod, fmtTime(inv.CreatedAt))
	if err != nil {
		return inventory.Invoice{}, fmt.Errorf("failed to create invoice: %w", err)
	}
	return inv, nil
}

// InsertInvoiceItem appends one line to an invoice.
func (c conn) InsertInvoiceItem(ctx context.Context, item inventory.InvoiceItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	var productID, materialID any
	if item.ProductID != "" {
		productID = item.ProductID
	}
	if item.MaterialID != "" {
		materialID = item.MaterialID
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO invoice_items (id, invoice_id, product_id, material_id, description, quantity, unit_price, total_price, width, height)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.InvoiceID, productID, materialID, item.Description,
		item.Quantity.String(), item.UnitPrice.String(), item.TotalPrice.String(),
		item.Width.String(), item.Height.String())
	if err != nil {
		return fmt.Errorf("failed to insert invoice item: %w", err)
	}
	return nil
}

// InvoiceItems returns an invoice's lines in insertion order.
func (c conn) InvoiceItems(ctx context.Context, invoiceID string) ([]inventory.InvoiceItem, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, invoice_id, product_id, material_id, description, quantity, unit_price, total_price, width, height
		 FROM invoice_items WHERE invoice_id = ? ORDER BY rowid ASC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice items: %w", err)
	}
	defer rows.Close()

	var out []inventory.InvoiceItem
	for rows.Next() {
		var item inventory.InvoiceItem
		var productID, materialID, qty, unitPrice, totalPrice, width, height sql.NullString
		if err := rows.Scan(&item.ID, &item.InvoiceID, &productID, &materialID,
			&item.Description, &qty, &unitPrice, &totalPrice, &width, &height); err != nil {
			return nil, err
		}
		item.ProductID = strCol(productID)
		item.MaterialID = strCol(materialID)
		if item.Quantity, err = decCol(qty); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decCol(unitPrice); err != nil {
			return nil, err
		}
		if item.TotalPrice, err = decCol(totalPrice); err != nil {
			return nil, err
		}
		if item.Width, err = decCol(width); err != nil {
			return nil, err
		}
		if item.Height, err = decCol(height); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// DeleteInvoiceItems clears an invoice's lines (quote edit replaces them).
func (c conn) DeleteInvoiceItems(ctx context.Context, invoiceID string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM invoice_items WHERE invoice_id = ?`, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to clear invoice items: %w", err)
	}
	return nil
}

// InvoiceRow is an invoice joined with the client's name for listings.
type InvoiceRow struct {
	inventory.Invoice
	ClientName string `json:"client_name"`
}

// ListInvoices returns all invoices with client names, newest first.
func (c conn) ListInvoices(ctx context.Context) ([]InvoiceRow, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT i.id, i.client_id, i.invoice_number, i.total_amount, i.labor_cost, i.status, i.type, i.payment_method, i.created_at,
		        c.name
		 FROM invoices i
		 LEFT JOIN clients c ON i.client_id = c.id
		 ORDER BY i.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var out []InvoiceRow
	for rows.Next() {
		var name sql.NullString
		inv, err := scanInvoice(rows, &name)
		if err != nil {
			return nil, err
		}
		out = append(out, InvoiceRow{Invoice: *inv, ClientName: strCol(name)})
	}
	return out, rows.Err()
}

// InvoiceDetail is an invoice with the client contact fields used by the
// printable view.
type InvoiceDetail struct {
	inventory.Invoice
	ClientName    string `json:"client_name"`
	ClientAddress string `json:"client_address"`
	ClientPhone   string `json:"client_phone"`
}

// GetInvoice returns one invoice with client info, or (nil, nil) when absent.
func (c conn) GetInvoice(ctx context.Context, id string) (*InvoiceDetail, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT i.id, i.client_id, i.invoice_number, i.total_amount, i.labor_cost, i.status, i.type, i.payment_method, i.created_at,
		        c.name, c.address, c.phone
		 FROM invoices i
		 LEFT JOIN clients c ON i.client_id = c.id
		 WHERE i.id = ?`, id)

	var name, address, phone sql.NullString
	inv, err := scanInvoice(row, &name, &address, &phone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &InvoiceDetail{
		Invoice:       *inv,
		ClientName:    strCol(name),
		ClientAddress: strCol(address),
		ClientPhone:   strCol(phone),
	}, nil
}

// ClientInvoices returns a client's invoices, newest first.
func (c conn) ClientInvoices(ctx context.Context, clientID string) ([]inventory.Invoice, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE client_id = ? ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client invoices: %w", err)
	}
	defer rows.Close()

	var out []inventory.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// UpdateInvoiceHeader rewrites the editable header fields of a quote.
func (c conn) UpdateInvoiceHeader(ctx context.Context, inv inventory.Invoice) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE invoices SET client_id = ?, total_amount = ?, labor_cost = ? WHERE id = ?`,
		inv.ClientID, inv.TotalAmount.String(), inv.LaborCost.String(), inv.ID)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetInvoiceStatus updates the payment/lifecycle status.
func (c conn) SetInvoiceStatus(ctx context.Context, id string, status inventory.InvoiceStatus) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE invoices SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetInvoicePaymentMethod records how the invoice was paid.
func (c conn) SetInvoicePaymentMethod(ctx context.Context, id, method string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE invoices SET payment_method = ? WHERE id = ?`, method, id)
	if err != nil {
		return fmt.Errorf("failed to update payment method: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ConvertQuote flips a quote into a pending invoice.
func (c conn) ConvertQuote(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE invoices SET type = ?, status = ? WHERE id = ?`,
		string(inventory.InvoiceTypeInvoice), string(inventory.StatusPending), id)
	if err != nil {
		return fmt.Errorf("failed to convert quote: %w", err)
	}
	return nil
}

// DeleteInvoice removes an invoice; its items cascade. Stock already
// deducted for the invoice is not restored.
func (c conn) DeleteInvoice(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

// =============================================================================
// PURCHASES
// =============================================================================

func scanPurchase(row interface{ Scan(...any) error }) (*inventory.Purchase, error) {
	var p inventory.Purchase
	var supplier, total, date sql.NullString
	err := row.Scan(&p.ID, &supplier, &total, &date)
	if err != nil {
		return nil, err
	}
	p.SupplierName = strCol(supplier)
	if p.TotalAmount, err = decCol(total); err != nil {
		return nil, err
	}
	if p.PurchaseDate, err = timeCol(date); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPurchases returns all purchases, newest first.
func (c conn) ListPurchases(ctx context.Context) ([]inventory.Purchase, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, supplier_name, total_amount, purchase_date FROM purchases ORDER BY purchase_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var out []inventory.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetPurchase returns one purchase header, or (nil, nil) when absent.
func (c conn) GetPurchase(ctx context.Context, id string) (*inventory.Purchase, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, supplier_name, total_amount, purchase_date FROM purchases WHERE id = ?`, id)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	return p, nil
}

// CreatePurchase inserts a purchase header.
func (c conn) CreatePurchase(ctx context.Context, p inventory.Purchase) (inventory.Purchase, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO purchases (id, supplier_name, total_amount, purchase_date) VALUES (?, ?, ?, ?)`,
		p.ID, p.SupplierName, p.TotalAmount.String(), fmtTime(p.PurchaseDate))
	if err != nil {
		return inventory.Purchase{}, fmt.Errorf("failed to create purchase: %w", err)
	}
	return p, nil
}

// InsertPurchaseItem appends one received line to a purchase.
func (c conn) InsertPurchaseItem(ctx context.Context, item inventory.PurchaseRecordItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO purchase_items (id, purchase_id, material_id, quantity, unit_price) VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.PurchaseID, item.MaterialID, item.Quantity.String(), item.UnitPrice.String())
	if err != nil {
		return fmt.Errorf("failed to insert purchase item: %w", err)
	}
	return nil
}

// PurchaseItemRow is a purchase line joined with the material's name.
type PurchaseItemRow struct {
	inventory.PurchaseRecordItem
	MaterialName string `json:"material_name"`
}

// PurchaseItems returns a purchase's lines with material names.
func (c conn) PurchaseItems(ctx context.Context, purchaseID string) ([]PurchaseItemRow, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT pi.id, pi.purchase_id, pi.material_id, pi.quantity, pi.unit_price, COALESCE(m.name, '')
		 FROM purchase_items pi
		 LEFT JOIN materials m ON pi.material_id = m.id
		 WHERE pi.purchase_id = ?
		 ORDER BY pi.rowid ASC`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase items: %w", err)
	}
	defer rows.Close()

	var out []PurchaseItemRow
	for rows.Next() {
		var item PurchaseItemRow
		var materialID, qty, unitPrice sql.NullString
		if err := rows.Scan(&item.ID, &item.PurchaseID, &materialID, &qty, &unitPrice, &item.MaterialName); err != nil {
			return nil, err
		}
		item.MaterialID = strCol(materialID)
		if item.Quantity, err = decCol(qty); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decCol(unitPrice); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// =============================================================================
// USERS
// =============================================================================

// GetUserByUsername returns a login account, or (nil, nil) when absent.
func (c conn) GetUserByUsername(ctx context.Context, username string) (*inventory.User, error) {
	var u inventory.User
	var created sql.NullString
	err := c.db.QueryRowContext(ctx,
		`SELECT id, username, password, role, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.CreatedAt, err = timeCol(created); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a login account with an already-hashed password.
func (c conn) CreateUser(ctx context.Context, u inventory.User) (inventory.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = "admin"
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.Role, fmtTime(u.CreatedAt))
	if err != nil {
		return inventory.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns the shop configuration, defaults when never saved.
func (c conn) GetSettings(ctx context.Context) (inventory.Settings, error) {
	s := inventory.Settings{Currency: "DZD", Theme: "dark"}
	var taxRate sql.NullString
	err := c.db.QueryRowContext(ctx,
		`SELECT shop_name, shop_address, shop_phone, tax_rate, currency, logo, theme FROM settings WHERE id = 1`).
		Scan(&s.ShopName, &s.ShopAddress, &s.ShopPhone, &taxRate, &s.Currency, &s.Logo, &s.Theme)
	if err == sql.ErrNoRows {
		return s, nil
	}
	if err != nil {
		return inventory.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	if s.TaxRate, err = decCol(taxRate); err != nil {
		return inventory.Settings{}, err
	}
	return s, nil
}

// SaveSettings upserts the singleton shop configuration.
func (c conn) SaveSettings(ctx context.Context, s inventory.Settings) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO settings (id, shop_name, shop_address, shop_phone, tax_rate, currency, logo, theme)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     shop_name = excluded.shop_name,
		     shop_address = excluded.shop_address,
		     shop_phone = excluded.shop_phone,
		     tax_rate = excluded.tax_rate,
		     currency = excluded.currency,
		     logo = excluded.logo,
		     theme = excluded.theme`,
		s.ShopName, s.ShopAddress, s.ShopPhone, s.TaxRate.String(), s.Currency, s.Logo, s.Theme)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
