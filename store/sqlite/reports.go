/*
reports.go - Aggregate queries behind the dashboard, report and export routes.

Aggregates CAST the stored decimal strings to REAL in SQL. That is fine here:
these numbers feed charts and summaries, never stock mutations, which always
go through the decimal-string columns.

Time filters are computed in Go and passed as parameters so every query
stays testable against a fixed clock. Month-bucket series (daily breakdown,
monthly financials) generate the buckets in Go and merge the grouped rows,
since SQLite has no generate_series.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/faycal-henaoui/wood-workshop/inventory"
)

const (
	monthKeyLayout = "2006-01"
	dayKeyLayout   = "2006-01-02"
)

func decFromFloat(f sql.NullFloat64) decimal.Decimal {
	if !f.Valid {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f.Float64)
}

// =============================================================================
// DASHBOARD
// =============================================================================

type LowStockItem struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

type RecentInvoice struct {
	InvoiceNumber int64           `json:"invoice_number"`
	ClientName    string          `json:"client_name"`
	CreatedAt     time.Time       `json:"created_at"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type MaterialUsage struct {
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	TotalUsed decimal.Decimal `json:"total_used"`
}

// DashboardStats aggregates the shop's key indicators at one instant.
type DashboardStats struct {
	TotalStockValue  decimal.Decimal `json:"totalStockValue"`
	LowStockItems    []LowStockItem  `json:"lowStockItems"`
	OrdersThisMonth  int             `json:"ordersThisMonth"`
	RevenueThisMonth decimal.Decimal `json:"revenueThisMonth"`
	RecentInvoices   []RecentInvoice `json:"recentInvoices"`
	OrdersToday      int             `json:"ordersToday"`
	MostUsedMaterial *MaterialUsage  `json:"mostUsedMaterial"`
	ActiveProjects   int             `json:"activeProjects"`
	PendingPayments  decimal.Decimal `json:"pendingPayments"`
}

// Dashboard computes all dashboard indicators relative to now.
func (c conn) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{}
	monthKey := now.UTC().Format(monthKeyLayout)
	dayKey := now.UTC().Format(dayKeyLayout)

	var stockValue sql.NullFloat64
	if err := c.db.QueryRowContext(ctx,
		`SELECT SUM(CAST(quantity AS REAL) * CAST(price AS REAL)) FROM materials`).
		Scan(&stockValue); err != nil {
		return nil, fmt.Errorf("failed to compute stock value: %w", err)
	}
	stats.TotalStockValue = decFromFloat(stockValue)

	rows, err := c.db.QueryContext(ctx,
		`SELECT name, quantity, unit FROM materials
		 WHERE CAST(quantity AS REAL) <= CAST(low_stock_threshold AS REAL)
		 LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item LowStockItem
		var qty sql.NullString
		if err := rows.Scan(&item.Name, &qty, &item.Unit); err != nil {
			return nil, err
		}
		if item.Quantity, err = decCol(qty); err != nil {
			return nil, err
		}
		stats.LowStockItems = append(stats.LowStockItems, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE strftime('%Y-%m', created_at) = ?`, monthKey).
		Scan(&stats.OrdersThisMonth); err != nil {
		return nil, fmt.Errorf("failed to count monthly orders: %w", err)
	}

	var monthRevenue sql.NullFloat64
	if err := c.db.QueryRowContext(ctx,
		`SELECT SUM(CAST(total_amount AS REAL)) FROM invoices WHERE strftime('%Y-%m', created_at) = ?`, monthKey).
		Scan(&monthRevenue); err != nil {
		return nil, fmt.Errorf("failed to compute monthly revenue: %w", err)
	}
	stats.RevenueThisMonth = decFromFloat(monthRevenue)

	recent, err := c.db.QueryContext(ctx,
		`SELECT i.invoice_number, c.name, i.created_at, i.total_amount
		 FROM invoices i
		 JOIN clients c ON i.client_id = c.id
		 ORDER BY i.created_at DESC LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent invoices: %w", err)
	}
	defer recent.Close()
	for recent.Next() {
		var ri RecentInvoice
		var created, total sql.NullString
		if err := recent.Scan(&ri.InvoiceNumber, &ri.ClientName, &created, &total); err != nil {
			return nil, err
		}
		if ri.CreatedAt, err = timeCol(created); err != nil {
			return nil, err
		}
		if ri.TotalAmount, err = decCol(total); err != nil {
			return nil, err
		}
		stats.RecentInvoices = append(stats.RecentInvoices, ri)
	}
	if err := recent.Err(); err != nil {
		return nil, err
	}

	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE strftime('%Y-%m-%d', created_at) = ?`, dayKey).
		Scan(&stats.OrdersToday); err != nil {
		return nil, fmt.Errorf("failed to count today's orders: %w", err)
	}

	// Most used material today: recipe lines of sold products plus direct
	// material lines matched by description.
	var usage MaterialUsage
	var used sql.NullFloat64
	err = c.db.QueryRowContext(ctx,
		`SELECT name, unit, SUM(total_used) AS total_used FROM (
		     SELECT m.name, m.unit,
		            CAST(pm.quantity_required AS REAL) * CAST(ii.quantity AS REAL) AS total_used
		     FROM invoices i
		     JOIN invoice_items ii ON i.id = ii.invoice_id
		     JOIN product_materials pm ON ii.product_id = pm.product_id
		     JOIN materials m ON pm.material_id = m.id
		     WHERE strftime('%Y-%m-%d', i.created_at) = ?

		     UNION ALL

		     SELECT m.name, m.unit, CAST(ii.quantity AS REAL) AS total_used
		     FROM invoices i
		     JOIN invoice_items ii ON i.id = ii.invoice_id
		     JOIN materials m ON LOWER(ii.description) = LOWER(m.name)
		     WHERE strftime('%Y-%m-%d', i.created_at) = ?
		     AND ii.product_id IS NULL
		 )
		 GROUP BY name, unit
		 ORDER BY total_used DESC
		 LIMIT 1`, dayKey, dayKey).
		Scan(&usage.Name, &usage.Unit, &used)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to compute material usage: %w", err)
	}
	if err == nil {
		usage.TotalUsed = decFromFloat(used)
		stats.MostUsedMaterial = &usage
	}

	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE status = ? AND type = ?`,
		string(inventory.StatusPending), string(inventory.InvoiceTypeInvoice)).
		Scan(&stats.ActiveProjects); err != nil {
		return nil, fmt.Errorf("failed to count active projects: %w", err)
	}

	var pending sql.NullFloat64
	if err := c.db.QueryRowContext(ctx,
		`SELECT SUM(CAST(total_amount AS REAL)) FROM invoices WHERE status = ? AND type = ?`,
		string(inventory.StatusPending), string(inventory.InvoiceTypeInvoice)).
		Scan(&pending); err != nil {
		return nil, fmt.Errorf("failed to compute pending payments: %w", err)
	}
	stats.PendingPayments = decFromFloat(pending)

	return stats, nil
}

// DayBucket is one day of the current-month revenue breakdown.
type DayBucket struct {
	Date     string          `json:"date"`
	DayLabel string          `json:"day_label"`
	Revenue  decimal.Decimal `json:"revenue"`
	Orders   int             `json:"orders"`
}

// DailyBreakdown returns one bucket per day of now's month, including days
// with no orders.
func (c conn) DailyBreakdown(ctx context.Context, now time.Time) ([]DayBucket, error) {
	monthKey := now.UTC().Format(monthKeyLayout)

	rows, err := c.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m-%d', created_at) AS day,
		        SUM(CAST(total_amount AS REAL)), COUNT(id)
		 FROM invoices
		 WHERE strftime('%Y-%m', created_at) = ?
		 GROUP BY day`, monthKey)
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily breakdown: %w", err)
	}
	defer rows.Close()

	type dayAgg struct {
		revenue decimal.Decimal
		orders  int
	}
	byDay := make(map[string]dayAgg)
	for rows.Next() {
		var day string
		var revenue sql.NullFloat64
		var orders int
		if err := rows.Scan(&day, &revenue, &orders); err != nil {
			return nil, err
		}
		byDay[day] = dayAgg{revenue: decFromFloat(revenue), orders: orders}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	var out []DayBucket
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayKeyLayout)
		agg := byDay[key]
		out = append(out, DayBucket{
			Date:     key,
			DayLabel: d.Format("02"),
			Revenue:  agg.revenue,
			Orders:   agg.orders,
		})
	}
	return out, nil
}

// =============================================================================
// REPORTS
// =============================================================================

// MonthRevenue is one month of the revenue report.
type MonthRevenue struct {
	MonthKey string          `json:"month_key"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// MonthlyRevenue groups invoice totals by month over the lookback window.
func (c conn) MonthlyRevenue(ctx context.Context, months int, now time.Time) ([]MonthRevenue, error) {
	cutoff := fmtTime(now.AddDate(0, -months, 0))
	rows, err := c.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', created_at) AS month_key, SUM(CAST(total_amount AS REAL))
		 FROM invoices
		 WHERE created_at > ?
		 GROUP BY month_key
		 ORDER BY month_key`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly revenue: %w", err)
	}
	defer rows.Close()

	var out []MonthRevenue
	for rows.Next() {
		var mr MonthRevenue
		var revenue sql.NullFloat64
		if err := rows.Scan(&mr.MonthKey, &revenue); err != nil {
			return nil, err
		}
		mr.Revenue = decFromFloat(revenue)
		out = append(out, mr)
	}
	return out, rows.Err()
}

// TopItem is one entry of the top-sellers report.
type TopItem struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"val"`
}

// TopItemsThisMonth ranks invoice lines by quantity sold in now's month.
func (c conn) TopItemsThisMonth(ctx context.Context, now time.Time) ([]TopItem, error) {
	monthKey := now.UTC().Format(monthKeyLayout)
	rows, err := c.db.QueryContext(ctx,
		`SELECT ii.description, SUM(CAST(ii.quantity AS REAL)) AS val
		 FROM invoice_items ii
		 JOIN invoices i ON ii.invoice_id = i.id
		 WHERE strftime('%Y-%m', i.created_at) = ?
		 GROUP BY ii.description
		 ORDER BY val DESC
		 LIMIT 4`, monthKey)
	if err != nil {
		return nil, fmt.Errorf("failed to rank items: %w", err)
	}
	defer rows.Close()

	var out []TopItem
	for rows.Next() {
		var item TopItem
		var val sql.NullFloat64
		if err := rows.Scan(&item.Name, &val); err != nil {
			return nil, err
		}
		item.Value = decFromFloat(val)
		out = append(out, item)
	}
	return out, rows.Err()
}

// ClientStat is one entry of the top-clients report.
type ClientStat struct {
	Name       string          `json:"name"`
	Invoices   int             `json:"invoices"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

// TopClients ranks clients by revenue or invoice count. byInvoices selects
// between the two fixed orderings; nothing user-supplied reaches the SQL.
func (c conn) TopClients(ctx context.Context, byInvoices bool) ([]ClientStat, error) {
	orderBy := `total_spent DESC`
	if byInvoices {
		orderBy = `invoices DESC`
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT c.name, COUNT(i.id) AS invoices, SUM(CAST(i.total_amount AS REAL)) AS total_spent
		 FROM invoices i
		 JOIN clients c ON i.client_id = c.id
		 GROUP BY c.name
		 ORDER BY `+orderBy+`
		 LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("failed to rank clients: %w", err)
	}
	defer rows.Close()

	var out []ClientStat
	for rows.Next() {
		var cs ClientStat
		var spent sql.NullFloat64
		if err := rows.Scan(&cs.Name, &cs.Invoices, &spent); err != nil {
			return nil, err
		}
		cs.TotalSpent = decFromFloat(spent)
		out = append(out, cs)
	}
	return out, rows.Err()
}

// RevenueTotals carries the revenue and labor sums over a window.
type RevenueTotals struct {
	Revenue decimal.Decimal
	Labor   decimal.Decimal
}

// RevenueAndLabor sums invoice totals and labor over the lookback window,
// optionally restricted to one status.
func (c conn) RevenueAndLabor(ctx context.Context, months int, status inventory.InvoiceStatus, now time.Time) (RevenueTotals, error) {
	cutoff := fmtTime(now.AddDate(0, -months, 0))
	query := `SELECT SUM(CAST(total_amount AS REAL)), SUM(CAST(labor_cost AS REAL))
	          FROM invoices WHERE created_at > ?`
	args := []any{cutoff}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}

	var revenue, labor sql.NullFloat64
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&revenue, &labor); err != nil {
		return RevenueTotals{}, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return RevenueTotals{Revenue: decFromFloat(revenue), Labor: decFromFloat(labor)}, nil
}

// PurchasesTotal sums purchase spending over the lookback window.
func (c conn) PurchasesTotal(ctx context.Context, months int, now time.Time) (decimal.Decimal, error) {
	cutoff := fmtTime(now.AddDate(0, -months, 0))
	var total sql.NullFloat64
	if err := c.db.QueryRowContext(ctx,
		`SELECT SUM(CAST(total_amount AS REAL)) FROM purchases WHERE purchase_date > ?`, cutoff).
		Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum purchases: %w", err)
	}
	return decFromFloat(total), nil
}

// EstimatedCOGS estimates cost of goods sold from recipes priced at current
// material cost, optionally restricted to one invoice status.
func (c conn) EstimatedCOGS(ctx context.Context, months int, status inventory.InvoiceStatus, now time.Time) (decimal.Decimal, error) {
	cutoff := fmtTime(now.AddDate(0, -months, 0))
	query := `SELECT SUM(CAST(ii.quantity AS REAL) * CAST(pm.quantity_required AS REAL) * CAST(m.price AS REAL))
	          FROM invoice_items ii
	          JOIN invoices i ON ii.invoice_id = i.id
	          JOIN product_materials pm ON ii.product_id = pm.product_id
	          JOIN materials m ON pm.material_id = m.id
	          WHERE i.created_at > ?`
	args := []any{cutoff}
	if status != "" {
		query += ` AND i.status = ?`
		args = append(args, string(status))
	}

	var cogs sql.NullFloat64
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&cogs); err != nil {
		return decimal.Zero, fmt.Errorf("failed to estimate COGS: %w", err)
	}
	return decFromFloat(cogs), nil
}

// MonthlyFinancial is one month of the financial chart series.
type MonthlyFinancial struct {
	Month         string          `json:"month"`
	Revenue       decimal.Decimal `json:"revenue"`
	Labor         decimal.Decimal `json:"labor"`
	PurchasesCost decimal.Decimal `json:"purchases_cost"`
}

// MonthlyFinancials returns one bucket per month of the window, including
// empty months, newest last.
func (c conn) MonthlyFinancials(ctx context.Context, months int, status inventory.InvoiceStatus, now time.Time) ([]MonthlyFinancial, error) {
	cutoff := fmtTime(now.AddDate(0, -months, 0))

	query := `SELECT strftime('%Y-%m', created_at) AS month_key,
	                 SUM(CAST(total_amount AS REAL)), SUM(CAST(labor_cost AS REAL))
	          FROM invoices WHERE created_at > ?`
	args := []any{cutoff}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` GROUP BY month_key`

	type invAgg struct {
		revenue decimal.Decimal
		labor   decimal.Decimal
	}
	invoicesByMonth := make(map[string]invAgg)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group invoices by month: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var revenue, labor sql.NullFloat64
		if err := rows.Scan(&key, &revenue, &labor); err != nil {
			return nil, err
		}
		invoicesByMonth[key] = invAgg{revenue: decFromFloat(revenue), labor: decFromFloat(labor)}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	purchasesByMonth := make(map[string]decimal.Decimal)
	prows, err := c.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', purchase_date) AS month_key, SUM(CAST(total_amount AS REAL))
		 FROM purchases WHERE purchase_date > ?
		 GROUP BY month_key`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to group purchases by month: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var key string
		var cost sql.NullFloat64
		if err := prows.Scan(&key, &cost); err != nil {
			return nil, err
		}
		purchasesByMonth[key] = decFromFloat(cost)
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -months, 0)
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	var out []MonthlyFinancial
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		key := m.Format(monthKeyLayout)
		inv := invoicesByMonth[key]
		out = append(out, MonthlyFinancial{
			Month:         m.Format("Jan 2006"),
			Revenue:       inv.revenue,
			Labor:         inv.labor,
			PurchasesCost: purchasesByMonth[key],
		})
	}
	return out, nil
}

// =============================================================================
// MONTHLY EXPORT
// =============================================================================

// ExportInvoice is one sales row of the monthly detailed report.
type ExportInvoice struct {
	ID            string          `json:"id"`
	InvoiceNumber int64           `json:"invoice_number"`
	ClientName    string          `json:"client_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	LaborCost     decimal.Decimal `json:"labor_cost"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InvoicesForMonth returns the month's invoices with client names, oldest
// first, for the detailed report.
func (c conn) InvoicesForMonth(ctx context.Context, year int, month time.Month) ([]ExportInvoice, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	rows, err := c.db.QueryContext(ctx,
		`SELECT i.id, i.invoice_number, COALESCE(c.name, ''), i.total_amount, i.labor_cost, i.status, i.created_at
		 FROM invoices i
		 LEFT JOIN clients c ON i.client_id = c.id
		 WHERE strftime('%Y-%m', i.created_at) = ?
		 ORDER BY i.created_at ASC`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly invoices: %w", err)
	}
	defer rows.Close()

	var out []ExportInvoice
	for rows.Next() {
		var e ExportInvoice
		var total, labor, created sql.NullString
		if err := rows.Scan(&e.ID, &e.InvoiceNumber, &e.ClientName, &total, &labor, &e.Status, &created); err != nil {
			return nil, err
		}
		if e.TotalAmount, err = decCol(total); err != nil {
			return nil, err
		}
		if e.LaborCost, err = decCol(labor); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = timeCol(created); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PurchasesForMonth returns the month's purchases, oldest first.
func (c conn) PurchasesForMonth(ctx context.Context, year int, month time.Month) ([]inventory.Purchase, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, supplier_name, total_amount, purchase_date
		 FROM purchases
		 WHERE strftime('%Y-%m', purchase_date) = ?
		 ORDER BY purchase_date ASC`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly purchases: %w", err)
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
