/*
Package sqlite provides the SQLite-backed store for the workshop.

PURPOSE:
  Implements inventory.Store plus all record persistence (catalog, clients,
  billing, purchasing, users, settings) using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  inventory.Store: materials, recipes, and scrap as the stock engine sees them
                   (implemented by both *Store and *Tx)

NUMERIC STORAGE:
  Quantities and prices are stored as decimal strings (TEXT) and parsed with
  shopspring/decimal, so no stock figure ever round-trips through a float.
  Aggregate report queries CAST to REAL in SQL; those feed charts, not stock.

KEY TABLES:
  materials:        Raw stock with nominal sheet dimensions
  scrap_materials:  Reusable offcuts, linked to their parent material
  products:         Sellable goods; product_materials holds the recipe
  invoices:         Bills and draft quotes; invoice_items the lines
  purchases:        Supplier restocks feeding the weighted-average-cost update

CONCURRENCY:
  WithTx holds a mutex for the whole transaction, so two stock-mutating
  flows (verify + deduct, purchase + reprice) can never interleave. Single
  statements outside WithTx rely on SQLite's own serialization.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/workshop.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  err = store.WithTx(ctx, func(tx *sqlite.Tx) error {
      return inventory.CommitOrder(ctx, tx, invoiceNumber, lines)
  })

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - inventory/store.go: Interface definitions
  - inventory/engine.go: Deduction engine using the Store
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs queries against either the pooled database or an open
// transaction. All query methods live on conn so *Store and *Tx share them.
type conn struct {
	db dbtx
}

// Store is the SQLite-backed store.
type Store struct {
	conn
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single pooled connection also keeps
	// ":memory:" databases from fragmenting across connections.
	db.SetMaxOpenConns(1)

	store := &Store{conn: conn{db: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a transaction-scoped view of the store. It implements
// inventory.Store, so the stock engine runs against it directly.
type Tx struct {
	conn
}

// WithTx executes fn within a single database transaction, serialized
// against every other transaction on this store. If fn returns an error the
// transaction is rolled back, otherwise committed.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{conn{db: sqlTx}}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// migrate creates the database schema and seeds the fixed lookup rows.
func (s *Store) migrate() error {
	schema := `
	-- Raw materials. Length/width are nominal sheet dimensions; zero for
	-- non-sheet stock.
	CREATE TABLE IF NOT EXISTS materials (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		quantity TEXT NOT NULL DEFAULT '0',
		unit TEXT NOT NULL,
		price TEXT NOT NULL DEFAULT '0',
		low_stock_threshold TEXT NOT NULL DEFAULT '5',
		length TEXT NOT NULL DEFAULT '0',
		width TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_materials_name ON materials(name);

	-- Reusable offcuts. Quantity is the fraction of a full sheet.
	CREATE TABLE IF NOT EXISTS scrap_materials (
		id TEXT PRIMARY KEY,
		material_id TEXT NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
		quantity TEXT NOT NULL,
		dimensions TEXT,
		notes TEXT,
		length TEXT NOT NULL DEFAULT '0',
		width TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scrap_material ON scrap_materials(material_id);

	-- Material categories with their default unit.
	CREATE TABLE IF NOT EXISTS material_types (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		unit TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS product_categories (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		base_price TEXT NOT NULL DEFAULT '0',
		labor_cost TEXT NOT NULL DEFAULT '0',
		image_url TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Bill of materials. Cut dimensions are zero for non-sheet lines.
	CREATE TABLE IF NOT EXISTS product_materials (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		material_id TEXT NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
		quantity_required TEXT NOT NULL,
		cut_length TEXT NOT NULL DEFAULT '0',
		cut_width TEXT NOT NULL DEFAULT '0',
		position INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_product_materials_product
		ON product_materials(product_id);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(name);

	-- invoice_number is a per-shop sequence assigned inside the creating
	-- transaction.
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		client_id TEXT REFERENCES clients(id),
		invoice_number INTEGER NOT NULL,
		total_amount TEXT NOT NULL DEFAULT '0',
		labor_cost TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'Pending',
		type TEXT NOT NULL DEFAULT 'invoice',
		payment_method TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_client ON invoices(client_id);
	CREATE INDEX IF NOT EXISTS idx_invoices_created ON invoices(created_at DESC);

	CREATE TABLE IF NOT EXISTS invoice_items (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		product_id TEXT REFERENCES products(id),
		material_id TEXT REFERENCES materials(id),
		description TEXT NOT NULL,
		quantity TEXT NOT NULL DEFAULT '1',
		unit_price TEXT NOT NULL DEFAULT '0',
		total_price TEXT NOT NULL DEFAULT '0',
		width TEXT NOT NULL DEFAULT '0',
		height TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice
		ON invoice_items(invoice_id);

	CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		supplier_name TEXT NOT NULL DEFAULT '',
		total_amount TEXT NOT NULL DEFAULT '0',
		purchase_date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_purchases_date ON purchases(purchase_date DESC);

	CREATE TABLE IF NOT EXISTS purchase_items (
		id TEXT PRIMARY KEY,
		purchase_id TEXT NOT NULL REFERENCES purchases(id) ON DELETE CASCADE,
		material_id TEXT REFERENCES materials(id) ON DELETE SET NULL,
		quantity TEXT NOT NULL,
		unit_price TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_purchase_items_purchase
		ON purchase_items(purchase_id);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'admin',
		created_at TEXT NOT NULL
	);

	-- Singleton row, id fixed to 1.
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		shop_name TEXT NOT NULL DEFAULT '',
		shop_address TEXT NOT NULL DEFAULT '',
		shop_phone TEXT NOT NULL DEFAULT '',
		tax_rate TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT 'DZD',
		logo TEXT NOT NULL DEFAULT '',
		theme TEXT NOT NULL DEFAULT 'dark'
	);

	INSERT OR IGNORE INTO material_types (id, name, unit) VALUES
		('mt-sheet', 'Sheet', 'sheet'),
		('mt-hardware', 'Hardware', 'pcs'),
		('mt-paint', 'Paint', 'liter'),
		('mt-wood', 'Wood', 'piece');

	INSERT OR IGNORE INTO product_categories (id, name) VALUES
		('pc-kitchen', 'Kitchen'),
		('pc-office', 'Office'),
		('pc-living', 'Living Room'),
		('pc-bedroom', 'Bedroom');
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

// decCol parses a decimal column. Empty and NULL scan as zero; anything else
// must be a valid decimal string since we wrote it ourselves.
func decCol(s sql.NullString) (decimal.Decimal, error) {
	if !s.Valid || s.String == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt decimal column %q: %w", s.String, err)
	}
	return d, nil
}

// timeCol parses an RFC3339 timestamp column, tolerating NULL.
func timeCol(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt timestamp column %q: %w", s.String, err)
	}
	return t, nil
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339)
}

func strCol(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}
