package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BUSINESS RECORDS
// =============================================================================
// Persistent records surrounding the stock engine: catalog, billing, purchasing
// and shop configuration. The engine itself only touches Material and
// ScrapPiece; everything below is carried by the store and the HTTP layer.

// InvoiceType distinguishes a stock-affecting invoice from a draft quote.
type InvoiceType string

const (
	InvoiceTypeInvoice InvoiceType = "invoice"
	InvoiceTypeQuote   InvoiceType = "quote"
)

// InvoiceStatus is the payment/lifecycle state of an invoice.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "Draft"
	StatusPending   InvoiceStatus = "Pending"
	StatusPaid      InvoiceStatus = "Paid"
	StatusCancelled InvoiceStatus = "Cancelled"
)

// MaterialType is a configurable material category (Sheet, Hardware, ...)
// with its default unit of measure.
type MaterialType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// ProductCategory groups products for the catalog UI.
type ProductCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is a sellable item built from materials per its recipe.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	BasePrice   decimal.Decimal `json:"base_price"`
	LaborCost   decimal.Decimal `json:"labor_cost"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Client is a customer record. Invoices reference clients by ID; invoice
// creation finds-or-creates the client by name.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Invoice is a bill (or draft quote) for a client. InvoiceNumber is a
// per-shop sequence assigned at creation.
type Invoice struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	InvoiceNumber int64           `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	LaborCost     decimal.Decimal `json:"labor_cost"`
	Status        InvoiceStatus   `json:"status"`
	Type          InvoiceType     `json:"type"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InvoiceItem is one line of an invoice. Exactly one of ProductID or
// MaterialID is set. For sheet material lines, Height/Width carry the cut
// dimensions (cut length is stored as height, matching the billing forms).
type InvoiceItem struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	ProductID   string          `json:"product_id,omitempty"`
	MaterialID  string          `json:"material_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Width       decimal.Decimal `json:"width"`
	Height      decimal.Decimal `json:"height"`
}

// Purchase is a supplier purchase; its items feed the weighted-average-cost
// update of material prices.
type Purchase struct {
	ID           string          `json:"id"`
	SupplierName string          `json:"supplier_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PurchaseDate time.Time       `json:"purchase_date"`
}

// PurchaseRecordItem is one received line of a purchase as persisted.
// (PurchaseItem in this package is the engine-side input to ApplyPurchase.)
type PurchaseRecordItem struct {
	ID         string          `json:"id"`
	PurchaseID string          `json:"purchase_id"`
	MaterialID string          `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// User is a login account. PasswordHash is a bcrypt hash, never exposed
// over the API.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Settings is the shop configuration singleton printed on invoices.
type Settings struct {
	ShopName    string          `json:"shop_name"`
	ShopAddress string          `json:"shop_address"`
	ShopPhone   string          `json:"shop_phone"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Currency    string          `json:"currency"`
	Logo        string          `json:"logo"`
	Theme       string          `json:"theme"`
}
