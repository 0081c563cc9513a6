/*
dto.go - Request and response shapes for the REST API

Quantities and prices travel as decimal strings (shopspring/decimal
marshals quoted), matching what the billing frontend already sends and
receives. Incoming bodies may carry bare JSON numbers; decimal.Decimal
accepts both.
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/faycal-henaoui/wood-workshop/inventory"
	"github.com/faycal-henaoui/wood-workshop/store/sqlite"
)

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageResponse is the generic acknowledgement payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// StockValidationResponse rejects an order with per-material shortages.
type StockValidationResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// =============================================================================
// MATERIALS
// =============================================================================

type MaterialRequest struct {
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit"`
	Price             decimal.Decimal `json:"price"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	Length            decimal.Decimal `json:"length"`
	Width             decimal.Decimal `json:"width"`
}

func (req MaterialRequest) toMaterial(id string) inventory.Material {
	return inventory.Material{
		ID:                id,
		Name:              req.Name,
		Type:              req.Type,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		Price:             req.Price,
		LowStockThreshold: req.LowStockThreshold,
		Length:            req.Length,
		Width:             req.Width,
	}
}

// =============================================================================
// PRODUCTS
// =============================================================================

type RecipeLineRequest struct {
	MaterialID       string          `json:"material_id"`
	QuantityRequired decimal.Decimal `json:"quantity_required"`
	CutLength        decimal.Decimal `json:"cut_length"`
	CutWidth         decimal.Decimal `json:"cut_width"`
}

type ProductRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	BasePrice   decimal.Decimal     `json:"base_price"`
	LaborCost   decimal.Decimal     `json:"labor_cost"`
	Materials   []RecipeLineRequest `json:"materials"`
}

func (req ProductRequest) recipe() []inventory.RecipeLine {
	lines := make([]inventory.RecipeLine, len(req.Materials))
	for i, m := range req.Materials {
		lines[i] = inventory.RecipeLine{
			MaterialID:       m.MaterialID,
			QuantityRequired: m.QuantityRequired,
			CutLength:        m.CutLength,
			CutWidth:         m.CutWidth,
		}
	}
	return lines
}

type CategoryRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// CLIENTS
// =============================================================================

type ClientRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// =============================================================================
// INVOICES
// =============================================================================

// InvoiceItemRequest is one line of an invoice or quote as submitted by the
// billing form. QuantityUsed is the actual consumption (possibly a sheet
// fraction); billing rounds sheet lines up to whole sheets.
type InvoiceItemRequest struct {
	ProductID       string          `json:"product_id"`
	MaterialID      string          `json:"material_id"`
	Description     string          `json:"description"`
	QuantityUsed    decimal.Decimal `json:"quantity_used"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	IsSheetMaterial bool            `json:"is_sheet_material"`
	CutLength       decimal.Decimal `json:"cut_length"`
	CutWidth        decimal.Decimal `json:"cut_width"`
}

type InvoiceRequest struct {
	ClientName  string               `json:"client_name"`
	Items       []InvoiceItemRequest `json:"items"`
	TotalAmount decimal.Decimal      `json:"total_amount"`
	LaborCost   decimal.Decimal      `json:"labor_cost"`
	Type        string               `json:"type"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type PaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// InvoiceDetailResponse is the printable invoice view: header, client
// contact, lines and shop settings.
type InvoiceDetailResponse struct {
	sqlite.InvoiceDetail
	Items    []inventory.InvoiceItem `json:"items"`
	Settings inventory.Settings      `json:"settings"`
}

// =============================================================================
// PURCHASES
// =============================================================================

// PurchaseItemRequest is one restock line. ID names an existing material;
// IsNew creates the material first with zero stock and price, so the
// weighted-average update prices it at exactly what was paid.
type PurchaseItemRequest struct {
	ID        string          `json:"id"`
	IsNew     bool            `json:"isNew"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type PurchaseRequest struct {
	SupplierName string                `json:"supplier_name"`
	PurchaseDate string                `json:"purchase_date"`
	Items        []PurchaseItemRequest `json:"items"`
}

type PurchaseDetailResponse struct {
	inventory.Purchase
	Items []sqlite.PurchaseItemRow `json:"items"`
}

// =============================================================================
// AUTH
// =============================================================================

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

type AuthUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
