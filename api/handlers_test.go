/*
handlers_test.go - End-to-end handler tests

Every test runs against a real in-memory SQLite store behind the full
router, authenticated with a freshly signed token.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faycal-henaoui/wood-workshop/inventory"
	"github.com/faycal-henaoui/wood-workshop/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testAPI struct {
	handler *Handler
	router  http.Handler
	store   *sqlite.Store
	token   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, []byte("test-secret"), NewMetrics(prometheus.NewRegistry()))
	token, err := h.signToken("u-test")
	require.NoError(t, err)

	return &testAPI{
		handler: h,
		router:  NewRouter(h, RouterOptions{}),
		store:   store,
		token:   token,
	}
}

// do sends an authenticated JSON request through the router.
func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// seedPlywood inserts the canonical sheet material directly into the store.
func seedPlywood(t *testing.T, store *sqlite.Store, qty float64) inventory.Material {
	t.Helper()
	mat, err := store.CreateMaterial(context.Background(), inventory.Material{
		Name:     "Plywood",
		Type:     inventory.MaterialTypeSheet,
		Quantity: decimal.NewFromFloat(qty),
		Unit:     "sheet",
		Price:    decimal.NewFromInt(50),
		Length:   decimal.NewFromInt(280),
		Width:    decimal.NewFromInt(130),
	})
	require.NoError(t, err)
	return mat
}

func stockOf(t *testing.T, store *sqlite.Store, id string) decimal.Decimal {
	t.Helper()
	mat, err := store.GetMaterial(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, mat)
	return mat.Quantity
}

// =============================================================================
// AUTH
// =============================================================================

func TestAuth_RegisterAndLogin(t *testing.T) {
	a := newTestAPI(t)

	// Register a user
	rec := a.do(t, http.MethodPost, "/auth/register", CredentialsRequest{Username: "fay", Password: "hunter2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	auth := decodeBody[AuthResponse](t, rec)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "fay", auth.User.Username)
	assert.Equal(t, "admin", auth.User.Role)

	// Duplicate registration is rejected
	rec = a.do(t, http.MethodPost, "/auth/register", CredentialsRequest{Username: "fay", Password: "other"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong password
	rec = a.do(t, http.MethodPost, "/auth/login", CredentialsRequest{Username: "fay", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct login
	rec = a.do(t, http.MethodPost, "/auth/login", CredentialsRequest{Username: "fay", Password: "hunter2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody[AuthResponse](t, rec).Token)
}

func TestAuth_ProtectedRoutesRequireToken(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/materials/", nil)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/materials/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// =============================================================================
// MATERIALS
// =============================================================================

func TestMaterials_CRUD(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/materials/", MaterialRequest{
		Name: "Oak Board", Type: "Wood", Quantity: decimal.NewFromInt(12),
		Unit: "piece", Price: decimal.NewFromFloat(9.5), LowStockThreshold: 3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decodeBody[inventory.Material](t, rec)
	require.NotEmpty(t, created.ID)

	rec = a.do(t, http.MethodGet, "/api/materials/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]inventory.Material](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Oak Board", list[0].Name)

	rec = a.do(t, http.MethodPut, "/api/materials/"+created.ID, MaterialRequest{
		Name: "Oak Board", Type: "Wood", Quantity: decimal.NewFromInt(20),
		Unit: "piece", Price: decimal.NewFromFloat(9.5), LowStockThreshold: 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, stockOf(t, a.store, created.ID).Equal(decimal.NewFromInt(20)))

	rec = a.do(t, http.MethodPut, "/api/materials/missing-id", MaterialRequest{Name: "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/materials/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mat, err := a.store.GetMaterial(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, mat)
}

// =============================================================================
// INVOICES
// =============================================================================

func TestCreateInvoice_SheetLine_DeductsAndGeneratesScrap(t *testing.T) {
	// GIVEN: 5 sheets of plywood
	// WHEN: Invoicing a 200x100 cut used as 0.55 of a sheet
	// THEN: Billed as 1 whole sheet, stock drops to 4, offcut recorded

	a := newTestAPI(t)
	mat := seedPlywood(t, a.store, 5)

	rec := a.do(t, http.MethodPost, "/api/invoices/", InvoiceRequest{
		ClientName: "Karim",
		Type:       "invoice",
		Items: []InvoiceItemRequest{{
			MaterialID:      mat.ID,
			Description:     "Plywood cut",
			QuantityUsed:    decimal.NewFromFloat(0.55),
			UnitPrice:       decimal.NewFromInt(60),
			IsSheetMaterial: true,
			CutLength:       decimal.NewFromInt(200),
			CutWidth:        decimal.NewFromInt(100),
		}},
		TotalAmount: decimal.NewFromInt(60),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	created := decodeBody[inventory.Invoice](t, rec)
	assert.Equal(t, int64(1), created.InvoiceNumber)
	assert.Equal(t, inventory.StatusPending, created.Status)

	assert.True(t, stockOf(t, a.store, mat.ID).Equal(decimal.NewFromInt(4)))

	pieces, err := a.store.ScrapForMaterial(context.Background(), mat.ID)
	require.NoError(t, err)
	require.Len(t, pieces, 1)
	assert.Equal(t, "80 x 30", pieces[0].Dimensions)
	assert.Equal(t, "Offcut from Invoice #000001", pieces[0].Notes)

	// Billed line persisted with the rounded-up quantity.
	items, err := a.store.InvoiceItems(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, items[0].TotalPrice.Equal(decimal.NewFromInt(60)))
}

func TestCreateInvoice_Shortage_NothingPersists(t *testing.T) {
	// GIVEN: 1 sheet in stock
	// WHEN: Invoicing 3 sheets
	// THEN: 400 with the shortage list, and neither invoice nor client rows
	//       survive the rollback

	a := newTestAPI(t)
	mat := seedPlywood(t, a.store, 1)

	rec := a.do(t, http.MethodPost, "/api/invoices/", InvoiceRequest{
		ClientName: "Karim",
		Type:       "invoice",
		Items: []InvoiceItemRequest{{
			MaterialID:   mat.ID,
			QuantityUsed: decimal.NewFromInt(3),
			UnitPrice:    decimal.NewFromInt(60),
		}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	resp := decodeBody[StockValidationResponse](t, rec)
	assert.Equal(t, "Stock Validation Failed", resp.Message)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], `Insufficient stock for "Plywood"`)

	invoices, err := a.store.ListInvoices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, invoices)
	clients, err := a.store.ListClients(context.Background())
	require.NoError(t, err)
	assert.Empty(t, clients)
	assert.True(t, stockOf(t, a.store, mat.ID).Equal(decimal.NewFromInt(1)))
}

func TestQuote_SkipsDeduction_ConvertDeducts(t *testing.T) {
	// GIVEN: A quote for 2 sheets
	// WHEN: Creating it, then converting it
	// THEN: Stock moves only at conversion time

	a := newTestAPI(t)
	mat := seedPlywood(t, a.store, 5)

	rec := a.do(t, http.MethodPost, "/api/invoices/", InvoiceRequest{
		ClientName: "Amina",
		Type:       "quote",
		Items: []InvoiceItemRequest{{
			MaterialID:   mat.ID,
			QuantityUsed: decimal.NewFromInt(2),
			UnitPrice:    decimal.NewFromInt(55),
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decodeBody[inventory.Invoice](t, rec)
	assert.Equal(t, inventory.InvoiceTypeQuote, quote.Type)
	assert.Equal(t, inventory.StatusDraft, quote.Status)
	assert.True(t, stockOf(t, a.store, mat.ID).Equal(decimal.NewFromInt(5)), "quotes must not touch stock")

	rec = a.do(t, http.MethodPut, "/api/invoices/"+quote.ID+"/convert", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, stockOf(t, a.store, mat.ID).Equal(decimal.NewFromInt(3)))

	detail, err := a.store.GetInvoice(context.Background(), quote.ID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, inventory.InvoiceTypeInvoice, detail.Type)
	assert.Equal(t, inventory.StatusPending, detail.Status)

	// Converting again is rejected.
	rec = a.do(t, http.MethodPut, "/api/invoices/"+quote.ID+"/convert", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertQuote_Shortage_StaysAQuote(t *testing.T) {
	// GIVEN: A quote whose stock has since been sold off
	// WHEN: Converting
	// THEN: 400, quote unchanged, stock unchanged

	a := newTestAPI(t)
	mat := seedPlywood(t, a.store, 5)

	rec := a.do(t, http.MethodPost, "/api/invoices/", InvoiceRequest{
		ClientName: "Amina",
		Type:       "quote",
		Items: []InvoiceItemRequest{{
			MaterialID:   mat.ID,
			QuantityUsed: decimal.NewFromInt(4),
			UnitPrice:    decimal.NewFromInt(55),
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	quote := decodeBody[inventory.Invoice](t, rec)

	require.NoError(t, a.store.SetMaterialQuantity(context.Background(), mat.ID, decimal.NewFromInt(2)))

	rec = a.do(t, http.MethodPut, "/api/invoices/"+quote.ID+"/convert", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	detail, err := a.store.GetInvoice(context.Background(), quote.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.InvoiceTypeQuote, detail.Type)
	assert.True(t, stockOf(t, a.store, mat.ID).Equal(decimal.NewFromInt(2)))
}

func TestDeleteInvoice_DoesNotRestoreStock(t *testing.T) {
	a := newTestAPI(t)
	mat := seedPlywood(t, a.store, 5)

	rec := a.do(t, http.MethodPost, "/api/invoices/", InvoiceRequest{
		ClientName: "Karim",
		Type:       "invoice",
		Items: []InvoiceItemRequest{{
			MaterialID:   mat.ID,
			QuantityUsed: decimal.NewFromInt(2),
			UnitPrice:    decimal.NewFromInt(55),
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	inv := decodeBody[inventory.Invoice](t, rec)

	rec = a.do(t, http.MethodDelete, "/api/invoices/"+inv.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, stockOf(t, a.store, mat.ID).Equal(decimal.NewFromInt(3)), "deleting an invoice must not restore stock")
}

func TestInvoiceNumbers_Sequential(t *testing.T) {
	a := newTestAPI(t)
	mat := seedPlywood(t, a.store, 10)

	for i := 1; i <= 3; i++ {
		rec := a.do(t, http.MethodPost, "/api/invoices/", InvoiceRequest{
			ClientName: fmt.Sprintf("Client %d", i),
			Type:       "invoice",
			Items: []InvoiceItemRequest{{
				MaterialID:   mat.ID,
				QuantityUsed: decimal.NewFromInt(1),
				UnitPrice:    decimal.NewFromInt(55),
			}},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(i), decodeBody[inventory.Invoice](t, rec).InvoiceNumber)
	}
}

// =============================================================================
// PURCHASES
// =============================================================================

func TestCreatePurchase_ExistingMaterial_WAC(t *testing.T) {
	// GIVEN: 10 units at price 5
	// WHEN: Buying 10 more at 7
	// THEN: 20 units at 6, purchase and items recorded

	a := newTestAPI(t)
	mat, err := a.store.CreateMaterial(context.Background(), inventory.Material{
		Name: "Oak Board", Type: "Wood",
		Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(5), Unit: "piece",
	})
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, "/api/purchases/", PurchaseRequest{
		SupplierName: "Bois du Sud",
		Items: []PurchaseItemRequest{{
			ID: mat.ID, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(7),
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated, err := a.store.GetMaterial(context.Background(), mat.ID)
	require.NoError(t, err)
	assert.True(t, updated.Quantity.Equal(decimal.NewFromInt(20)))
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(6)))

	purchases, err := a.store.ListPurchases(context.Background())
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, "Bois du Sud", purchases[0].SupplierName)
	assert.True(t, purchases[0].TotalAmount.Equal(decimal.NewFromInt(70)))
}

func TestCreatePurchase_NewMaterial_CreatedAndPriced(t *testing.T) {
	// GIVEN: No such material
	// WHEN: Buying 4 of a brand-new material at 12.5
	// THEN: Material exists with qty 4 priced at exactly what was paid

	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/purchases/", PurchaseRequest{
		SupplierName: "Bois du Sud",
		Items: []PurchaseItemRequest{{
			IsNew: true, Name: "MDF Panel", Type: "Sheet", Unit: "sheet",
			Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromFloat(12.5),
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	mats, err := a.store.ListMaterials(context.Background())
	require.NoError(t, err)
	require.Len(t, mats, 1)
	assert.Equal(t, "MDF Panel", mats[0].Name)
	assert.True(t, mats[0].Quantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, mats[0].Price.Equal(decimal.NewFromFloat(12.5)))
}

// =============================================================================
// SETTINGS AND DASHBOARD
// =============================================================================

func TestSettings_DefaultsAndRoundTrip(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/settings/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decodeBody[inventory.Settings](t, rec)
	assert.Equal(t, "DZD", settings.Currency)
	assert.Equal(t, "dark", settings.Theme)

	settings.ShopName = "Atelier Henaoui"
	settings.Currency = "EUR"
	rec = a.do(t, http.MethodPut, "/api/settings/", settings)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/settings/", nil)
	saved := decodeBody[inventory.Settings](t, rec)
	assert.Equal(t, "Atelier Henaoui", saved.ShopName)
	assert.Equal(t, "EUR", saved.Currency)
}

func TestDashboard_Smoke(t *testing.T) {
	a := newTestAPI(t)
	mat := seedPlywood(t, a.store, 5)

	rec := a.do(t, http.MethodPost, "/api/invoices/", InvoiceRequest{
		ClientName: "Karim",
		Type:       "invoice",
		Items: []InvoiceItemRequest{{
			MaterialID:   mat.ID,
			QuantityUsed: decimal.NewFromInt(1),
			UnitPrice:    decimal.NewFromInt(60),
		}},
		TotalAmount: decimal.NewFromInt(60),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/dashboard/", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stats := decodeBody[map[string]json.RawMessage](t, rec)
	assert.Contains(t, stats, "totalStockValue")
	assert.Contains(t, stats, "ordersThisMonth")
	assert.Contains(t, stats, "recentInvoices")
}
