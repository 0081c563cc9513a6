/*
purchases.go - Supplier purchase handlers

Recording a purchase is one transaction: insert the purchase record, create
any brand-new materials with zero stock and price, insert the line items,
then raise stock and reprice each material by weighted average cost through
inventory.ApplyPurchase.
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/faycal-henaoui/wood-workshop/inventory"
	"github.com/faycal-henaoui/wood-workshop/store/sqlite"
)

// ListPurchases returns the purchase history, newest first.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.Store.ListPurchases(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list purchases", err)
		return
	}
	if purchases == nil {
		purchases = []inventory.Purchase{}
	}
	writeJSON(w, http.StatusOK, purchases)
}

// GetPurchase returns one purchase with its line items.
func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	purchase, err := h.Store.GetPurchase(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get purchase", err)
		return
	}
	if purchase == nil {
		writeError(w, http.StatusNotFound, "Purchase not found", nil)
		return
	}

	items, err := h.Store.PurchaseItems(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load purchase items", err)
		return
	}
	if items == nil {
		items = []sqlite.PurchaseItemRow{}
	}

	writeJSON(w, http.StatusOK, PurchaseDetailResponse{Purchase: *purchase, Items: items})
}

// CreatePurchase records a restock: purchase record, new materials, line
// items, and the stock/price update per line.
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "A purchase needs at least one item", nil)
		return
	}

	purchaseDate := h.Now().UTC()
	if req.PurchaseDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.PurchaseDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid purchase_date", err)
			return
		}
		purchaseDate = parsed.UTC()
	}

	total := decimal.Zero
	for _, item := range req.Items {
		total = total.Add(item.Quantity.Mul(item.UnitPrice))
	}

	var created inventory.Purchase
	err := h.Store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		created, err = tx.CreatePurchase(ctx, inventory.Purchase{
			SupplierName: req.SupplierName,
			TotalAmount:  total,
			PurchaseDate: purchaseDate,
		})
		if err != nil {
			return err
		}

		for _, item := range req.Items {
			materialID := item.ID
			if item.IsNew && materialID == "" {
				matType := item.Type
				if matType == "" {
					matType = "Standard"
				}
				unit := item.Unit
				if unit == "" {
					unit = "pcs"
				}
				mat, err := tx.CreateMaterial(ctx, inventory.Material{
					Name:              item.Name,
					Type:              matType,
					Unit:              unit,
					LowStockThreshold: 10,
					CreatedAt:         purchaseDate,
				})
				if err != nil {
					return err
				}
				materialID = mat.ID
			}

			err := tx.InsertPurchaseItem(ctx, inventory.PurchaseRecordItem{
				PurchaseID: created.ID,
				MaterialID: materialID,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
			})
			if err != nil {
				return err
			}

			err = inventory.ApplyPurchase(ctx, tx, inventory.PurchaseItem{
				MaterialID: materialID,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeStockError(w, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.PurchasesRecorded.Inc()
	}
	writeJSON(w, http.StatusOK, struct {
		Message  string             `json:"msg"`
		Purchase inventory.Purchase `json:"purchase"`
	}{Message: "Stock updated successfully", Purchase: created})
}
