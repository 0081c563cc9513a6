/*
export.go - Monthly detailed report export

GET /api/report-export/detailed?month=&year= returns every invoice and
purchase of the month plus a summary (paid, pending, purchased, labor and
net profit). With format=xlsx the same data is rendered as a spreadsheet
with one sheet per section.
*/
package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/faycal-henaoui/wood-workshop/inventory"
	"github.com/faycal-henaoui/wood-workshop/store/sqlite"
)

// ExportSummary carries the month's totals as fixed two-decimal strings.
type ExportSummary struct {
	TotalPaid      string `json:"total_paid"`
	TotalPending   string `json:"total_pending"`
	TotalPurchased string `json:"total_purchased"`
	TotalLabor     string `json:"total_labor"`
	NetProfit      string `json:"net_profit"`
}

// DetailedExport exports the month's sales and purchases, either as JSON or
// as an xlsx workbook when format=xlsx.
func (h *Handler) DetailedExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.Now()

	year := now.Year()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2000 || n > 9999 {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = n
	}
	month := now.Month()
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		month = time.Month(n)
	}

	sales, err := h.Store.InvoicesForMonth(ctx, year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load sales", err)
		return
	}
	purchases, err := h.Store.PurchasesForMonth(ctx, year, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load purchases", err)
		return
	}

	var paid, pending, purchased, labor decimal.Decimal
	for _, s := range sales {
		switch s.Status {
		case "Paid":
			paid = paid.Add(s.TotalAmount)
		case "Pending":
			pending = pending.Add(s.TotalAmount)
		}
		labor = labor.Add(s.LaborCost)
	}
	for _, p := range purchases {
		purchased = purchased.Add(p.TotalAmount)
	}
	summary := ExportSummary{
		TotalPaid:      paid.StringFixed(2),
		TotalPending:   pending.StringFixed(2),
		TotalPurchased: purchased.StringFixed(2),
		TotalLabor:     labor.StringFixed(2),
		NetProfit:      paid.Add(pending).Sub(purchased).StringFixed(2),
	}

	period := fmt.Sprintf("%04d-%02d", year, month)

	if r.URL.Query().Get("format") == "xlsx" {
		h.writeXLSX(w, period, sales, purchases, summary)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period":    period,
		"sales":     sales,
		"purchases": purchases,
		"summary":   summary,
	})
}

func (h *Handler) writeXLSX(w http.ResponseWriter, period string, sales []sqlite.ExportInvoice, purchases []inventory.Purchase, summary ExportSummary) {
	f := excelize.NewFile()
	defer f.Close()

	const salesSheet = "Sales"
	f.SetSheetName("Sheet1", salesSheet)
	header := []any{"Invoice #", "Client", "Status", "Total", "Labor", "Date"}
	f.SetSheetRow(salesSheet, "A1", &header)
	for i, s := range sales {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			fmt.Sprintf("%06d", s.InvoiceNumber),
			s.ClientName,
			s.Status,
			s.TotalAmount.StringFixed(2),
			s.LaborCost.StringFixed(2),
			s.CreatedAt.Format("2006-01-02"),
		}
		f.SetSheetRow(salesSheet, cell, &row)
	}

	const purchasesSheet = "Purchases"
	f.NewSheet(purchasesSheet)
	pheader := []any{"Supplier", "Total", "Date"}
	f.SetSheetRow(purchasesSheet, "A1", &pheader)
	for i, p := range purchases {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{p.SupplierName, p.TotalAmount.StringFixed(2), p.PurchaseDate.Format("2006-01-02")}
		f.SetSheetRow(purchasesSheet, cell, &row)
	}

	const summarySheet = "Summary"
	f.NewSheet(summarySheet)
	rows := [][]any{
		{"Period", period},
		{"Total Paid", summary.TotalPaid},
		{"Total Pending", summary.TotalPending},
		{"Total Purchased", summary.TotalPurchased},
		{"Total Labor", summary.TotalLabor},
		{"Net Profit", summary.NetProfit},
	}
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		f.SetSheetRow(summarySheet, cell, &rows[i])
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build spreadsheet", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.xlsx"`, period))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
