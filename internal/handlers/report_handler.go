package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultReportDays = 30

// --- GET: /api/reports/sales ---
// Defaults to the last 30 days including today.
func (h *Handler) GetSalesReport(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	if to.IsZero() {
		now := time.Now()
		to = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, 1)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultReportDays)
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	}

	summary, err := h.store.SalesSummary(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// --- GET: /api/reports/inventory ---
func (h *Handler) GetInventoryReport(c *gin.Context) {
	summary, err := h.store.InventorySummary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// --- GET: /api/reports/valuation ---
// GetStockValuation calculates the total monetary value of all physical inventory
func (h *Handler) GetStockValuation(c *gin.Context) {
	valuation, err := h.store.StockValuation(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, valuation)
}

// --- GET: /api/reports/transactions.xlsx ---
func (h *Handler) ExportTransactions(c *gin.Context) {
	filter, ok := transactionFilter(c)
	if !ok {
		return
	}

	records, err := h.store.AllTransactions(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := writeTransactionsWorkbook(c.Writer, records); err != nil {
		h.log(c).WithError(err).Error("Failed to write transaction export")
	}
}
