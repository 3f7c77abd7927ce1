package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go-pos-inventory/internal/database"
	"go-pos-inventory/internal/middleware"
	"go-pos-inventory/internal/models"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// parseRange reads ?from=&to= as dates (to inclusive) or RFC 3339 instants.
// Missing bounds stay zero.
func parseRange(c *gin.Context) (from, to time.Time, ok bool) {
	var err error
	if s := c.Query("from"); s != "" {
		if from, err = parseInstant(s, false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD or RFC 3339"})
			return time.Time{}, time.Time{}, false
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = parseInstant(s, true); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD or RFC 3339"})
			return time.Time{}, time.Time{}, false
		}
	}
	return from, to, true
}

func parseInstant(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// transactionFilter builds the history filter. Cashiers only ever see their own sales.
func transactionFilter(c *gin.Context) (database.TransactionFilter, bool) {
	from, to, ok := parseRange(c)
	if !ok {
		return database.TransactionFilter{}, false
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	f := database.TransactionFilter{
		From:          from,
		To:            to,
		PaymentMethod: c.Query("payment_method"),
		Limit:         limit,
		Offset:        offset,
	}
	if middleware.CurrentRole(c) == models.RoleAdmin {
		if id, err := strconv.ParseUint(c.Query("cashier_id"), 10, 64); err == nil {
			f.CashierID = uint(id)
		}
	} else {
		f.CashierID = middleware.CurrentActor(c).ID
	}
	return f, true
}

// --- GET: /api/transactions ---
func (h *Handler) GetTransactions(c *gin.Context) {
	filter, ok := transactionFilter(c)
	if !ok {
		return
	}
	records, total, err := h.store.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": records, "total": total})
}

// --- GET: /api/transactions/:number ---
func (h *Handler) GetTransaction(c *gin.Context) {
	var cashierID uint
	if middleware.CurrentRole(c) != models.RoleAdmin {
		cashierID = middleware.CurrentActor(c).ID
	}
	record, err := h.store.GetTransactionByNumber(c.Request.Context(), c.Param("number"), cashierID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
