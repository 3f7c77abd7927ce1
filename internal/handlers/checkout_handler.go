package handlers

import (
	"net/http"
	"strings"

	"go-pos-inventory/internal/checkout"
	"go-pos-inventory/internal/idempotency"
	"go-pos-inventory/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SaleRequest defines what the till sends us
type SaleRequest struct {
	Items         []checkout.CartLine `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	CashAmount    decimal.Decimal     `json:"cash_amount"`
	ChangeAmount  decimal.Decimal     `json:"change_amount"`
	PaymentMethod string              `json:"payment_method"`
}

func (r SaleRequest) total() decimal.Decimal {
	if !r.Total.IsZero() {
		return r.Total
	}
	sum := decimal.Zero
	for _, line := range r.Items {
		sum = sum.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}

// --- POST: /api/checkout ---
func (h *Handler) ProcessSale(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	ctx := c.Request.Context()

	// 1. Refuse a second submission of the same cart while the first holds its key
	key := idempotency.Key(c.Request)
	if key != "" && h.guard != nil {
		acquired, err := h.guard.Acquire(ctx, key)
		switch {
		case err != nil:
			h.log(c).WithError(err).Warn("Idempotency guard unavailable, continuing without it")
			key = ""
		case !acquired:
			c.JSON(http.StatusConflict, gin.H{"error": "This sale was already submitted"})
			return
		}
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = "cash"
	}

	// 2. Commit stock, number, record and activity atomically
	result, err := h.checkout.Commit(ctx, checkout.Request{
		Lines:         req.Items,
		Total:         req.total(),
		CashAmount:    req.CashAmount,
		ChangeAmount:  req.ChangeAmount,
		PaymentMethod: method,
		Actor:         middleware.CurrentActor(c),
	})
	if err != nil {
		// the cart stays with the client, let it resubmit
		if key != "" {
			if relErr := h.guard.Release(ctx, key); relErr != nil {
				h.log(c).WithError(relErr).Warn("Failed to release idempotency key")
			}
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":            "Sale successful!",
		"transaction_number": result.TransactionNumber,
		"transaction":        result.Record,
	})
}
