package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-pos-inventory/internal/checkout"
	"go-pos-inventory/internal/idempotency"
	"go-pos-inventory/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func saleOf(lines ...checkout.CartLine) SaleRequest {
	return SaleRequest{Items: lines, PaymentMethod: "cash", CashAmount: decimal.NewFromInt(20)}
}

func lineFor(p models.Product, qty int) checkout.CartLine {
	return checkout.CartLine{ProductID: p.ID, Name: p.Name, Quantity: qty, Price: p.Price}
}

func TestProcessSale_Success(t *testing.T) {
	env := newTestEnv(t, Options{})
	apple := env.seedProduct("Apple", "1234567890128", "1.50", 10)

	w := env.do(http.MethodPost, "/api/checkout", env.cashierToken, saleOf(lineFor(apple, 3)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Number      string                   `json:"transaction_number"`
		Transaction models.TransactionRecord `json:"transaction"`
	}
	decode(t, w, &body)
	if !strings.HasSuffix(body.Number, "-0001") {
		t.Errorf("unexpected number %s", body.Number)
	}
	if body.Transaction.CashierName != "dina" || body.Transaction.Total.StringFixed(2) != "4.50" {
		t.Errorf("unexpected record %+v", body.Transaction)
	}

	p, _ := env.store.GetProduct(context.Background(), apple.ID)
	if p.Stock != 7 || p.SoldCount != 3 {
		t.Errorf("expected stock 7 sold 3, got %d/%d", p.Stock, p.SoldCount)
	}
}

func TestProcessSale_ErrorMapping(t *testing.T) {
	env := newTestEnv(t, Options{})
	pear := env.seedProduct("Pear", "4006381333931", "2.00", 1)

	cases := []struct {
		name    string
		sale    SaleRequest
		status  int
		message string
	}{
		{"empty cart", saleOf(), http.StatusBadRequest, "cart is empty"},
		{"zero quantity", saleOf(lineFor(pear, 0)), http.StatusBadRequest, "quantity must be greater than zero"},
		{"unknown product", saleOf(checkout.CartLine{ProductID: 999, Name: "Durian", Quantity: 1, Price: decimal.NewFromInt(9)}), http.StatusNotFound, "product Durian not found"},
		{"insufficient stock", saleOf(lineFor(pear, 2)), http.StatusConflict, "insufficient stock for Pear (requested 2, available 1)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/checkout", env.cashierToken, tc.sale)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if msg := errorOf(t, w); !strings.HasPrefix(msg, tc.message) {
				t.Errorf("expected message %q, got %q", tc.message, msg)
			}
		})
	}

	p, _ := env.store.GetProduct(context.Background(), pear.ID)
	if p.Stock != 1 {
		t.Errorf("stock must be untouched, got %d", p.Stock)
	}
}

func TestProcessSale_IdempotencyKey(t *testing.T) {
	env := newTestEnv(t, Options{})
	apple := env.seedProduct("Apple", "1234567890128", "1.50", 1)

	// a rejected checkout releases its key
	w := env.do(http.MethodPost, "/api/checkout", env.cashierToken, saleOf(lineFor(apple, 2)), idempotency.Header, "cart-1")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 insufficient stock, got %d", w.Code)
	}

	w = env.do(http.MethodPost, "/api/checkout", env.cashierToken, saleOf(lineFor(apple, 1)), idempotency.Header, "cart-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected retry with the same key to succeed, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(http.MethodPost, "/api/checkout", env.cashierToken, saleOf(lineFor(apple, 1)), idempotency.Header, "cart-1")
	if w.Code != http.StatusConflict || errorOf(t, w) != "This sale was already submitted" {
		t.Errorf("expected duplicate submission 409, got %d: %s", w.Code, w.Body.String())
	}

	records, total, _ := env.store.ListTransactions(context.Background(), databaseFilterAll())
	if total != 1 || len(records) != 1 {
		t.Errorf("expected exactly one sale, got %d", total)
	}
}

func TestRespondError_TransactionFailedMessagePolicy(t *testing.T) {
	failure := &checkout.TransactionError{Err: errors.New("deadlock found when trying to get lock")}

	for _, tc := range []struct {
		production bool
		want       string
	}{
		{false, "transaction failed: deadlock found when trying to get lock"},
		{true, failedTransactionMessage},
	} {
		h := New(nil, nil, nil, nil, nil, nil, Options{Production: tc.production})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/checkout", nil)

		h.respondError(c, failure)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}
		if got := errorOf(t, w); got != tc.want {
			t.Errorf("production=%v: expected %q, got %q", tc.production, tc.want, got)
		}
	}
}

func TestSaleRequest_TotalFallsBackToLineSum(t *testing.T) {
	req := SaleRequest{Items: []checkout.CartLine{
		{Quantity: 2, Price: decimal.RequireFromString("1.25")},
		{Quantity: 1, Price: decimal.RequireFromString("0.50")},
	}}
	if got := req.total().StringFixed(2); got != "3.00" {
		t.Errorf("expected 3.00, got %s", got)
	}
	req.Total = decimal.RequireFromString("2.75")
	if got := req.total().StringFixed(2); got != "2.75" {
		t.Errorf("expected client total to win, got %s", got)
	}
}
