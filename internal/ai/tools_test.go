package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-pos-inventory/internal/checkout"
	"go-pos-inventory/internal/database"
	"go-pos-inventory/internal/models"

	"github.com/shopspring/decimal"
)

// Mock InventoryStore
type mockStore struct {
	mu          sync.Mutex
	products    []models.Product
	lastFilter  database.ProductFilter
	lastActor   checkout.Actor
	reportStart time.Time
	reportEnd   time.Time
}

func (m *mockStore) ListProducts(_ context.Context, f database.ProductFilter) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = f
	return m.products, nil
}

func (m *mockStore) UpdateProduct(_ context.Context, id uint, patch database.ProductPatch, actor checkout.Actor) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActor = actor
	for i := range m.products {
		if m.products[i].ID == id {
			if patch.Price != nil {
				m.products[i].Price = *patch.Price
			}
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *mockStore) GetSalesReport(_ context.Context, start, end time.Time) (*database.SalesReportResult, error) {
	m.reportStart, m.reportEnd = start, end
	return &database.SalesReportResult{TotalRevenue: decimal.RequireFromString("120.5"), TotalCount: 4}, nil
}

func (m *mockStore) LowStockThreshold() int { return 5 }

func newTestAgent() (*Agent, *mockStore) {
	store := &mockStore{products: []models.Product{
		{ID: 1, Name: "Banana", Barcode: "4006381333931", Price: decimal.RequireFromString("0.75"), PurchasePrice: decimal.RequireFromString("0.40"), Stock: 3},
	}}
	return NewAgent(store, "test-key"), store
}

var owner = checkout.Actor{ID: 1, Name: "owner"}

func TestCallTool_CheckInventory(t *testing.T) {
	agent, store := newTestAgent()

	out, err := agent.callTool(context.Background(), owner, "check_inventory", map[string]any{"search": "ban"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastFilter.Search != "ban" {
		t.Errorf("expected search to be forwarded, got %+v", store.lastFilter)
	}
	items := out["inventory"].([]map[string]any)
	if len(items) != 1 || items[0]["price"] != "0.75" || items[0]["cost"] != "0.40" {
		t.Errorf("unexpected inventory payload %+v", items)
	}
}

func TestCallTool_LowStockReport(t *testing.T) {
	agent, store := newTestAgent()

	out, err := agent.callTool(context.Background(), owner, "low_stock_report", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.lastFilter.LowStockOnly {
		t.Error("expected low stock filter")
	}
	if out["default_threshold"] != 5 {
		t.Errorf("unexpected threshold %v", out["default_threshold"])
	}
}

func TestCallTool_UpdatePrice(t *testing.T) {
	agent, store := newTestAgent()

	out, err := agent.callTool(context.Background(), owner, "update_product_price", map[string]any{
		"product_id": float64(1),
		"new_price":  0.899,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["new_price"] != "0.90" || store.products[0].Price.StringFixed(2) != "0.90" {
		t.Errorf("expected price rounded to 0.90, got %v", out)
	}
	if store.lastActor != owner {
		t.Errorf("expected change attributed to owner, got %+v", store.lastActor)
	}

	if _, err := agent.callTool(context.Background(), owner, "update_product_price", map[string]any{"product_id": float64(9), "new_price": 1.0}); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := agent.callTool(context.Background(), owner, "update_product_price", map[string]any{"product_id": "one"}); err == nil {
		t.Error("expected bad arguments to fail")
	}
}

func TestCallTool_SalesReportIncludesEndDate(t *testing.T) {
	agent, store := newTestAgent()

	out, err := agent.callTool(context.Background(), owner, "get_sales_report", map[string]any{
		"start_date": "2025-03-01",
		"end_date":   "2025-03-31",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["revenue"] != "120.50" || out["sales_count"] != int64(4) {
		t.Errorf("unexpected payload %+v", out)
	}
	if got := store.reportEnd.Format(dateLayout); got != "2025-04-01" {
		t.Errorf("expected exclusive end on 2025-04-01, got %s", got)
	}

	if _, err := agent.callTool(context.Background(), owner, "get_sales_report", map[string]any{"start_date": "March", "end_date": "April"}); err == nil {
		t.Error("expected malformed dates to fail")
	}
}

func TestCallTool_Unknown(t *testing.T) {
	agent, _ := newTestAgent()
	if _, err := agent.callTool(context.Background(), owner, "delete_everything", nil); err == nil {
		t.Error("expected unknown tool to fail")
	}
}

func TestToolDeclarations_MatchDispatch(t *testing.T) {
	agent, _ := newTestAgent()
	for _, decl := range toolDeclarations() {
		_, err := agent.callTool(context.Background(), owner, decl.Name, map[string]any{
			"product_id": float64(1), "new_price": 1.0, "start_date": "2025-01-01", "end_date": "2025-01-02",
		})
		if err != nil {
			t.Errorf("declared tool %s is not dispatched: %v", decl.Name, err)
		}
	}
}

func TestAsk_WithoutKey(t *testing.T) {
	agent := NewAgent(&mockStore{}, "")
	if _, err := agent.Ask(context.Background(), owner, "hello"); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}
