package ai

import (
	"context"
	"fmt"
	"time"

	"go-pos-inventory/internal/checkout"
	"go-pos-inventory/internal/database"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// callTool executes one function call from the model and returns the
// payload sent back as the function response.
func (a *Agent) callTool(ctx context.Context, actor checkout.Actor, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "check_inventory":
		search, _ := args["search"].(string)
		products, err := a.store.ListProducts(ctx, database.ProductFilter{Search: search})
		if err != nil {
			return nil, err
		}
		return map[string]any{"inventory": toToolProducts(products)}, nil

	case "low_stock_report":
		products, err := a.store.ListProducts(ctx, database.ProductFilter{LowStockOnly: true, SortBy: "stock"})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"default_threshold": a.store.LowStockThreshold(),
			"products":          toToolProducts(products),
		}, nil

	case "update_product_price":
		id, err := numberArg(args, "product_id")
		if err != nil {
			return nil, err
		}
		price, err := numberArg(args, "new_price")
		if err != nil {
			return nil, err
		}
		if id <= 0 {
			return nil, fmt.Errorf("product_id must be positive")
		}
		newPrice := decimal.NewFromFloat(price).Round(2)
		product, err := a.store.UpdateProduct(ctx, uint(id), database.ProductPatch{Price: &newPrice}, actor)
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "Success", "product": product.Name, "new_price": product.Price.StringFixed(2)}, nil

	case "get_sales_report":
		startStr, _ := args["start_date"].(string)
		endStr, _ := args["end_date"].(string)
		start, err1 := time.ParseInLocation(dateLayout, startStr, time.Local)
		end, err2 := time.ParseInLocation(dateLayout, endStr, time.Local)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("dates must be in YYYY-MM-DD format")
		}
		if end.Before(start) {
			return nil, fmt.Errorf("end_date is before start_date")
		}

		report, err := a.store.GetSalesReport(ctx, start, end.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"revenue":     report.TotalRevenue.StringFixed(2),
			"sales_count": report.TotalCount,
		}, nil
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}

// numberArg reads a numeric argument; the model sends JSON numbers as float64.
func numberArg(args map[string]any, key string) (float64, error) {
	switch v := args[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%s must be a number", key)
}
