package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go-pos-inventory/internal/models"

	"github.com/shopspring/decimal"
)

const topSellingLimit = 5

// SalesReportResult holds the headline numbers for a period
type SalesReportResult struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCount   int64           `json:"total_count"`
}

// GetSalesReport calculates sales within [start, end)
func (s *Store) GetSalesReport(ctx context.Context, start, end time.Time) (*SalesReportResult, error) {
	var result SalesReportResult

	// COALESCE ensures we get 0 instead of NULL if no sales exist
	err := s.db.WithContext(ctx).Model(&models.TransactionRecord{}).
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()).
		Select("COALESCE(SUM(total), 0), COUNT(*)").
		Row().
		Scan(&result.TotalRevenue, &result.TotalCount)
	if err != nil {
		return nil, fmt.Errorf("sales totals: %w", err)
	}
	return &result, nil
}

type PaymentBreakdown struct {
	Method  string          `json:"method"`
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type TopProduct struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"product_name"`
	Sold      int64           `json:"sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type DailySales struct {
	Date    string          `json:"date"`
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type SalesSummary struct {
	From            time.Time          `json:"from"`
	To              time.Time          `json:"to"`
	TotalRevenue    decimal.Decimal    `json:"total_revenue"`
	TotalOrders     int64              `json:"total_orders"`
	AverageTicket   decimal.Decimal    `json:"average_ticket"`
	ItemsSold       int64              `json:"items_sold"`
	ByPaymentMethod []PaymentBreakdown `json:"by_payment_method"`
	TopSelling      []TopProduct       `json:"top_selling"`
	Daily           []DailySales       `json:"daily"`
}

// SalesSummary builds the sales dashboard for [from, to). Days are bucketed
// in the location of from.
func (s *Store) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	summary := &SalesSummary{From: from, To: to}

	// 1. Revenue and order count
	totals, err := s.GetSalesReport(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.TotalRevenue = totals.TotalRevenue
	summary.TotalOrders = totals.TotalCount
	if totals.TotalCount > 0 {
		summary.AverageTicket = totals.TotalRevenue.Div(decimal.NewFromInt(totals.TotalCount)).Round(2)
	}

	db := s.db.WithContext(ctx)
	inRange := "transaction_records.created_at >= ? AND transaction_records.created_at < ?"

	// 2. Units sold
	err = db.Table("transaction_items").
		Joins("JOIN transaction_records ON transaction_records.id = transaction_items.transaction_id").
		Where(inRange, from.UTC(), to.UTC()).
		Select("COALESCE(SUM(transaction_items.quantity), 0)").
		Row().
		Scan(&summary.ItemsSold)
	if err != nil {
		return nil, fmt.Errorf("items sold: %w", err)
	}

	// 3. Revenue per payment method
	rows, err := db.Model(&models.TransactionRecord{}).
		Where(inRange, from.UTC(), to.UTC()).
		Select("payment_method, COUNT(*), COALESCE(SUM(total), 0)").
		Group("payment_method").
		Order("payment_method").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("payment breakdown: %w", err)
	}
	for rows.Next() {
		var p PaymentBreakdown
		if err := rows.Scan(&p.Method, &p.Count, &p.Revenue); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan payment breakdown: %w", err)
		}
		summary.ByPaymentMethod = append(summary.ByPaymentMethod, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read payment breakdown: %w", err)
	}

	// 4. Top 5 best sellers by quantity
	rows, err = db.Table("transaction_items").
		Select("transaction_items.product_id, MAX(transaction_items.name), SUM(transaction_items.quantity) AS sold, COALESCE(SUM(transaction_items.subtotal), 0)").
		Joins("JOIN transaction_records ON transaction_records.id = transaction_items.transaction_id").
		Where(inRange, from.UTC(), to.UTC()).
		Group("transaction_items.product_id").
		Order("sold desc").
		Limit(topSellingLimit).
		Rows()
	if err != nil {
		return nil, fmt.Errorf("top selling: %w", err)
	}
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Sold, &p.Revenue); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan top selling: %w", err)
		}
		summary.TopSelling = append(summary.TopSelling, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read top selling: %w", err)
	}

	// 5. Daily series, bucketed here so DATE() differences between drivers don't matter
	var headers []models.TransactionRecord
	err = db.Select("created_at", "total").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at").
		Find(&headers).Error
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	summary.Daily = bucketDaily(headers, from.Location())

	return summary, nil
}

func bucketDaily(records []models.TransactionRecord, loc *time.Location) []DailySales {
	index := map[string]int{}
	var days []DailySales
	for _, r := range records {
		day := r.CreatedAt.In(loc).Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(days)
			index[day] = i
			days = append(days, DailySales{Date: day})
		}
		days[i].Count++
		days[i].Revenue = days[i].Revenue.Add(r.Total)
	}
	sort.Slice(days, func(a, b int) bool { return days[a].Date < days[b].Date })
	return days
}

// ValuationItem is one product line of the stock valuation
type ValuationItem struct {
	ProductID     uint            `json:"product_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

// CategoryGroup is one category of the stock valuation (e.g. "DRINKS")
type CategoryGroup struct {
	CategoryName     string          `json:"category_name"`
	Items            []ValuationItem `json:"items"`
	Units            int             `json:"units"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	PotentialRevenue decimal.Decimal `json:"potential_revenue"`
}

type ValuationResult struct {
	Categories       []CategoryGroup `json:"categories"`
	GrandTotal       decimal.Decimal `json:"grand_total"`
	PotentialRevenue decimal.Decimal `json:"potential_revenue"`
}

type InventorySummary struct {
	ProductCount      int              `json:"product_count"`
	TotalUnits        int              `json:"total_units"`
	LowStockThreshold int              `json:"low_stock_threshold"`
	LowStock          []models.Product `json:"low_stock"`
	Valuation         ValuationResult  `json:"valuation"`
}

// StockValuation values physical inventory at purchase price, grouped by category.
func (s *Store) StockValuation(ctx context.Context) (*ValuationResult, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("category").Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("fetch inventory: %w", err)
	}
	result := valuate(products)
	return &result, nil
}

func (s *Store) InventorySummary(ctx context.Context) (*InventorySummary, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("category").Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("fetch inventory: %w", err)
	}

	summary := &InventorySummary{
		ProductCount:      len(products),
		LowStockThreshold: s.lowStockThreshold,
		LowStock:          []models.Product{},
		Valuation:         valuate(products),
	}
	for _, p := range products {
		summary.TotalUnits += p.Stock
		if p.IsLowStock(s.lowStockThreshold) {
			summary.LowStock = append(summary.LowStock, p)
		}
	}
	sort.SliceStable(summary.LowStock, func(a, b int) bool {
		return summary.LowStock[a].Stock < summary.LowStock[b].Stock
	})
	return summary, nil
}

func valuate(products []models.Product) ValuationResult {
	var result ValuationResult
	groups := map[string]*CategoryGroup{}
	var order []string

	for _, p := range products {
		// If an item has no category, group it as "Uncategorized"
		catName := p.Category
		if catName == "" {
			catName = "Uncategorized"
		}
		group, ok := groups[catName]
		if !ok {
			group = &CategoryGroup{CategoryName: catName, Items: []ValuationItem{}}
			groups[catName] = group
			order = append(order, catName)
		}

		qty := decimal.NewFromInt(int64(p.Stock))
		itemTotal := p.PurchasePrice.Mul(qty)
		itemRevenue := p.Price.Mul(qty)

		group.Items = append(group.Items, ValuationItem{
			ProductID:     p.ID,
			Name:          p.Name,
			Quantity:      p.Stock,
			PurchasePrice: p.PurchasePrice,
			TotalCost:     itemTotal,
		})
		group.Units += p.Stock
		group.Subtotal = group.Subtotal.Add(itemTotal)
		group.PotentialRevenue = group.PotentialRevenue.Add(itemRevenue)
		result.GrandTotal = result.GrandTotal.Add(itemTotal)
		result.PotentialRevenue = result.PotentialRevenue.Add(itemRevenue)
	}

	sort.Strings(order)
	result.Categories = make([]CategoryGroup, 0, len(order))
	for _, name := range order {
		result.Categories = append(result.Categories, *groups[name])
	}
	return result
}
