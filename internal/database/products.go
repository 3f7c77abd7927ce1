package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-pos-inventory/internal/barcode"
	"go-pos-inventory/internal/checkout"
	"go-pos-inventory/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxBarcodeAttempts = 5

type ProductFilter struct {
	Search       string // matches name, barcode or supplier
	Category     string
	SortBy       string // name, price, stock, sold
	Desc         bool
	LowStockOnly bool
}

var productSortColumns = map[string]string{
	"":      "name",
	"name":  "name",
	"price": "price",
	"stock": "stock",
	"sold":  "sold_count",
}

// ProductPatch carries a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Name              *string          `json:"name"`
	Barcode           *string          `json:"barcode"`
	Price             *decimal.Decimal `json:"price"`
	PurchasePrice     *decimal.Decimal `json:"purchase_price"`
	Supplier          *string          `json:"supplier"`
	Category          *string          `json:"category"`
	ImageURL          *string          `json:"image_url"`
	LowStockThreshold *int             `json:"low_stock_threshold"`
}

// StockChange either sets the stock to an absolute value or moves it by Delta.
type StockChange struct {
	Set    *int   `json:"set"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	column, ok := productSortColumns[strings.ToLower(f.SortBy)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort %q", ErrInvalidProduct, f.SortBy)
	}

	q := s.db.WithContext(ctx).Model(&models.Product{})
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR barcode LIKE ? OR LOWER(supplier) LIKE ?", like, like, like)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.LowStockOnly {
		q = q.Where(lowStockCondition, s.lowStockThreshold)
	}

	var products []models.Product
	err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: f.Desc}).
		Order("id").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

const lowStockCondition = "stock <= CASE WHEN low_stock_threshold > 0 THEN low_stock_threshold ELSE ? END"

func (s *Store) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, notFound(err, "product %d", id)
	}
	return &product, nil
}

// GetProductByBarcode is the scan lookup.
func (s *Store) GetProductByBarcode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Where("barcode = ?", strings.TrimSpace(code)).First(&product).Error
	if err != nil {
		return nil, notFound(err, "barcode %s", code)
	}
	return &product, nil
}

func (s *Store) BarcodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).Where("barcode = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check barcode: %w", err)
	}
	return count > 0, nil
}

// GenerateUniqueBarcode keeps generating until a code is not used by any
// product, giving up after a few attempts.
func (s *Store) GenerateUniqueBarcode(ctx context.Context, kind barcode.Kind) (string, error) {
	for attempt := 0; attempt < maxBarcodeAttempts; attempt++ {
		if attempt > 0 {
			// codes are timestamp based, wait for the next millisecond
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Millisecond):
			}
		}

		code, err := s.codes.Generate(kind)
		if err != nil {
			return "", err
		}
		exists, err := s.BarcodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrBarcodeExhausted
}

// CreateProduct validates and saves a product. A blank barcode gets a generated EAN-13.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product, actor checkout.Actor) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Barcode = strings.TrimSpace(p.Barcode)
	if err := validateProduct(p); err != nil {
		return err
	}
	if p.Barcode == "" {
		code, err := s.GenerateUniqueBarcode(ctx, barcode.KindEAN13)
		if err != nil {
			return err
		}
		p.Barcode = code
	}
	p.ID = 0
	p.SoldCount = 0

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return translateProductErr(err)
		}
		return tx.Create(&models.ActivityLog{
			Type:      models.ActivityProductCreate,
			Message:   fmt.Sprintf("Product %s added (barcode %s, stock %d, price %s)", p.Name, p.Barcode, p.Stock, p.Price.StringFixed(2)),
			ActorID:   actor.ID,
			ActorName: actor.Name,
		}).Error
	})
}

func (s *Store) UpdateProduct(ctx context.Context, id uint, patch ProductPatch, actor checkout.Actor) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
			return notFound(err, "product %d", id)
		}

		updates, changed := patch.apply(&product)
		if len(updates) == 0 {
			return nil
		}
		if err := validateProduct(&product); err != nil {
			return err
		}
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return translateProductErr(err)
		}
		return tx.Create(&models.ActivityLog{
			Type:      models.ActivityProductUpdate,
			Message:   fmt.Sprintf("Product %s updated: %s", product.Name, strings.Join(changed, ", ")),
			ActorID:   actor.ID,
			ActorName: actor.Name,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// apply writes the patch onto p and returns the column updates plus a
// human readable list of what changed.
func (patch ProductPatch) apply(p *models.Product) (map[string]interface{}, []string) {
	updates := map[string]interface{}{}
	var changed []string

	setString := func(column, label string, dst *string, v *string) {
		if v == nil {
			return
		}
		nv := strings.TrimSpace(*v)
		if nv == *dst {
			return
		}
		changed = append(changed, fmt.Sprintf("%s %q -> %q", label, *dst, nv))
		*dst = nv
		updates[column] = nv
	}
	setMoney := func(column, label string, dst *decimal.Decimal, v *decimal.Decimal) {
		if v == nil || v.Equal(*dst) {
			return
		}
		changed = append(changed, fmt.Sprintf("%s %s -> %s", label, dst.StringFixed(2), v.StringFixed(2)))
		*dst = *v
		updates[column] = *v
	}

	setString("name", "name", &p.Name, patch.Name)
	setString("barcode", "barcode", &p.Barcode, patch.Barcode)
	setMoney("price", "price", &p.Price, patch.Price)
	setMoney("purchase_price", "purchase price", &p.PurchasePrice, patch.PurchasePrice)
	setString("supplier", "supplier", &p.Supplier, patch.Supplier)
	setString("category", "category", &p.Category, patch.Category)
	setString("image_url", "image", &p.ImageURL, patch.ImageURL)
	if patch.LowStockThreshold != nil && *patch.LowStockThreshold != p.LowStockThreshold {
		changed = append(changed, fmt.Sprintf("low stock threshold %d -> %d", p.LowStockThreshold, *patch.LowStockThreshold))
		p.LowStockThreshold = *patch.LowStockThreshold
		updates["low_stock_threshold"] = p.LowStockThreshold
	}
	return updates, changed
}

func (s *Store) DeleteProduct(ctx context.Context, id uint, actor checkout.Actor) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, id).Error; err != nil {
			return notFound(err, "product %d", id)
		}
		// Sold items keep their name snapshot, so history survives the delete
		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("delete product %d: %w", id, err)
		}
		return tx.Create(&models.ActivityLog{
			Type:      models.ActivityProductDelete,
			Message:   fmt.Sprintf("Product %s (barcode %s) deleted", product.Name, product.Barcode),
			ActorID:   actor.ID,
			ActorName: actor.Name,
		}).Error
	})
}

// AdjustStock is the manual stock edit. The new level and its activity
// entry are written together.
func (s *Store) AdjustStock(ctx context.Context, id uint, change StockChange, actor checkout.Actor) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
			return notFound(err, "product %d", id)
		}

		previous := product.Stock
		next := previous + change.Delta
		if change.Set != nil {
			next = *change.Set
		}
		if next < 0 {
			return fmt.Errorf("%w: %s has %d", ErrNegativeStock, product.Name, previous)
		}
		if next == previous {
			return nil
		}

		if err := tx.Model(&product).Update("stock", next).Error; err != nil {
			return fmt.Errorf("update stock: %w", err)
		}

		message := fmt.Sprintf("Stock for %s changed from %d to %d", product.Name, previous, next)
		if reason := strings.TrimSpace(change.Reason); reason != "" {
			message += " (" + reason + ")"
		}
		return tx.Create(&models.ActivityLog{
			Type:      models.ActivityStockUpdate,
			Message:   message,
			ActorID:   actor.ID,
			ActorName: actor.Name,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("category <> ''").
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	case p.PurchasePrice.IsNegative():
		return fmt.Errorf("%w: purchase price cannot be negative", ErrInvalidProduct)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	case p.LowStockThreshold < 0:
		return fmt.Errorf("%w: low stock threshold cannot be negative", ErrInvalidProduct)
	case len(p.Barcode) == 13 && barcode.IsDigits(p.Barcode) && !barcode.ValidEAN13(p.Barcode):
		return fmt.Errorf("%w: barcode %s has a wrong EAN-13 check digit", ErrInvalidProduct, p.Barcode)
	}
	return nil
}

func translateProductErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateBarcode
	}
	return fmt.Errorf("save product: %w", err)
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
	}
	return err
}
