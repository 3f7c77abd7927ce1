package database

import (
	"context"
	"errors"
	"fmt"

	"go-pos-inventory/internal/barcode"
	"go-pos-inventory/internal/checkout"
	"go-pos-inventory/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateBarcode = errors.New("barcode already exists")
	ErrInvalidProduct   = errors.New("invalid product")
	ErrNegativeStock    = errors.New("stock cannot go below zero")
	ErrBarcodeExhausted = errors.New("could not generate a unique barcode")
	ErrDuplicateUser    = errors.New("username already exists")
	ErrInvalidUser      = errors.New("username is required")
)

// CodeGenerator produces candidate barcodes.
type CodeGenerator interface {
	Generate(kind barcode.Kind) (string, error)
}

// Store is the GORM backed persistence layer. It implements checkout.Store
// and carries the catalog, history, report and activity queries.
type Store struct {
	db                *gorm.DB
	codes             CodeGenerator
	lowStockThreshold int
}

type Option func(*Store)

func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *Store) { s.codes = g }
}

// WithLowStockThreshold sets the default used for products without their own threshold.
func WithLowStockThreshold(n int) Option {
	return func(s *Store) { s.lowStockThreshold = n }
}

func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:                db,
		codes:             barcode.NewGenerator(),
		lowStockThreshold: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) LowStockThreshold() int { return s.lowStockThreshold }

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// RunInTransaction runs fn in one database transaction. Returning an error
// from fn rolls back every write staged through the Tx.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx checkout.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&checkoutTx{db: tx})
	})
}

type checkoutTx struct {
	db *gorm.DB
}

// GetProduct reads the product row under a write lock (SELECT ... FOR UPDATE).
func (t *checkoutTx) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (t *checkoutTx) NextSequence(ctx context.Context, name string) (int64, error) {
	db := t.db.WithContext(ctx)

	counter := models.Counter{Name: name}
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(models.Counter{Name: name}).
		FirstOrCreate(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", name, err)
	}

	res := db.Model(&models.Counter{}).
		Where("name = ?", name).
		Update("count", gorm.Expr("count + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, res.Error)
	}
	return counter.Count + 1, nil
}

// AdjustStock moves stock and sold_count in opposite directions with
// field-level increments. The guard refuses to take stock below zero.
func (t *checkoutTx) AdjustStock(ctx context.Context, productID uint, delta int) error {
	res := t.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", productID, delta).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", delta),
			"sold_count": gorm.Expr("sold_count - ?", delta),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNegativeStock
	}
	return nil
}

func (t *checkoutTx) CreateTransaction(ctx context.Context, record *models.TransactionRecord) error {
	return t.db.WithContext(ctx).Create(record).Error
}

func (t *checkoutTx) CreateActivity(ctx context.Context, entry *models.ActivityLog) error {
	return t.db.WithContext(ctx).Create(entry).Error
}
