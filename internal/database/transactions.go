package database

import (
	"context"
	"fmt"
	"time"

	"go-pos-inventory/internal/models"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type TransactionFilter struct {
	CashierID     uint // zero means every cashier
	From          time.Time
	To            time.Time
	PaymentMethod string
	Limit         int
	Offset        int
}

func (f TransactionFilter) scope(db *gorm.DB) *gorm.DB {
	if f.CashierID != 0 {
		db = db.Where("cashier_id = ?", f.CashierID)
	}
	if !f.From.IsZero() {
		db = db.Where("created_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		db = db.Where("created_at < ?", f.To.UTC())
	}
	if f.PaymentMethod != "" {
		db = db.Where("payment_method = ?", f.PaymentMethod)
	}
	return db
}

// ListTransactions returns one page of history, newest first, with items,
// plus the total number of matching records.
func (s *Store) ListTransactions(ctx context.Context, f TransactionFilter) ([]models.TransactionRecord, int64, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := f.scope(s.db.WithContext(ctx).Model(&models.TransactionRecord{})).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	var records []models.TransactionRecord
	err := f.scope(s.db.WithContext(ctx)).
		Preload("Items").
		Order("created_at desc").Order("id desc").
		Limit(limit).Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return records, total, nil
}

// GetTransactionByNumber looks up a receipt by its TRX number. A non-zero
// cashierID restricts the lookup to that cashier's own sales.
func (s *Store) GetTransactionByNumber(ctx context.Context, number string, cashierID uint) (*models.TransactionRecord, error) {
	q := s.db.WithContext(ctx).Preload("Items").Where("number = ?", number)
	if cashierID != 0 {
		q = q.Where("cashier_id = ?", cashierID)
	}

	var record models.TransactionRecord
	if err := q.First(&record).Error; err != nil {
		return nil, notFound(err, "transaction %s", number)
	}
	return &record, nil
}

// AllTransactions pages through every record matching f, ignoring its Limit and Offset.
func (s *Store) AllTransactions(ctx context.Context, f TransactionFilter) ([]models.TransactionRecord, error) {
	var all []models.TransactionRecord
	f.Limit, f.Offset = maxPageSize, 0
	for {
		page, total, err := s.ListTransactions(ctx, f)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		f.Offset += len(page)
		if len(page) == 0 || int64(f.Offset) >= total {
			return all, nil
		}
	}
}
