package database

import (
	"context"
	"fmt"

	"go-pos-inventory/internal/models"

	"gorm.io/gorm"
)

type ActivityFilter struct {
	Type  string
	Limit int
}

func (s *Store) ListActivity(ctx context.Context, f ActivityFilter) ([]models.ActivityLog, error) {
	limit := f.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	q := s.db.WithContext(ctx)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}

	var entries []models.ActivityLog
	if err := q.Order("created_at desc").Order("id desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}

// ClearActivity deletes the whole activity log and reports how many entries went.
func (s *Store) ClearActivity(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ActivityLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear activity: %w", res.Error)
	}
	return res.RowsAffected, nil
}
