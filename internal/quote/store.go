package quote

import (
	"context"
	"errors"

	"papertrader/internal/models"
	"papertrader/internal/provider"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by the cached_quotes table.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Load(ctx context.Context, symbol string) (provider.Quote, bool, error) {
	var row models.CachedQuote
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return provider.Quote{}, false, nil
	}
	if err != nil {
		return provider.Quote{}, false, err
	}

	return provider.Quote{
		Symbol:    row.Symbol,
		Price:     row.Price,
		Timestamp: row.FetchedAt,
		Source:    row.Source,
	}, true, nil
}

func (s *gormStore) Save(ctx context.Context, q provider.Quote) error {
	row := models.CachedQuote{
		Symbol:    q.Symbol,
		Price:     q.Price,
		Source:    q.Source,
		FetchedAt: q.Timestamp,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "source", "fetched_at"}),
	}).Create(&row).Error
}
