package store

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// FechaLayout renders fecha as an offset-less ISO 8601 date-time.
const FechaLayout = "2006-01-02T15:04:05"

type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open returns the pooled handle used by the query service.
func Open(opts Options, pool PoolOptions) (*gorm.DB, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	db, err := gorm.Open(mysql.Open(opts.DatabaseDSN()), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql %s:%d/%s: %w", opts.Host, opts.Port, opts.Name, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return db, nil
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindRange returns rows with start <= fecha <= end in ascending order, at
// most limit of them. Bounds are compared as UTC wall-clock values.
func (r *Repository) FindRange(ctx context.Context, start, end time.Time, limit int) ([]RatePoint, error) {
	var rows []Dolar
	err := r.db.WithContext(ctx).
		Where("fecha >= ? AND fecha <= ?", start.UTC(), end.UTC()).
		Order("fecha ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query range: %w", err)
	}
	return lo.Map(rows, func(d Dolar, _ int) RatePoint {
		return d.RatePoint()
	}), nil
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
