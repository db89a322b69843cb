package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/infigaming-com/dolar-feed/util"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const createTableSQL = "CREATE TABLE IF NOT EXISTS dolar (" +
	"fecha DATETIME PRIMARY KEY, " +
	"valor DECIMAL(12,6) NOT NULL" +
	")"

// Writer holds the single connection an ingest invocation uses. It must be
// closed by the caller on every path.
type Writer struct {
	db        *gorm.DB
	sqlDB     *sql.DB
	dbName    string
	batchSize int
}

// Connect opens a server-level connection capped at one physical connection,
// so the USE issued by EnsureSchema applies to every later statement.
func Connect(ctx context.Context, opts Options) (*Writer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open("mysql", opts.ServerDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to mysql %s:%d: %w", opts.Host, opts.Port, err)
	}

	w, err := NewWriter(sqlDB, opts.Name, opts.BatchSize)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return w, nil
}

// NewWriter wraps an already opened connection.
func NewWriter(sqlDB *sql.DB, dbName string, batchSize int) (*Writer, error) {
	if !identifierPattern.MatchString(dbName) {
		return nil, fmt.Errorf("invalid database name %q", dbName)
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init gorm: %w", err)
	}
	return &Writer{
		db:        db,
		sqlDB:     sqlDB,
		dbName:    dbName,
		batchSize: batchSize,
	}, nil
}

func (w *Writer) EnsureSchema(ctx context.Context) error {
	db := w.db.WithContext(ctx)
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_0900_ai_ci", w.dbName),
		fmt.Sprintf("USE `%s`", w.dbName),
		createTableSQL,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// UpsertRates writes rows in one transaction. A fecha that already exists gets
// the new valor; repeated fechas within rows resolve to the last one.
func (w *Writer) UpsertRates(ctx context.Context, rows []RatePoint) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	models := make([]Dolar, 0, len(rows))
	for _, r := range rows {
		valor, err := util.DecimalFromFloat(r.Valor, ValorScale)
		if err != nil {
			return 0, fmt.Errorf("invalid valor for %s: %w", r.Fecha.Format(FechaLayout), err)
		}
		models = append(models, Dolar{Fecha: r.Fecha.UTC(), Valor: valor})
	}

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fecha"}},
			DoUpdates: clause.AssignmentColumns([]string{"valor"}),
		}).CreateInBatches(&models, w.batchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert %d rows: %w", len(models), err)
	}
	return len(models), nil
}

func (w *Writer) Close() error {
	return w.sqlDB.Close()
}
