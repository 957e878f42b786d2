package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/draftnexus/internal/domain/hero"
)

const defaultHeroTable = "heroes"

// HeroRow maps a row of the heroes table. Stats are stored as a JSON array.
type HeroRow struct {
	ID            *int    `gorm:"column:id;primaryKey"`
	Name          *string `gorm:"column:name"`
	PrimaryLane   *int    `gorm:"column:primary_lane"`
	SecondaryLane *int    `gorm:"column:secondary_lane"`
	IconURL       *string `gorm:"column:icon_url"`
	InRealLogs    *bool   `gorm:"column:in_real_logs"`
	Stats         string  `gorm:"column:stats"`
}

// Record converts the row. Unparsable stats leave Stats empty so the record
// fails validation.
func (r HeroRow) Record() hero.Record {
	rec := hero.Record{
		ID:            r.ID,
		Name:          r.Name,
		PrimaryLane:   r.PrimaryLane,
		SecondaryLane: r.SecondaryLane,
		IconURL:       r.IconURL,
		InRealLogs:    r.InRealLogs,
	}
	var stats []float64
	if err := json.Unmarshal([]byte(r.Stats), &stats); err == nil {
		rec.Stats = stats
	}
	return rec
}

// PostgresSource reads the roster from a Postgres table.
type PostgresSource struct {
	DB    *gorm.DB
	table string
}

// NewPostgresSource creates a source over db.
func NewPostgresSource(db *gorm.DB, opts ...Option) *PostgresSource {
	s := &PostgresSource{
		DB:    db,
		table: defaultHeroTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenPostgres connects to dsn with gorm's own logging silenced.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRosterUnavailable, err)
	}
	return db, nil
}

// Name identifies the source in logs.
func (s *PostgresSource) Name() string { return "postgres:" + s.table }

// Records loads every row ordered by id.
func (s *PostgresSource) Records(ctx context.Context) ([]hero.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []HeroRow
	if err := s.DB.WithContext(ctx).Table(s.table).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrRosterUnavailable, s.table, err)
	}

	records := make([]hero.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	return records, nil
}

// Close releases the underlying connection pool.
func (s *PostgresSource) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
