package repository

import (
	"context"

	"gorm.io/gorm"

	"backend/internal/models"
)

// PostgresRepository is the write-behind event archive. Purifications and
// analytics batches are persisted here by the worker pool for offline
// analysis; the KV store stays authoritative for live game state.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a new Postgres repository
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// InsertPurifyEvent archives one purification event
func (r *PostgresRepository) InsertPurifyEvent(ctx context.Context, event *models.PurifyEventRecord) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// InsertAnalyticsEvents archives a batch of client analytics events
func (r *PostgresRepository) InsertAnalyticsEvents(ctx context.Context, events []models.AnalyticsEventRecord) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(events, 100).Error
}

// CountPurifyEvents returns the total number of archived purifications
func (r *PostgresRepository) CountPurifyEvents(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PurifyEventRecord{}).Count(&count).Error
	return count, err
}

// RecentPurifyEvents returns the latest archived purifications, newest first
func (r *PostgresRepository) RecentPurifyEvents(ctx context.Context, limit int) ([]models.PurifyEventRecord, error) {
	var events []models.PurifyEventRecord
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}

// Ping checks if database is reachable
func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs database migrations
func (r *PostgresRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.PurifyEventRecord{}, &models.AnalyticsEventRecord{})
}
