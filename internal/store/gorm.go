// internal/store/gorm.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/license-backend/internal/models"
)

// GormStore implements LicenseKeyStore on top of a gorm connection
// (PostgreSQL in production).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, key *models.LicenseKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(key).Error; err != nil {
		return translateGormError(err)
	}
	return nil
}

func (s *GormStore) FindOne(ctx context.Context, filter Filter) (*models.LicenseKey, error) {
	clause, args, err := filter.where()
	if err != nil {
		return nil, err
	}

	var key models.LicenseKey
	if err := s.db.WithContext(ctx).Where(clause, args...).Take(&key).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &key, nil
}

func (s *GormStore) Update(ctx context.Context, filter Filter, fields Fields) (int64, error) {
	clause, args, err := filter.where()
	if err != nil {
		return 0, err
	}
	if _, err := fields.columns(); err != nil {
		return 0, err
	}

	result := s.db.WithContext(ctx).
		Model(&models.LicenseKey{}).
		Where(clause, args...).
		Updates(map[string]interface{}(fields))
	if result.Error != nil {
		return 0, translateGormError(result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormStore) RecordEvent(ctx context.Context, event *models.LicenseEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *GormStore) ListEvents(ctx context.Context, licenseKeyID uuid.UUID) ([]*models.LicenseEvent, error) {
	var events []*models.LicenseEvent
	err := s.db.WithContext(ctx).
		Where("license_key_id = ?", licenseKeyID).
		Order("created_at").
		Find(&events).Error
	if err != nil {
		return nil, translateGormError(err)
	}
	return events, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateGormError relies on gorm.Config.TranslateError being set.
func translateGormError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
