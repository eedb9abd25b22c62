package store

import (
	"context"
	stderrors "errors"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/roomlink/messaging-platform/internal/model"
	"github.com/roomlink/messaging-platform/pkg/errors"
)

// GormStore implements Store on top of a relational database.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// Open connects to MySQL and runs the schema migration.
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.ErrStoreFailure(err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps an existing gorm connection (any dialect) and migrates
// the schema. Tests use this with sqlite.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(
		&model.Participant{},
		&model.Conversation{},
		&model.Message{},
		&model.Attachment{},
	); err != nil {
		return nil, errors.ErrStoreFailure(err)
	}
	return &GormStore{db: db}, nil
}

// Ping verifies database connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// GetParticipant fetches one participant by id.
func (s *GormStore) GetParticipant(ctx context.Context, id uint64) (*model.Participant, error) {
	var p model.Participant
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrParticipantNotFound
		}
		return nil, errors.ErrStoreFailure(err)
	}
	return &p, nil
}

// GetParticipantByCustomer resolves a customer-account reference to its
// participant identity.
func (s *GormStore) GetParticipantByCustomer(ctx context.Context, customerID uint64) (*model.Participant, error) {
	var p model.Participant
	err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&p).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrParticipantNotFound
		}
		return nil, errors.ErrStoreFailure(err)
	}
	return &p, nil
}
