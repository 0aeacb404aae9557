package history

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// exchangeRecord is the exchanges table row.
type exchangeRecord struct {
	ID               string    `gorm:"primaryKey;size:36"`
	UserID           string    `gorm:"index:idx_exchanges_user_created,priority:1;size:128;not null"`
	UserMessage      string    `gorm:"type:text"`
	AssistantMessage string    `gorm:"type:text"`
	CreatedAt        time.Time `gorm:"index:idx_exchanges_user_created,priority:2"`
}

func (exchangeRecord) TableName() string { return "exchanges" }

// GormStore persists exchanges in SQLite or PostgreSQL.
type GormStore struct {
	db  *gorm.DB
	max int
}

// OpenSQLite opens (and migrates) a SQLite database at path.
func OpenSQLite(path string, maxPerUser int) (*GormStore, error) {
	return openGorm(sqlite.Open(path), maxPerUser)
}

// OpenPostgres connects to (and migrates) a PostgreSQL database.
func OpenPostgres(dsn string, maxPerUser int) (*GormStore, error) {
	return openGorm(postgres.Open(dsn), maxPerUser)
}

func openGorm(dialector gorm.Dialector, maxPerUser int) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.AutoMigrate(&exchangeRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return &GormStore{db: db, max: maxPerUser}, nil
}

func (s *GormStore) Recent(ctx context.Context, userID string, n int) ([]Exchange, error) {
	var rows []exchangeRecord
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	slices.Reverse(rows)

	out := make([]Exchange, len(rows))
	for i, r := range rows {
		out[i] = Exchange{
			ID:               r.ID,
			UserID:           r.UserID,
			UserMessage:      r.UserMessage,
			AssistantMessage: r.AssistantMessage,
			CreatedAt:        r.CreatedAt,
		}
	}
	return out, nil
}

// Append stores e and, with a per-user limit, drops the oldest rows beyond
// it.
func (s *GormStore) Append(ctx context.Context, e Exchange) error {
	rec := exchangeRecord{
		ID:               e.ID,
		UserID:           e.UserID,
		UserMessage:      e.UserMessage,
		AssistantMessage: e.AssistantMessage,
		CreatedAt:        e.CreatedAt,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to save exchange: %w", err)
		}
		if s.max <= 0 {
			return nil
		}
		keep := tx.Model(&exchangeRecord{}).
			Select("id").
			Where("user_id = ?", e.UserID).
			Order("created_at DESC").
			Limit(s.max)
		if err := tx.Where("user_id = ? AND id NOT IN (?)", e.UserID, keep).Delete(&exchangeRecord{}).Error; err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		return nil
	})
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
