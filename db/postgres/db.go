package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type userModel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"type:text;not null;uniqueIndex"`
	Avatar   string `gorm:"type:text;not null"`
}

func (userModel) TableName() string { return "users" }

type commentModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	Score      int       `gorm:"not null;default:0"`
	UserID     int64     `gorm:"not null;index"`
	ParentID   *int64    `gorm:"index"`
	ReplyingTo *string   `gorm:"type:text"`

	User    userModel      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	Replies []commentModel `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE;"`
}

func (commentModel) TableName() string { return "comments" }

// newLogger routes gorm's warnings and slow queries through slog.
func newLogger(log *slog.Logger) logger.Interface {
	return logger.NewSlogLogger(log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func NewDB(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         newLogger(slog.Default()),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	err = sqlDB.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping sql db: %w", err)
	}

	return db, nil
}

func Migrate(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).AutoMigrate(&userModel{}, &commentModel{})
	if err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	slog.InfoContext(ctx, "postgres schema migrated successfully")

	return nil
}
