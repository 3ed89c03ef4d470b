package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"enquete-backend/internal/config"
	"enquete-backend/internal/model"
)

var database *gorm.DB

// InitDBFromConfig opens the postgres store described by cfg, applies the
// pool settings and keeps the handle for GetDB.
func InitDBFromConfig(cfg *config.APIConfig) (*gorm.DB, error) {
	conn, err := Open(postgres.Open(cfg.DB.DSN()))
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	pool := cfg.DB.Pool
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetime) * time.Second)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	database = conn
	return conn, nil
}

// GetDB returns the handle opened by InitDBFromConfig.
func GetDB() *gorm.DB {
	return database
}

// Open connects through dialector with the settings every store shares.
// Unique and foreign key violations come back as gorm.ErrDuplicatedKey and
// gorm.ErrForeignKeyViolated.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return open(dialector, log.New(os.Stdout, "\r\n", log.LstdFlags))
}

func open(dialector gorm.Dialector, out logger.Writer) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(out),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return conn, nil
}

// newLogger reports slow queries and failures. Lookups that find nothing are
// expected and stay quiet.
func newLogger(out logger.Writer) logger.Interface {
	return logger.New(out, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate creates or updates the schema of every model.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&model.Area{},
		&model.Technology{},
		&model.Survey{},
		&model.Question{},
		&model.Option{},
		&model.Respondent{},
		&model.SingleChoiceAnswer{},
		&model.MultiChoiceAnswer{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
