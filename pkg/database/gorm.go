package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type GormConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func getLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger: getLogger(level),
		// Unique violations surface as gorm.ErrDuplicatedKey on every dialect.
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func configureConnectionPool(db *gorm.DB, maxOpen int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

func NewGormDB(cfg GormConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode)
	return NewGormDBFromDSN(dsn)
}

func NewGormDBFromDSN(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(logger.Warn))
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db, 100); err != nil {
		return nil, err
	}

	return db, nil
}

// NewSQLite opens a pure-Go SQLite database. The pool is pinned to one
// connection: SQLite allows a single writer and ":memory:" databases are
// per connection.
func NewSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(logger.Silent))
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db, 1); err != nil {
		return nil, err
	}

	return db, nil
}

// Open picks the dialect by driver name.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "", DriverPostgres:
		return NewGormDBFromDSN(dsn)
	case DriverSQLite:
		return NewSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
