package initializers

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectToDB opens the database selected by cfg.DBDriver.
func ConnectToDB(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DatabaseURL)
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.DatabaseURL))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(cfg), TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// OpenInMemory returns a migrated, empty SQLite database living in memory.
func OpenInMemory() (*gorm.DB, error) {
	db, err := ConnectToDB(Config{DBDriver: "sqlite", DatabaseURL: ":memory:", LogLevel: "error"})
	if err != nil {
		return nil, err
	}
	if err := SyncDatabase(db); err != nil {
		return nil, err
	}
	return db, nil
}

// sqliteDSN turns on foreign keys for every connection, cascades depend on it.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

func newGormLogger(cfg Config) gormlogger.Interface {
	level := gormlogger.Warn
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = gormlogger.Info
	case "error":
		level = gormlogger.Error
	}

	return gormlogger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
