package configs

import (
	"fmt"
	"time"

	"smartorder/entity"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func DB() *gorm.DB {
	return db
}

// ConnectionDB opens the configured database and keeps it as the process-wide handle.
func ConnectionDB(cfg *Config) error {
	database, err := OpenDB(cfg.DBDriver, cfg.DBSource)
	if err != nil {
		return err
	}
	db = database
	return nil
}

// OpenDB opens a gorm handle for driver (sqlite, mysql or postgres).
func OpenDB(driver, source string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(source)
	case "mysql":
		dialector = mysql.Open(source)
	case "postgres":
		dialector = postgres.Open(source)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" || driver == "" {
		// one writer keeps sqlite from returning SQLITE_BUSY under concurrent checkouts
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}
	return gdb, nil
}

// SetupDatabase migrates the schema.
func SetupDatabase(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&entity.User{}, &entity.PasswordReset{},
		&entity.MenuItem{},
		&entity.Cart{}, &entity.CartItem{},
		&entity.Order{}, &entity.OrderItem{}, &entity.OrderStatusLog{},
		&entity.Feedback{},
	)
}
