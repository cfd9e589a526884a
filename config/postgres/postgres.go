package postgres

import (
	"Nhauzo/config"
	models "Nhauzo/models/postgres"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the connection string of cfg
func DSN(cfg config.PostgresConfig) string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

// ConnectGORM returns a GORM DB instance connected to PostgreSQL
func ConnectGORM(cfg config.PostgresConfig) (*gorm.DB, error) {
	// NOTE: See https://github.com/go-gorm/gorm/issues/5409
	sqlDB, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		log.Errorf("Error connecting to PostgreSQL: %v", err)
		return nil, err
	}

	db, err := Open(sqlDB, cfg.Verbose)
	if err != nil {
		log.Errorf("Error connecting to PostgreSQL with GORM: %v", err)
		return nil, err
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		log.Errorf("Error pinging PostgreSQL: %v", err)
		return nil, err
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("Successfully connected to PostgreSQL with GORM")
	return db, nil
}

// Open wraps an existing connection. Verbose logs every query through
// logrus.
func Open(conn *sql.DB, verbose bool) (*gorm.DB, error) {
	gormConfig := &gorm.Config{}
	if verbose {
		gormConfig.Logger = logger.New(
			log.StandardLogger(),
			logger.Config{
				SlowThreshold:             time.Second, // Slow SQL threshold
				LogLevel:                  logger.Info,
				IgnoreRecordNotFoundError: false,
				Colorful:                  false,
			},
		)
	}

	return gorm.Open(pgdriver.New(pgdriver.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), gormConfig)
}

// MigrateDatabase migrates the GORM models to the PostgreSQL database
func MigrateDatabase(db *gorm.DB) error {
	// EXACTLY, this (postgres driver v1.4.0): https://github.com/pilinux/gorest/issues/167#issuecomment-1947114560
	if err := db.AutoMigrate(models.RoundResult{}); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	log.Info("PostgreSQL database migrated successfully")
	return nil
}
