package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cliossg/sitesmith/pkg/cl/config"
	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/cliossg/sitesmith/pkg/cl/migrate"
)

// Driver names as registered with database/sql.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Database manages the SQL connection and lifecycle for the sqlite and mysql
// store backends.
type Database struct {
	DB            *sql.DB
	assetsFS      fs.FS
	migrationPath string
	cfg           *config.Config
	log           logger.Logger
}

// New creates a new Database instance.
func New(assetsFS fs.FS, cfg *config.Config, log logger.Logger) *Database {
	return &Database{
		assetsFS: assetsFS,
		cfg:      cfg,
		log:      log,
	}
}

// SetMigrationPath sets a custom migration path.
func (d *Database) SetMigrationPath(path string) {
	d.migrationPath = path
}

// Driver returns the database/sql driver name for the configured backend.
func (d *Database) Driver() string {
	return DriverFor(d.cfg.Store.Backend)
}

// DriverFor maps a store backend to its database/sql driver name.
func DriverFor(backend string) string {
	if backend == config.BackendMySQL {
		return DriverMySQL
	}
	return DriverSQLite
}

// Start opens the database connection and runs migrations.
func (d *Database) Start(ctx context.Context) error {
	db, err := d.open()
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("cannot ping database: %w", err)
	}

	d.DB = db
	d.log.Infof("Database connection established [%s]", d.Driver())

	engine := "sqlite"
	if d.Driver() == DriverMySQL {
		engine = "mysql"
	}
	migrator := migrate.New(d.assetsFS, engine, d.log)
	migrator.SetDB(d.DB)
	if d.migrationPath != "" {
		migrator.SetPath(d.migrationPath)
	}
	if err := migrator.Run(ctx); err != nil {
		return fmt.Errorf("cannot run migrations: %w", err)
	}

	return nil
}

func (d *Database) open() (*sql.DB, error) {
	if d.Driver() == DriverMySQL {
		db, err := sql.Open(DriverMySQL, d.cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("cannot open database: %w", err)
		}
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetMaxOpenConns(15)
		db.SetMaxIdleConns(5)
		return db, nil
	}

	dbDir := filepath.Dir(d.cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create database directory: %w", err)
	}

	// WAL mode lets readers proceed while an upsert is committing
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", d.cfg.Database.Path)
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	return db, nil
}

// Stop closes the database connection.
func (d *Database) Stop(ctx context.Context) error {
	if d.DB != nil {
		d.log.Info("Closing database connection")
		return d.DB.Close()
	}
	return nil
}

// GetDB returns the underlying sql.DB.
func (d *Database) GetDB() *sql.DB {
	return d.DB
}
