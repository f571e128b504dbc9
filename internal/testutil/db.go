package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/cliossg/sitesmith/pkg/cl/migrate"
	_ "github.com/mattn/go-sqlite3"
)

// NewTestDB creates a new in-memory SQLite database with all migrations applied.
func NewTestDB() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if err := ApplyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot apply migrations: %w", err)
	}

	return db, nil
}

// ApplyMigrations applies all sqlite migrations found under the repository
// assets directory.
func ApplyMigrations(db *sql.DB) error {
	root := FindRepoRoot()
	if root == "" {
		return fmt.Errorf("migrations directory not found")
	}

	m := migrate.New(os.DirFS(root), "sqlite", logger.NewNoopLogger())
	m.SetDB(db)
	return m.Run(context.Background())
}

// FindRepoRoot walks up from the working directory to the first directory
// holding assets/migrations/sqlite. It returns "" when none is found.
func FindRepoRoot() string {
	paths := []string{
		".",
		"..",
		"../..",
		"../../..",
		"../../../..",
	}

	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(p, "assets", "migrations", "sqlite")); err == nil {
			return p
		}
	}

	return ""
}

// TestDBProvider implements DBProvider for testing.
type TestDBProvider struct {
	DB *sql.DB
}

func (p *TestDBProvider) GetDB() *sql.DB {
	return p.DB
}
