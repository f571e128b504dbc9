package sites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cliossg/sitesmith/pkg/cl/config"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// DBProvider provides access to the database.
type DBProvider interface {
	GetDB() *sql.DB
}

const selectSiteBySlug = `SELECT id, slug, title, html, css, js, created_at, updated_at FROM sites WHERE slug = ?`

// Each dialect upserts in a single statement so a row is never observed
// with fields from two different publishes.
const (
	upsertSiteSQLite = `INSERT INTO sites (id, slug, title, html, css, js, created_at, updated_at)
VALUES (:id, :slug, :title, :html, :css, :js, :created_at, :updated_at)
ON CONFLICT(slug) DO UPDATE SET
	title = excluded.title,
	html = excluded.html,
	css = excluded.css,
	js = excluded.js,
	updated_at = excluded.updated_at`

	upsertSiteMySQL = `INSERT INTO sites (id, slug, title, html, css, js, created_at, updated_at)
VALUES (:id, :slug, :title, :html, :css, :js, :created_at, :updated_at)
ON DUPLICATE KEY UPDATE
	title = VALUES(title),
	html = VALUES(html),
	css = VALUES(css),
	js = VALUES(js),
	updated_at = VALUES(updated_at)`
)

const (
	maxUpsertAttempts = 3
	retryBackoff      = 25 * time.Millisecond
)

// DBStore keeps one row per slug with raw fragments. Documents are
// assembled at serve time.
type DBStore struct {
	dbProvider DBProvider
	backend    string

	mu sync.Mutex
	db *sqlx.DB
}

// NewDBStore creates a store for the sqlite or mysql backend.
func NewDBStore(dbProvider DBProvider, backend string) *DBStore {
	if backend != config.BackendMySQL {
		backend = config.BackendSQLite
	}
	return &DBStore{dbProvider: dbProvider, backend: backend}
}

// Backend returns the store backend name.
func (s *DBStore) Backend() string {
	return s.backend
}

func (s *DBStore) driverName() string {
	if s.backend == config.BackendMySQL {
		return "mysql"
	}
	return "sqlite3"
}

func (s *DBStore) ensureDB() (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil && s.dbProvider != nil {
		if raw := s.dbProvider.GetDB(); raw != nil {
			s.db = sqlx.NewDb(raw, s.driverName())
		}
	}
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return s.db, nil
}

func (s *DBStore) upsertQuery() string {
	if s.backend == config.BackendMySQL {
		return upsertSiteMySQL
	}
	return upsertSiteSQLite
}

// Upsert creates or replaces the row for site.Slug. On conflict the
// original id and created_at are kept.
func (s *DBStore) Upsert(ctx context.Context, site *Site) error {
	db, err := s.ensureDB()
	if err != nil {
		return storageError("upsert", site.Slug, err)
	}

	query := s.upsertQuery()
	for attempt := 1; ; attempt++ {
		_, err = db.NamedExecContext(ctx, query, site)
		if err == nil {
			return nil
		}
		if attempt >= maxUpsertAttempts || !isTransient(err) {
			return storageError("upsert", site.Slug, err)
		}

		select {
		case <-ctx.Done():
			return storageError("upsert", site.Slug, ctx.Err())
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
}

// Fetch returns the row for slug, or ErrNotFound.
func (s *DBStore) Fetch(ctx context.Context, slug string) (*Site, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, storageError("fetch", slug, err)
	}

	var site Site
	if err := db.GetContext(ctx, &site, selectSiteBySlug, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageError("fetch", slug, err)
	}
	return &site, nil
}

// Ping checks connectivity.
func (s *DBStore) Ping(ctx context.Context) error {
	db, err := s.ensureDB()
	if err != nil {
		return storageError("ping", "", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return storageError("ping", "", err)
	}
	return nil
}

// isTransient reports lock contention errors worth retrying: sqlite busy or
// locked, and mysql deadlocks or lock wait timeouts.
func isTransient(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
