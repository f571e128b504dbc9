package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/google/uuid"
)

// Migration is one versioned schema change read from a
// "<datetime>-<name>.sql" file with "-- +migrate Up" and "-- +migrate Down"
// sections.
type Migration struct {
	Datetime string
	Name     string
	Up       string
	Down     string
}

// Key identifies a migration in the tracking table.
func (m Migration) Key() string {
	return m.Datetime + "-" + m.Name
}

// Migrator applies pending migrations for one engine ("sqlite" or "mysql").
type Migrator struct {
	db       *sql.DB
	log      logger.Logger
	assetsFS fs.FS
	engine   string
	path     string
}

// New creates a new Migrator.
func New(assetsFS fs.FS, engine string, log logger.Logger) *Migrator {
	return &Migrator{
		assetsFS: assetsFS,
		engine:   engine,
		log:      log,
	}
}

// SetDB sets the database connection.
func (m *Migrator) SetDB(db *sql.DB) {
	m.db = db
}

// SetPath overrides the default assets/migrations/<engine> directory.
func (m *Migrator) SetPath(path string) {
	m.path = path
}

// Run executes pending migrations in order, each in its own transaction.
func (m *Migrator) Run(ctx context.Context) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("cannot create migrations table: %w", err)
	}

	fileMigrations, err := m.Load()
	if err != nil {
		return fmt.Errorf("cannot load file migrations: %w", err)
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return fmt.Errorf("cannot load applied migrations: %w", err)
	}

	var pending []Migration
	for _, mig := range fileMigrations {
		if _, ok := applied[mig.Key()]; !ok {
			pending = append(pending, mig)
		}
	}

	if len(pending) == 0 {
		m.log.Debug("No pending migrations")
		return nil
	}

	m.log.Infof("Running %d pending migration(s)", len(pending))
	for _, mig := range pending {
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("migration %s failed: %w", mig.Key(), err)
		}
		m.log.Infof("Applied migration: %s", mig.Key())
	}

	return nil
}

// Load parses every migration file under the migration directory, sorted by
// datetime prefix.
func (m *Migrator) Load() ([]Migration, error) {
	dir := m.path
	if dir == "" {
		dir = path.Join("assets/migrations", m.engine)
	}

	var migrations []Migration
	err := fs.WalkDir(m.assetsFS, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}

		parts := strings.SplitN(d.Name(), "-", 2)
		if len(parts) < 2 {
			return fmt.Errorf("invalid migration filename: %s", d.Name())
		}

		content, err := fs.ReadFile(m.assetsFS, p)
		if err != nil {
			return fmt.Errorf("cannot read migration file %s: %w", p, err)
		}

		up, down := splitSections(string(content))
		migrations = append(migrations, Migration{
			Datetime: parts[0],
			Name:     strings.TrimSuffix(parts[1], ".sql"),
			Up:       up,
			Down:     down,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Datetime < migrations[j].Datetime
	})
	return migrations, nil
}

func splitSections(content string) (up, down string) {
	for _, section := range strings.Split(content, "-- +migrate ") {
		switch {
		case strings.HasPrefix(section, "Up"):
			up = strings.TrimSpace(strings.TrimPrefix(section, "Up"))
		case strings.HasPrefix(section, "Down"):
			down = strings.TrimSpace(strings.TrimPrefix(section, "Down"))
		}
	}
	return up, down
}

func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS migrations (
		id TEXT PRIMARY KEY,
		datetime TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	// MySQL cannot key on TEXT columns
	if m.engine == "mysql" {
		query = `
		CREATE TABLE IF NOT EXISTS migrations (
			id VARCHAR(36) PRIMARY KEY,
			datetime VARCHAR(32) NOT NULL,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	}
	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m *Migrator) applied(ctx context.Context) (map[string]struct{}, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT datetime, name FROM migrations ORDER BY datetime")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var mig Migration
		if err := rows.Scan(&mig.Datetime, &mig.Name); err != nil {
			return nil, err
		}
		applied[mig.Key()] = struct{}{}
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	if mig.Up == "" {
		return fmt.Errorf("no Up section found")
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
		return err
	}

	// ids are generated client side so sqlite and mysql share one insert
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO migrations (id, datetime, name, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)",
		uuid.New().String(), mig.Datetime, mig.Name); err != nil {
		return err
	}

	return tx.Commit()
}
