package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mwerning/fleetscan/internal/entity"
)

// RegistryStore reads and provisions reference entities (drivers).
type RegistryStore struct {
	db     *DB
	logger *slog.Logger
}

func NewRegistryStore(db *DB, logger *slog.Logger) *RegistryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryStore{db: db, logger: logger}
}

// Init creates the drivers relation when absent. Existing data is never
// touched.
func (s *RegistryStore) Init(ctx context.Context) error {
	var ddl string
	if s.db.Dialect == DialectPostgres {
		ddl = `CREATE TABLE IF NOT EXISTS drivers (
			id BIGSERIAL PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			license_no TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TEXT NOT NULL
		)`
	} else {
		ddl = `CREATE TABLE IF NOT EXISTS drivers (
			id INTEGER PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			license_no TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TEXT NOT NULL
		)`
	}
	if _, err := s.db.SQL.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create drivers table: %w", err)
	}
	return nil
}

// ListEntities returns the full registry snapshot in id order.
func (s *RegistryStore) ListEntities(ctx context.Context) ([]entity.ReferenceEntity, error) {
	rows, err := s.db.SQL.QueryContext(ctx,
		`SELECT id, first_name, last_name, COALESCE(license_no, ''), status, created_at FROM drivers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query drivers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.ReferenceEntity
	for rows.Next() {
		var e entity.ReferenceEntity
		var created string
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.ExternalID, &e.Status, &created); err != nil {
			return nil, fmt.Errorf("scan driver row: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339, created); perr == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CreateEntity inserts a new reference entity. When e.ID is positive it is
// used as the explicit id (an unused numeric external id becomes the entity
// id); otherwise the id is auto-assigned.
func (s *RegistryStore) CreateEntity(ctx context.Context, q Querier, e entity.ReferenceEntity) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	if e.ID > 0 {
		_, err := q.ExecContext(ctx, s.db.Rebind(
			`INSERT INTO drivers (id, first_name, last_name, license_no, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
			e.ID, e.FirstName, e.LastName, nullable(e.ExternalID), statusOrActive(e.Status), now)
		if err != nil {
			return 0, fmt.Errorf("insert driver %d: %w", e.ID, err)
		}
		return e.ID, nil
	}

	if s.db.Dialect == DialectPostgres {
		var id int64
		err := q.QueryRowContext(ctx, s.db.Rebind(
			`INSERT INTO drivers (first_name, last_name, license_no, status, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`),
			e.FirstName, e.LastName, nullable(e.ExternalID), statusOrActive(e.Status), now).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert driver: %w", err)
		}
		return id, nil
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO drivers (first_name, last_name, license_no, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.FirstName, e.LastName, nullable(e.ExternalID), statusOrActive(e.Status), now)
	if err != nil {
		return 0, fmt.Errorf("insert driver: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func statusOrActive(s string) string {
	if s == "" {
		return "active"
	}
	return s
}
