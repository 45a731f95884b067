package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mwerning/fleetscan/constants"
	"github.com/mwerning/fleetscan/internal/common"
	"github.com/mwerning/fleetscan/internal/entity"
	"github.com/mwerning/fleetscan/internal/registry"
)

// periodColumns is the canonical period-table schema. Existing tables are
// migrated in place to add missing columns; columns are never dropped.
var periodColumns = []struct {
	name string
	typ  string
}{
	{"driver_id", "BIGINT"},
	{"name", "TEXT"},
	{"external_id", "TEXT"},
	{"gross", "NUMERIC"},
	{"net", "NUMERIC"},
	{"page_number", "INTEGER"},
	{"confidence", "REAL"},
	{"created_at", "TEXT"},
}

// ImportWriter persists reconciled records into period tables, provisioning
// unknown reference entities along the way.
type ImportWriter struct {
	db       *DB
	registry *RegistryStore
	cache    *registry.Cache
	matcher  registry.Matcher
	logger   *slog.Logger
}

func NewImportWriter(db *DB, regs *RegistryStore, cache *registry.Cache, matcher registry.Matcher, logger *slog.Logger) *ImportWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportWriter{db: db, registry: regs, cache: cache, matcher: matcher, logger: logger}
}

// TxImport binds the writer to one document's transaction. Provisioned cache
// entries are tracked so a rollback can evict them: the cache must never point
// at a row that was never committed.
type TxImport struct {
	w           *ImportWriter
	q           Querier
	provisioned []int64
}

// Begin binds writer operations to a transaction (or the bare pool).
func (w *ImportWriter) Begin(q Querier) *TxImport {
	return &TxImport{w: w, q: q}
}

// DiscardProvisioned evicts entities provisioned under a rolled-back
// transaction from the registry cache.
func (t *TxImport) DiscardProvisioned() {
	for _, id := range t.provisioned {
		t.w.cache.Remove(id)
		t.w.logger.Warn("evicting provisional entity after rollback", "entity_id", id)
	}
	t.provisioned = nil
}

// EnsurePeriodTable lazily creates the period relation and adds any canonical
// columns an existing table is missing. Data is never dropped.
func (t *TxImport) EnsurePeriodTable(ctx context.Context, period entity.PeriodKey) error {
	table := quoteIdent(period.TableName())

	idCol := "id INTEGER PRIMARY KEY"
	if t.w.db.Dialect == DialectPostgres {
		idCol = "id BIGSERIAL PRIMARY KEY"
	}
	cols := []string{idCol}
	for _, c := range periodColumns {
		cols = append(cols, c.name+" "+c.typ)
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(cols, ", "))
	if _, err := t.q.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: create period table %s: %w", common.ErrPersistence, period.TableName(), err)
	}

	existing, err := t.tableColumns(ctx, period.TableName())
	if err != nil {
		return err
	}
	for _, c := range periodColumns {
		if _, ok := existing[c.name]; ok {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, c.name, c.typ)
		if _, err := t.q.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("add column %s to %s: %w", c.name, period.TableName(), err)
		}
		t.w.logger.Info("migrated period table", "table", period.TableName(), "added_column", c.name)
	}
	return nil
}

func (t *TxImport) tableColumns(ctx context.Context, table string) (map[string]struct{}, error) {
	var query string
	var args []any
	if t.w.db.Dialect == DialectPostgres {
		query = t.w.db.Rebind(`SELECT column_name FROM information_schema.columns WHERE table_name = ?`)
		args = []any{table}
	} else {
		query = `SELECT name FROM pragma_table_info(?)`
		args = []any{table}
	}
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inspect columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		out[strings.ToLower(name)] = struct{}{}
	}
	return out, rows.Err()
}

// IsDuplicate reports whether the period already holds a row with the same
// (external_id, name) pair.
func (t *TxImport) IsDuplicate(ctx context.Context, period entity.PeriodKey, externalID, name string) (bool, error) {
	query := fmt.Sprintf(
		`SELECT COUNT(1) FROM %s WHERE external_id = ? AND name = ?`, quoteIdent(period.TableName()))
	var n int
	err := t.q.QueryRowContext(ctx, t.w.db.Rebind(query), externalID, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: duplicate check in %s: %w", common.ErrPersistence, period.TableName(), err)
	}
	return n > 0, nil
}

// ResolveOrCreateEntity matches the raw name/id against the registry cache;
// when nothing matches and the name is non-empty it provisions a new entity
// and makes it visible to the rest of the run immediately.
func (t *TxImport) ResolveOrCreateEntity(ctx context.Context, rawName, externalID string) (registry.MatchResult, error) {
	res := t.w.matcher.Match(t.w.cache, rawName, externalID)
	if res.Matched() {
		return res, nil
	}
	if strings.TrimSpace(rawName) == "" {
		return res, nil
	}

	first, last := registry.SplitName(rawName)
	ent := entity.ReferenceEntity{FirstName: first, LastName: last, ExternalID: externalID}

	// An unused numeric external id becomes the entity id.
	if n, err := strconv.ParseInt(strings.TrimSpace(externalID), 10, 64); err == nil && n > 0 && !t.w.cache.HasID(n) {
		ent.ID = n
	}

	id, err := t.w.registry.CreateEntity(ctx, t.q, ent)
	if err != nil {
		return res, fmt.Errorf("provision entity %q: %w", rawName, err)
	}
	canonical := ent.CanonicalName()
	t.w.cache.Add(id, canonical)
	t.provisioned = append(t.provisioned, id)
	t.w.logger.Info("provisioned reference entity", "entity_id", id, "name", canonical, "external_id", externalID)

	return registry.MatchResult{EntityID: id, CanonicalName: canonical, Score: res.Score, Source: constants.MatchProvisioned}, nil
}

// WriteOutcome reports what Write did with one record.
type WriteOutcome struct {
	Inserted         bool
	SkippedDuplicate bool
	ReferenceID      *int64
	MatchSource      string
}

// Write persists one record: duplicates are skipped and counted, unknown
// entities provisioned, ambiguous matches stored with a null reference id for
// manual follow-up.
func (t *TxImport) Write(ctx context.Context, period entity.PeriodKey, rec entity.FieldRecord) (WriteOutcome, error) {
	dup, err := t.IsDuplicate(ctx, period, rec.ExternalID, rec.Name)
	if err != nil {
		return WriteOutcome{}, err
	}
	if dup {
		t.w.logger.Debug("skipping duplicate record",
			"period", period.String(), "name", rec.Name, "external_id", rec.ExternalID)
		return WriteOutcome{SkippedDuplicate: true}, nil
	}

	res, err := t.ResolveOrCreateEntity(ctx, rec.Name, rec.ExternalID)
	if err != nil {
		return WriteOutcome{}, err
	}

	var refID any
	var refPtr *int64
	if res.Matched() {
		id := res.EntityID
		refID, refPtr = id, &id
	} else {
		t.w.logger.Warn("record left unmatched for manual follow-up",
			"period", period.String(), "name", rec.Name, "external_id", rec.ExternalID, "best_score", res.Score)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (driver_id, name, external_id, gross, net, page_number, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdent(period.TableName()))
	_, err = t.q.ExecContext(ctx, t.w.db.Rebind(query),
		refID, rec.Name, rec.ExternalID,
		rec.Gross.InexactFloat64(), rec.Net.InexactFloat64(),
		rec.Page, rec.Confidence,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return WriteOutcome{}, fmt.Errorf("%w: insert record into %s: %w", common.ErrPersistence, period.TableName(), err)
	}

	return WriteOutcome{Inserted: true, ReferenceID: refPtr, MatchSource: res.Source}, nil
}
