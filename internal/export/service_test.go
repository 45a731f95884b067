package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwerning/fleetscan/internal/entity"
	"github.com/mwerning/fleetscan/internal/store"
)

func TestPeriodXLSX(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "fleetscan.db"), 0, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.SQL.ExecContext(ctx, `CREATE TABLE "07_25" (
		id INTEGER PRIMARY KEY,
		driver_id BIGINT, name TEXT, external_id TEXT,
		gross NUMERIC, net NUMERIC,
		page_number INTEGER, confidence REAL, created_at TEXT
	)`)
	require.NoError(t, err)
	_, err = db.SQL.ExecContext(ctx, `INSERT INTO "07_25"
		(driver_id, name, external_id, gross, net, page_number, confidence, created_at)
		VALUES (42, 'Max Mustermann', '42', 2500.0, 1980.0, 1, 1.0, '2025-07-31T00:00:00Z'),
		       (NULL, 'Unbekannt', '', 100.0, 80.0, 2, 0.6, '2025-07-31T00:00:00Z')`)
	require.NoError(t, err)

	data, err := NewService(db, logger).PeriodXLSX(ctx, entity.PeriodKey{Month: 7, Year: 2025})
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })

	name, err := wb.GetCellValue("Records", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Max Mustermann", name)

	driver, err := wb.GetCellValue("Records", "B3")
	require.NoError(t, err)
	assert.Empty(t, driver)

	header, err := wb.GetCellValue("Records", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", header)
}

func TestPeriodXLSXMissingTable(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "fleetscan.db"), 0, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = NewService(db, logger).PeriodXLSX(ctx, entity.PeriodKey{Month: 1, Year: 2030})
	assert.Error(t, err)
}
