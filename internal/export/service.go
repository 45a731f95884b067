package export

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mwerning/fleetscan/internal/entity"
	"github.com/mwerning/fleetscan/internal/store"
)

// Service produces XLSX bytes from period tables for downstream reporting.
type Service struct {
	db     *store.DB
	logger *slog.Logger
}

func NewService(db *store.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

// PeriodXLSX returns an XLSX workbook with every record of one period table.
func (s *Service) PeriodXLSX(ctx context.Context, period entity.PeriodKey) ([]byte, error) {
	start := time.Now()

	query := fmt.Sprintf(
		`SELECT id, driver_id, name, external_id, gross, net, page_number, confidence, created_at FROM %q ORDER BY id`,
		period.TableName())
	rows, err := s.db.SQL.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query period %s: %w", period.String(), err)
	}
	defer func() { _ = rows.Close() }()

	f := excelize.NewFile()
	const sheet = "Records"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Driver ID", "Name", "External ID", "Gross", "Net", "Page", "Confidence", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowIdx := 2
	for rows.Next() {
		var (
			id         int64
			driverID   sql.NullInt64
			name       string
			externalID string
			gross      float64
			net        float64
			page       sql.NullInt64
			confidence sql.NullFloat64
			createdAt  string
		)
		if err := rows.Scan(&id, &driverID, &name, &externalID, &gross, &net, &page, &confidence, &createdAt); err != nil {
			return nil, fmt.Errorf("scan period row: %w", err)
		}

		values := []any{id, nil, name, externalID, gross, net, nil, nil, createdAt}
		if driverID.Valid {
			values[1] = driverID.Int64
		}
		if page.Valid {
			values[6] = page.Int64
		}
		if confidence.Valid {
			values[7] = confidence.Float64
		}
		for i, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx)
			_ = f.SetCellValue(sheet, cell, v)
		}
		rowIdx++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("exported period table",
		"period", period.String(), "rows", rowIdx-2, "duration", time.Since(start))
	return buf.Bytes(), nil
}
