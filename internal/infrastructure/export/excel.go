// Package export renders approval lists as spreadsheets.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
)

// SheetName is the name of the single worksheet in an export
const SheetName = "承認一覧"

// TimeLayout formats timestamps in exported cells
const TimeLayout = "2006-01-02 15:04"

// Headers are the column titles of the export, in order
var Headers = []string{"ID", "タイトル", "申請者", "申請種別", "ステータス", "金額", "作成日時", "提出日時", "承認日時"}

// ExcelExporter implements port.SpreadsheetWriter with excelize
type ExcelExporter struct {
	location *time.Location
	logger   *zap.Logger
}

// NewExcelExporter creates a new exporter. Timestamps are written in loc;
// a nil loc uses Japan Standard Time.
func NewExcelExporter(loc *time.Location, logger *zap.Logger) *ExcelExporter {
	if loc == nil {
		loc = time.FixedZone("JST", 9*60*60)
	}
	return &ExcelExporter{location: loc, logger: logger}
}

// WriteApprovals renders rows into an xlsx workbook
func (e *ExcelExporter) WriteApprovals(ctx context.Context, rows []port.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Headers))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", style); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := e.rowValues(row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	widths := map[string]float64{"A": 38, "B": 32, "C": 14, "D": 16, "E": 10, "F": 12, "G": 18, "H": 18, "I": 18}
	for col, width := range widths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Approval export written", zap.Int("rows", len(rows)), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (e *ExcelExporter) rowValues(row port.ExportRow) []interface{} {
	var amount interface{} = ""
	if row.Amount != nil {
		amount = row.Amount.InexactFloat64()
	}

	return []interface{}{
		row.ID,
		row.Title,
		row.ApplicantName,
		row.CodeName,
		row.Status.Label(),
		amount,
		e.formatTime(&row.CreatedAt),
		e.formatTime(row.SubmittedAt),
		e.formatTime(row.ApprovedAt),
	}
}

func (e *ExcelExporter) formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(e.location).Format(TimeLayout)
}
