package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Lyrics"

// Workbook collects lyric sheets into one XLSX file.
type Workbook struct {
	f      *excelize.File
	wrap   int
	bold   int
	sheets int
	names  map[string]struct{}
	logger *slog.Logger
}

// NewWorkbook creates an empty workbook.
func NewWorkbook(logger *slog.Logger) (*Workbook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f := excelize.NewFile()
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 13},
		Alignment: &excelize.Alignment{Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	return &Workbook{f: f, wrap: wrap, bold: bold, names: map[string]struct{}{}, logger: logger}, nil
}

// AddSheet writes title and rows to a new sheet named after title.
// Returns the sheet name actually used.
func (w *Workbook) AddSheet(title string, rows []LyricRow) (string, error) {
	name := w.uniqueName(sheetName(title))
	if w.sheets == 0 {
		// reuse the default Sheet1
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return "", err
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return "", err
	}
	w.sheets++
	w.names[strings.ToLower(name)] = struct{}{}

	write := func(col, row int, v any, style int) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := w.f.SetCellValue(name, cell, v); err != nil {
			return err
		}
		return w.f.SetCellStyle(name, cell, cell, style)
	}

	row := 1
	if title != "" {
		if err := write(1, row, title, w.bold); err != nil {
			return "", err
		}
		if err := w.f.MergeCell(name, "A1", "B1"); err != nil {
			return "", err
		}
		row++
	}
	for _, r := range rows {
		if err := write(1, row, r.Cell(), w.wrap); err != nil {
			return "", err
		}
		if err := write(2, row, r.Translation, w.wrap); err != nil {
			return "", err
		}
		row++
	}

	_ = w.f.SetColWidth(name, "A", "A", 48) // hindi + transliteration
	_ = w.f.SetColWidth(name, "B", "B", 60) // translation
	return name, nil
}

// Bytes serialises the workbook. A workbook with no sheets gets an empty one.
func (w *Workbook) Bytes() ([]byte, error) {
	if w.sheets == 0 {
		if err := w.f.SetSheetName("Sheet1", defaultSheet); err != nil {
			return nil, err
		}
	}
	w.f.SetActiveSheet(0)
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.f.Close()
}

func (w *Workbook) uniqueName(base string) string {
	name := base
	for i := 2; ; i++ {
		if _, taken := w.names[strings.ToLower(name)]; !taken {
			return name
		}
		suffix := fmt.Sprintf(" (%d)", i)
		runes := []rune(base)
		if len(runes)+len([]rune(suffix)) > 31 {
			runes = runes[:31-len([]rune(suffix))]
		}
		name = string(runes) + suffix
	}
}

// sheetName strips characters Excel forbids and caps the name at 31 runes.
func sheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")
	if runes := []rune(name); len(runes) > 31 {
		name = string(runes[:31])
	}
	if name == "" {
		return defaultSheet
	}
	return name
}

// XLSX renders a single lyric sheet.
func XLSX(ctx context.Context, title string, rows []LyricRow, logger *slog.Logger) ([]byte, error) {
	start := time.Now()
	wb, err := NewWorkbook(logger)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	if _, err := wb.AddSheet(title, rows); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := wb.Bytes()
	if err != nil {
		return nil, err
	}
	wb.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
