// Package xlsx reads and writes spreadsheet questionnaires.
package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pasassistant/internal/document"
	"pasassistant/internal/document/ooxml"
	"pasassistant/internal/domain"
	"pasassistant/internal/port"
)

const (
	// DefaultPreviewRows is the number of rows per sheet rendered for structure detection.
	DefaultPreviewRows = 25
	// MaxEmptyRows stops a sheet scan after this many consecutive empty question cells.
	MaxEmptyRows = 20
)

// Adapter implements port.DocumentAdapter for xlsx workbooks.
type Adapter struct{}

// New creates an xlsx adapter.
func New() *Adapter {
	return &Adapter{}
}

var (
	_ port.DocumentAdapter = (*Adapter)(nil)
	_ port.SheetPruner     = (*Adapter)(nil)
)

func (a *Adapter) Format() domain.Format { return domain.FormatXLSX }

// ExtractPreview renders the first maxRows rows of every sheet.
func (a *Adapter) ExtractPreview(ctx context.Context, path string, maxRows int) (string, error) {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "xlsx: open %s", path)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", eris.Wrap(err, "xlsx: preview cancelled")
		}
		lines = append(lines, fmt.Sprintf("=== Onglet : %s ===", sheet))
		rowNum := 0
		err := eachRow(f, sheet, func(cols []string) bool {
			rowNum++
			if rowNum > maxRows {
				return false
			}
			if !blank(cols) {
				lines = append(lines, fmt.Sprintf("Ligne %d : %s", rowNum, strings.Join(cols, " | ")))
			}
			return true
		})
		if err != nil {
			return "", err
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), nil
}

// row is one question-bearing row found by scanSheet.
type row struct {
	num      int
	id       string
	question string
}

// scanSheet walks the data rows of one sheet the way both extraction and
// writing see them: rows start at FirstDataRow, empty question cells count
// toward the MaxEmptyRows streak, and ids fall back to <sheet>_row<n>.
func scanSheet(f *excelize.File, sheet *domain.SheetStructure) ([]row, error) {
	qCol, err := columnIndex(sheet.QuestionColumn)
	if err != nil {
		return nil, err
	}
	idCol := -1
	if strings.TrimSpace(sheet.IDColumn) != "" {
		if idCol, err = columnIndex(sheet.IDColumn); err != nil {
			return nil, err
		}
	}
	first := sheet.FirstDataRow
	if first < 1 {
		first = 1
	}

	var out []row
	rowNum, streak := 0, 0
	err = eachRow(f, sheet.Name, func(cols []string) bool {
		rowNum++
		if rowNum < first {
			return true
		}
		question := strings.TrimSpace(cellVal(cols, qCol))
		if question == "" {
			streak++
			return streak < MaxEmptyRows
		}
		streak = 0

		id := ""
		if idCol >= 0 {
			id = strings.TrimSpace(cellVal(cols, idCol))
		}
		if id == "" {
			id = fmt.Sprintf("%s_row%d", sheet.Name, rowNum)
		}
		out = append(out, row{num: rowNum, id: id, question: question})
		return true
	})
	return out, err
}

// ExtractQuestions streams every question-bearing sheet of the structure.
func (a *Adapter) ExtractQuestions(ctx context.Context, path string, structure *domain.StructureModel) ([]domain.Question, error) {
	if structure == nil || len(structure.Sheets) == 0 {
		return nil, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}
	defer func() { _ = f.Close() }()

	present := sheetSet(f)
	var questions []domain.Question
	for i := range structure.Sheets {
		sheet := &structure.Sheets[i]
		if !sheet.HasQuestions {
			continue
		}
		if !present[sheet.Name] {
			zap.L().Warn("sheet not found in workbook", zap.String("sheet", sheet.Name), zap.String("path", path))
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "xlsx: extraction cancelled")
		}
		rows, err := scanSheet(f, sheet)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			questions = append(questions, domain.Question{
				ID:       r.id,
				Text:     r.question,
				Location: domain.QuestionLocation{Sheet: sheet.Name, Row: r.num},
			})
		}
	}
	return questions, nil
}

// WriteAnswers writes each answer into the first response column of the row
// whose id matches, then saves the workbook in place. It returns the number of
// cells written.
func (a *Adapter) WriteAnswers(ctx context.Context, path string, answers map[string]string, structure *domain.StructureModel) (int, error) {
	if structure == nil || len(structure.Sheets) == 0 || len(answers) == 0 {
		return 0, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "xlsx: open %s", path)
	}
	defer func() { _ = f.Close() }()

	present := sheetSet(f)
	written := 0
	for i := range structure.Sheets {
		sheet := &structure.Sheets[i]
		if !sheet.HasQuestions || !present[sheet.Name] {
			continue
		}
		if len(sheet.ResponseColumns) == 0 {
			zap.L().Warn("no response column for sheet", zap.String("sheet", sheet.Name))
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, eris.Wrap(err, "xlsx: write cancelled")
		}
		respCol, err := columnIndex(sheet.ResponseColumns[0])
		if err != nil {
			return written, err
		}
		rows, err := scanSheet(f, sheet)
		if err != nil {
			return written, err
		}
		for _, r := range rows {
			answer, ok := answers[r.id]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(respCol+1, r.num)
			if err != nil {
				return written, eris.Wrapf(err, "xlsx: cell name for row %d", r.num)
			}
			if err := f.SetCellStr(sheet.Name, cell, answer); err != nil {
				return written, eris.Wrapf(err, "xlsx: write %s!%s", sheet.Name, cell)
			}
			written++
		}
	}
	if err := f.Save(); err != nil {
		return written, eris.Wrapf(err, "xlsx: save %s", path)
	}
	return written, nil
}

// PruneSheets deletes every sheet not named in keep. An empty keep list, or one
// that matches no sheet of the workbook, leaves the file untouched.
func (a *Adapter) PruneSheets(_ context.Context, path string, keep []string) error {
	if len(keep) == 0 {
		return nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return eris.Wrapf(err, "xlsx: open %s", path)
	}
	defer func() { _ = f.Close() }()

	wanted := make(map[string]bool, len(keep))
	for _, name := range keep {
		wanted[name] = true
	}
	sheets := f.GetSheetList()
	var doomed []string
	for _, name := range sheets {
		if !wanted[name] {
			doomed = append(doomed, name)
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	if len(doomed) == len(sheets) {
		zap.L().Warn("no listed sheet exists in workbook, skipping pruning",
			zap.String("path", path), zap.Strings("keep", keep))
		return nil
	}
	for _, name := range doomed {
		zap.L().Info("deleting sheet", zap.String("sheet", name), zap.String("path", path))
		if err := f.DeleteSheet(name); err != nil {
			return eris.Wrapf(err, "xlsx: delete sheet %s", name)
		}
	}
	if err := f.Save(); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

// Anonymize rewrites shared strings and inline cell text through t.Anonymize.
func (a *Adapter) Anonymize(ctx context.Context, path string, t port.TextTransformer) error {
	return eris.Wrap(ooxml.RewritePackage(ctx, path, ooxml.SpreadsheetTextParts, t.Anonymize), "xlsx: anonymize")
}

// Deanonymize rewrites shared strings and inline cell text through t.Deanonymize.
func (a *Adapter) Deanonymize(ctx context.Context, path string, t port.TextTransformer) error {
	return eris.Wrap(ooxml.RewritePackage(ctx, path, ooxml.SpreadsheetTextParts, t.Deanonymize), "xlsx: deanonymize")
}

// PlainText flattens a workbook for use as a reference example. Reading stops
// once maxChars characters of row text have been collected.
func (a *Adapter) PlainText(ctx context.Context, path string, maxChars int) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "xlsx: open %s", path)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	total := 0
	truncated := false
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", eris.Wrap(err, "xlsx: read cancelled")
		}
		lines = append(lines, fmt.Sprintf("=== %s ===", sheet))
		err := eachRow(f, sheet, func(cols []string) bool {
			if blank(cols) {
				return true
			}
			text := strings.Join(cols, " | ")
			lines = append(lines, text)
			total += len([]rune(text))
			if maxChars > 0 && total >= maxChars {
				truncated = true
				return false
			}
			return true
		})
		if err != nil {
			return "", err
		}
		if truncated {
			break
		}
	}
	content := strings.Join(lines, "\n")
	if truncated {
		content += document.TruncationMarker
	}
	return content, nil
}

// eachRow streams the rows of sheet, in order and including gaps, until fn returns false.
func eachRow(f *excelize.File, sheet string, fn func(cols []string) bool) error {
	rows, err := f.Rows(sheet)
	if err != nil {
		return eris.Wrapf(err, "xlsx: iterate sheet %s", sheet)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return eris.Wrapf(err, "xlsx: read row of sheet %s", sheet)
		}
		if !fn(cols) {
			return nil
		}
	}
	return eris.Wrapf(rows.Error(), "xlsx: iterate sheet %s", sheet)
}

func sheetSet(f *excelize.File) map[string]bool {
	set := map[string]bool{}
	for _, name := range f.GetSheetList() {
		set[name] = true
	}
	return set
}

// columnIndex converts a column letter reference to a 0-based index.
func columnIndex(col string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(strings.TrimSpace(col)))
	if err != nil {
		return 0, eris.Wrapf(domain.ErrInvalidStructure, "column %q: %v", col, err)
	}
	return n - 1, nil
}

func cellVal(cols []string, idx int) string {
	if idx < len(cols) {
		return cols[idx]
	}
	return ""
}

func blank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
