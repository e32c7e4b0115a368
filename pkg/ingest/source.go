package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// headerScanWindow is how many leading rows are inspected when looking for
// the header; capture templates often carry title banners above it.
const headerScanWindow = 25

// minHeaderScore is the minimum number of recognized columns for a row to
// qualify as the header.
const minHeaderScore = 2

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses CSV content, tolerating a UTF-8 BOM, ragged rows and the
// semicolon delimiter some locales export.
func ReadCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	firstLine, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	if i := bytes.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if bytes.Count(firstLine, []byte{';'}) > bytes.Count(firstLine, []byte{','}) {
		cr.Comma = ';'
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse csv")
	}
	return rows, nil
}

// ReadXLSX returns the rows of the first sheet.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", sheets[0])
	}
	return rows, nil
}

// ReadSourceFile loads rows from a capture file, picking the parser by
// extension.
func ReadSourceFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f)
	case ".csv", ".txt":
		return ReadCSV(f)
	default:
		return nil, errors.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

// ColumnMap maps a source column index to its canonical field.
type ColumnMap map[int]string

// DetectHeader scans the first rows for the one that names the most known
// columns. Returns the header row index and the column mapping.
func DetectHeader(rows [][]string) (int, ColumnMap, bool) {
	limit := len(rows)
	if limit > headerScanWindow {
		limit = headerScanWindow
	}

	bestIdx, bestScore := -1, 0
	var bestMap ColumnMap
	for i := 0; i < limit; i++ {
		cm := make(ColumnMap)
		seen := make(map[string]bool)
		for col, cell := range rows[i] {
			field, ok := CanonicalField(cell)
			if !ok || seen[field] {
				continue
			}
			seen[field] = true
			cm[col] = field
		}
		if len(cm) > bestScore {
			bestIdx, bestScore, bestMap = i, len(cm), cm
		}
	}

	if bestScore < minHeaderScore {
		return -1, nil, false
	}
	return bestIdx, bestMap, true
}
