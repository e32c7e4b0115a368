package ingest

import "strings"

// Row is one data row keyed by canonical column name. It marshals directly
// into the bulk endpoint payload.
type Row map[string]string

// BuildRows converts everything below the header into payload rows, mapping
// columns through cm and dropping rows whose mapped cells are all blank.
func BuildRows(rows [][]string, headerIdx int, cm ColumnMap) []Row {
	out := make([]Row, 0, len(rows))
	for i := headerIdx + 1; i < len(rows); i++ {
		row := make(Row, len(cm))
		empty := true
		for col, field := range cm {
			if col >= len(rows[i]) {
				continue
			}
			value := strings.TrimSpace(rows[i][col])
			if value == "" {
				continue
			}
			row[field] = value
			empty = false
		}
		if empty {
			continue
		}
		out = append(out, row)
	}
	return out
}
