package fetcher

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a parsed CSV with header-indexed column access. All dataset
// tables are small enough (thousands of rows) to materialize fully.
type Table struct {
	header map[string]int
	Rows   [][]string
}

// ParseCSV reads an entire CSV document. The first row is the header;
// header names are lowercased and trimmed for lookup.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow ragged rows
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read")
	}
	if len(records) == 0 {
		return nil, eris.New("csv: empty document")
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	return &Table{header: header, Rows: records[1:]}, nil
}

// HasColumn reports whether the named column exists in the header.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.header[strings.ToLower(name)]
	return ok
}

// Field returns the trimmed value of the named column in the given row.
// Missing columns and short rows return the empty string.
func (t *Table) Field(row []string, name string) string {
	idx, ok := t.header[strings.ToLower(name)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// RequireColumns returns an error naming the first missing column, used by
// dataset loaders to fail fast on schema mismatch.
func (t *Table) RequireColumns(names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return eris.Errorf("csv: missing required column %q", name)
		}
	}
	return nil
}
