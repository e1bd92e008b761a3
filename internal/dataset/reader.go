package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed is returned for CSV content that cannot be interpreted.
var ErrMalformed = errors.New("malformed dataset")

// row is one CSV record addressed by header name.
type row struct {
	line   int
	fields map[string]string
}

func (r row) get(name string) string {
	return strings.TrimSpace(r.fields[name])
}

func (r row) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s: %w", r.line, fmt.Sprintf(format, args...), ErrMalformed)
}

func (r row) wrap(err error) error {
	return fmt.Errorf("line %d: %w", r.line, err)
}

// readRows parses a headed CSV stream and checks the required columns exist.
func readRows(src io.Reader, required ...string) ([]row, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q: %w", col, ErrMalformed)
		}
	}

	var rows []row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}
		fields := make(map[string]string, len(index))
		for name, i := range index {
			if i < len(record) {
				fields[name] = record[i]
			}
		}
		rows = append(rows, row{line: line, fields: fields})
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
