// Package addressbook reads address records from CSV files: one record per
// row, fields in top-to-bottom label order, no header row.
package addressbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Record is the ordered set of text fields for one address. Fields are
// whitespace-trimmed; a record always has at least one non-empty field.
type Record struct {
	Fields []string
}

// Columns maps the record's fields onto the given column names. Fields are
// additionally reachable by their 1-based position, so templates work with
// or without a columns declaration. Missing trailing fields are absent from
// the map.
func (r Record) Columns(names []string) map[string]string {
	m := make(map[string]string, len(r.Fields))
	for i, f := range r.Fields {
		m[strconv.Itoa(i+1)] = f
		if i < len(names) {
			m[names[i]] = f
		}
	}
	return m
}

// Options configures a Reader.
type Options struct {
	Comma rune // field delimiter, ',' when zero
}

// Reader produces Records lazily, preserving file order.
type Reader struct {
	csv  *csv.Reader
	name string
}

// NewReader reads CSV records from r. The name is used in error messages.
func NewReader(r io.Reader, name string, opts Options) *Reader {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1 // any field count >= 1 is fine, no schema
	return &Reader{csv: cr, name: name}
}

// Next returns the next record, or io.EOF after the last one. Rows whose
// fields are all empty are skipped.
func (r *Reader) Next() (Record, error) {
	for {
		row, err := r.csv.Read()
		if err == io.EOF {
			return Record{}, io.EOF
		}
		if err != nil {
			return Record{}, fmt.Errorf("read %s: %w", r.name, err)
		}
		fields := make([]string, len(row))
		empty := true
		for i, f := range row {
			fields[i] = strings.TrimSpace(f)
			if fields[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		return Record{Fields: fields}, nil
	}
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// Open reads all records from the CSV file at path.
func Open(path string, opts Options) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return NewReader(f, path, opts).ReadAll()
}
