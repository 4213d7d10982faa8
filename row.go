package gtfs2neo4j

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Props are the properties of a node. A nil value is never stored.
type Props map[string]any

const byteOrderMark = "\ufeff"

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(name, byteOrderMark))
	}
	return out
}

type fieldError struct {
	Column string
	Kind   fieldKind
	Value  string
	Err    error
}

func (e fieldError) Error() string {
	return fmt.Sprintf("%s: cannot read %q as %s: %v", e.Column, e.Value, e.Kind, e.Err)
}

// rowDecoder maps one table's fields to column indices of a particular file.
type rowDecoder struct {
	table   tableSchema
	index   []int // parallel to table.Fields, -1 if the column is absent
	missing []string
}

func newRowDecoder(table tableSchema, header []string) *rowDecoder {
	header = normalizeHeader(header)
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if _, ok := columns[name]; !ok {
			columns[name] = i
		}
	}

	d := &rowDecoder{table: table, index: make([]int, len(table.Fields))}
	for i, field := range table.Fields {
		idx, ok := columns[field.Column]
		if !ok {
			idx = -1
			if field.Required {
				d.missing = append(d.missing, field.Column)
			}
		}
		d.index[i] = idx
	}
	return d
}

// missingRequired lists required columns absent from the header.
func (d *rowDecoder) missingRequired() []string {
	return d.missing
}

func (d *rowDecoder) cell(row []string, i int) (string, bool) {
	idx := d.index[i]
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[idx])
	return v, v != ""
}

// decode converts row into properties. Conversion failures are returned but
// the property still gets the typed fallback of its field.
func (d *rowDecoder) decode(row []string) (Props, []fieldError) {
	props := make(Props, len(d.table.Fields))
	var errs []fieldError
	for i, field := range d.table.Fields {
		raw, ok := d.cell(row, i)
		if !ok {
			continue
		}
		v, err := convert(field.Kind, raw)
		if err != nil {
			errs = append(errs, fieldError{Column: field.Column, Kind: field.Kind, Value: raw, Err: err})
		}
		props[field.Property] = v
	}
	return props, errs
}

// convert never fails to produce a value: on error it returns the zero value
// of the requested kind.
func convert(kind fieldKind, raw string) (any, error) {
	switch kind {
	case textField:
		return raw, nil
	case intField:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return int64(0), err
		}
		return v, nil
	case floatField:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return float64(0), err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return float64(0), fmt.Errorf("not a finite number")
		}
		return v, nil
	case boolField:
		switch strings.ToLower(raw) {
		case "1", "true", "t", "yes":
			return true, nil
		case "0", "false", "f", "no":
			return false, nil
		default:
			return false, fmt.Errorf("not a boolean")
		}
	case idField:
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v, nil
		}
		return raw, nil
	default:
		panic("unknown field kind")
	}
}

func failedColumn(errs []fieldError, column string) bool {
	for _, e := range errs {
		if e.Column == column {
			return true
		}
	}
	return false
}
