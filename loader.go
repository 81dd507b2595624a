package codd

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// LoadCSV reads comma-separated data into a relation. The first record
// names the attributes; every column's type is inferred from its
// non-empty cells, trying int, then decimal, then bool, and falling
// back to string. Records with the wrong number of fields are skipped.
func LoadCSV(r io.Reader) (*Relation, error) {
	return loadDelimited(r, ',')
}

// LoadTSV is LoadCSV for tab-separated data.
func LoadTSV(r io.Reader) (*Relation, error) {
	return loadDelimited(r, '\t')
}

func loadDelimited(r io.Reader, comma rune) (*Relation, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("the input has no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading the header row")
	}
	attrs := make([]string, len(header))
	for i, h := range header {
		attrs[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading a data row")
		}
		if len(rec) != len(attrs) {
			continue
		}
		rows = append(rows, rec)
	}

	out := NewRelation(attrs)
	types := make([]ValueTypeID, len(attrs))
	for col := range attrs {
		types[col] = inferColumn(rows, col)
	}
	for _, rec := range rows {
		data := make(map[string]Value, len(attrs))
		for col, attr := range attrs {
			data[attr] = cellValue(rec[col], types[col])
		}
		out.add(NewTuple(data))
	}
	return out, nil
}

// inferColumn picks the narrowest type that every non-empty cell of the
// column fits.
func inferColumn(rows [][]string, col int) ValueTypeID {
	t := undefined
	for _, rec := range rows {
		cell := strings.TrimSpace(rec[col])
		if cell == "" {
			continue
		}
		t = widen(t, cellType(cell))
	}
	if t == undefined {
		return String
	}
	return t
}

func cellType(cell string) ValueTypeID {
	if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return Int
	}
	if _, err := decimal.NewFromString(cell); err == nil {
		return Decimal
	}
	switch strings.ToLower(cell) {
	case "true", "false":
		return Bool
	}
	return String
}

func widen(a, b ValueTypeID) ValueTypeID {
	if a == undefined || a == b {
		return b
	}
	if (a == Int && b == Decimal) || (a == Decimal && b == Int) {
		return Decimal
	}
	return String
}

// cellValue parses a cell at the column's inferred type. Empty cells
// stay empty strings regardless of the column type.
func cellValue(cell string, t ValueTypeID) Value {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return StringValue("")
	}
	switch t {
	case Int:
		n, _ := strconv.ParseInt(cell, 10, 64)
		return IntValue(n)
	case Decimal:
		d, _ := decimal.NewFromString(cell)
		return DecimalValue(d)
	case Bool:
		return BoolValue(strings.EqualFold(cell, "true"))
	default:
		return StringValue(cell)
	}
}

// LoadJSON reads an array of flat objects into a relation. The schema
// is the union of the keys; missing fields become empty strings.
func LoadJSON(r io.Reader) (*Relation, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, errors.Wrap(err, "decoding the input")
	}

	attrs := attrSet{}
	for _, item := range items {
		for k := range item {
			attrs[k] = struct{}{}
		}
	}
	out := newRelationFromSet(attrs)
	for _, item := range items {
		data := make(map[string]Value, len(attrs))
		for attr := range attrs {
			v, err := jsonValue(item[attr])
			if err != nil {
				return nil, err
			}
			data[attr] = v
		}
		out.add(NewTuple(data))
	}
	return out, nil
}

func jsonValue(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return StringValue(""), nil
	case string:
		return StringValue(v), nil
	case bool:
		return BoolValue(v), nil
	case json.Number:
		if n, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return IntValue(n), nil
		}
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return Value{}, typeErrorf("invalid number %q", v.String())
		}
		return DecimalValue(d), nil
	default:
		return Value{}, typeErrorf("unsupported value %v in the input", v)
	}
}

// GenerateKey adds a surrogate key column named name plus "_id" with
// values numbered from 1 in tuple order.
func GenerateKey(r *Relation, name string) (*Relation, error) {
	attr := name + "_id"
	if r.HasAttr(attr) {
		return nil, schemaErrorf("key column %s already exists", attr)
	}
	out := NewRelation(append(r.Attrs(), attr))
	for i, t := range r.Tuples() {
		out.add(t.extend(attr, IntValue(int64(i)+1)))
	}
	return out, nil
}

// LoadFile loads a relation from a file, picking the format from the
// extension: .csv, .tsv (or .tab), and .json are recognized.
func LoadFile(path string) (*Relation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening the data file")
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(f)
	case ".tsv", ".tab":
		return LoadTSV(f)
	case ".json":
		return LoadJSON(f)
	default:
		return nil, errors.Errorf("unsupported data format %q", filepath.Ext(path))
	}
}
