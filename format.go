package codd

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatResult renders an evaluation result for display: relations and
// ordered sequences both come out as boxed tables.
func FormatResult(res Result) string {
	switch r := res.(type) {
	case *Relation:
		return FormatRelation(r)
	case OrderedTuples:
		return FormatOrdered(r)
	default:
		return ""
	}
}

// FormatRelation renders a relation as an ASCII table with the
// attributes in alphabetical order. A relation with no attributes
// renders as a placeholder.
func FormatRelation(r *Relation) string {
	if len(r.Attrs()) == 0 {
		return "(empty relation)"
	}
	return table(r.Attrs(), r.Tuples())
}

// FormatOrdered renders a sorted sequence, keeping the tuple order.
func FormatOrdered(tuples OrderedTuples) string {
	if len(tuples) == 0 {
		return "(empty result)"
	}
	return table(tuples[0].Attrs(), tuples)
}

func table(attrs []string, tuples []Tuple) string {
	widths := make([]int, len(attrs))
	for i, attr := range attrs {
		widths[i] = len(attr)
	}
	rows := make([][]string, len(tuples))
	for ti, t := range tuples {
		row := make([]string, len(attrs))
		for i, attr := range attrs {
			v, _ := t.Get(attr)
			cell := formatCell(v)
			row[i] = cell
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
		rows[ti] = row
	}

	var b strings.Builder
	sep := separator(widths)
	b.WriteString(sep)
	b.WriteByte('\n')
	b.WriteString(line(attrs, widths))
	b.WriteByte('\n')
	b.WriteString(sep)
	if len(rows) > 0 {
		for _, row := range rows {
			b.WriteByte('\n')
			b.WriteString(line(row, widths))
		}
		b.WriteByte('\n')
		b.WriteString(sep)
	}
	return b.String()
}

func separator(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return "+-" + strings.Join(parts, "-+-") + "-+"
}

func line(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c + strings.Repeat(" ", widths[i]-len(c))
	}
	return "| " + strings.Join(parts, " | ") + " |"
}

// formatCell renders one table cell. Strings print bare at this level;
// quoting only applies inside a nested relation.
func formatCell(v Value) string {
	if v.Type == Rel {
		return formatNested(v.Data.(*Relation))
	}
	return formatScalar(v, false)
}

// formatNested renders a relation-valued attribute inline, one
// parenthesized tuple per element with the attributes in order.
func formatNested(r *Relation) string {
	if r.Len() == 0 {
		return "{}"
	}
	attrs := r.Attrs()
	items := make([]string, 0, r.Len())
	for _, t := range r.Tuples() {
		fields := make([]string, len(attrs))
		for i, attr := range attrs {
			v, _ := t.Get(attr)
			fields[i] = attr + ": " + formatScalar(v, true)
		}
		items = append(items, "("+strings.Join(fields, ", ")+")")
	}
	sort.Strings(items)
	return "{" + strings.Join(items, ", ") + "}"
}

func formatScalar(v Value, quoted bool) string {
	switch v.Type {
	case Int:
		return strconv.FormatInt(v.Data.(int64), 10)
	case Decimal:
		return v.Data.(decimal.Decimal).String()
	case Bool:
		return strconv.FormatBool(v.Data.(bool))
	case String:
		if quoted {
			return strconv.Quote(v.Data.(string))
		}
		return v.Data.(string)
	case Rel:
		return formatNested(v.Data.(*Relation))
	default:
		return ""
	}
}
