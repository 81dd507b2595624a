package codd

import "github.com/shopspring/decimal"

// An aggregateFunc folds one attribute of a relation into a scalar.
// attr is empty for the count function.
type aggregateFunc func(r *Relation, attr string) (Value, error)

var aggregates = map[string]aggregateFunc{
	"#.": aggCount,
	"+.": aggSum,
	">.": aggMax,
	"<.": aggMin,
	"%.": aggMean,
}

func aggCount(r *Relation, attr string) (Value, error) {
	return IntValue(int64(r.Len())), nil
}

func columnValues(r *Relation, fn, attr string) ([]Value, error) {
	if attr == "" {
		return nil, typeErrorf("%s requires an attribute name", fn)
	}
	if !r.HasAttr(attr) {
		return nil, nameErrorf("unknown attribute %q", attr)
	}
	out := make([]Value, 0, r.Len())
	for _, t := range r.Tuples() {
		v, _ := t.Get(attr)
		out = append(out, v)
	}
	return out, nil
}

func aggSum(r *Relation, attr string) (Value, error) {
	values, err := columnValues(r, "+.", attr)
	if err != nil {
		return Value{}, err
	}
	sum := IntValue(0)
	for _, v := range values {
		sum, err = addValues(sum, v)
		if err != nil {
			return Value{}, err
		}
	}
	return sum, nil
}

func aggMax(r *Relation, attr string) (Value, error) {
	return fold(r, ">.", attr, func(a, b Value) (bool, error) {
		return a.greaterThan(b)
	})
}

func aggMin(r *Relation, attr string) (Value, error) {
	return fold(r, "<.", attr, func(a, b Value) (bool, error) {
		return a.lessThan(b)
	})
}

func fold(r *Relation, fn, attr string, wins func(a, b Value) (bool, error)) (Value, error) {
	values, err := columnValues(r, fn, attr)
	if err != nil {
		return Value{}, err
	}
	if len(values) == 0 {
		return Value{}, domainErrorf("%s over an empty relation", fn)
	}
	best := values[0]
	for _, v := range values[1:] {
		better, err := wins(v, best)
		if err != nil {
			return Value{}, err
		}
		if better {
			best = v
		}
	}
	return best, nil
}

// aggMean keeps integer groups in integer arithmetic with floor
// division; a single decimal input promotes the whole mean to decimal.
// The mean of nothing is 0.
func aggMean(r *Relation, attr string) (Value, error) {
	values, err := columnValues(r, "%.", attr)
	if err != nil {
		return Value{}, err
	}
	if len(values) == 0 {
		return IntValue(0), nil
	}
	sum := IntValue(0)
	for _, v := range values {
		sum, err = addValues(sum, v)
		if err != nil {
			return Value{}, err
		}
	}
	n := int64(len(values))
	if sum.Type == Int {
		return IntValue(floorDiv(sum.Data.(int64), n)), nil
	}
	return DecimalValue(sum.asDecimal().Div(decimal.New(n, 0))), nil
}
