package codd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type ValueTypeID int

const (
	undefined ValueTypeID = iota
	Int       ValueTypeID = 1 + iota
	Decimal
	Bool
	String
	Rel
)

// Value is a tagged union over the scalar domains and relations. The Rel
// case is what allows relation-valued attributes.
type Value struct {
	Type ValueTypeID
	Data any
}

func IntValue(n int64) Value {
	return Value{Int, n}
}

func DecimalValue(d decimal.Decimal) Value {
	return Value{Decimal, d}
}

func BoolValue(b bool) Value {
	return Value{Bool, b}
}

func StringValue(s string) Value {
	return Value{String, s}
}

func RelationValue(r *Relation) Value {
	return Value{Rel, r}
}

func getValueTypeName(t ValueTypeID) string {
	switch t {
	case Int:
		return "Int"
	case Decimal:
		return "Decimal"
	case Bool:
		return "Bool"
	case String:
		return "String"
	case Rel:
		return "Relation"
	default:
		panic(fmt.Errorf("unexpected value type: %d", t))
	}
}

func (v Value) String() string {
	switch v.Type {
	case Decimal:
		return v.Data.(decimal.Decimal).String()
	default:
		return fmt.Sprintf("%v", v.Data)
	}
}

func (v Value) isNumber() bool {
	return v.Type == Int || v.Type == Decimal
}

func (v Value) asDecimal() decimal.Decimal {
	if v.Type == Int {
		return decimal.New(v.Data.(int64), 0)
	}
	return v.Data.(decimal.Decimal)
}

// key returns a canonical encoding used for hashing and set membership.
// Numbers encode by magnitude so that the integer 10 and the decimal 10
// collapse to the same key.
func (v Value) key() string {
	switch v.Type {
	case Int:
		return "n:" + strconv.FormatInt(v.Data.(int64), 10)
	case Decimal:
		return "n:" + normalizeDecimal(v.Data.(decimal.Decimal))
	case Bool:
		return "b:" + strconv.FormatBool(v.Data.(bool))
	case String:
		return "s:" + strconv.Quote(v.Data.(string))
	case Rel:
		return "r:" + v.Data.(*Relation).key()
	default:
		panic(fmt.Errorf("unexpected value type: %d", v.Type))
	}
}

func normalizeDecimal(d decimal.Decimal) string {
	s := d.String()
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "-0" || s == "" {
		s = "0"
	}
	return s
}

func (a Value) eq(b Value) (bool, error) {
	if a.isNumber() && b.isNumber() {
		if a.Type == Int && b.Type == Int {
			return a.Data == b.Data, nil
		}
		return a.asDecimal().Cmp(b.asDecimal()) == 0, nil
	}
	if a.Type != b.Type {
		return false, typeErrorf("can't compare values of different types: %s and %s", getValueTypeName(a.Type), getValueTypeName(b.Type))
	}
	switch a.Type {
	case String, Bool:
		return a.Data == b.Data, nil
	case Rel:
		return a.Data.(*Relation).key() == b.Data.(*Relation).key(), nil
	default:
		return false, typeErrorf("eq: don't know how to compare values of type %s", getValueTypeName(a.Type))
	}
}

func (a Value) lessThan(b Value) (bool, error) {
	if a.isNumber() && b.isNumber() {
		if a.Type == Int && b.Type == Int {
			return a.Data.(int64) < b.Data.(int64), nil
		}
		return a.asDecimal().Cmp(b.asDecimal()) < 0, nil
	}
	if a.Type != b.Type {
		return false, typeErrorf("can't compare values of different types: %s and %s", getValueTypeName(a.Type), getValueTypeName(b.Type))
	}
	switch a.Type {
	case String:
		return a.Data.(string) < b.Data.(string), nil
	default:
		return false, typeErrorf("lessThan: don't know how to compare values of type %s", getValueTypeName(a.Type))
	}
}

func (a Value) greaterThan(b Value) (bool, error) {
	eq, err := a.eq(b)
	if err != nil || eq {
		return false, err
	}
	lt, err := a.lessThan(b)
	return !lt, err
}

func (a Value) compare(op string, b Value) (bool, error) {
	switch op {
	case "=":
		return a.eq(b)
	case "!=":
		r, err := a.eq(b)
		return !r, err
	case "<":
		return a.lessThan(b)
	case ">":
		return a.greaterThan(b)
	case "<=":
		r, err := a.greaterThan(b)
		return !r, err
	case ">=":
		r, err := a.lessThan(b)
		return !r, err
	default:
		panic(fmt.Errorf("unexpected comparison operator: %s", op))
	}
}

func checkNumeric(op string, a, b Value) error {
	if !a.isNumber() {
		return typeErrorf("%s: expected a number, got %s", op, getValueTypeName(a.Type))
	}
	if !b.isNumber() {
		return typeErrorf("%s: expected a number, got %s", op, getValueTypeName(b.Type))
	}
	return nil
}

func addValues(a, b Value) (Value, error) {
	if err := checkNumeric("+", a, b); err != nil {
		return Value{}, err
	}
	if a.Type == Int && b.Type == Int {
		return IntValue(a.Data.(int64) + b.Data.(int64)), nil
	}
	return DecimalValue(a.asDecimal().Add(b.asDecimal())), nil
}

func subValues(a, b Value) (Value, error) {
	if err := checkNumeric("-", a, b); err != nil {
		return Value{}, err
	}
	if a.Type == Int && b.Type == Int {
		return IntValue(a.Data.(int64) - b.Data.(int64)), nil
	}
	return DecimalValue(a.asDecimal().Sub(b.asDecimal())), nil
}

func mulValues(a, b Value) (Value, error) {
	if err := checkNumeric("*", a, b); err != nil {
		return Value{}, err
	}
	if a.Type == Int && b.Type == Int {
		return IntValue(a.Data.(int64) * b.Data.(int64)), nil
	}
	return DecimalValue(a.asDecimal().Mul(b.asDecimal())), nil
}

func divValues(a, b Value) (Value, error) {
	if err := checkNumeric("/", a, b); err != nil {
		return Value{}, err
	}
	if a.Type == Int && b.Type == Int {
		d := b.Data.(int64)
		if d == 0 {
			return Value{}, domainErrorf("division by zero")
		}
		return IntValue(floorDiv(a.Data.(int64), d)), nil
	}
	if b.asDecimal().IsZero() {
		return Value{}, domainErrorf("division by zero")
	}
	return DecimalValue(a.asDecimal().Div(b.asDecimal())), nil
}

// floorDiv rounds toward negative infinity, so -7/2 is -4.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func applyArith(op string, a, b Value) (Value, error) {
	switch op {
	case "+":
		return addValues(a, b)
	case "-":
		return subValues(a, b)
	case "*":
		return mulValues(a, b)
	case "/":
		return divValues(a, b)
	default:
		panic(fmt.Errorf("unexpected arithmetic operator: %s", op))
	}
}
