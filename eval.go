package codd

import (
	"github.com/shopspring/decimal"
)

// scalar evaluates an expression in the context of a tuple, as done for
// extend computations and aggregate arguments.
func (x *executor) scalar(e Expr, t Tuple) (Value, error) {
	switch n := e.(type) {
	case IntLiteral:
		return IntValue(n.Value), nil
	case DecimalLiteral:
		d, err := decimal.NewFromString(n.Value)
		if err != nil {
			return Value{}, typeErrorf("invalid decimal %q", n.Value)
		}
		return DecimalValue(d), nil
	case StringLiteral:
		return StringValue(n.Value), nil
	case BoolLiteral:
		return BoolValue(n.Value), nil
	case AttrRef:
		return x.resolveAttr(n, t)
	case BinOp:
		left, err := x.scalar(n.Left, t)
		if err != nil {
			return Value{}, err
		}
		right, err := x.scalar(n.Right, t)
		if err != nil {
			return Value{}, err
		}
		return applyArith(n.Op, left, right)
	case TernaryExpr:
		pred, err := x.predicate(n.Condition, &t)
		if err != nil {
			return Value{}, err
		}
		ok, err := pred(t)
		if err != nil {
			return Value{}, err
		}
		if ok {
			return x.scalar(n.True, t)
		}
		return x.scalar(n.False, t)
	case FunctionCall:
		args := make([]Value, len(n.Args))
		for i, a := range n.Args {
			v, err := x.scalar(a, t)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return callFunction(n.Name, args)
	case AggregateCall:
		return x.aggregateCall(n, t)
	case SubqueryExpr:
		rel, err := x.asRelation(n.Query, &t, "subquery")
		if err != nil {
			return Value{}, err
		}
		return RelationValue(rel), nil
	case SetLiteral:
		return Value{}, typeErrorf("a set literal can only be the right side of a filter comparison")
	default:
		panic("unhandled expression node")
	}
}

// resolveAttr looks an attribute up in the current tuple first and the
// environment second. The environment case yields the named relation
// as a relation value.
func (x *executor) resolveAttr(ref AttrRef, t Tuple) (Value, error) {
	if len(ref.Parts) > 1 {
		return Value{}, typeErrorf("attribute path %s can only be used in an aggregate", ref.Name())
	}
	if v, ok := t.Get(ref.Parts[0]); ok {
		return v, nil
	}
	if r, ok := x.env.Get(ref.Parts[0]); ok {
		return RelationValue(r), nil
	}
	return Value{}, nameErrorf("unknown attribute %q", ref.Parts[0])
}

// aggregateCall evaluates an aggregate with an explicit source, like
// #. team or >. team.salary or #. (team ? role = "engineer"). The
// source is resolved against the tuple before the environment.
func (x *executor) aggregateCall(n AggregateCall, t Tuple) (Value, error) {
	fn, ok := aggregates[n.Func]
	if !ok {
		return Value{}, typeErrorf("unknown aggregate %q", n.Func)
	}
	if n.Source == nil {
		return Value{}, typeErrorf("aggregate %s needs a relation source here", n.Func)
	}
	source, err := x.asRelation(n.Source, &t, n.Func)
	if err != nil {
		return Value{}, err
	}
	attr := ""
	if n.Arg != nil {
		attr = n.Arg.Name()
	}
	return fn(source, attr)
}

// predicate compiles a filter condition into a function over tuples.
// Constant right-hand sides are evaluated once, set literals become
// key sets, and subqueries run a single time before the scan.
func (x *executor) predicate(c Cond, ctx *Tuple) (func(Tuple) (bool, error), error) {
	switch n := c.(type) {
	case BoolCombination:
		left, err := x.predicate(n.Left, ctx)
		if err != nil {
			return nil, err
		}
		right, err := x.predicate(n.Right, ctx)
		if err != nil {
			return nil, err
		}
		if n.Op == "&" {
			return func(t Tuple) (bool, error) {
				ok, err := left(t)
				if err != nil || !ok {
					return false, err
				}
				return right(t)
			}, nil
		}
		return func(t Tuple) (bool, error) {
			ok, err := left(t)
			if err != nil || ok {
				return ok, err
			}
			return right(t)
		}, nil
	case Comparison:
		return x.comparison(n, ctx)
	default:
		panic("unhandled condition node")
	}
}

func (x *executor) comparison(c Comparison, ctx *Tuple) (func(Tuple) (bool, error), error) {
	var getLeft func(Tuple) (Value, error)
	switch left := c.Left.(type) {
	case AttrRef:
		getLeft = func(t Tuple) (Value, error) {
			return x.resolveAttr(left, t)
		}
	case AggregateCall:
		getLeft = func(t Tuple) (Value, error) {
			return x.aggregateCall(left, t)
		}
	default:
		panic("unhandled comparison left operand")
	}

	switch right := c.Right.(type) {
	case SetLiteral:
		members, err := x.setMembers(right)
		if err != nil {
			return nil, err
		}
		return membership(getLeft, c.Op, members)
	case SubqueryExpr:
		rel, err := x.asRelation(right.Query, ctx, "subquery")
		if err != nil {
			return nil, err
		}
		if len(rel.attrs) != 1 {
			return nil, schemaErrorf("a subquery in a filter must have a single attribute")
		}
		attr := rel.Attrs()[0]
		members := make(map[string]bool, rel.Len())
		for _, t := range rel.tuples {
			v, _ := t.Get(attr)
			members[v.key()] = true
		}
		return membership(getLeft, c.Op, members)
	case AttrRef:
		op := c.Op
		return func(t Tuple) (bool, error) {
			lv, err := getLeft(t)
			if err != nil {
				return false, err
			}
			rv, err := x.resolveAttr(right, t)
			if err != nil {
				return false, err
			}
			return lv.compare(op, rv)
		}, nil
	default:
		rv, err := x.scalar(c.Right, emptyTuple)
		if err != nil {
			return nil, err
		}
		op := c.Op
		return func(t Tuple) (bool, error) {
			lv, err := getLeft(t)
			if err != nil {
				return false, err
			}
			return lv.compare(op, rv)
		}, nil
	}
}

var emptyTuple = NewTuple(nil)

func (x *executor) setMembers(s SetLiteral) (map[string]bool, error) {
	members := make(map[string]bool, len(s.Elements))
	for _, e := range s.Elements {
		switch e.(type) {
		case IntLiteral, DecimalLiteral, StringLiteral, BoolLiteral:
		default:
			return nil, typeErrorf("set literal elements must be constants")
		}
		v, err := x.scalar(e, emptyTuple)
		if err != nil {
			return nil, err
		}
		members[v.key()] = true
	}
	return members, nil
}

func membership(getLeft func(Tuple) (Value, error), op string, members map[string]bool) (func(Tuple) (bool, error), error) {
	switch op {
	case "=":
		return func(t Tuple) (bool, error) {
			v, err := getLeft(t)
			if err != nil {
				return false, err
			}
			return members[v.key()], nil
		}, nil
	case "!=":
		return func(t Tuple) (bool, error) {
			v, err := getLeft(t)
			if err != nil {
				return false, err
			}
			return !members[v.key()], nil
		}, nil
	default:
		return nil, typeErrorf("%s can't be used for a membership test", op)
	}
}
