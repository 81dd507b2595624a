package codd

// Evaluate runs a parsed statement against the environment. For an
// assignment the result is bound after successful evaluation, so a
// failed query leaves the environment untouched.
func Evaluate(st *Statement, env *Environment) (Result, error) {
	x := &executor{env: env}
	result, err := x.rel(st.Expr, nil)
	if err != nil {
		return nil, err
	}
	if st.Assign != "" {
		rel, ok := result.(*Relation)
		if !ok {
			return nil, boundaryErrorf("can't bind an ordered result to %q", st.Assign)
		}
		env.Set(st.Assign, rel)
	}
	return result, nil
}

// Run parses and evaluates a statement in one step.
func Run(src string, env *Environment) (Result, error) {
	st, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Evaluate(st, env)
}

type executor struct {
	env *Environment
}

// rel evaluates a relational expression. ctx, when non-nil, is the
// tuple whose relation-valued attributes shadow environment names;
// it is set while evaluating aggregate sources inside extend.
func (x *executor) rel(node RelExpr, ctx *Tuple) (Result, error) {
	switch n := node.(type) {
	case RelName:
		if ctx != nil {
			if v, ok := ctx.Get(n.Name); ok {
				if v.Type != Rel {
					return nil, typeErrorf("%s is not a relation-valued attribute", n.Name)
				}
				return v.Data.(*Relation), nil
			}
		}
		r, ok := x.env.Get(n.Name)
		if !ok {
			return nil, nameErrorf("unknown relation %q", n.Name)
		}
		return r, nil
	case Filter:
		source, err := x.asRelation(n.Source, ctx, "?")
		if err != nil {
			return nil, err
		}
		pred, err := x.predicate(n.Condition, ctx)
		if err != nil {
			return nil, err
		}
		return filterRelation(source, pred, false)
	case NegatedFilter:
		source, err := x.asRelation(n.Source, ctx, "?!")
		if err != nil {
			return nil, err
		}
		pred, err := x.predicate(n.Condition, ctx)
		if err != nil {
			return nil, err
		}
		return filterRelation(source, pred, true)
	case Project:
		source, err := x.asRelation(n.Source, ctx, "#")
		if err != nil {
			return nil, err
		}
		return source.project(n.Attrs)
	case Remove:
		source, err := x.asRelation(n.Source, ctx, "#!")
		if err != nil {
			return nil, err
		}
		return source.remove(n.Attrs)
	case NaturalJoin:
		left, err := x.asRelation(n.Source, ctx, "*")
		if err != nil {
			return nil, err
		}
		right, err := x.asRelation(n.Right, ctx, "*")
		if err != nil {
			return nil, err
		}
		return left.naturalJoin(right), nil
	case NestJoin:
		left, err := x.asRelation(n.Source, ctx, "*:")
		if err != nil {
			return nil, err
		}
		right, err := x.asRelation(n.Right, ctx, "*:")
		if err != nil {
			return nil, err
		}
		return left.nestJoin(right, n.Alias)
	case Unnest:
		source, err := x.asRelation(n.Source, ctx, "<:")
		if err != nil {
			return nil, err
		}
		return source.unnest(n.Attr)
	case Extend:
		source, err := x.asRelation(n.Source, ctx, "+")
		if err != nil {
			return nil, err
		}
		return x.extend(source, n.Computations)
	case Rename:
		source, err := x.asRelation(n.Source, ctx, "@")
		if err != nil {
			return nil, err
		}
		return source.renameAttrs(n.Mappings)
	case Union:
		left, right, err := x.pair(n.Source, n.Right, ctx, "|")
		if err != nil {
			return nil, err
		}
		return left.union(right)
	case Difference:
		left, right, err := x.pair(n.Source, n.Right, ctx, "-")
		if err != nil {
			return nil, err
		}
		return left.difference(right)
	case Intersect:
		left, right, err := x.pair(n.Source, n.Right, ctx, "&")
		if err != nil {
			return nil, err
		}
		return left.intersection(right)
	case Summarize:
		source, err := x.asRelation(n.Source, ctx, "/")
		if err != nil {
			return nil, err
		}
		return x.summarize(source, n.GroupAttrs, n.Aggregates)
	case SummarizeAll:
		source, err := x.asRelation(n.Source, ctx, "/.")
		if err != nil {
			return nil, err
		}
		return x.summarizeAll(source, n.Aggregates)
	case NestBy:
		source, err := x.asRelation(n.Source, ctx, "/:")
		if err != nil {
			return nil, err
		}
		return source.nestBy(n.GroupAttrs, n.Alias)
	case Sort:
		source, err := x.asRelation(n.Source, ctx, "$")
		if err != nil {
			return nil, err
		}
		return source.sortBy(n.Keys)
	case Take:
		source, err := x.rel(n.Source, ctx)
		if err != nil {
			return nil, err
		}
		ordered, ok := source.(OrderedTuples)
		if !ok {
			return nil, boundaryErrorf("^ requires a sorted input")
		}
		count := n.Count
		if count > int64(len(ordered)) {
			count = int64(len(ordered))
		}
		return ordered[:count], nil
	default:
		panic("unhandled relational node")
	}
}

// asRelation evaluates a node and rejects ordered results: once a chain
// sorts, only take may follow.
func (x *executor) asRelation(node RelExpr, ctx *Tuple, op string) (*Relation, error) {
	result, err := x.rel(node, ctx)
	if err != nil {
		return nil, err
	}
	rel, ok := result.(*Relation)
	if !ok {
		return nil, boundaryErrorf("%s can't be applied to a sorted result", op)
	}
	return rel, nil
}

func (x *executor) pair(a, b RelExpr, ctx *Tuple, op string) (*Relation, *Relation, error) {
	left, err := x.asRelation(a, ctx, op)
	if err != nil {
		return nil, nil, err
	}
	right, err := x.asRelation(b, ctx, op)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func filterRelation(source *Relation, pred func(Tuple) (bool, error), negate bool) (*Relation, error) {
	out := newRelationFromSet(source.attrs)
	for _, t := range source.tuples {
		keep, err := pred(t)
		if err != nil {
			return nil, err
		}
		if keep != negate {
			out.add(t)
		}
	}
	return out, nil
}

func (x *executor) extend(source *Relation, comps []NamedExpr) (*Relation, error) {
	names := make(attrSet, len(comps))
	for _, c := range comps {
		if source.attrs.has(c.Name) {
			return nil, schemaErrorf("extended attribute %s collides with an existing attribute", c.Name)
		}
		if names.has(c.Name) {
			return nil, schemaErrorf("extended attribute %s is computed twice", c.Name)
		}
		names[c.Name] = struct{}{}
	}
	out := newRelationFromSet(source.attrs.union(names))
	for _, t := range source.tuples {
		// all computations see the original tuple, not each other
		extended := t
		for _, c := range comps {
			v, err := x.scalar(c.Expr, t)
			if err != nil {
				return nil, err
			}
			extended = extended.extend(c.Name, v)
		}
		out.add(extended)
	}
	return out, nil
}

func (x *executor) summarize(source *Relation, keys []string, aggs []NamedAggregate) (*Relation, error) {
	schema, err := summarizeSchema(newAttrSet(keys), aggs)
	if err != nil {
		return nil, err
	}
	groups, err := source.groupBy(keys)
	if err != nil {
		return nil, err
	}
	out := newRelationFromSet(schema)
	for _, g := range groups {
		t := g.head
		for _, agg := range aggs {
			v, err := applyAggregate(agg, g.tuples)
			if err != nil {
				return nil, err
			}
			t = t.extend(agg.Name, v)
		}
		out.add(t)
	}
	return out, nil
}

func (x *executor) summarizeAll(source *Relation, aggs []NamedAggregate) (*Relation, error) {
	schema, err := summarizeSchema(attrSet{}, aggs)
	if err != nil {
		return nil, err
	}
	out := newRelationFromSet(schema)
	t := NewTuple(nil)
	for _, agg := range aggs {
		v, err := applyAggregate(agg, source)
		if err != nil {
			return nil, err
		}
		t = t.extend(agg.Name, v)
	}
	out.add(t)
	return out, nil
}

func summarizeSchema(keys attrSet, aggs []NamedAggregate) (attrSet, error) {
	schema := make(attrSet, len(keys)+len(aggs))
	for name := range keys {
		schema[name] = struct{}{}
	}
	for _, agg := range aggs {
		if schema.has(agg.Name) {
			return nil, schemaErrorf("aggregate name %s collides with another attribute", agg.Name)
		}
		schema[agg.Name] = struct{}{}
	}
	return schema, nil
}

// applyAggregate runs one named aggregate over a group. The group
// relation is the source here even when the syntax carried one, so
// >. salary means the group's salary column.
func applyAggregate(agg NamedAggregate, group *Relation) (Value, error) {
	fn, ok := aggregates[agg.Func]
	if !ok {
		return Value{}, typeErrorf("unknown aggregate %q", agg.Func)
	}
	attr := ""
	if agg.Attr != nil {
		attr = agg.Attr.Name()
	}
	return fn(group, attr)
}
