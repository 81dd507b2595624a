package codd

import (
	"sort"
	"strings"
)

type attrSet map[string]struct{}

func newAttrSet(names []string) attrSet {
	s := make(attrSet, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

func (s attrSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s attrSet) sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s attrSet) equal(other attrSet) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if !other.has(name) {
			return false
		}
	}
	return true
}

func (s attrSet) union(other attrSet) attrSet {
	r := make(attrSet, len(s)+len(other))
	for name := range s {
		r[name] = struct{}{}
	}
	for name := range other {
		r[name] = struct{}{}
	}
	return r
}

func (s attrSet) intersect(other attrSet) []string {
	var names []string
	for name := range s {
		if other.has(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s attrSet) minus(other attrSet) attrSet {
	r := make(attrSet)
	for name := range s {
		if !other.has(name) {
			r[name] = struct{}{}
		}
	}
	return r
}

// Relation is an immutable set of tuples over a fixed attribute schema.
// The schema is stored separately from the tuples so that an empty
// relation still carries its attribute set.
type Relation struct {
	attrs  attrSet
	tuples map[string]Tuple
}

func NewRelation(attrs []string) *Relation {
	return &Relation{attrs: newAttrSet(attrs), tuples: map[string]Tuple{}}
}

func newRelationFromSet(attrs attrSet) *Relation {
	return &Relation{attrs: attrs, tuples: map[string]Tuple{}}
}

// add inserts a tuple. Callers must have checked schema conformance.
func (r *Relation) add(t Tuple) {
	r.tuples[t.key()] = t
}

// Insert adds a tuple after verifying it matches the schema exactly.
func (r *Relation) Insert(t Tuple) error {
	if t.Len() != len(r.attrs) {
		return schemaErrorf("tuple attributes %v don't match relation attributes %v", t.Attrs(), r.attrs.sorted())
	}
	for _, name := range t.Attrs() {
		if !r.attrs.has(name) {
			return schemaErrorf("tuple attributes %v don't match relation attributes %v", t.Attrs(), r.attrs.sorted())
		}
	}
	r.add(t)
	return nil
}

func (r *Relation) Len() int {
	return len(r.tuples)
}

// Attrs returns the schema's attribute names in sorted order.
func (r *Relation) Attrs() []string {
	return r.attrs.sorted()
}

func (r *Relation) HasAttr(name string) bool {
	return r.attrs.has(name)
}

// Tuples returns the tuples in canonical (key-sorted) order.
func (r *Relation) Tuples() []Tuple {
	keys := make([]string, 0, len(r.tuples))
	for k := range r.tuples {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Tuple, len(keys))
	for i, k := range keys {
		out[i] = r.tuples[k]
	}
	return out
}

func (r *Relation) contains(t Tuple) bool {
	_, ok := r.tuples[t.key()]
	return ok
}

func (r *Relation) key() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, name := range r.attrs.sorted() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
	}
	b.WriteString("]{")
	keys := make([]string, 0, len(r.tuples))
	for k := range r.tuples {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString(strings.Join(keys, ";"))
	b.WriteByte('}')
	return b.String()
}

// Equal reports set equality over the same schema.
func (r *Relation) Equal(other *Relation) bool {
	return r.key() == other.key()
}

func (r *Relation) project(attrs []string) (*Relation, error) {
	for _, name := range attrs {
		if !r.attrs.has(name) {
			return nil, schemaErrorf("can't project %s: no such attribute", name)
		}
	}
	out := &Relation{attrs: newAttrSet(attrs), tuples: map[string]Tuple{}}
	for _, t := range r.tuples {
		out.add(t.project(attrs))
	}
	return out, nil
}

func (r *Relation) remove(attrs []string) (*Relation, error) {
	for _, name := range attrs {
		if !r.attrs.has(name) {
			return nil, schemaErrorf("can't remove %s: no such attribute", name)
		}
	}
	drop := newAttrSet(attrs)
	out := &Relation{attrs: r.attrs.minus(drop), tuples: map[string]Tuple{}}
	for _, t := range r.tuples {
		out.add(t.without(drop))
	}
	return out, nil
}

func (r *Relation) union(other *Relation) (*Relation, error) {
	if !r.attrs.equal(other.attrs) {
		return nil, schemaErrorf("union requires identical schemas: %v and %v", r.Attrs(), other.Attrs())
	}
	out := newRelationFromSet(r.attrs)
	for k, t := range r.tuples {
		out.tuples[k] = t
	}
	for k, t := range other.tuples {
		out.tuples[k] = t
	}
	return out, nil
}

func (r *Relation) difference(other *Relation) (*Relation, error) {
	if !r.attrs.equal(other.attrs) {
		return nil, schemaErrorf("difference requires identical schemas: %v and %v", r.Attrs(), other.Attrs())
	}
	out := newRelationFromSet(r.attrs)
	for k, t := range r.tuples {
		if _, ok := other.tuples[k]; !ok {
			out.tuples[k] = t
		}
	}
	return out, nil
}

func (r *Relation) intersection(other *Relation) (*Relation, error) {
	if !r.attrs.equal(other.attrs) {
		return nil, schemaErrorf("intersect requires identical schemas: %v and %v", r.Attrs(), other.Attrs())
	}
	out := newRelationFromSet(r.attrs)
	for k, t := range r.tuples {
		if _, ok := other.tuples[k]; ok {
			out.tuples[k] = t
		}
	}
	return out, nil
}

func (r *Relation) naturalJoin(other *Relation) *Relation {
	common := r.attrs.intersect(other.attrs)
	out := newRelationFromSet(r.attrs.union(other.attrs))
	for _, l := range r.tuples {
		for _, rt := range other.tuples {
			if l.matches(rt, common) {
				out.add(l.merge(rt))
			}
		}
	}
	return out
}

// nestJoin keeps every left tuple and binds the matching right tuples,
// projected to the right-only attributes, as a relation-valued attribute.
func (r *Relation) nestJoin(other *Relation, alias string) (*Relation, error) {
	if r.attrs.has(alias) {
		return nil, schemaErrorf("nest attribute %s collides with an existing attribute", alias)
	}
	common := r.attrs.intersect(other.attrs)
	innerAttrs := other.attrs.minus(r.attrs)
	inner := innerAttrs.sorted()
	outAttrs := r.attrs.union(newAttrSet([]string{alias}))
	out := newRelationFromSet(outAttrs)
	for _, l := range r.tuples {
		nested := newRelationFromSet(innerAttrs)
		for _, rt := range other.tuples {
			if l.matches(rt, common) {
				nested.add(rt.project(inner))
			}
		}
		out.add(l.extend(alias, RelationValue(nested)))
	}
	return out, nil
}

func (r *Relation) unnest(alias string) (*Relation, error) {
	if !r.attrs.has(alias) {
		return nil, schemaErrorf("can't unnest %s: no such attribute", alias)
	}
	var innerAttrs attrSet
	outerAttrs := r.attrs.minus(newAttrSet([]string{alias}))
	var out *Relation
	for _, t := range r.tuples {
		v, _ := t.Get(alias)
		if v.Type != Rel {
			return nil, typeErrorf("can't unnest %s: not a relation-valued attribute", alias)
		}
		nested := v.Data.(*Relation)
		if innerAttrs == nil {
			innerAttrs = nested.attrs
			for name := range innerAttrs {
				if outerAttrs.has(name) {
					return nil, schemaErrorf("unnest of %s: attribute %s collides with an outer attribute", alias, name)
				}
			}
			out = newRelationFromSet(outerAttrs.union(innerAttrs))
		}
		outer := t.without(newAttrSet([]string{alias}))
		for _, in := range nested.tuples {
			out.add(outer.merge(in))
		}
	}
	if out == nil {
		// empty input: the inner schema is unknowable, leave it empty
		out = newRelationFromSet(outerAttrs)
	}
	return out, nil
}

func (r *Relation) renameAttrs(mappings [][2]string) (*Relation, error) {
	subst := make(map[string]string, len(mappings))
	for _, m := range mappings {
		from, to := m[0], m[1]
		if !r.attrs.has(from) {
			return nil, schemaErrorf("can't rename %s: no such attribute", from)
		}
		if _, dup := subst[from]; dup {
			return nil, schemaErrorf("can't rename %s twice", from)
		}
		subst[from] = to
	}
	newAttrs := make(attrSet, len(r.attrs))
	for name := range r.attrs {
		if to, ok := subst[name]; ok {
			name = to
		}
		newAttrs[name] = struct{}{}
	}
	if len(newAttrs) != len(r.attrs) {
		return nil, schemaErrorf("rename collides with an existing attribute")
	}
	out := newRelationFromSet(newAttrs)
	for _, t := range r.tuples {
		out.add(t.rename(subst))
	}
	return out, nil
}

// nestBy groups by the key attributes and binds each group's remaining
// attributes as a relation-valued attribute.
func (r *Relation) nestBy(keys []string, alias string) (*Relation, error) {
	keySet := newAttrSet(keys)
	for _, name := range keys {
		if !r.attrs.has(name) {
			return nil, schemaErrorf("can't group by %s: no such attribute", name)
		}
	}
	if keySet.has(alias) || r.attrs.minus(keySet).has(alias) {
		return nil, schemaErrorf("nest attribute %s collides with an existing attribute", alias)
	}
	restAttrs := r.attrs.minus(keySet)
	rest := restAttrs.sorted()
	groups := map[string]*Relation{}
	heads := map[string]Tuple{}
	for _, t := range r.tuples {
		head := t.project(keys)
		k := head.key()
		if _, ok := groups[k]; !ok {
			groups[k] = newRelationFromSet(restAttrs)
			heads[k] = head
		}
		groups[k].add(t.project(rest))
	}
	out := newRelationFromSet(keySet.union(newAttrSet([]string{alias})))
	for k, head := range heads {
		out.add(head.extend(alias, RelationValue(groups[k])))
	}
	return out, nil
}

// groupBy partitions tuples by the key attributes. Each entry pairs the
// key tuple with the full group.
type group struct {
	head   Tuple
	tuples *Relation
}

func (r *Relation) groupBy(keys []string) ([]group, error) {
	for _, name := range keys {
		if !r.attrs.has(name) {
			return nil, schemaErrorf("can't group by %s: no such attribute", name)
		}
	}
	order := []string{}
	groups := map[string]*group{}
	for _, t := range r.tuples {
		head := t.project(keys)
		k := head.key()
		g, ok := groups[k]
		if !ok {
			g = &group{head: head, tuples: newRelationFromSet(r.attrs)}
			groups[k] = g
			order = append(order, k)
		}
		g.tuples.add(t)
	}
	sort.Strings(order)
	out := make([]group, len(order))
	for i, k := range order {
		out[i] = *groups[k]
	}
	return out, nil
}

// OrderedTuples is a finite ordered sequence of tuples. It is produced
// only by sort and consumed only by take; no relational operator
// accepts it.
type OrderedTuples []Tuple

// Result is the outcome of evaluating a relational expression: either a
// *Relation or an OrderedTuples.
type Result interface {
	resultKind() string
}

func (r *Relation) resultKind() string    { return "relation" }
func (o OrderedTuples) resultKind() string { return "ordered tuples" }

// sortBy orders the tuples by the given keys, ascending unless marked
// descending. Ties fall back to the canonical tuple key so the order is
// stable across runs.
func (r *Relation) sortBy(keys []SortKey) (OrderedTuples, error) {
	for _, k := range keys {
		if !r.attrs.has(k.Attr) {
			return nil, schemaErrorf("can't sort by %s: no such attribute", k.Attr)
		}
	}
	out := make(OrderedTuples, 0, len(r.tuples))
	for _, t := range r.tuples {
		out = append(out, t)
	}
	var sortErr error
	sort.Slice(out, func(i, j int) bool {
		for _, k := range keys {
			a, _ := out[i].Get(k.Attr)
			b, _ := out[j].Get(k.Attr)
			eq, err := a.eq(b)
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return false
			}
			if eq {
				continue
			}
			lt, err := a.lessThan(b)
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return false
			}
			if k.Descending {
				return !lt
			}
			return lt
		}
		return out[i].key() < out[j].key()
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}
