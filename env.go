package codd

import "sort"

// Environment binds relation names for the duration of a session. It is
// mutated only between queries, never during one.
type Environment struct {
	relations map[string]*Relation
}

func NewEnvironment() *Environment {
	return &Environment{relations: map[string]*Relation{}}
}

func (e *Environment) Get(name string) (*Relation, bool) {
	r, ok := e.relations[name]
	return r, ok
}

func (e *Environment) Set(name string, r *Relation) {
	e.relations[name] = r
}

func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.relations))
	for name := range e.relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
