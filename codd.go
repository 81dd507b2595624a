package codd

import (
	"github.com/golang/groupcache/lru"
)

// An Engine pairs an environment with a cache of parsed statements, so
// a REPL or a driver script re-running the same query skips the parse.
type Engine struct {
	env   *Environment
	cache *lru.Cache
}

const parseCacheSize = 256

func NewEngine() *Engine {
	return &Engine{
		env:   NewEnvironment(),
		cache: lru.New(parseCacheSize),
	}
}

func (e *Engine) Env() *Environment {
	return e.env
}

// Run parses and evaluates one statement. Parse results are cached by
// source text; evaluation always runs against the current environment.
func (e *Engine) Run(src string) (Result, error) {
	var st *Statement
	if cached, ok := e.cache.Get(src); ok {
		st = cached.(*Statement)
	} else {
		parsed, err := Parse(src)
		if err != nil {
			return nil, err
		}
		e.cache.Add(src, parsed)
		st = parsed
	}
	return Evaluate(st, e.env)
}

// LoadSample binds the documentation relations into the environment.
func (e *Engine) LoadSample() {
	for name, r := range SampleData() {
		e.env.Set(name, r)
	}
}
