package codd

import "strings"

// The syntax tree is two closed node families: scalar expressions, which
// evaluate to a Value against a tuple context, and relational
// expressions, which evaluate to a Result against the environment.
// Predicates inside filters form a small third family.

type Expr interface {
	exprNode()
}

type IntLiteral struct {
	Value int64
}

type DecimalLiteral struct {
	Value string
}

type StringLiteral struct {
	Value string
}

type BoolLiteral struct {
	Value bool
}

// AttrRef is an attribute reference, optionally dotted to reach into a
// relation-valued attribute: salary or team.salary.
type AttrRef struct {
	Parts []string
}

func (a AttrRef) Name() string {
	return strings.Join(a.Parts, ".")
}

type BinOp struct {
	Left  Expr
	Op    string
	Right Expr
}

// SetLiteral is an unordered collection of literals, used as the right
// side of = in a filter to express membership.
type SetLiteral struct {
	Elements []Expr
}

// AggregateCall applies one of the group functions. Arg is nil for the
// count function. Source, when set, is a relational expression providing
// the tuples, as in #. (team ? role = "engineer").
type AggregateCall struct {
	Func   string
	Arg    *AttrRef
	Source RelExpr
}

// SubqueryExpr is a parenthesized relational expression used as a scalar
// value in a filter's right side.
type SubqueryExpr struct {
	Query RelExpr
}

type TernaryExpr struct {
	Condition Cond
	True      Expr
	False     Expr
}

type FunctionCall struct {
	Name string
	Args []Expr
}

func (IntLiteral) exprNode()     {}
func (DecimalLiteral) exprNode() {}
func (StringLiteral) exprNode()  {}
func (BoolLiteral) exprNode()    {}
func (AttrRef) exprNode()        {}
func (BinOp) exprNode()          {}
func (SetLiteral) exprNode()     {}
func (AggregateCall) exprNode()  {}
func (SubqueryExpr) exprNode()   {}
func (TernaryExpr) exprNode()    {}
func (FunctionCall) exprNode()   {}

type Cond interface {
	condNode()
}

// Comparison is left op right where left is an attribute reference or an
// aggregate call.
type Comparison struct {
	Left  Expr
	Op    string
	Right Expr
}

type BoolCombination struct {
	Left  Cond
	Op    string
	Right Cond
}

func (Comparison) condNode()      {}
func (BoolCombination) condNode() {}

type RelExpr interface {
	relNode()
}

type RelName struct {
	Name string
}

type Filter struct {
	Source    RelExpr
	Condition Cond
}

type NegatedFilter struct {
	Source    RelExpr
	Condition Cond
}

type Project struct {
	Source RelExpr
	Attrs  []string
}

type Remove struct {
	Source RelExpr
	Attrs  []string
}

type NaturalJoin struct {
	Source RelExpr
	Right  RelExpr
}

type NestJoin struct {
	Source RelExpr
	Right  RelExpr
	Alias  string
}

type Unnest struct {
	Source RelExpr
	Attr   string
}

type NamedExpr struct {
	Name string
	Expr Expr
}

type Extend struct {
	Source       RelExpr
	Computations []NamedExpr
}

type Rename struct {
	Source   RelExpr
	Mappings [][2]string
}

type Union struct {
	Source RelExpr
	Right  RelExpr
}

type Difference struct {
	Source RelExpr
	Right  RelExpr
}

type Intersect struct {
	Source RelExpr
	Right  RelExpr
}

// NamedAggregate is one name: aggregate pair inside a summarize.
type NamedAggregate struct {
	Name   string
	Func   string
	Attr   *AttrRef
	Source RelExpr
}

type Summarize struct {
	Source     RelExpr
	GroupAttrs []string
	Aggregates []NamedAggregate
}

type SummarizeAll struct {
	Source     RelExpr
	Aggregates []NamedAggregate
}

type NestBy struct {
	Source     RelExpr
	GroupAttrs []string
	Alias      string
}

type SortKey struct {
	Attr       string
	Descending bool
}

type Sort struct {
	Source RelExpr
	Keys   []SortKey
}

type Take struct {
	Source RelExpr
	Count  int64
}

func (RelName) relNode()       {}
func (Filter) relNode()        {}
func (NegatedFilter) relNode() {}
func (Project) relNode()       {}
func (Remove) relNode()        {}
func (NaturalJoin) relNode()   {}
func (NestJoin) relNode()      {}
func (Unnest) relNode()        {}
func (Extend) relNode()        {}
func (Rename) relNode()        {}
func (Union) relNode()         {}
func (Difference) relNode()    {}
func (Intersect) relNode()     {}
func (Summarize) relNode()     {}
func (SummarizeAll) relNode()  {}
func (NestBy) relNode()        {}
func (Sort) relNode()          {}
func (Take) relNode()          {}

// Statement is a parsed top-level input: either a bare query or an
// assignment name := query.
type Statement struct {
	Assign string
	Expr   RelExpr
}
