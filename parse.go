package codd

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// parser walks a pre-lexed token slice. The slice always ends with a
// tEnd token so peeking past the input is safe.
type parser struct {
	tokens []token
	pos    int
}

// Parse lexes and parses one top-level statement: a relational chain or
// an assignment name := chain.
func Parse(src string) (*Statement, error) {
	tr := newTokenizer(src)
	var tokens []token
	for {
		t, err := tr.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
		if t.t == tEnd {
			break
		}
	}
	p := &parser{tokens: tokens}
	var st Statement
	if p.peek().t == tIdent && p.peekAt(1).isOp(":=") {
		st.Assign = p.advance().val
		p.advance()
	}
	expr, err := p.parseChain()
	if err != nil {
		return nil, err
	}
	st.Expr = expr
	if t := p.peek(); t.t != tEnd {
		if t.t == tOp && reservedOps[t.val] {
			return nil, p.errAt(t, "operator %q is not supported", t.val)
		}
		return nil, p.errAt(t, "unexpected token %q", t.val)
	}
	return &st, nil
}

// Tokens lexed but rejected: the mutation and predicate extensions are
// not part of the evaluated language.
var reservedOps = map[string]bool{
	":=": true, "|=": true, "-=": true, "?=": true, "+:": true,
	"~": true, "!~": true, "::": true,
}

func (p *parser) peek() token {
	return p.peekAt(0)
}

func (p *parser) peekAt(offset int) token {
	pos := p.pos + offset
	if pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[pos]
}

func (p *parser) advance() token {
	t := p.peek()
	if t.t != tEnd {
		p.pos++
	}
	return t
}

func (t token) isOp(val string) bool {
	return t.t == tOp && t.val == val
}

func (p *parser) eatOp(val string) bool {
	if p.peek().isOp(val) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectOp(val string) error {
	if !p.eatOp(val) {
		return p.errAt(p.peek(), "expected %q, got %s", val, describe(p.peek()))
	}
	return nil
}

func (p *parser) expectIdent() (string, error) {
	t := p.peek()
	if t.t != tIdent {
		return "", p.errAt(t, "expected an identifier, got %s", describe(t))
	}
	p.advance()
	return t.val, nil
}

func describe(t token) string {
	if t.t == tEnd {
		return "end of input"
	}
	return strconv.Quote(t.val)
}

func (p *parser) errAt(t token, format string, args ...any) error {
	if t.t == tEnd {
		return &ParseError{Line: t.line, Col: t.col, Msg: "unexpected end of input"}
	}
	return &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

// parseChain parses an atom followed by any number of postfix
// operators, each wrapping the chain so far as its left operand.
func (p *parser) parseChain() (RelExpr, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.t != tOp {
			return left, nil
		}
		switch t.val {
		case "?":
			p.advance()
			cond, err := p.parseCondition()
			if err != nil {
				return nil, err
			}
			left = Filter{Source: left, Condition: cond}
		case "?!":
			p.advance()
			cond, err := p.parseCondition()
			if err != nil {
				return nil, err
			}
			left = NegatedFilter{Source: left, Condition: cond}
		case "#":
			p.advance()
			attrs, err := p.parseAttrList()
			if err != nil {
				return nil, err
			}
			left = Project{Source: left, Attrs: attrs}
		case "#!":
			p.advance()
			attrs, err := p.parseAttrList()
			if err != nil {
				return nil, err
			}
			left = Remove{Source: left, Attrs: attrs}
		case "*":
			p.advance()
			right, err := p.parseJoinRight("*")
			if err != nil {
				return nil, err
			}
			left = NaturalJoin{Source: left, Right: right}
		case "*:":
			p.advance()
			right, err := p.parseJoinRight("*:")
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(">"); err != nil {
				return nil, err
			}
			alias, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			left = NestJoin{Source: left, Right: right, Alias: alias}
		case "<:":
			p.advance()
			attr, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			left = Unnest{Source: left, Attr: attr}
		case "+":
			p.advance()
			comps, err := p.parseNamedExprList()
			if err != nil {
				return nil, err
			}
			left = Extend{Source: left, Computations: comps}
		case "@":
			p.advance()
			mappings, err := p.parseRenameList()
			if err != nil {
				return nil, err
			}
			left = Rename{Source: left, Mappings: mappings}
		case "|":
			p.advance()
			right, err := p.parseBinaryRight("|")
			if err != nil {
				return nil, err
			}
			left = Union{Source: left, Right: right}
		case "-":
			p.advance()
			right, err := p.parseBinaryRight("-")
			if err != nil {
				return nil, err
			}
			left = Difference{Source: left, Right: right}
		case "&":
			p.advance()
			right, err := p.parseBinaryRight("&")
			if err != nil {
				return nil, err
			}
			left = Intersect{Source: left, Right: right}
		case "/":
			p.advance()
			keys, err := p.parseAttrList()
			if err != nil {
				return nil, err
			}
			aggs, err := p.parseAggregateList()
			if err != nil {
				return nil, err
			}
			left = Summarize{Source: left, GroupAttrs: keys, Aggregates: aggs}
		case "/.":
			p.advance()
			aggs, err := p.parseAggregateList()
			if err != nil {
				return nil, err
			}
			left = SummarizeAll{Source: left, Aggregates: aggs}
		case "/:":
			p.advance()
			keys, err := p.parseAttrList()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(">"); err != nil {
				return nil, err
			}
			alias, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			left = NestBy{Source: left, GroupAttrs: keys, Alias: alias}
		case "$":
			p.advance()
			keys, err := p.parseSortKeyList()
			if err != nil {
				return nil, err
			}
			left = Sort{Source: left, Keys: keys}
		case "^":
			p.advance()
			t := p.peek()
			if t.t != tInt {
				return nil, p.errAt(t, "expected a count after ^, got %s", describe(t))
			}
			p.advance()
			n, err := strconv.ParseInt(t.val, 10, 64)
			if err != nil {
				return nil, p.errAt(t, "invalid count %q", t.val)
			}
			left = Take{Source: left, Count: n}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseAtom() (RelExpr, error) {
	t := p.peek()
	if t.t == tIdent {
		p.advance()
		return RelName{Name: t.val}, nil
	}
	if t.isOp("(") {
		p.advance()
		expr, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.errAt(t, "expected a relation name or \"(\", got %s", describe(t))
}

// parseBinaryRight parses the right side of a set operator: a bare
// relation name or a parenthesized chain, nothing else.
func (p *parser) parseBinaryRight(op string) (RelExpr, error) {
	t := p.peek()
	if t.t == tIdent {
		p.advance()
		return RelName{Name: t.val}, nil
	}
	if t.isOp("(") {
		return p.parseAtom()
	}
	return nil, p.errAt(t, "right operand of %q must be a relation name or a parenthesized expression", op)
}

func (p *parser) parseJoinRight(op string) (RelExpr, error) {
	t := p.peek()
	if t.t != tIdent {
		return nil, p.errAt(t, "right operand of %q must be a relation name", op)
	}
	p.advance()
	return RelName{Name: t.val}, nil
}

// parseAttrList parses a single attribute or a bracketed,
// whitespace-separated list.
func (p *parser) parseAttrList() ([]string, error) {
	if p.eatOp("[") {
		var attrs []string
		for !p.peek().isOp("]") {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, name)
		}
		p.advance()
		return attrs, nil
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return []string{name}, nil
}

func (p *parser) parseRenameList() ([][2]string, error) {
	one := func() ([2]string, error) {
		old, err := p.expectIdent()
		if err != nil {
			return [2]string{}, err
		}
		if err := p.expectOp(">"); err != nil {
			return [2]string{}, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return [2]string{}, err
		}
		return [2]string{old, name}, nil
	}
	if p.eatOp("[") {
		var mappings [][2]string
		for !p.peek().isOp("]") {
			m, err := one()
			if err != nil {
				return nil, err
			}
			mappings = append(mappings, m)
		}
		p.advance()
		return mappings, nil
	}
	m, err := one()
	if err != nil {
		return nil, err
	}
	return [][2]string{m}, nil
}

func (p *parser) parseSortKeyList() ([]SortKey, error) {
	one := func() (SortKey, error) {
		name, err := p.expectIdent()
		if err != nil {
			return SortKey{}, err
		}
		desc := p.eatOp("-")
		return SortKey{Attr: name, Descending: desc}, nil
	}
	if p.eatOp("[") {
		var keys []SortKey
		for !p.peek().isOp("]") {
			k, err := one()
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}
		p.advance()
		return keys, nil
	}
	k, err := one()
	if err != nil {
		return nil, err
	}
	return []SortKey{k}, nil
}

func (p *parser) parseNamedExprList() ([]NamedExpr, error) {
	one := func() (NamedExpr, error) {
		name, err := p.expectIdent()
		if err != nil {
			return NamedExpr{}, err
		}
		if err := p.expectOp(":"); err != nil {
			return NamedExpr{}, err
		}
		expr, err := p.parseComputation()
		if err != nil {
			return NamedExpr{}, err
		}
		return NamedExpr{Name: name, Expr: expr}, nil
	}
	if p.eatOp("[") {
		var comps []NamedExpr
		for !p.peek().isOp("]") {
			c, err := one()
			if err != nil {
				return nil, err
			}
			comps = append(comps, c)
		}
		p.advance()
		return comps, nil
	}
	c, err := one()
	if err != nil {
		return nil, err
	}
	return []NamedExpr{c}, nil
}

// parseAggregateList parses the bracketed name: aggregate pairs of a
// summarize. The brackets are mandatory here.
func (p *parser) parseAggregateList() ([]NamedAggregate, error) {
	t := p.peek()
	if !t.isOp("[") {
		return nil, p.errAt(t, "aggregate list must be enclosed in brackets, got %s", describe(t))
	}
	p.advance()
	var aggs []NamedAggregate
	for !p.peek().isOp("]") {
		a, err := p.parseNamedAggregate()
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, a)
	}
	p.advance()
	return aggs, nil
}

var aggregateOps = map[string]bool{
	"#.": true, "+.": true, ">.": true, "<.": true, "%.": true,
}

func (p *parser) parseNamedAggregate() (NamedAggregate, error) {
	name, err := p.expectIdent()
	if err != nil {
		return NamedAggregate{}, err
	}
	if err := p.expectOp(":"); err != nil {
		return NamedAggregate{}, err
	}
	t := p.peek()
	if t.t != tOp || !aggregateOps[t.val] {
		return NamedAggregate{}, p.errAt(t, "expected an aggregate function, got %s", describe(t))
	}
	p.advance()
	agg := NamedAggregate{Name: name, Func: t.val}
	switch {
	case p.peek().isOp("("):
		p.advance()
		src, err := p.parseChain()
		if err != nil {
			return NamedAggregate{}, err
		}
		if err := p.expectOp(")"); err != nil {
			return NamedAggregate{}, err
		}
		agg.Source = src
	case p.peek().t == tIdent:
		// An identifier followed by a colon starts the next named
		// aggregate, so it doesn't belong to this one.
		if p.peekAt(1).isOp(":") {
			break
		}
		ref, err := p.parseAttrRef()
		if err != nil {
			return NamedAggregate{}, err
		}
		if len(ref.Parts) > 1 {
			agg.Source = RelName{Name: ref.Parts[0]}
			agg.Attr = &AttrRef{Parts: ref.Parts[1:]}
		} else {
			agg.Attr = &ref
		}
	}
	return agg, nil
}

// parseCondition parses a filter predicate: a bare comparison, or a
// parenthesized combination with & and |.
func (p *parser) parseCondition() (Cond, error) {
	if p.eatOp("(") {
		cond, err := p.parseBoolExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return cond, nil
	}
	return p.parseComparison()
}

func (p *parser) parseBoolExpr() (Cond, error) {
	var left Cond
	var err error
	if p.eatOp("(") {
		left, err = p.parseBoolExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
	} else {
		left, err = p.parseComparison()
		if err != nil {
			return nil, err
		}
	}
	for {
		t := p.peek()
		if !t.isOp("&") && !t.isOp("|") {
			return left, nil
		}
		p.advance()
		var right Cond
		if p.eatOp("(") {
			right, err = p.parseBoolExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
		} else {
			right, err = p.parseComparison()
			if err != nil {
				return nil, err
			}
		}
		left = BoolCombination{Left: left, Op: t.val, Right: right}
	}
}

var comparisonOps = map[string]bool{
	"=": true, "!=": true, ">": true, "<": true, ">=": true, "<=": true,
}

func (p *parser) parseComparison() (Cond, error) {
	var left Expr
	t := p.peek()
	if t.t == tOp && aggregateOps[t.val] {
		call, err := p.parseAggregateCall()
		if err != nil {
			return nil, err
		}
		left = call
	} else {
		ref, err := p.parseAttrRef()
		if err != nil {
			return nil, err
		}
		left = ref
	}
	t = p.peek()
	if t.t != tOp || !comparisonOps[t.val] {
		return nil, p.errAt(t, "expected a comparison operator, got %s", describe(t))
	}
	p.advance()
	right, err := p.parseValueExpr()
	if err != nil {
		return nil, err
	}
	return Comparison{Left: left, Op: t.val, Right: right}, nil
}

func (p *parser) parseAttrRef() (AttrRef, error) {
	name, err := p.expectIdent()
	if err != nil {
		return AttrRef{}, err
	}
	parts := []string{name}
	for p.peek().isOp(".") && p.peekAt(1).t == tIdent {
		p.advance()
		parts = append(parts, p.advance().val)
	}
	return AttrRef{Parts: parts}, nil
}

// parseValueExpr parses the right side of a comparison: a literal, a
// set literal, a parenthesized subquery, or an attribute reference.
func (p *parser) parseValueExpr() (Expr, error) {
	t := p.peek()
	if lit, ok, err := p.parseLiteral(); err != nil {
		return nil, err
	} else if ok {
		return lit, nil
	}
	if t.isOp("{") {
		return p.parseSetLiteral()
	}
	if t.isOp("(") {
		p.advance()
		query, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return SubqueryExpr{Query: query}, nil
	}
	if t.t == tIdent {
		return p.parseAttrRef()
	}
	return nil, p.errAt(t, "expected a value, got %s", describe(t))
}

// parseLiteral reads a scalar literal, including a leading unary minus
// on numbers. Returns ok=false when the next token doesn't start one.
func (p *parser) parseLiteral() (Expr, bool, error) {
	t := p.peek()
	neg := false
	if t.isOp("-") && (p.peekAt(1).t == tInt || p.peekAt(1).t == tDecimal) {
		p.advance()
		neg = true
		t = p.peek()
	}
	switch t.t {
	case tInt:
		p.advance()
		n, err := strconv.ParseInt(t.val, 10, 64)
		if err != nil {
			return nil, false, p.errAt(t, "invalid integer %q", t.val)
		}
		if neg {
			n = -n
		}
		return IntLiteral{Value: n}, true, nil
	case tDecimal:
		p.advance()
		if _, err := decimal.NewFromString(t.val); err != nil {
			return nil, false, p.errAt(t, "invalid decimal %q", t.val)
		}
		val := t.val
		if neg {
			val = "-" + val
		}
		return DecimalLiteral{Value: val}, true, nil
	case tString:
		p.advance()
		return StringLiteral{Value: t.val}, true, nil
	case tBool:
		p.advance()
		return BoolLiteral{Value: t.val == "true"}, true, nil
	}
	return nil, false, nil
}

func (p *parser) parseSetLiteral() (Expr, error) {
	p.advance()
	var elements []Expr
	for !p.peek().isOp("}") {
		e, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
		if !p.eatOp(",") {
			break
		}
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return SetLiteral{Elements: elements}, nil
}

// parseComputation parses an extend computation, where * and / mean
// multiply and divide. Additive binds looser than multiplicative and
// both associate left.
func (p *parser) parseComputation() (Expr, error) {
	if p.peek().isOp("?") {
		return p.parseTernary()
	}
	return p.parseAdditive()
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if !t.isOp("+") && !t.isOp("-") {
			return left, nil
		}
		// + starts the next extend only if what follows can't
		// continue this computation
		if t.isOp("+") && !p.startsComputationOperand(1) {
			return left, nil
		}
		if t.isOp("-") && !p.startsComputationOperand(1) {
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinOp{Left: left, Op: t.val, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseComputationAtom()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if !t.isOp("*") && !t.isOp("/") {
			return left, nil
		}
		p.advance()
		right, err := p.parseComputationAtom()
		if err != nil {
			return nil, err
		}
		left = BinOp{Left: left, Op: t.val, Right: right}
	}
}

// startsComputationOperand reports whether the token at the offset can
// begin a computation operand. Used to tell `a + b` inside one extend
// from the `+` that starts the next chain operator.
func (p *parser) startsComputationOperand(offset int) bool {
	t := p.peekAt(offset)
	switch t.t {
	case tInt, tDecimal, tString, tBool:
		return true
	case tIdent:
		// name: would start a new extend computation
		return !p.peekAt(offset + 1).isOp(":")
	case tOp:
		return t.val == "(" || aggregateOps[t.val]
	}
	return false
}

func (p *parser) parseComputationAtom() (Expr, error) {
	t := p.peek()
	if t.t == tOp && aggregateOps[t.val] {
		return p.parseAggregateCall()
	}
	if lit, ok, err := p.parseLiteral(); err != nil {
		return nil, err
	} else if ok {
		return lit, nil
	}
	if t.t == tIdent {
		if p.peekAt(1).isOp("(") {
			return p.parseFunctionCall()
		}
		return p.parseAttrRef()
	}
	if t.isOp("(") {
		p.advance()
		expr, err := p.parseComputation()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.errAt(t, "expected a value in a computation, got %s", describe(t))
}

func (p *parser) parseFunctionCall() (Expr, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	p.advance()
	var args []Expr
	for !p.peek().isOp(")") {
		a, err := p.parseComputation()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.eatOp(",") {
			break
		}
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return FunctionCall{Name: name, Args: args}, nil
}

// parseAggregateCall parses an aggregate in a computation or predicate:
// #. team, +. team.salary, #. (team ? cond), or a bare #. with no
// source, which parses but is rejected at evaluation for lacking a
// relation source.
func (p *parser) parseAggregateCall() (Expr, error) {
	fn := p.advance().val
	if p.eatOp("(") {
		src, err := p.parseChain()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return AggregateCall{Func: fn, Source: src}, nil
	}
	if p.peek().t == tIdent {
		ref, err := p.parseAttrRef()
		if err != nil {
			return nil, err
		}
		if len(ref.Parts) > 1 {
			return AggregateCall{
				Func:   fn,
				Arg:    &AttrRef{Parts: ref.Parts[1:]},
				Source: RelName{Name: ref.Parts[0]},
			}, nil
		}
		if fn == "#." {
			return AggregateCall{Func: fn, Source: RelName{Name: ref.Parts[0]}}, nil
		}
		return AggregateCall{Func: fn, Arg: &ref}, nil
	}
	return AggregateCall{Func: fn}, nil
}

// parseTernary parses ? condition true-branch false-branch. Branches
// may be atoms, aggregate calls, or nested ternaries, but not bare
// binary arithmetic, which would let a / or * be taken for a chain
// operator. Arithmetic in a branch must be parenthesized.
func (p *parser) parseTernary() (Expr, error) {
	p.advance()
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	trueBranch, err := p.parseTernaryBranch()
	if err != nil {
		return nil, err
	}
	falseBranch, err := p.parseTernaryBranch()
	if err != nil {
		return nil, err
	}
	return TernaryExpr{Condition: cond, True: trueBranch, False: falseBranch}, nil
}

func (p *parser) parseTernaryBranch() (Expr, error) {
	if p.peek().isOp("?") {
		return p.parseTernary()
	}
	expr, err := p.parseComputationAtom()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.isOp("*") || t.isOp("/") ||
		((t.isOp("+") || t.isOp("-")) && p.startsComputationOperand(1)) {
		return nil, p.errAt(t, "arithmetic in a ternary branch must be parenthesized")
	}
	return expr, nil
}
