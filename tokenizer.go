package codd

import (
	"fmt"
	"strings"
)

type tokenType string

const (
	tEnd     tokenType = "end"
	tInt     tokenType = "int"
	tDecimal tokenType = "decimal"
	tString  tokenType = "string"
	tBool    tokenType = "bool"
	tIdent   tokenType = "identifier"
	tOp      tokenType = "operator"
	tError   tokenType = "error"
)

type token struct {
	t         tokenType
	val       string
	line, col int
}

func (t token) String() string {
	return fmt.Sprintf("[%s %s]", t.t, t.val)
}

type tokenizer struct {
	b     *parsebuf
	peeks []token
}

func newTokenizer(src string) *tokenizer {
	return &tokenizer{b: newParsebuf(src)}
}

func (tr *tokenizer) unget(t token) {
	tr.peeks = append(tr.peeks, t)
}

func (tr *tokenizer) peek() token {
	s, err := tr.next()
	if err != nil {
		return token{t: tError, val: err.Error()}
	}
	if s.t != tEnd {
		tr.unget(s)
	}
	return s
}

// peek2 returns the token after the next one.
func (tr *tokenizer) peek2() token {
	first, err := tr.next()
	if err != nil {
		return token{t: tError, val: err.Error()}
	}
	second := tr.peek()
	if first.t != tEnd {
		tr.unget(first)
	}
	return second
}

// Two-character tokens are matched before their single-character
// prefixes, so *: is never * followed by :.
var digraphs = []string{
	"?!", "#!", "*:", "<:", "/.", "/:", "#.", "+.", ">.", "<.", "%.",
	":=", "|=", "-=", "?=", "!=", ">=", "<=", "!~", "::", "+:",
}

var singleOps = "?#*+-|&/$^@=<>~[](){},:."

const digits = "0123456789"
const identChars = digits + "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"

func (tr *tokenizer) next() (token, error) {
	if len(tr.peeks) > 0 {
		r := tr.peeks[len(tr.peeks)-1]
		tr.peeks = tr.peeks[0 : len(tr.peeks)-1]
		return r, nil
	}
	tr.b.space()
	line, col := tr.b.line, tr.b.col
	if tr.b.peek() == "" {
		return token{tEnd, "", line, col}, nil
	}
	if tr.b.peek() == "\"" {
		s, err := readQuote(tr.b)
		if err != nil {
			return token{}, &LexError{Line: line, Col: col, Msg: err.Error()}
		}
		return token{tString, s, line, col}, nil
	}
	c := tr.b.peek()
	if c[0] >= '0' && c[0] <= '9' {
		s := tr.b.set(digits)
		if tr.b.peek() == "." && isDigit(tr.b.peek2()) {
			tr.b.get()
			s += "." + tr.b.set(digits)
			return token{tDecimal, s, line, col}, nil
		}
		return token{tInt, s, line, col}, nil
	}
	two := c + tr.b.peek2()
	for _, d := range digraphs {
		if two == d {
			tr.b.get()
			tr.b.get()
			return token{tOp, d, line, col}, nil
		}
	}
	if strings.Contains(singleOps, c) {
		tr.b.get()
		return token{tOp, c, line, col}, nil
	}
	if isIdentStart(c) {
		s := tr.b.set(identChars)
		if s == "true" || s == "false" {
			return token{tBool, s, line, col}, nil
		}
		return token{tIdent, s, line, col}, nil
	}
	return token{}, &LexError{Line: line, Col: col, Msg: fmt.Sprintf("unexpected character %q", c)}
}

func (tr *tokenizer) eat(t tokenType, val string) bool {
	p := tr.peek()
	if p.t == t && p.val == val {
		tr.next()
		return true
	}
	return false
}

func isDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func isIdentStart(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func readQuote(b *parsebuf) (string, error) {
	b.get()
	s := strings.Builder{}
	for b.more() {
		c := b.get()
		if c == "\\" {
			if !b.more() {
				break
			}
			s.WriteString(b.get())
			continue
		}
		if c == "\"" {
			return s.String(), nil
		}
		s.WriteString(c)
	}
	return "", fmt.Errorf("unterminated string")
}

// tokenize runs the lexer over the whole source and returns the token
// sequence without the trailing end marker.
func tokenize(src string) ([]token, error) {
	tr := newTokenizer(src)
	var out []token
	for {
		t, err := tr.next()
		if err != nil {
			return nil, err
		}
		if t.t == tEnd {
			return out, nil
		}
		out = append(out, t)
	}
}
