package codd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParser(t *testing.T) {
	check := func(name, src string, want *Statement) {
		t.Run(name, func(t *testing.T) {
			got, err := Parse(src)
			if err != nil {
				t.Fatalf("%q: %s", src, err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("%q:\n%s", src, diff)
			}
		})
	}

	check("postfix chain", `E ? salary > 50000 # [name salary]`, &Statement{
		Expr: Project{
			Source: Filter{
				Source: RelName{Name: "E"},
				Condition: Comparison{
					Left:  AttrRef{Parts: []string{"salary"}},
					Op:    ">",
					Right: IntLiteral{Value: 50000},
				},
			},
			Attrs: []string{"name", "salary"},
		},
	})
	check("bracket elision", `E # name`, &Statement{
		Expr: Project{Source: RelName{Name: "E"}, Attrs: []string{"name"}},
	})
	check("assignment", `T := E ?! role = "manager"`, &Statement{
		Assign: "T",
		Expr: NegatedFilter{
			Source: RelName{Name: "E"},
			Condition: Comparison{
				Left:  AttrRef{Parts: []string{"role"}},
				Op:    "=",
				Right: StringLiteral{Value: "manager"},
			},
		},
	})
	check("boolean combination", `E ? (a = 1 & b = 2 | c = 3)`, &Statement{
		Expr: Filter{
			Source: RelName{Name: "E"},
			Condition: BoolCombination{
				Left: BoolCombination{
					Left:  Comparison{Left: AttrRef{Parts: []string{"a"}}, Op: "=", Right: IntLiteral{Value: 1}},
					Op:    "&",
					Right: Comparison{Left: AttrRef{Parts: []string{"b"}}, Op: "=", Right: IntLiteral{Value: 2}},
				},
				Op:    "|",
				Right: Comparison{Left: AttrRef{Parts: []string{"c"}}, Op: "=", Right: IntLiteral{Value: 3}},
			},
		},
	})
	check("context decides between summarize and divide", `E / dept_id [n: #.] + [half: n / 2]`, &Statement{
		Expr: Extend{
			Source: Summarize{
				Source:     RelName{Name: "E"},
				GroupAttrs: []string{"dept_id"},
				Aggregates: []NamedAggregate{{Name: "n", Func: "#."}},
			},
			Computations: []NamedExpr{{
				Name: "half",
				Expr: BinOp{
					Left:  AttrRef{Parts: []string{"n"}},
					Op:    "/",
					Right: IntLiteral{Value: 2},
				},
			}},
		},
	})
	check("additive binds looser than multiplicative", `E + [x: a + b * c]`, &Statement{
		Expr: Extend{
			Source: RelName{Name: "E"},
			Computations: []NamedExpr{{
				Name: "x",
				Expr: BinOp{
					Left: AttrRef{Parts: []string{"a"}},
					Op:   "+",
					Right: BinOp{
						Left:  AttrRef{Parts: []string{"b"}},
						Op:    "*",
						Right: AttrRef{Parts: []string{"c"}},
					},
				},
			}},
		},
	})
	check("a name-colon pair starts the next computation", `E + [a: x + 1 b: y]`, &Statement{
		Expr: Extend{
			Source: RelName{Name: "E"},
			Computations: []NamedExpr{
				{Name: "a", Expr: BinOp{
					Left:  AttrRef{Parts: []string{"x"}},
					Op:    "+",
					Right: IntLiteral{Value: 1},
				}},
				{Name: "b", Expr: AttrRef{Parts: []string{"y"}}},
			},
		},
	})
	check("aggregate with a dotted source", `E + [top: >. team.salary]`, &Statement{
		Expr: Extend{
			Source: RelName{Name: "E"},
			Computations: []NamedExpr{{
				Name: "top",
				Expr: AggregateCall{
					Func:   ">.",
					Arg:    &AttrRef{Parts: []string{"salary"}},
					Source: RelName{Name: "team"},
				},
			}},
		},
	})
	check("count with a bare source", `E + [n: #. team]`, &Statement{
		Expr: Extend{
			Source: RelName{Name: "E"},
			Computations: []NamedExpr{{
				Name: "n",
				Expr: AggregateCall{Func: "#.", Source: RelName{Name: "team"}},
			}},
		},
	})
	check("aggregate with a filtered source", `E + [n: #. (team ? x = 1)]`, &Statement{
		Expr: Extend{
			Source: RelName{Name: "E"},
			Computations: []NamedExpr{{
				Name: "n",
				Expr: AggregateCall{
					Func: "#.",
					Source: Filter{
						Source: RelName{Name: "team"},
						Condition: Comparison{
							Left:  AttrRef{Parts: []string{"x"}},
							Op:    "=",
							Right: IntLiteral{Value: 1},
						},
					},
				},
			}},
		},
	})
	check("summarize with adjacent named aggregates", `E / dept_id [n: #. avg: %. salary]`, &Statement{
		Expr: Summarize{
			Source:     RelName{Name: "E"},
			GroupAttrs: []string{"dept_id"},
			Aggregates: []NamedAggregate{
				{Name: "n", Func: "#."},
				{Name: "avg", Func: "%.", Attr: &AttrRef{Parts: []string{"salary"}}},
			},
		},
	})
	check("nest join with alias", `E *: Phone > phones`, &Statement{
		Expr: NestJoin{
			Source: RelName{Name: "E"},
			Right:  RelName{Name: "Phone"},
			Alias:  "phones",
		},
	})
	check("sort keys with direction", `E $ [dept_id salary-]`, &Statement{
		Expr: Sort{
			Source: RelName{Name: "E"},
			Keys: []SortKey{
				{Attr: "dept_id"},
				{Attr: "salary", Descending: true},
			},
		},
	})
	check("take", `E $ salary ^ 3`, &Statement{
		Expr: Take{
			Source: Sort{
				Source: RelName{Name: "E"},
				Keys:   []SortKey{{Attr: "salary"}},
			},
			Count: 3,
		},
	})
	check("set literal", `E ? dept_id = {10, 20}`, &Statement{
		Expr: Filter{
			Source: RelName{Name: "E"},
			Condition: Comparison{
				Left: AttrRef{Parts: []string{"dept_id"}},
				Op:   "=",
				Right: SetLiteral{Elements: []Expr{
					IntLiteral{Value: 10},
					IntLiteral{Value: 20},
				}},
			},
		},
	})
	check("negative literals", `E ? x = -2 + [y: -1.5]`, &Statement{
		Expr: Extend{
			Source: Filter{
				Source: RelName{Name: "E"},
				Condition: Comparison{
					Left:  AttrRef{Parts: []string{"x"}},
					Op:    "=",
					Right: IntLiteral{Value: -2},
				},
			},
			Computations: []NamedExpr{{Name: "y", Expr: DecimalLiteral{Value: "-1.5"}}},
		},
	})
	check("ternary with parenthesized arithmetic", `E + [x: ? a = 1 (b + 1) c]`, &Statement{
		Expr: Extend{
			Source: RelName{Name: "E"},
			Computations: []NamedExpr{{
				Name: "x",
				Expr: TernaryExpr{
					Condition: Comparison{
						Left:  AttrRef{Parts: []string{"a"}},
						Op:    "=",
						Right: IntLiteral{Value: 1},
					},
					True: BinOp{
						Left:  AttrRef{Parts: []string{"b"}},
						Op:    "+",
						Right: IntLiteral{Value: 1},
					},
					False: AttrRef{Parts: []string{"c"}},
				},
			}},
		},
	})
	check("function call", `E + [r: round(salary / 3, 2)]`, &Statement{
		Expr: Extend{
			Source: RelName{Name: "E"},
			Computations: []NamedExpr{{
				Name: "r",
				Expr: FunctionCall{
					Name: "round",
					Args: []Expr{
						BinOp{
							Left:  AttrRef{Parts: []string{"salary"}},
							Op:    "/",
							Right: IntLiteral{Value: 3},
						},
						IntLiteral{Value: 2},
					},
				},
			}},
		},
	})
	check("rename list", `E @ [pay > salary id > emp_id]`, &Statement{
		Expr: Rename{
			Source: RelName{Name: "E"},
			Mappings: [][2]string{
				{"pay", "salary"},
				{"id", "emp_id"},
			},
		},
	})
}

func TestParseErrors(t *testing.T) {
	check := func(src, want string) {
		t.Run(want, func(t *testing.T) {
			_, err := Parse(src)
			if err == nil {
				t.Fatalf("%q: expected an error", src)
			}
			if diff := cmp.Diff(want, err.Error()); diff != "" {
				t.Fatalf("%q:\n%s", src, diff)
			}
		})
	}

	check(`E |= D`, `parse error at 1:3: operator "|=" is not supported`)
	check(`E ?= x = 1`, `parse error at 1:3: operator "?=" is not supported`)
	check(`E +: [x: 1]`, `parse error at 1:3: operator "+:" is not supported`)
	check(`E ? x ~ "a"`, `parse error at 1:7: expected a comparison operator, got "~"`)
	check(`E # [name salary] extra`, `parse error at 1:19: unexpected token "extra"`)
	check(`E ? salary >`, `parse error at 1:13: unexpected end of input`)
	check(`E / dept_id n: #.`, `parse error at 1:13: aggregate list must be enclosed in brackets, got "n"`)
	check(`E ^ x`, `parse error at 1:5: expected a count after ^, got "x"`)
	check(`E + [x: ? a = 1 b + 1 c]`, `parse error at 1:19: arithmetic in a ternary branch must be parenthesized`)
	check(`E *: (D # x) > y`, `parse error at 1:6: right operand of "*:" must be a relation name`)
	check(`| D`, `parse error at 1:1: expected a relation name or "(", got "|"`)
	check(`E - 5`, `parse error at 1:5: right operand of "-" must be a relation name or a parenthesized expression`)
}
