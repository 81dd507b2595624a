package codd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAggregates(t *testing.T) {
	check := func(name, query string, want []string) {
		t.Run(name, func(t *testing.T) {
			res, err := Run(query, sampleEnv())
			if err != nil {
				t.Fatalf("query %q: %s", query, err)
			}
			if diff := cmp.Diff(want, resultText(res)); diff != "" {
				t.Fatalf("query %q:\n%s", query, diff)
			}
		})
	}

	check("count", `E /. [n: #.]`, []string{"n=5"})
	check("sum", `E /. [total: +. salary]`, []string{"total=330000"})
	check("max", `E /. [top: >. salary]`, []string{"top=90000"})
	check("min", `E /. [low: <. salary]`, []string{"low=45000"})
	check("mean floors integer input", `E /. [avg: %. salary]`, []string{"avg=66000"})
	check("mean per group floors", `E / dept_id [avg: %. salary]`, []string{
		"avg=50000 dept_id=20",
		"avg=76666 dept_id=10",
	})
	check("string max", `E /. [last: >. name]`, []string{"last=Eve"})
	check("string min", `E /. [first: <. name]`, []string{"first=Alice"})
	check("count of empty group", `E ? dept_id = 99 /. [n: #.]`, []string{"n=0"})
	check("sum of empty group", `E ? dept_id = 99 /. [s: +. salary]`, []string{"s=0"})
	check("mean of empty group", `E ? dept_id = 99 /. [a: %. salary]`, []string{"a=0"})
	check("decimal input promotes the mean", `E + [w: salary * 0.5] /. [a: %. w] # a`, []string{"a=33000"})

	checkErr := func(name, query, want string) {
		t.Run(name, func(t *testing.T) {
			_, err := Run(query, sampleEnv())
			if err == nil {
				t.Fatalf("query %q: expected an error", query)
			}
			if diff := cmp.Diff(want, err.Error()); diff != "" {
				t.Fatalf("query %q:\n%s", query, diff)
			}
		})
	}

	checkErr("max of empty group", `E ? dept_id = 99 /. [m: >. salary]`,
		"domain error: >. over an empty relation")
	checkErr("min of empty group", `E ? dept_id = 99 /. [m: <. salary]`,
		"domain error: <. over an empty relation")
	checkErr("sum needs an attribute", `E /. [s: +.]`,
		"type error: +. requires an attribute name")
	checkErr("sum over strings", `E /. [s: +. name]`,
		"type error: +: expected a number, got String")
	checkErr("unknown attribute", `E /. [s: +. nope]`,
		`name error: unknown attribute "nope"`)
	checkErr("unknown aggregate source", `E + [n: #. nope]`,
		`name error: unknown relation "nope"`)
}
