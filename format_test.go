package codd

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatRelation(t *testing.T) {
	env := sampleEnv()

	check := func(name, query string, want []string) {
		t.Run(name, func(t *testing.T) {
			res, err := Run(query, env)
			if err != nil {
				t.Fatalf("query %q: %s", query, err)
			}
			if diff := cmp.Diff(strings.Join(want, "\n"), FormatResult(res)); diff != "" {
				t.Fatalf("query %q:\n%s", query, diff)
			}
		})
	}

	check("single column", `E # name`, []string{
		"+-------+",
		"| name  |",
		"+-------+",
		"| Alice |",
		"| Bob   |",
		"| Carol |",
		"| Dave  |",
		"| Eve   |",
		"+-------+",
	})

	check("columns come out in alphabetical order", `D`, []string{
		"+---------+-------------+",
		"| dept_id | dept_name   |",
		"+---------+-------------+",
		"| 10      | Engineering |",
		"| 20      | Sales       |",
		"+---------+-------------+",
	})

	check("empty relation with a schema keeps its header", `E ? dept_id = 99 # name`, []string{
		"+------+",
		"| name |",
		"+------+",
	})

	check("nested relation in a cell", `E ? name = "Alice" *: Phone > phones # phones`, []string{
		`+-----------------------+`,
		`| phones                |`,
		`+-----------------------+`,
		`| {(phone: "555-1234")} |`,
		`+-----------------------+`,
	})

	check("empty nested relation", `E ? name = "Bob" *: Phone > phones # phones`, []string{
		"+--------+",
		"| phones |",
		"+--------+",
		"| {}     |",
		"+--------+",
	})
}

func TestFormatNestedOrder(t *testing.T) {
	res, err := Run(`E ? name = "Carol" *: Phone > phones # phones`, sampleEnv())
	if err != nil {
		t.Fatal(err)
	}
	tuples := res.(*Relation).Tuples()
	if len(tuples) != 1 {
		t.Fatalf("got %d tuples, want 1", len(tuples))
	}
	v, _ := tuples[0].Get("phones")
	want := `{(phone: "555-5678"), (phone: "555-9999")}`
	if diff := cmp.Diff(want, formatCell(v)); diff != "" {
		t.Fatal(diff)
	}
}

func TestFormatOrdered(t *testing.T) {
	env := sampleEnv()

	res, err := Run(`E # name $ name-`, env)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"+-------+",
		"| name  |",
		"+-------+",
		"| Eve   |",
		"| Dave  |",
		"| Carol |",
		"| Bob   |",
		"| Alice |",
		"+-------+",
	}, "\n")
	if diff := cmp.Diff(want, FormatResult(res)); diff != "" {
		t.Fatal(diff)
	}

	empty, err := Run(`E ? dept_id = 99 $ name`, env)
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatResult(empty); got != "(empty result)" {
		t.Fatalf("got %q, want the empty result placeholder", got)
	}
}

func TestFormatEmptyRelation(t *testing.T) {
	if got := FormatRelation(NewRelation(nil)); got != "(empty relation)" {
		t.Fatalf("got %q, want the empty relation placeholder", got)
	}
}
