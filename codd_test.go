package codd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEngineRun(t *testing.T) {
	e := NewEngine()
	e.LoadSample()

	first, err := e.Run(`E /. [n: #.]`)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"n=5"}, resultText(first)); diff != "" {
		t.Fatal(diff)
	}

	// the second run hits the parse cache but must still evaluate
	// against the current environment
	small := NewRelation([]string{"emp_id", "name", "salary", "dept_id", "role"})
	small.add(NewTuple(map[string]Value{
		"emp_id":  IntValue(9),
		"name":    StringValue("Zoe"),
		"salary":  IntValue(1000),
		"dept_id": IntValue(10),
		"role":    StringValue("intern"),
	}))
	e.Env().Set("E", small)

	second, err := e.Run(`E /. [n: #.]`)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"n=1"}, resultText(second)); diff != "" {
		t.Fatal(diff)
	}
}

func TestEngineAssignment(t *testing.T) {
	e := NewEngine()
	e.LoadSample()

	if _, err := e.Run(`Engineers := E ? role = "engineer"`); err != nil {
		t.Fatal(err)
	}
	r, ok := e.Env().Get("Engineers")
	if !ok {
		t.Fatal("Engineers was not bound")
	}
	if r.Len() != 4 {
		t.Fatalf("got %d engineers, want 4", r.Len())
	}
}

func TestEngineParseErrorsAreNotCached(t *testing.T) {
	e := NewEngine()
	e.LoadSample()
	if _, err := e.Run(`E ?`); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := e.Run(`E ?`); err == nil {
		t.Fatal("expected an error on the repeated run too")
	}
}

func TestLoadSample(t *testing.T) {
	e := NewEngine()
	e.LoadSample()
	want := []string{"ContractorPay", "D", "E", "Phone"}
	if diff := cmp.Diff(want, e.Env().Names()); diff != "" {
		t.Fatal(diff)
	}
	rel, _ := e.Env().Get("E")
	if rel.Len() != 5 {
		t.Fatalf("E has %d tuples, want 5", rel.Len())
	}
}
