package codd

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadCSV(t *testing.T) {
	t.Run("column type inference", func(t *testing.T) {
		src := "id,price,active,name\n1,9.50,true,Ada\n2,12.00,false,Bob\n"
		r, err := LoadCSV(strings.NewReader(src))
		if err != nil {
			t.Fatal(err)
		}
		want := []string{
			"active=true id=1 name=Ada price=9.5",
			"active=false id=2 name=Bob price=12",
		}
		if diff := cmp.Diff(want, resultText(r)); diff != "" {
			t.Fatal(diff)
		}
	})
	t.Run("a single stray letter widens a column to string", func(t *testing.T) {
		src := "id\n1\n2\nx\n"
		r, err := LoadCSV(strings.NewReader(src))
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"id=1", "id=2", "id=x"}
		if diff := cmp.Diff(want, resultText(r)); diff != "" {
			t.Fatal(diff)
		}
	})
	t.Run("rows of the wrong width are skipped", func(t *testing.T) {
		src := "a,b\n1,2\n3\n4,5,6\n7,8\n"
		r, err := LoadCSV(strings.NewReader(src))
		if err != nil {
			t.Fatal(err)
		}
		if r.Len() != 2 {
			t.Fatalf("got %d tuples, want 2", r.Len())
		}
	})
	t.Run("empty cells stay empty strings", func(t *testing.T) {
		src := "id,note\n1,\n2,fine\n"
		r, err := LoadCSV(strings.NewReader(src))
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"id=1 note=", "id=2 note=fine"}
		if diff := cmp.Diff(want, resultText(r)); diff != "" {
			t.Fatal(diff)
		}
	})
	t.Run("headers only yield an empty relation with the schema", func(t *testing.T) {
		r, err := LoadCSV(strings.NewReader("a,b\n"))
		if err != nil {
			t.Fatal(err)
		}
		if r.Len() != 0 {
			t.Fatalf("got %d tuples, want 0", r.Len())
		}
		if diff := cmp.Diff([]string{"a", "b"}, r.Attrs()); diff != "" {
			t.Fatal(diff)
		}
	})
	t.Run("no header row", func(t *testing.T) {
		if _, err := LoadCSV(strings.NewReader("")); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestLoadTSV(t *testing.T) {
	src := "id\tname\n1\tAda\n"
	r, err := LoadTSV(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"id=1 name=Ada"}
	if diff := cmp.Diff(want, resultText(r)); diff != "" {
		t.Fatal(diff)
	}
}

func TestLoadJSON(t *testing.T) {
	t.Run("flat objects", func(t *testing.T) {
		src := `[{"id": 1, "name": "Ada", "score": 9.5}, {"id": 2, "name": "Bob", "ok": true}]`
		r, err := LoadJSON(strings.NewReader(src))
		if err != nil {
			t.Fatal(err)
		}
		want := []string{
			"id=1 name=Ada ok= score=9.5",
			"id=2 name=Bob ok=true score=",
		}
		if diff := cmp.Diff(want, resultText(r)); diff != "" {
			t.Fatal(diff)
		}
	})
	t.Run("nested structures are rejected", func(t *testing.T) {
		src := `[{"id": [1, 2]}]`
		if _, err := LoadJSON(strings.NewReader(src)); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestGenerateKey(t *testing.T) {
	src := "name\nAda\nBob\n"
	r, err := LoadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	keyed, err := GenerateKey(r, "person")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"name", "person_id"}, keyed.Attrs()); diff != "" {
		t.Fatal(diff)
	}
	want := []string{"name=Ada person_id=1", "name=Bob person_id=2"}
	if diff := cmp.Diff(want, resultText(keyed)); diff != "" {
		t.Fatal(diff)
	}

	if _, err := GenerateKey(keyed, "person"); err == nil {
		t.Fatal("expected an error for an existing key column")
	}
}
