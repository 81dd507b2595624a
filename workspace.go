package codd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// A workspace file is a JSON snapshot of an environment. Decimals are
// stored as strings to survive the round trip, and relation-valued
// attributes nest recursively.
const workspaceVersion = 1

type workspaceFile struct {
	Version   int                          `json:"version"`
	Relations map[string]workspaceRelation `json:"relations"`
}

type workspaceRelation struct {
	Attributes map[string]string `json:"attributes"`
	Tuples     []map[string]any  `json:"tuples"`
}

const (
	tagString   = "str"
	tagInt      = "int"
	tagBool     = "bool"
	tagDecimal  = "Decimal"
	tagRelation = "Relation"
)

// SaveWorkspace writes every relation in the environment to w.
func SaveWorkspace(env *Environment, w io.Writer) error {
	doc := workspaceFile{
		Version:   workspaceVersion,
		Relations: map[string]workspaceRelation{},
	}
	for _, name := range env.Names() {
		r, _ := env.Get(name)
		wr, err := encodeRelation(r)
		if err != nil {
			return errors.Wrapf(err, "saving relation %q", name)
		}
		doc.Relations[name] = wr
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(doc), "writing the workspace")
}

func encodeRelation(r *Relation) (workspaceRelation, error) {
	wr := workspaceRelation{
		Attributes: map[string]string{},
		Tuples:     []map[string]any{},
	}
	tuples := r.Tuples()
	for _, attr := range r.Attrs() {
		tag := tagString
		if len(tuples) > 0 {
			v, _ := tuples[0].Get(attr)
			tag = typeTag(v.Type)
		}
		wr.Attributes[attr] = tag
	}
	for _, t := range tuples {
		row := make(map[string]any, t.Len())
		for _, attr := range t.Attrs() {
			v, _ := t.Get(attr)
			encoded, err := encodeValue(v)
			if err != nil {
				return wr, err
			}
			row[attr] = encoded
		}
		wr.Tuples = append(wr.Tuples, row)
	}
	return wr, nil
}

func typeTag(t ValueTypeID) string {
	switch t {
	case Int:
		return tagInt
	case Decimal:
		return tagDecimal
	case Bool:
		return tagBool
	case Rel:
		return tagRelation
	default:
		return tagString
	}
}

func encodeValue(v Value) (any, error) {
	switch v.Type {
	case Int:
		return v.Data.(int64), nil
	case Decimal:
		return v.Data.(decimal.Decimal).String(), nil
	case Bool:
		return v.Data.(bool), nil
	case String:
		return v.Data.(string), nil
	case Rel:
		return encodeRelation(v.Data.(*Relation))
	default:
		return nil, errors.Errorf("can't save a value of type %s", getValueTypeName(v.Type))
	}
}

// LoadWorkspace reads a workspace snapshot and binds its relations
// into the environment, replacing bindings with the same names.
func LoadWorkspace(env *Environment, r io.Reader) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc workspaceFile
	if err := dec.Decode(&doc); err != nil {
		return errors.Wrap(err, "reading the workspace")
	}
	if doc.Version != workspaceVersion {
		return errors.Errorf("unsupported workspace version %d", doc.Version)
	}
	if doc.Relations == nil {
		return errors.New("the workspace has no relations section")
	}
	for name, wr := range doc.Relations {
		rel, err := decodeRelation(wr)
		if err != nil {
			return errors.Wrapf(err, "loading relation %q", name)
		}
		env.Set(name, rel)
	}
	return nil
}

func decodeRelation(wr workspaceRelation) (*Relation, error) {
	attrs := make([]string, 0, len(wr.Attributes))
	for attr := range wr.Attributes {
		attrs = append(attrs, attr)
	}
	out := NewRelation(attrs)
	for _, row := range wr.Tuples {
		data := make(map[string]Value, len(row))
		for attr, raw := range row {
			tag, ok := wr.Attributes[attr]
			if !ok {
				return nil, errors.Errorf("tuple attribute %q is not declared", attr)
			}
			v, err := decodeValue(raw, tag)
			if err != nil {
				return nil, err
			}
			data[attr] = v
		}
		out.add(NewTuple(data))
	}
	return out, nil
}

func decodeValue(raw any, tag string) (Value, error) {
	switch tag {
	case tagInt:
		num, ok := raw.(json.Number)
		if !ok {
			return Value{}, errors.Errorf("expected an integer, got %v", raw)
		}
		n, err := strconv.ParseInt(num.String(), 10, 64)
		if err != nil {
			return Value{}, errors.Errorf("invalid integer %q", num.String())
		}
		return IntValue(n), nil
	case tagDecimal:
		s, ok := raw.(string)
		if !ok {
			return Value{}, errors.Errorf("expected a decimal string, got %v", raw)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Value{}, errors.Errorf("invalid decimal %q", s)
		}
		return DecimalValue(d), nil
	case tagBool:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, errors.Errorf("expected a boolean, got %v", raw)
		}
		return BoolValue(b), nil
	case tagString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, errors.Errorf("expected a string, got %v", raw)
		}
		return StringValue(s), nil
	case tagRelation:
		obj, ok := raw.(map[string]any)
		if !ok {
			return Value{}, errors.Errorf("expected a nested relation, got %v", raw)
		}
		var wr workspaceRelation
		encoded, err := json.Marshal(obj)
		if err != nil {
			return Value{}, errors.Wrap(err, "re-encoding a nested relation")
		}
		dec := json.NewDecoder(bytes.NewReader(encoded))
		dec.UseNumber()
		if err := dec.Decode(&wr); err != nil {
			return Value{}, errors.Wrap(err, "decoding a nested relation")
		}
		rel, err := decodeRelation(wr)
		if err != nil {
			return Value{}, err
		}
		return RelationValue(rel), nil
	default:
		return Value{}, errors.Errorf("unknown type tag %q", tag)
	}
}

// SaveWorkspaceFile and LoadWorkspaceFile are the path-based wrappers
// used by the command line.
func SaveWorkspaceFile(env *Environment, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating the workspace file")
	}
	if err := SaveWorkspace(env, f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "closing the workspace file")
}

func LoadWorkspaceFile(env *Environment, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening the workspace file")
	}
	defer f.Close()
	return LoadWorkspace(env, f)
}

// IsWorkspaceFile reports whether the file looks like a workspace
// snapshot rather than plain data: a JSON object with version and
// relations keys.
func IsWorkspaceFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, hasVersion := probe["version"]
	_, hasRelations := probe["relations"]
	return hasVersion && hasRelations
}
