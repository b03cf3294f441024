package schema_test

import (
	"testing"

	j "github.com/goccy/go-json"

	"github.com/reoring/jsonish/jsonschema"
	"github.com/reoring/jsonish/schema"
)

func TestJSONSchema_Resume(t *testing.T) {
	doc, err := schema.LoadFile("testdata/resume.yaml")
	if err != nil {
		t.Fatal(err)
	}
	s, err := schema.JSONSchema(doc.Registry, doc.Root)
	if err != nil {
		t.Fatal(err)
	}
	if s.Ref != jsonschema.DefRef("Resume") || s.Schema != jsonschema.Draft {
		t.Fatalf("root = %+v", s)
	}
	res := s.Defs["Resume"]
	if res == nil || res.Type != "object" {
		t.Fatalf("Resume def = %+v", res)
	}
	if got := res.Required; len(got) != 3 || got[0] != "name" || got[2] != "jobs" {
		t.Fatalf("required = %v", got)
	}
	if res.AdditionalProperties != nil {
		t.Fatalf("open record must allow extras")
	}
	if jobs := res.Properties["jobs"]; jobs.Type != "array" || jobs.Items.Ref != jsonschema.DefRef("Job") {
		t.Fatalf("jobs = %+v", jobs)
	}
	if lvl := s.Defs["Seniority"]; len(lvl.Enum) != 2 {
		t.Fatalf("Seniority = %+v", lvl)
	}
	if note := res.Properties["note"]; len(note.AnyOf) != 2 || note.AnyOf[1].Type != "null" {
		t.Fatalf("note = %+v", note)
	}
}

func TestJSONSchema_RecursiveAliasTerminates(t *testing.T) {
	doc, err := schema.LoadFile("testdata/resume.yaml")
	if err != nil {
		t.Fatal(err)
	}
	s, err := schema.JSONSchema(doc.Registry, schema.Named("JsonValue"))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := j.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	def := s.Defs["JsonValue"]
	if def == nil || len(def.AnyOf) != 7 {
		t.Fatalf("JsonValue def = %s", raw)
	}
	if def.AnyOf[5].Items.Ref != jsonschema.DefRef("JsonValue") {
		t.Fatalf("list variant must refer back: %s", raw)
	}
}

func TestJSONSchema_LiteralAndClosedRecord(t *testing.T) {
	reg := schema.NewRegistry()
	rec := &schema.Record{Name: "Flag", Fields: []schema.Field{
		{Name: "on", Type: schema.NewLiteral(false)},
		{Name: "n", Type: schema.IntT(), Optional: true},
	}}
	if err := reg.Add(rec); err != nil {
		t.Fatal(err)
	}
	s, err := schema.JSONSchema(reg, rec)
	if err != nil {
		t.Fatal(err)
	}
	def := s.Defs["Flag"]
	if def.AdditionalProperties != false {
		t.Fatalf("closed record must forbid extras")
	}
	if def.Properties["on"].Const != false || len(def.Required) != 1 {
		t.Fatalf("def = %+v", def)
	}
	raw, _ := j.Marshal(def.Properties["on"])
	if string(raw) != `{"const":false}` {
		t.Fatalf("const encoding = %s", raw)
	}
}
