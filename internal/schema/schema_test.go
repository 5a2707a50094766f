package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roadmap = Schema{
	Name: "roadmap",
	Fields: []Field{
		Objs("steps", Str("name"), Str("description"), Str("timeframe").Opt()),
	},
}

var idea = Schema{
	Name: "idea",
	Fields: []Field{
		Str("name"),
		Str("description"),
		Obj("analysis", List("merits"), List("demerits"), List("suggestions")),
		Num("score").Opt(),
	},
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		schema  Schema
		in      string
		path    string
		missing bool
	}{
		{name: "ok", schema: idea, in: `{"name":"a","description":"b","analysis":{"merits":[],"demerits":["x"],"suggestions":["y"]}}`},
		{name: "extra fields pass", schema: idea, in: `{"name":"a","description":"b","extra":1,"analysis":{"merits":[],"demerits":[],"suggestions":[],"more":true}}`},
		{name: "optional null", schema: idea, in: `{"name":"a","description":"b","score":null,"analysis":{"merits":[],"demerits":[],"suggestions":[]}}`},
		{name: "missing nested", schema: idea, in: `{"name":"a","description":"b","analysis":{"demerits":[],"suggestions":[]}}`, path: "analysis.merits", missing: true},
		{name: "wrong list item", schema: idea, in: `{"name":"a","description":"b","analysis":{"merits":["ok",3],"demerits":[],"suggestions":[]}}`, path: "analysis.merits[1]"},
		{name: "wrong top-level type", schema: idea, in: `{"name":7,"description":"b","analysis":{"merits":[],"demerits":[],"suggestions":[]}}`, path: "name"},
		{name: "optional wrong type", schema: idea, in: `{"name":"a","description":"b","score":"high","analysis":{"merits":[],"demerits":[],"suggestions":[]}}`, path: "score"},
		{name: "object list item", schema: roadmap, in: `{"steps":[{"name":"a","description":"b"},{"description":"c"}]}`, path: "steps[1].name", missing: true},
		{name: "object list not array", schema: roadmap, in: `{"steps":{"name":"a"}}`, path: "steps"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.schema.Validate(decode(t, tc.in))
			if tc.path == "" {
				require.NoError(t, err)
				return
			}
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "want FieldError, got %v", err)
			assert.Equal(t, tc.path, fe.Path)
			assert.Equal(t, tc.missing, fe.Missing)
		})
	}
}

func TestCheck(t *testing.T) {
	require.NoError(t, idea.Check())
	require.NoError(t, roadmap.Check())

	bad := []Schema{
		{},
		{Name: "x"},
		{Name: "x", Fields: []Field{Str("a"), Str("a")}},
		{Name: "x", Fields: []Field{Obj("a")}},
		{Name: "x", Fields: []Field{{Name: "a", Kind: String, Fields: []Field{Str("b")}}}},
		{Name: "x", Fields: []Field{{Name: "a"}}},
	}
	for i, s := range bad {
		assert.Error(t, s.Check(), "case %d", i)
	}
}

func TestJSONSchema(t *testing.T) {
	js := idea.JSONSchema()
	assert.Equal(t, "object", js["type"])
	assert.Equal(t, []string{"name", "description", "analysis"}, js["required"])

	props := js["properties"].(map[string]any)
	analysis := props["analysis"].(map[string]any)
	assert.Equal(t, "object", analysis["type"])
	merits := analysis["properties"].(map[string]any)["merits"].(map[string]any)
	assert.Equal(t, "array", merits["type"])

	steps := roadmap.JSONSchema()["properties"].(map[string]any)["steps"].(map[string]any)
	assert.Equal(t, "array", steps["type"])
	items := steps["items"].(map[string]any)
	assert.Equal(t, []string{"name", "description"}, items["required"])
}
