package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/yungbote/founderflow-backend/internal/schema"
)

// Field is one allowed input. Order in Spec.Fields is the order fields are
// rendered in.
type Field struct {
	Key         string
	Label       string
	Suggestions []string
}

// Spec is the declaration format for a template. Task may use Go template
// syntax over the request fields, e.g. {{.industry}}; missing keys render empty.
type Spec struct {
	Name     string
	Version  int
	Title    string
	Preamble string
	Task     string
	Fields   []Field
	Schema   schema.Schema
	Example  string
}

// Template is a compiled Spec.
type Template struct {
	Name     string
	Version  int
	Title    string
	Preamble string
	Fields   []Field
	Schema   schema.Schema
	Example  string

	task *template.Template
}

// Compile validates a Spec and parses its task text. The worked example must
// itself be a JSON object that satisfies the schema.
func Compile(s Spec) (*Template, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return nil, fmt.Errorf("missing template name")
	}
	if s.Version <= 0 {
		return nil, fmt.Errorf("invalid version for %s", name)
	}
	if strings.TrimSpace(s.Preamble) == "" {
		return nil, fmt.Errorf("missing preamble for %s", name)
	}
	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("%s declares no fields", name)
	}
	seen := map[string]struct{}{}
	fields := make([]Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		f.Key = strings.TrimSpace(f.Key)
		if f.Key == "" {
			return nil, fmt.Errorf("%s: field with empty key", name)
		}
		if _, dup := seen[f.Key]; dup {
			return nil, fmt.Errorf("%s: duplicate field %q", name, f.Key)
		}
		seen[f.Key] = struct{}{}
		if strings.TrimSpace(f.Label) == "" {
			f.Label = f.Key
		}
		fields = append(fields, f)
	}
	if err := s.Schema.Check(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	example := strings.TrimSpace(s.Example)
	var decoded map[string]any
	if err := json.Unmarshal([]byte(example), &decoded); err != nil {
		return nil, fmt.Errorf("%s: example is not a JSON object: %w", name, err)
	}
	if err := s.Schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("%s: example does not match schema: %w", name, err)
	}
	task, err := template.New(name).Option("missingkey=zero").Parse(strings.TrimSpace(s.Task))
	if err != nil {
		return nil, fmt.Errorf("%s task template parse: %w", name, err)
	}
	return &Template{
		Name:     name,
		Version:  s.Version,
		Title:    strings.TrimSpace(s.Title),
		Preamble: strings.TrimSpace(s.Preamble),
		Fields:   fields,
		Schema:   s.Schema,
		Example:  example,
		task:     task,
	}, nil
}

// Keys lists the declared field keys in render order.
func (t *Template) Keys() []string {
	out := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.Key
	}
	return out
}

// JSONSchema is the output schema as a JSON Schema document.
func (t *Template) JSONSchema() map[string]any {
	return t.Schema.JSONSchema()
}

// Render builds the instruction for req. It touches no clock, randomness or
// I/O, so equal inputs give byte-identical output.
func (t *Template) Render(req Request) (Prompt, error) {
	values := make(map[string]string, len(t.Fields))
	filled := false
	for _, f := range t.Fields {
		v := strings.TrimSpace(req[f.Key])
		values[f.Key] = v
		if v != "" {
			filled = true
		}
	}
	if !filled {
		return Prompt{}, &ValidationError{Template: t.Name, Fields: t.Keys()}
	}

	var task bytes.Buffer
	if err := t.task.Execute(&task, values); err != nil {
		return Prompt{}, fmt.Errorf("%s: render task: %w", t.Name, err)
	}

	var b strings.Builder
	b.WriteString(t.Preamble)
	if s := strings.TrimSpace(task.String()); s != "" {
		b.WriteString("\n\n")
		b.WriteString(s)
	}
	b.WriteString("\n\nDetails:\n")
	for _, f := range t.Fields {
		if v := values[f.Key]; v != "" {
			b.WriteString("- ")
			b.WriteString(f.Label)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nRespond with a single JSON object in exactly this format:\n```json\n")
	b.WriteString(t.Example)
	b.WriteString("\n```")

	return Prompt{
		Template: t.Name,
		Version:  t.Version,
		Text:     b.String(),
		Schema:   t.Schema,
	}, nil
}
