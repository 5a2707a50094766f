// Package schema declares the shape a structured model reply must have and
// checks decoded JSON against it.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Kind int

const (
	String Kind = iota + 1
	StringList
	Number
	Bool
	Object
	ObjectList
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case StringList:
		return "string list"
	case Number:
		return "number"
	case Bool:
		return "boolean"
	case Object:
		return "object"
	case ObjectList:
		return "object list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is one named member of an object. Fields holds the members of an
// Object, or of each item of an ObjectList.
type Field struct {
	Name        string
	Kind        Kind
	Optional    bool
	Description string
	Fields      []Field
}

type Schema struct {
	Name   string
	Fields []Field
}

func Str(name string) Field  { return Field{Name: name, Kind: String} }
func List(name string) Field { return Field{Name: name, Kind: StringList} }
func Num(name string) Field  { return Field{Name: name, Kind: Number} }
func Flag(name string) Field { return Field{Name: name, Kind: Bool} }

func Obj(name string, fields ...Field) Field {
	return Field{Name: name, Kind: Object, Fields: fields}
}

func Objs(name string, fields ...Field) Field {
	return Field{Name: name, Kind: ObjectList, Fields: fields}
}

// Opt marks the field as optional.
func (f Field) Opt() Field {
	f.Optional = true
	return f
}

// Desc attaches a description, surfaced in the JSON Schema rendering.
func (f Field) Desc(d string) Field {
	f.Description = d
	return f
}

// Check reports declaration mistakes: empty or duplicate names, unknown kinds,
// objects without members.
func (s Schema) Check() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("schema: missing name")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %s: no fields", s.Name)
	}
	return checkFields(s.Name, s.Fields)
}

func checkFields(prefix string, fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("schema %s: field with empty name", prefix)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %s: duplicate field %q", prefix, f.Name)
		}
		seen[f.Name] = struct{}{}
		switch f.Kind {
		case String, StringList, Number, Bool:
			if len(f.Fields) > 0 {
				return fmt.Errorf("schema %s.%s: %s cannot have members", prefix, f.Name, f.Kind)
			}
		case Object, ObjectList:
			if len(f.Fields) == 0 {
				return fmt.Errorf("schema %s.%s: %s needs members", prefix, f.Name, f.Kind)
			}
			if err := checkFields(prefix+"."+f.Name, f.Fields); err != nil {
				return err
			}
		default:
			return fmt.Errorf("schema %s.%s: unknown kind %d", prefix, f.Name, int(f.Kind))
		}
	}
	return nil
}

// FieldError identifies the first field that does not conform. Path uses
// dots for members and [i] for list items, e.g. "steps[1].name".
type FieldError struct {
	Path    string
	Want    Kind
	Got     string
	Missing bool
}

func (e *FieldError) Error() string {
	if e.Missing {
		return fmt.Sprintf("missing required field %q", e.Path)
	}
	return fmt.Sprintf("field %q: want %s, got %s", e.Path, e.Want, e.Got)
}

// Validate checks a decoded JSON object. Members not declared in the schema
// are ignored. Optional members may be absent or null.
func (s Schema) Validate(obj map[string]any) error {
	return validateObject("", s.Fields, obj)
}

func validateObject(prefix string, fields []Field, obj map[string]any) error {
	for _, f := range fields {
		path := join(prefix, f.Name)
		v, ok := obj[f.Name]
		if !ok || v == nil {
			if f.Optional {
				continue
			}
			return &FieldError{Path: path, Want: f.Kind, Missing: true}
		}
		if err := validateValue(path, f, v); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, f Field, v any) error {
	switch f.Kind {
	case String:
		if _, ok := v.(string); !ok {
			return mismatch(path, f.Kind, v)
		}
	case Number:
		if !isNumber(v) {
			return mismatch(path, f.Kind, v)
		}
	case Bool:
		if _, ok := v.(bool); !ok {
			return mismatch(path, f.Kind, v)
		}
	case StringList:
		items, ok := v.([]any)
		if !ok {
			return mismatch(path, f.Kind, v)
		}
		for i, it := range items {
			if _, ok := it.(string); !ok {
				return mismatch(fmt.Sprintf("%s[%d]", path, i), String, it)
			}
		}
	case Object:
		m, ok := v.(map[string]any)
		if !ok {
			return mismatch(path, f.Kind, v)
		}
		return validateObject(path, f.Fields, m)
	case ObjectList:
		items, ok := v.([]any)
		if !ok {
			return mismatch(path, f.Kind, v)
		}
		for i, it := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			m, ok := it.(map[string]any)
			if !ok {
				return mismatch(itemPath, Object, it)
			}
			if err := validateObject(itemPath, f.Fields, m); err != nil {
				return err
			}
		}
	}
	return nil
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32, json.Number:
		return true
	default:
		return false
	}
}

func mismatch(path string, want Kind, v any) *FieldError {
	return &FieldError{Path: path, Want: want, Got: jsonType(v)}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
