package schema

// JSONSchema renders the schema as a JSON Schema object. Undeclared members
// stay allowed, matching Validate.
func (s Schema) JSONSchema() map[string]any {
	return objectSchema(s.Fields)
}

func objectSchema(fields []Field) map[string]any {
	props := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props[f.Name] = fieldSchema(f)
		if !f.Optional {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func fieldSchema(f Field) map[string]any {
	var out map[string]any
	switch f.Kind {
	case String:
		out = StringSchema()
	case StringList:
		out = StringArraySchema()
	case Number:
		out = NumberSchema()
	case Bool:
		out = BoolSchema()
	case Object:
		out = objectSchema(f.Fields)
	case ObjectList:
		out = map[string]any{"type": "array", "items": objectSchema(f.Fields)}
	default:
		out = map[string]any{}
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	return out
}

func StringSchema() map[string]any {
	return map[string]any{"type": "string"}
}

func StringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

func NumberSchema() map[string]any {
	return map[string]any{"type": "number"}
}

func BoolSchema() map[string]any {
	return map[string]any{"type": "boolean"}
}
