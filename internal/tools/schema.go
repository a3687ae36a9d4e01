package tools

import (
	"fmt"

	"dexter/pkg/errors"
)

// ArgField describes one argument a tool accepts.
type ArgField struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "string" or "int"
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// ArgSchema is the declared argument schema of a tool.
type ArgSchema struct {
	Fields []ArgField `json:"fields"`
}

// Field returns the schema field with the given name.
func (s ArgSchema) Field(name string) (ArgField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ArgField{}, false
}

// MissingRequired returns the names of required fields that are absent
// or empty in args.
func (s ArgSchema) MissingRequired(args map[string]interface{}) []string {
	var missing []string
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		v, ok := args[f.Name]
		if !ok || v == nil {
			missing = append(missing, f.Name)
			continue
		}
		if str, isStr := v.(string); isStr && str == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Validate checks args against the schema: all required fields present
// and every provided field carries the declared type.
func (s ArgSchema) Validate(args map[string]interface{}) error {
	if missing := s.MissingRequired(args); len(missing) > 0 {
		return errors.Wrapf(errors.ErrArgValidation, "missing required arguments: %v", missing)
	}

	for name, value := range args {
		field, ok := s.Field(name)
		if !ok {
			return errors.Wrapf(errors.ErrArgValidation, "unknown argument %q", name)
		}
		if err := checkType(field, value); err != nil {
			return err
		}
	}

	return nil
}

func checkType(field ArgField, value interface{}) error {
	if value == nil {
		return nil
	}
	switch field.Type {
	case "string":
		if _, ok := value.(string); !ok {
			return errors.Wrapf(errors.ErrArgValidation, "argument %q must be a string, got %T", field.Name, value)
		}
	case "int":
		switch value.(type) {
		case int, int32, int64, float64:
		default:
			return errors.Wrapf(errors.ErrArgValidation, "argument %q must be an integer, got %T", field.Name, value)
		}
	default:
		return errors.Newf("schema field %q has unsupported type %q", field.Name, field.Type)
	}
	return nil
}

// IntArg reads an integer argument, tolerating JSON float decoding.
func IntArg(args map[string]interface{}, name string, fallback int) int {
	v, ok := args[name]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}

// StringArg reads a string argument.
func StringArg(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

// String renders the schema compactly for logs.
func (s ArgSchema) String() string {
	out := ""
	for i, f := range s.Fields {
		if i > 0 {
			out += ", "
		}
		req := ""
		if f.Required {
			req = "!"
		}
		out += fmt.Sprintf("%s%s:%s", f.Name, req, f.Type)
	}
	return out
}
