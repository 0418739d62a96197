// Package blueprint loads and validates the versioned desired-state
// configuration for a synthetic tenant. A blueprint is read from YAML once
// per invocation; any validation failure aborts before the engine makes a
// single remote call.
package blueprint

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidationError names the blueprint field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("blueprint invalid: %s %s", e.Field, e.Reason)
}

var structValidator = validator.New()

// Load reads, parses, and validates a blueprint file.
func Load(path string) (*Blueprint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blueprint: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates blueprint YAML. Unknown fields are rejected
// so typos fail loudly instead of silently falling back to defaults.
func Parse(raw []byte) (*Blueprint, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var bp Blueprint
	if err := dec.Decode(&bp); err != nil {
		return nil, fmt.Errorf("parse blueprint: %w", err)
	}
	if err := Validate(&bp); err != nil {
		return nil, err
	}
	return &bp, nil
}

// Validate checks struct tags plus the cross-field rules the tags cannot
// express. It returns the first violation found.
func Validate(bp *Blueprint) error {
	if bp.Version != SchemaVersion {
		return &ValidationError{Field: "version", Reason: fmt.Sprintf("must be %d", SchemaVersion)}
	}

	if err := structValidator.Struct(bp); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{
				Field:  fieldPath(fe.Namespace()),
				Reason: fmt.Sprintf("failed %q constraint", fe.Tag()),
			}
		}
		return err
	}

	// License IDs are meaningless unless assignment is enabled, and
	// mandatory when it is.
	if bp.Licenses.Assign {
		if bp.Licenses.ProductID == "" || bp.Licenses.ProductID == "<required>" {
			return &ValidationError{Field: "licenses.product_id", Reason: "is required when licenses.assign is true"}
		}
		if bp.Licenses.SKUID == "" || bp.Licenses.SKUID == "<required>" {
			return &ValidationError{Field: "licenses.sku_id", Reason: "is required when licenses.assign is true"}
		}
	}
	return nil
}

// fieldPath converts a validator namespace like "Blueprint.Docs.Generation.Mode"
// into the blueprint's YAML spelling "docs.generation.mode".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = toSnake(part)
	}
	return strings.Join(parts, ".")
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prev := rune(name[i-1])
			if prev < 'A' || prev > 'Z' {
				b.WriteByte('_')
			}
		}
		if upper {
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
