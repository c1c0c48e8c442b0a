package store

import (
	"fmt"

	"github.com/togethercrew/engagement/internal/ir"
)

// marshalObject converts an object to canonical JSON TEXT for storage.
func marshalObject(field string, obj ir.Object) (string, error) {
	if obj == nil {
		obj = ir.Object{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", field, err)
	}
	return string(data), nil
}

// unmarshalObject parses a stored JSON TEXT column.
func unmarshalObject(field, text string) (ir.Object, error) {
	v, err := ir.UnmarshalValue([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", field, err)
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("unmarshal %s: want object, got %T", field, v)
	}
	return obj, nil
}
