package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/boxoffice/internal/ir"
)

// marshalValues stores args and results as canonical JSON TEXT.
func marshalValues(v ir.Values) (string, error) {
	if v == nil {
		v = ir.Values{}
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

// unmarshalValues decodes directly into int64, so amounts above 2^53
// survive without passing through float64. Empty objects decode to nil.
func unmarshalValues(data string) (ir.Values, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var v ir.Values
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	return v, nil
}
