package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/wimi/internal/ir"
)

// marshalSpec converts an IntentSpec to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so the stored bytes match the spec hash.
func marshalSpec(spec ir.IntentSpec) (string, error) {
	data, err := spec.CanonicalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal spec: %w", err)
	}
	return string(data), nil
}

// unmarshalSpec parses canonical JSON TEXT back into an IntentSpec.
// The spec's json tags mirror the canonical key names.
func unmarshalSpec(data string) (ir.IntentSpec, error) {
	var spec ir.IntentSpec
	if data == "" {
		return spec, nil
	}
	if err := json.Unmarshal([]byte(data), &spec); err != nil {
		return ir.IntentSpec{}, fmt.Errorf("unmarshal spec: %w", err)
	}
	return spec, nil
}
