package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexBool coerces the backend's inconsistent success-flag serialization
// at the deserialization boundary: both boolean true and string "true"
// decode to true, so internal logic only ever sees a real boolean.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = FlexBool(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = FlexBool(strings.EqualFold(s, "true"))
		return nil
	}

	// Anything else (null, numbers, objects) is not a success signal
	*b = false
	return nil
}

func (b FlexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

// Bool unwraps the coerced value
func (b FlexBool) Bool() bool {
	return bool(b)
}
