package types

import "encoding/json"

// OptionalString distinguishes an absent JSON field from an explicit null.
// Set is true whenever the field appeared in the payload; Value is nil for an
// explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON marks the field as present and captures the value (or null).
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// MarshalJSON renders the captured value, treating unset as null.
func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
