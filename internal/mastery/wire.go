package mastery

import (
	"bytes"
	"encoding/json"
)

// NullStatus is the nullable status wrapper the backend sends for each
// sentence: {"String": "mastered", "Valid": true}. It is converted to a
// Status at ingestion and never inspected past the API boundary.
type NullStatus struct {
	String string `json:"String"`
	Valid  bool   `json:"Valid"`
}

// UnmarshalJSON accepts null, a bare string, or the wrapper object.
func (n *NullStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = NullStatus{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NullStatus{String: s, Valid: s != ""}
		return nil
	}

	type wrapper NullStatus
	var w wrapper
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*n = NullStatus(w)
	return nil
}

// Status converts the wrapper. An invalid or absent wrapper is unattempted
// regardless of the string it carries.
func (n NullStatus) Status() Status {
	if !n.Valid {
		return StatusUnattempted
	}
	return ParseStatus(n.String)
}

// FromStatus builds the wire wrapper for s.
func FromStatus(s Status) NullStatus {
	if s == "" || s == StatusUnattempted {
		return NullStatus{}
	}
	return NullStatus{String: string(s), Valid: true}
}
