package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an identifier the API sends either as a JSON string or a JSON
// number. Both decode to the same textual form.
type ID string

// UnmarshalJSON accepts "abc", 42 and null (which leaves the ID empty).
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }
