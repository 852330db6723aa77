package session

import (
	"bytes"
	"encoding/json"
)

// UnmarshalJSON accepts the id as JSON string or number.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID          json.RawMessage `json:"id"`
		Email       string          `json:"email"`
		DisplayName string          `json:"name"`
	}

	if err := json.Unmarshal(data, &wire); err != nil {
		return err //nolint: wrapcheck
	}

	id := bytes.TrimSpace(wire.ID)

	switch {
	case len(id) == 0, bytes.Equal(id, []byte("null")):
		i.ID = ""
	case id[0] == '"':
		if err := json.Unmarshal(id, &i.ID); err != nil {
			return err //nolint: wrapcheck
		}
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return err //nolint: wrapcheck
		}

		i.ID = n.String()
	}

	i.Email = wire.Email
	i.DisplayName = wire.DisplayName

	return nil
}
