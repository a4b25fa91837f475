package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// UserID is the backend's user identifier. It decodes from a JSON number or
// a JSON string and encodes integers back as numbers.
type UserID string

func (id UserID) String() string { return string(id) }

func (id UserID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// UserProfile is the cached copy of the signed-in user as returned by the
// backend on login, code check and profile fetch. The backend stays
// authoritative; the cache is overwritten whenever a fresh profile arrives.
type UserProfile struct {
	ID          UserID `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// Clone returns a copy that does not alias p.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
