package session

import (
	"encoding/json"
	"errors"
	"strings"
)

var errProfileEmpty = errors.New("empty profile payload")

// EncodeProfile serializes a profile into the JSON form kept under the
// profile key.
func EncodeProfile(p *UserProfile) (string, error) {
	if p == nil {
		return "", errors.New("nil profile")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeProfile parses a stored profile. Blank input, the literal "null" and
// anything that is not a JSON object are reported as errors so callers can
// treat them as absent.
func DecodeProfile(raw string) (*UserProfile, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil, errProfileEmpty
	}
	if !strings.HasPrefix(trimmed, "{") {
		return nil, errors.New("profile payload is not an object")
	}

	var p UserProfile
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
