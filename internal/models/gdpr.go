package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/geni/gdpr-consent-api/pkg/utils"
)

// UserURNPrefix is the prefix every accepted user identifier starts with
const UserURNPrefix = "urn:publicid:IDN+"

// Recognized keys of the accept payload and of the stored field map
const (
	FieldAcceptMain     = "accept_main"
	FieldAcceptUserdata = "accept_userdata"
	FieldTestbedAccess  = "testbed_access"
)

var (
	// ErrStorageFailure marks any read or write failure of the consent store
	ErrStorageFailure = errors.New("consent storage failure")
	// ErrCorruptRecord marks a stored record that violates a record invariant
	ErrCorruptRecord = errors.New("corrupt consent record")
	// ErrInvalidUserURN marks a user identifier that cannot be used as a store key
	ErrInvalidUserURN = errors.New("invalid user URN")
)

// AcceptFields is the sanitized field map persisted for a user.
// TestbedAccess is derived and only ever set through NewAcceptFields.
type AcceptFields struct {
	AcceptMain     bool `json:"accept_main"`
	AcceptUserdata bool `json:"accept_userdata"`
	TestbedAccess  bool `json:"testbed_access"`
}

// NewAcceptFields builds the field map and computes the derived flag
func NewAcceptFields(acceptMain, acceptUserdata bool) AcceptFields {
	return AcceptFields{
		AcceptMain:     acceptMain,
		AcceptUserdata: acceptUserdata,
		TestbedAccess:  acceptMain && acceptUserdata,
	}
}

// Consistent reports whether the derived flag matches the two accept flags
func (f AcceptFields) Consistent() bool {
	return f.TestbedAccess == (f.AcceptMain && f.AcceptUserdata)
}

// GdprAccept is the decoded record of one user in the gdpr_accepts table
type GdprAccept struct {
	UserURN    string
	Fields     AcceptFields
	RecordedAt time.Time
}

// UserAccepts is the body of GET /gdpr/accept.
// Until carries the moment of the last registration, not an expiry.
type UserAccepts struct {
	User           string    `json:"user"`
	Until          time.Time `json:"until"`
	AcceptMain     bool      `json:"accept_main"`
	AcceptUserdata bool      `json:"accept_userdata"`
	TestbedAccess  bool      `json:"testbed_access"`
}

// MarshalJSON writes until with a numeric offset, matching the stored form
func (u UserAccepts) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		User           string `json:"user"`
		Until          string `json:"until"`
		AcceptMain     bool   `json:"accept_main"`
		AcceptUserdata bool   `json:"accept_userdata"`
		TestbedAccess  bool   `json:"testbed_access"`
	}{
		User:           u.User,
		Until:          utils.FormatTimestamp(u.Until),
		AcceptMain:     u.AcceptMain,
		AcceptUserdata: u.AcceptUserdata,
		TestbedAccess:  u.TestbedAccess,
	})
}

// AcceptRequest is the body of PUT /gdpr/accept. Unknown keys are ignored and
// absent keys stay false.
type AcceptRequest struct {
	AcceptMain     Flag `json:"accept_main"`
	AcceptUserdata Flag `json:"accept_userdata"`
}

// ErrNotJSONObject is returned when an accept payload is valid JSON but not an object
var ErrNotJSONObject = errors.New("accept payload must be a JSON object")

// ParseAcceptRequest decodes an accept payload. The payload must be a JSON
// object; values of the recognized keys are coerced to booleans.
func ParseAcceptRequest(data []byte) (AcceptRequest, error) {
	var req AcceptRequest
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		var v interface{}
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return req, err
		}
		return req, ErrNotJSONObject
	}
	// Decode through a map so key matching stays exact.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return req, err
	}
	if v, ok := raw[FieldAcceptMain]; ok {
		if err := json.Unmarshal(v, &req.AcceptMain); err != nil {
			return AcceptRequest{}, err
		}
	}
	if v, ok := raw[FieldAcceptUserdata]; ok {
		if err := json.Unmarshal(v, &req.AcceptUserdata); err != nil {
			return AcceptRequest{}, err
		}
	}
	return req, nil
}

// Flag is a boolean that accepts any JSON value and coerces it by truthiness:
// false, null, 0, "", [] and {} are false, everything else is true.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler
func (f *Flag) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Flag(truthy(v))
	return nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}
