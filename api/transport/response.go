package transport

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/scholarhub/client/domain"
)

// MessageResponse is the `{message}` shape returned by the OTP and password
// reset endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthResponse is the credential-issuing shape returned by login, register
// and the Google token exchange. Register may omit the tokens.
type AuthResponse struct {
	Access  string       `json:"access,omitempty"`
	Refresh string       `json:"refresh,omitempty"`
	Token   string       `json:"token,omitempty"` // legacy single-token shape
	User    *domain.User `json:"user,omitempty"`
}

// AccessToken returns the issued access token regardless of response shape.
func (r AuthResponse) AccessToken() string {
	if r.Access != "" {
		return r.Access
	}
	return r.Token
}

// ErrorMessage reduces a non-2xx response body to a single user-facing
// string. Precedence: `detail`, then `message`, then `error`, then
// `non_field_errors`, then every remaining field-level validation array
// joined in key order. An unparsable body yields the fallback.
func ErrorMessage(body []byte, fallback string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return fallback
	}

	for _, key := range []string{"detail", "message", "error"} {
		if raw, ok := fields[key]; ok {
			if msg := flatten(raw); msg != "" {
				return msg
			}
		}
	}

	if raw, ok := fields["non_field_errors"]; ok {
		if msg := flatten(raw); msg != "" {
			return msg
		}
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		if msg := flatten(fields[key]); msg != "" {
			parts = append(parts, msg)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}

// flatten renders a string, an array of strings, or any other JSON value as
// one display string.
func flatten(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var parts []string
		for _, item := range list {
			if msg := flatten(item); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, ", ")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil && v != nil {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// DecodeList accepts either a paginated `{results: [...]}` envelope or a
// bare JSON array, decoding the items into out (a pointer to a slice).
func DecodeList(body []byte, out any) error {
	var page struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err == nil && page.Results != nil {
		return json.Unmarshal(page.Results, out)
	}
	return json.Unmarshal(body, out)
}
