package apiclient

import (
	"bytes"
	"encoding/json"
)

// Response shape discriminators the backend may send alongside the envelope.
const (
	KindList   = "list"
	KindSingle = "single"
)

// Envelope is the wrapper around every backend response.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Kind    string              `json:"kind,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// DecodeEnvelope parses body as an envelope. Bodies that are not wrapped are
// returned as the envelope data.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	fields, ok := objectFields(body)
	if !ok || !isEnvelope(fields) {
		return &Envelope{Success: true, Data: json.RawMessage(body)}, nil
	}
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Unwrap strips the envelope from a read response. Exactly one level of data
// is removed, plus a second one when the inner value is a paginated list
// ({data: [...], meta, links}). An explicit kind field overrides the
// paginated-list detection.
func Unwrap(body []byte) (json.RawMessage, error) {
	fields, ok := objectFields(body)
	if !ok || !isEnvelope(fields) {
		return json.RawMessage(body), nil
	}
	data := fields["data"]

	var kind string
	if raw, ok := fields["kind"]; ok {
		_ = json.Unmarshal(raw, &kind)
	}
	switch kind {
	case KindSingle:
		return data, nil
	case KindList:
		if inner, ok := paginatedItems(data); ok {
			return inner, nil
		}
		return data, nil
	}

	if inner, ok := paginatedItems(data); ok {
		return inner, nil
	}
	return data, nil
}

func isEnvelope(fields map[string]json.RawMessage) bool {
	_, hasSuccess := fields["success"]
	_, hasData := fields["data"]
	return hasSuccess && hasData
}

func paginatedItems(data json.RawMessage) (json.RawMessage, bool) {
	fields, ok := objectFields(data)
	if !ok {
		return nil, false
	}
	inner, ok := fields["data"]
	if !ok {
		return nil, false
	}
	trimmed := bytes.TrimSpace(inner)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	return inner, true
}

func objectFields(raw []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}
