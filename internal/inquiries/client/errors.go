package client

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"inquiry_desk/platform/apperr"
)

// ExtractMessage picks the user-facing message out of an API error body.
// It checks error, then detail, then the errors map, and falls back to
// apperr.GenericMessage.
func ExtractMessage(body []byte) string {
	var envelope struct {
		Error  json.RawMessage `json:"error"`
		Detail json.RawMessage `json:"detail"`
		Errors json.RawMessage `json:"errors"`
	}
	if len(body) == 0 || json.Unmarshal(body, &envelope) != nil {
		return apperr.GenericMessage
	}
	if msg := asText(envelope.Error); msg != "" {
		return msg
	}
	if msg := asText(envelope.Detail); msg != "" {
		return msg
	}
	if fields := decodeFieldErrors(envelope.Errors); len(fields) > 0 {
		return formatFieldErrors(fields)
	}
	if msgs := asTextList(envelope.Errors); len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}
	return apperr.GenericMessage
}

func fieldErrors(body []byte) map[string][]string {
	var envelope struct {
		Errors json.RawMessage `json:"errors"`
	}
	if len(body) == 0 || json.Unmarshal(body, &envelope) != nil {
		return nil
	}
	return decodeFieldErrors(envelope.Errors)
}

// decodeFieldErrors accepts {"field": "msg"} and {"field": ["msg", ...]}.
func decodeFieldErrors(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	var generic map[string]json.RawMessage
	if json.Unmarshal(raw, &generic) != nil {
		return nil
	}
	out := make(map[string][]string, len(generic))
	for field, value := range generic {
		if msg := asText(value); msg != "" {
			out[field] = []string{msg}
			continue
		}
		if msgs := asTextList(value); len(msgs) > 0 {
			out[field] = msgs
		}
	}
	return out
}

func formatFieldErrors(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(fields[name], ", ")))
	}
	return strings.Join(parts, "; ")
}

func asText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func asTextList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if json.Unmarshal(raw, &list) != nil {
		return nil
	}
	out := list[:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
