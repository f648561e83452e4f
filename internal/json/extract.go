// Package json extracts JSON objects from language-model output.
//
// Models asked for "JSON only" still wrap the object in markdown fences or
// surround it with prose. Everything here is pure string handling so callers
// can treat the model output as untrusted input and test it in isolation.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoObject is returned when no JSON object can be found in a response.
var ErrNoObject = errors.New("no JSON object found in response")

// StripCodeFences removes a surrounding markdown code fence, including an
// optional info string such as "json", and trims whitespace.
func StripCodeFences(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		// Drop the info string up to the first newline ("json", "JSON", ...).
		if nl := strings.IndexByte(trimmed, '\n'); nl != -1 {
			info := strings.TrimSpace(trimmed[:nl])
			if !strings.ContainsAny(info, "{[") {
				trimmed = trimmed[nl+1:]
			}
		} else {
			trimmed = strings.TrimPrefix(trimmed, "json")
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	return trimmed
}

// ExtractObject returns the JSON object portion of a response:
//  1. the whole (fence-stripped) response when it is a JSON object
//  2. otherwise the span from the first '{' to the last '}' when that parses
//
// Brace matching is positional, so two separate objects in one response are
// rejected rather than merged.
func ExtractObject(response string) (string, error) {
	response = StripCodeFences(response)

	if isObject(response) {
		return response, nil
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end > start {
		candidate := response[start : end+1]
		if isObject(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrNoObject, preview(response, 100))
}

// Decode extracts the JSON object from response and unmarshals it into T.
func Decode[T any](response string) (T, error) {
	var result T
	raw, err := ExtractObject(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

func isObject(s string) bool {
	var probe map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &probe) == nil
}

func preview(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
