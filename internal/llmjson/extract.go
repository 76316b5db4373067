// Package llmjson decodes JSON that a language model wrapped in prose or
// markdown code fences.
package llmjson

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrEmptyResponse = errors.New("empty model response")
	ErrMissingJSON   = errors.New("no JSON object in model response")
)

// Extract decodes the JSON object contained in raw into v.
//
// Code fences are stripped first and the remainder is decoded directly. If
// that fails, the first balanced {...} span is decoded instead. Strings are
// honoured while scanning so braces inside values do not end the span early.
func Extract(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ErrEmptyResponse
	}

	candidate := stripFences(trimmed)
	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return nil
	}

	for _, src := range []string{candidate, trimmed} {
		payload, ok := findObject(src)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(payload), v); err == nil {
			return nil
		}
	}
	return ErrMissingJSON
}

// stripFences removes a leading ```lang line and the closing ``` if present
func stripFences(s string) string {
	start := strings.Index(s, "```")
	if start == -1 {
		return s
	}
	body := s[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func findObject(input string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(input); i++ {
		ch := input[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start == -1 {
				continue
			}
			depth--
			if depth == 0 {
				return input[start : i+1], true
			}
		}
	}
	return "", false
}
