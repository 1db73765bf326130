package report

import (
	"bytes"
	"encoding/json"
)

// ExtractObject finds the first balanced {...} span in text that decodes as a
// JSON object. Braces inside JSON strings are ignored, so prose, code fences
// and nested objects around or inside the payload do not confuse it.
func ExtractObject(text string) (json.RawMessage, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end, ok := matchBrace(text, start)
		if !ok {
			continue
		}
		span := []byte(text[start : end+1])
		if isObject(span) {
			return json.RawMessage(span), true
		}
	}
	return nil, false
}

// matchBrace returns the index of the '}' closing the '{' at start.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func isObject(span []byte) bool {
	var probe map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(span))
	return dec.Decode(&probe) == nil && !dec.More()
}
