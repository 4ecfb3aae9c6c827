package vlm

import (
	"strings"
)

// ExtractJSON pulls the first JSON object out of model output. Vision
// models routinely wrap JSON in markdown fences or add commentary around
// it; this strips both. Returns ErrEmptyJSON if no object is found.
func ExtractJSON(text string) (string, error) {
	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return "", ErrEmptyJSON
	}

	// Scan for the matching close brace, respecting strings.
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}
	return "", ErrEmptyJSON
}
