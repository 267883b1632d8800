package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject pulls a JSON object out of free-form model output.
// Models wrap JSON in markdown fences, prepend chatter, or emit slightly
// broken syntax; this strips the wrapping, and when a straight parse fails,
// applies one pass of repair heuristics before giving up.
func ExtractJSONObject(raw string) (map[string]interface{}, error) {
	candidate := stripWrapping(raw)
	if candidate == "" {
		return nil, fmt.Errorf("no json payload in output")
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
		return parsed, nil
	}
	repaired := repairJSON(candidate)
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	return parsed, nil
}

func stripWrapping(raw string) string {
	clean := strings.TrimSpace(raw)
	if idx := strings.Index(clean, "```"); idx >= 0 {
		clean = clean[idx+3:]
		clean = strings.TrimPrefix(clean, "json")
		if end := strings.Index(clean, "```"); end >= 0 {
			clean = clean[:end]
		}
		clean = strings.TrimSpace(clean)
	}
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		return clean[start : end+1]
	}
	// An array answer still becomes an object so callers see one shape.
	start = strings.Index(clean, "[")
	end = strings.LastIndex(clean, "]")
	if start >= 0 && end > start {
		return `{"items": ` + clean[start:end+1] + `}`
	}
	return ""
}

// repairJSON fixes the three failure modes local models actually produce:
// single-quoted strings, trailing commas, and // comments.
func repairJSON(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inString := false
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			if ch == '\\' && i+1 < len(s) {
				sb.WriteByte(ch)
				i++
				sb.WriteByte(s[i])
				continue
			}
			if ch == quote {
				inString = false
				sb.WriteByte('"')
				continue
			}
			if ch == '"' && quote == '\'' {
				sb.WriteString(`\"`)
				continue
			}
			sb.WriteByte(ch)
			continue
		}
		switch ch {
		case '"', '\'':
			inString = true
			quote = ch
			sb.WriteByte('"')
		case '/':
			if i+1 < len(s) && s[i+1] == '/' {
				for i < len(s) && s[i] != '\n' {
					i++
				}
				if i < len(s) {
					sb.WriteByte('\n')
				}
			} else {
				sb.WriteByte(ch)
			}
		default:
			sb.WriteByte(ch)
		}
	}
	return stripTrailingCommas(sb.String())
}

func stripTrailingCommas(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			if ch == '\\' && i+1 < len(s) {
				sb.WriteByte(ch)
				i++
				sb.WriteByte(s[i])
				continue
			}
			if ch == '"' {
				inString = false
			}
			sb.WriteByte(ch)
			continue
		}
		if ch == '"' {
			inString = true
			sb.WriteByte(ch)
			continue
		}
		if ch == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}
