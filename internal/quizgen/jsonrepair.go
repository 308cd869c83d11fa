package quizgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"learnnest/internal/domain"
)

var (
	codeFencePattern  = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\s*\n?(.*?)```")
	thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// stripCodeFences removes a Markdown code fence around the payload, if any, and
// any <think> block emitted by reasoning models.
func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(thinkBlockPattern.ReplaceAllString(raw, ""))
	if m := codeFencePattern.FindStringSubmatch(cleaned); m != nil {
		return strings.TrimSpace(m[1])
	}
	// An unterminated fence still carries the payload after the opening line.
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 {
			cleaned = cleaned[nl+1:]
		}
	}
	return strings.TrimSpace(cleaned)
}

// stripTrailingCommas drops commas that directly precede a closing bracket or
// brace, ignoring commas inside string literals.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			b.WriteByte(ch)
			continue
		}
		switch ch {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(s) && isJSONSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == ']' || s[j] == '}') {
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func isJSONSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// bracketSpan returns the text from the first '[' to the last ']'.
func bracketSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// parseJSONArray decodes a model response into a slice of T. It tries, in order:
// the fence-stripped text, the same text without trailing commas, and the first
// bracketed span of that text. If every attempt fails it returns a
// GENERATION_PARSE_ERROR carrying the last decode error.
func parseJSONArray[T any](raw string) ([]T, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, domain.NewGenerationParseError(errors.New("empty model response"))
	}

	var out []T
	err := json.Unmarshal([]byte(cleaned), &out)
	if err == nil {
		return out, nil
	}

	noCommas := stripTrailingCommas(cleaned)
	out = nil
	if err = json.Unmarshal([]byte(noCommas), &out); err == nil {
		return out, nil
	}

	span, ok := bracketSpan(noCommas)
	if !ok {
		return nil, domain.NewGenerationParseError(fmt.Errorf("no JSON array found: %w", err))
	}
	out = nil
	if err = json.Unmarshal([]byte(span), &out); err != nil {
		return nil, domain.NewGenerationParseError(err)
	}
	return out, nil
}
