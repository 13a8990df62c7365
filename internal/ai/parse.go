package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// parseResult decodes the model's text payload and checks every required
// field is present. The response schema is requested from the model but not
// trusted, so keys must match exactly.
func parseResult(text string) (AnalysisResult, error) {
	js := stripCodeFences(text)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(js), &obj); err != nil {
		s := findFirstJSON(js)
		if s == "" {
			return AnalysisResult{}, fmt.Errorf("%w: no JSON object found: %v", ErrMalformedResponse, err)
		}
		obj = nil
		if err2 := json.Unmarshal([]byte(s), &obj); err2 != nil {
			return AnalysisResult{}, fmt.Errorf("%w: %v (first attempt: %v)", ErrMalformedResponse, err2, err)
		}
	}

	out, err := decodeResult(obj)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := validate.Struct(out); err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}

func decodeResult(obj map[string]json.RawMessage) (AnalysisResult, error) {
	var out AnalysisResult
	if err := field(obj, "title", &out.Title); err != nil {
		return AnalysisResult{}, err
	}
	if err := field(obj, "overallSummary", &out.OverallSummary); err != nil {
		return AnalysisResult{}, err
	}
	var chapters []map[string]json.RawMessage
	if err := field(obj, "chapters", &chapters); err != nil {
		return AnalysisResult{}, err
	}
	if chapters != nil {
		out.Chapters = make([]ChapterSummary, len(chapters))
	}
	for i, ch := range chapters {
		c := &out.Chapters[i]
		for key, dst := range map[string]any{
			"chapterNumber": &c.ChapterNumber,
			"title":         &c.Title,
			"summary":       &c.Summary,
			"keyPoints":     &c.KeyPoints,
		} {
			if err := field(ch, key, dst); err != nil {
				return AnalysisResult{}, fmt.Errorf("chapters[%d]: %w", i, err)
			}
		}
	}
	return out, nil
}

// field decodes obj[key] into dst. Lookup is case-sensitive, unlike
// json.Unmarshal into a struct.
func field(obj map[string]json.RawMessage, key string, dst any) error {
	raw, ok := obj[key]
	if !ok {
		return fmt.Errorf("missing %q", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func stripCodeFences(s string) string {
	// ```json ... ``` or bare ``` ... ```
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// findFirstJSON returns the first balanced {...} block in s, ignoring braces
// inside string literals.
func findFirstJSON(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
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
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
