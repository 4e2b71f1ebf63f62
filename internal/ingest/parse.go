package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/generation"
)

// ExtractJSON strips a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the language tag line, e.g. "json"
		if tag := strings.TrimSpace(text[:nl]); !strings.ContainsAny(tag, "[{") {
			text = text[nl+1:]
		}
	}
	if end := strings.LastIndex(text, "```"); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}

// ParseQuestions extracts question records from a model response. The JSON
// payload may be an array of records, an object wrapping the array under
// "questions", or a single record, optionally surrounded by prose or a code
// fence. Records missing text or answer are dropped. An error wrapping
// generation.ErrInvalidResponse is returned when no valid record remains.
func ParseQuestions(text string) ([]*domain.Question, error) {
	node, err := decodeLenient(ExtractJSON(text))
	if err != nil {
		return nil, err
	}

	if obj, ok := node.(map[string]any); ok {
		if inner, ok := obj["questions"].([]any); ok {
			node = inner
		}
	}

	var elems []any
	switch v := node.(type) {
	case []any:
		elems = v
	default:
		elems = []any{v}
	}

	questions := make([]*domain.Question, 0, len(elems))
	for _, elem := range elems {
		if q := toQuestion(elem); q != nil {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no question parsed from response", generation.ErrInvalidResponse)
	}
	return questions, nil
}

// decodeLenient tries a strict parse, then the outermost [...] span, then the
// outermost {...} span.
func decodeLenient(text string) (any, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", generation.ErrInvalidResponse)
	}
	if v, err := decode(text); err == nil {
		return v, nil
	}
	for _, pair := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start, end := strings.Index(text, pair[0]), strings.LastIndex(text, pair[1])
		if start < 0 || end <= start {
			continue
		}
		if v, err := decode(text[start : end+1]); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: no valid json in response", generation.ErrInvalidResponse)
}

func decode(text string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after json value")
	}
	return v, nil
}

func toQuestion(elem any) *domain.Question {
	obj, ok := elem.(map[string]any)
	if !ok {
		return nil
	}

	text := readText(obj, "text")
	answer := readAnswer(obj["answer"])
	options := readOptions(obj["options"])
	if text == "" || answer == "" {
		return nil
	}

	qType := domain.NormalizeType(readText(obj, "type"))
	if qType == "" {
		qType = domain.InferType(options, answer)
	}

	answer = domain.NormalizeAnswer(answer)
	if qType == domain.QuestionTypeTrueFalse {
		answer = domain.NormalizeBooleanAnswer(answer)
	}

	q := &domain.Question{
		Code:        readText(obj, "code"),
		Type:        qType,
		Text:        text,
		Answer:      answer,
		Explanation: readText(obj, "explanation"),
		Options:     options,
	}
	if q.Validate() != nil {
		return nil
	}
	return q
}

func readText(obj map[string]any, field string) string {
	return strings.TrimSpace(scalarString(obj[field]))
}

func readAnswer(v any) string {
	if arr, ok := v.([]any); ok {
		var parts []string
		for _, item := range arr {
			if s := strings.TrimSpace(scalarString(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	}
	return strings.TrimSpace(scalarString(v))
}

// readOptions accepts objects with letter and text, or bare strings. Options
// without text are skipped; missing letters are assigned A, B, ... by
// position among the kept options.
func readOptions(v any) []domain.Option {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var options []domain.Option
	for _, item := range arr {
		var letter, text string
		switch o := item.(type) {
		case map[string]any:
			letter = readText(o, "letter")
			text = readText(o, "text")
		default:
			text = strings.TrimSpace(scalarString(o))
		}
		if text == "" {
			continue
		}
		if letter == "" {
			letter = domain.OptionLetter(len(options))
		}
		options = append(options, domain.Option{
			Letter: strings.ToUpper(string([]rune(letter)[:1])),
			Text:   text,
		})
	}
	return options
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
