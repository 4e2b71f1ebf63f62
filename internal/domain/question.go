package domain

import (
	"fmt"
	"strings"
)

// QuestionType is the canonical kind of a question.
type QuestionType string

// Canonical question types.
const (
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeFillBlank      QuestionType = "fill_blank"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
)

var typeAliases = map[string]QuestionType{
	"single_choice":     QuestionTypeSingleChoice,
	"single":            QuestionTypeSingleChoice,
	"single choice":     QuestionTypeSingleChoice,
	"single-choice":     QuestionTypeSingleChoice,
	"单选":                QuestionTypeSingleChoice,
	"单选题":               QuestionTypeSingleChoice,
	"multiple_choice":   QuestionTypeMultipleChoice,
	"multiple":          QuestionTypeMultipleChoice,
	"multi":             QuestionTypeMultipleChoice,
	"multiple choice":   QuestionTypeMultipleChoice,
	"multiple-choice":   QuestionTypeMultipleChoice,
	"多选":                QuestionTypeMultipleChoice,
	"多选题":               QuestionTypeMultipleChoice,
	"true_false":        QuestionTypeTrueFalse,
	"true/false":        QuestionTypeTrueFalse,
	"judgement":         QuestionTypeTrueFalse,
	"judgment":          QuestionTypeTrueFalse,
	"boolean":           QuestionTypeTrueFalse,
	"判断":                QuestionTypeTrueFalse,
	"判断题":               QuestionTypeTrueFalse,
	"fill_blank":        QuestionTypeFillBlank,
	"fill in the blank": QuestionTypeFillBlank,
	"blank":             QuestionTypeFillBlank,
	"填空":                QuestionTypeFillBlank,
	"填空题":               QuestionTypeFillBlank,
	"short_answer":      QuestionTypeShortAnswer,
	"short answer":      QuestionTypeShortAnswer,
	"essay":             QuestionTypeShortAnswer,
	"简答":                QuestionTypeShortAnswer,
	"简答题":               QuestionTypeShortAnswer,
}

var trueAnswers = map[string]bool{"true": true, "对": true, "正确": true, "t": true, "yes": true, "√": true}
var falseAnswers = map[string]bool{"false": true, "错": true, "错误": true, "f": true, "no": true, "×": true}

// Option is one lettered choice of a choice question.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Question is a structured quiz record extracted from a chunk.
type Question struct {
	Code        string       `json:"code,omitempty"`
	Type        QuestionType `json:"type"`
	Text        string       `json:"text"`
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation,omitempty"`
	Options     []Option     `json:"options,omitempty"`
	BankID      string       `json:"bankId,omitempty"`
}

// Validate requires non-empty text, answer and type.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: text is empty", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.Answer) == "" {
		return fmt.Errorf("%w: answer is empty", ErrInvalidQuestion)
	}
	if q.Type == "" {
		return fmt.Errorf("%w: type is empty", ErrInvalidQuestion)
	}
	return nil
}

// NormalizeType maps a raw type label onto its canonical form. Unknown
// non-empty labels are kept trimmed; empty labels stay empty.
func NormalizeType(raw string) QuestionType {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	if t, ok := typeAliases[key]; ok {
		return t
	}
	return QuestionType(strings.TrimSpace(raw))
}

// InferType derives a type from the shape of a record lacking one.
func InferType(options []Option, answer string) QuestionType {
	normalized := NormalizeAnswer(answer)
	if len(options) > 0 {
		if strings.Contains(normalized, ",") {
			return QuestionTypeMultipleChoice
		}
		return QuestionTypeSingleChoice
	}
	if IsBooleanAnswer(normalized) {
		return QuestionTypeTrueFalse
	}
	return QuestionTypeShortAnswer
}

// IsBooleanAnswer reports whether answer belongs to the true/false vocabulary.
func IsBooleanAnswer(answer string) bool {
	key := strings.ToLower(strings.TrimSpace(answer))
	return trueAnswers[key] || falseAnswers[key]
}

// NormalizeBooleanAnswer maps the true/false vocabulary onto "true" or "false".
func NormalizeBooleanAnswer(answer string) string {
	key := strings.ToLower(strings.TrimSpace(answer))
	switch {
	case trueAnswers[key]:
		return "true"
	case falseAnswers[key]:
		return "false"
	default:
		return answer
	}
}

// NormalizeAnswer replaces full-width commas with ASCII ones and strips all
// whitespace.
func NormalizeAnswer(answer string) string {
	answer = strings.ReplaceAll(answer, "，", ",")
	return strings.Join(strings.Fields(answer), "")
}

// OptionLetter returns the letter for the option at index i (A, B, ...).
func OptionLetter(i int) string {
	return string(rune('A' + i))
}
