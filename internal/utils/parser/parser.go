package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"interviewai/internal/model"
)

type Kind string

const (
	KindEmpty  Kind = "empty"
	KindSyntax Kind = "syntax"
	KindCount  Kind = "count"
	KindShape  Kind = "shape"
)

// ParseError describes why a model payload could not be used.
type ParseError struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Kind, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is either Ok(value) or Err(*ParseError).
type Result[T any] struct {
	value T
	err   *ParseError
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Err[T any](err *ParseError) Result[T] {
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool {
	return r.err == nil
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Err() *ParseError {
	return r.err
}

// Unwrap converts the result into the usual (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// extractArray strips code fences and any prose around the outermost JSON array.
func extractArray(raw string) (string, *ParseError) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &ParseError{Kind: KindEmpty, Detail: "payload is empty"}
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return "", &ParseError{Kind: KindSyntax, Detail: "no JSON array found"}
	}
	return s[start : end+1], nil
}

func decode[T any](raw string) ([]T, *ParseError) {
	body, perr := extractArray(raw)
	if perr != nil {
		return nil, perr
	}
	var items []T
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil, &ParseError{Kind: KindSyntax, Detail: "invalid JSON array", Err: err}
	}
	if len(items) != model.QuestionsPerInterview {
		return nil, &ParseError{
			Kind:   KindCount,
			Detail: fmt.Sprintf("expected %d entries, got %d", model.QuestionsPerInterview, len(items)),
		}
	}
	return items, nil
}

// ParseQuestions validates a generated question set.
func ParseQuestions(raw string) Result[[]model.Question] {
	items, perr := decode[model.Question](raw)
	if perr != nil {
		return Err[[]model.Question](perr)
	}
	for i := range items {
		items[i].Text = strings.TrimSpace(items[i].Text)
		if items[i].Text == "" {
			return Err[[]model.Question](&ParseError{
				Kind:   KindShape,
				Detail: fmt.Sprintf("entry %d has no question text", i+1),
			})
		}
		if strings.TrimSpace(items[i].Label) == "" {
			items[i].Label = model.QuestionLabel(i)
		}
	}
	return Ok(items)
}

// ParseFeedback validates a generated feedback set.
func ParseFeedback(raw string) Result[[]model.FeedbackItem] {
	items, perr := decode[model.FeedbackItem](raw)
	if perr != nil {
		return Err[[]model.FeedbackItem](perr)
	}
	for i := range items {
		if strings.TrimSpace(items[i].QuestionNo) == "" {
			items[i].QuestionNo = model.QuestionLabel(i)
		}
	}
	return Ok(items)
}

// Sentences splits a feedback paragraph into display bullets.
func Sentences(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ".") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
