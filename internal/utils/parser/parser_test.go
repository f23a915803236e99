package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewai/internal/model"
)

const fencedQuestions = "```json\n[\n" +
	`{"questionno":"Question 1","question":"What is a goroutine?","answer":"A lightweight thread"},` +
	`{"questionno":"Question 2","question":"Explain REST.","answer":""},` +
	`{"questionno":"","question":"Describe a conflict you resolved.","answer":""},` +
	`{"questionno":"Question 4","question":"How do you design an API?","answer":""},` +
	`{"questionno":"Question 5","question":"What comes next: 2, 4, 8?","answer":"16"}` +
	"\n]\n```"

func TestParseQuestions_StripsFences(t *testing.T) {
	res := ParseQuestions(fencedQuestions)
	require.True(t, res.IsOk(), "unexpected error: %v", res.Err())

	qs := res.Value()
	assert.Len(t, qs, model.QuestionsPerInterview)
	assert.Equal(t, "What is a goroutine?", qs[0].Text)
	assert.Equal(t, "A lightweight thread", qs[0].Answer)
	assert.Equal(t, "Question 3", qs[2].Label, "missing labels are filled in")
}

func TestParseQuestions_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
	}{
		{"empty", "   ", KindEmpty},
		{"no array", "sorry, I cannot help", KindSyntax},
		{"broken json", `[{"question": "a",]`, KindSyntax},
		{"too few", `[{"question":"a"},{"question":"b"}]`, KindCount},
		{"blank text", `[{"question":"a"},{"question":"b"},{"question":" "},{"question":"d"},{"question":"e"}]`, KindShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseQuestions(tt.raw)
			require.False(t, res.IsOk())
			assert.Equal(t, tt.kind, res.Err().Kind)

			_, err := res.Unwrap()
			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestParseFeedback(t *testing.T) {
	raw := `Here you go: [
		{"questionno":"Question 1","question":"q1","answer":"a1","rating":"7","pros":"Clear.","cons":"Short.","suggestion":"Add examples."},
		{"question":"q2","answer":"Did not answer this question","rating":"0","pros":"None","cons":"No answer.","suggestion":"Try."},
		{"questionno":"Question 3","question":"q3","answer":"a3","rating":"5","pros":"","cons":"","suggestion":""},
		{"questionno":"Question 4","question":"q4","answer":"a4","rating":"8/10","pros":"","cons":"","suggestion":""},
		{"questionno":"Question 5","question":"q5","answer":"a5","rating":"10","pros":"","cons":"","suggestion":""}
	]`
	items, err := ParseFeedback(raw).Unwrap()
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, "Question 2", items[1].QuestionNo)
	assert.Equal(t, "7", items[0].Rating)
}

func TestParseFeedback_NumericRatings(t *testing.T) {
	raw := "```json\n[" +
		`{"questionno":"Question 1","question":"q1","answer":"a1","rating":1,"pros":"","cons":"","suggestion":""},` +
		`{"questionno":"Question 2","question":"q2","answer":"a2","rating":2.5,"pros":"","cons":"","suggestion":""},` +
		`{"questionno":"Question 3","question":"q3","answer":"a3","rating":"3","pros":"","cons":"","suggestion":""},` +
		`{"questionno":"Question 4","question":"q4","answer":"a4","rating":null,"pros":"","cons":"","suggestion":""},` +
		`{"questionno":"Question 5","question":"q5","answer":"a5","rating":10,"pros":"","cons":"","suggestion":""}` +
		"]\n```"
	items, err := ParseFeedback(raw).Unwrap()
	require.NoError(t, err)
	ratings := make([]string, len(items))
	for i, it := range items {
		ratings[i] = it.Rating
	}
	assert.Equal(t, []string{"1", "2.5", "3", "", "10"}, ratings)

	_, err = ParseFeedback(strings.Replace(raw, `"rating":1,`, `"rating":true,`, 1)).Unwrap()
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindSyntax, perr.Kind)
}

func TestSentences(t *testing.T) {
	assert.Equal(t, []string{"Good structure", "Clear examples"}, Sentences("Good structure. Clear examples. "))
	assert.Nil(t, Sentences(" . "))
}
