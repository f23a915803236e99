package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionsPrompt(t *testing.T) {
	p := QuestionsPrompt("Software Engineer", "intermediate", "Build REST APIs in a small team.")
	assert.Contains(t, p, "for a Software Engineer with intermediate experience")
	assert.Contains(t, p, `"Build REST APIs in a small team."`)
	assert.Contains(t, p, "only 5 descriptive interview questions")
}

func TestFeedbackPrompt(t *testing.T) {
	qs := []string{"q1", "q2", "q3", "q4", "q5"}
	as := []string{"a1", "Did not answer this question", "a3", "Did not answer this question", "a5"}
	p := FeedbackPrompt(qs, as, "Software Engineer", "intermediate", "desc")

	assert.Contains(t, p, "Question 1: q1\nQuestion 2: q2")
	assert.Contains(t, p, "Answer 2: Did not answer this question")
	assert.Contains(t, p, "selected a Software Engineer role with intermediate experience")
	assert.Equal(t, 5, strings.Count(p, `"rating": "Overall rating out of 10`))
	assert.Contains(t, p, `"question": "q5",`)
}
