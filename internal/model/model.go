package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// QuestionsPerInterview is the fixed size of every generated question set.
const QuestionsPerInterview = 5

// Unanswered replaces blank answers at submission time.
const Unanswered = "Did not answer this question"

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

type User struct {
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Avatar    string    `json:"avatar,omitempty"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

// Question is the canonical question shape stored with a submission.
type Question struct {
	Label  string `json:"questionno"`
	Text   string `json:"question"`
	Answer string `json:"answer,omitempty"`
}

func QuestionLabel(i int) string {
	return fmt.Sprintf("Question %d", i+1)
}

type JobContext struct {
	JobRole         string `json:"jobRole"`
	ExperienceLevel string `json:"experienceLevel"`
	JobDescription  string `json:"jobDescription"`
}

type Submission struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Job       JobContext `json:"job"`
	Questions []Question `json:"questions"`
	Answers   []string   `json:"answers"`
	CreatedAt time.Time  `json:"timestamp"`
}

// QuestionTexts returns the prompt texts in order.
func (s *Submission) QuestionTexts() []string {
	out := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		out[i] = q.Text
	}
	return out
}

// NormalizeAnswers pads or trims answers to n entries and replaces blanks
// with Unanswered.
func NormalizeAnswers(answers []string, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if i < len(answers) && strings.TrimSpace(answers[i]) != "" {
			out[i] = answers[i]
			continue
		}
		out[i] = Unanswered
	}
	return out
}

type FeedbackItem struct {
	QuestionNo string `json:"questionno"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Rating     string `json:"rating"`
	Pros       string `json:"pros"`
	Cons       string `json:"cons"`
	Suggestion string `json:"suggestion"`
}

// UnmarshalJSON accepts the rating as text or as a bare number. Numbers keep
// their literal form, so 7 and "7" decode to the same item.
func (f *FeedbackItem) UnmarshalJSON(data []byte) error {
	type plain FeedbackItem
	aux := struct {
		*plain
		Rating json.RawMessage `json:"rating"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Rating)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		f.Rating = ""
	case raw[0] == '"':
		return json.Unmarshal(raw, &f.Rating)
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("rating: %w", err)
		}
		f.Rating = n.String()
	}
	return nil
}

type Feedback struct {
	FeedbackID  string         `json:"feedbackID"`
	InterviewID string         `json:"interviewID"`
	Job         JobContext     `json:"job"`
	Email       string         `json:"email"`
	Items       []FeedbackItem `json:"feedback"`
	CreatedAt   time.Time      `json:"timestamp"`
}
