package features

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"interviewai/internal/model"
	"interviewai/internal/repo"
)

var testJob = model.JobContext{
	JobRole:         "Backend Engineer",
	ExperienceLevel: "Mid",
	JobDescription:  "Build Go services",
}

func testQuestions() []model.Question {
	qs := make([]model.Question, model.QuestionsPerInterview)
	for i := range qs {
		qs[i] = model.Question{Label: model.QuestionLabel(i), Text: fmt.Sprintf("q%d?", i+1)}
	}
	return qs
}

func testItems(ratings ...string) []model.FeedbackItem {
	items := make([]model.FeedbackItem, len(ratings))
	for i, r := range ratings {
		items[i] = model.FeedbackItem{QuestionNo: model.QuestionLabel(i), Rating: r}
	}
	return items
}

// countingGenerator returns fixed feedback and counts calls.
type countingGenerator struct {
	calls int32
	delay time.Duration
	err   error
}

func (g *countingGenerator) Feedback(ctx context.Context, s *model.Submission) ([]model.FeedbackItem, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if g.err != nil {
		return nil, g.err
	}
	return testItems("8", "6", "7/10", "0", "9"), nil
}

func (g *countingGenerator) Calls() int {
	return int(atomic.LoadInt32(&g.calls))
}

// gatedSubmissions blocks Create until release is closed.
type gatedSubmissions struct {
	repo.ISubmission
	entered chan struct{}
	release chan struct{}
	err     error
	once    sync.Once
}

func newGatedSubmissions(err error) *gatedSubmissions {
	return &gatedSubmissions{
		ISubmission: repo.NewMemorySubmission(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
		err:         err,
	}
}

func (g *gatedSubmissions) Create(ctx context.Context, s *model.Submission) error {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	if g.err != nil {
		return g.err
	}
	return g.ISubmission.Create(ctx, s)
}
