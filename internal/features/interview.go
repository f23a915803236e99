package features

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"interviewai/internal/model"
	"interviewai/internal/repo"
	"interviewai/internal/utils/generator"
)

type State int

const (
	StateIdle State = iota
	StateAnswering
	StateReadyToSubmit
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnswering:
		return "answering"
	case StateReadyToSubmit:
		return "ready_to_submit"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrBusy              = errors.New("submission in progress")
	ErrNoOwner           = errors.New("no signed-in user")
	ErrQuestionCount     = fmt.Errorf("interview requires exactly %d questions", model.QuestionsPerInterview)
)

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	State        string           `json:"state"`
	Index        int              `json:"index"`
	Total        int              `json:"total"`
	Job          model.JobContext `json:"job"`
	Question     *model.Question  `json:"question,omitempty"`
	Answer       string           `json:"answer"`
	SubmissionID string           `json:"submissionId,omitempty"`
}

// Controller walks one user through a five question attempt. Answers live in
// a local buffer until Submit writes the whole attempt at once.
type Controller struct {
	mu          sync.Mutex
	submissions repo.ISubmission
	owner       func() (string, bool)
	logger      *zap.Logger
	now         func() time.Time
	newID       func(time.Time) string
	onSubmit    func(ctx context.Context, s *model.Submission)

	state        State
	index        int
	job          model.JobContext
	questions    []model.Question
	buffer       []string
	submitting   bool
	generation   uint64
	submissionID string
}

func NewController(submissions repo.ISubmission, owner func() (string, bool), logger *zap.Logger) *Controller {
	return &Controller{
		submissions: submissions,
		owner:       owner,
		logger:      logger,
		now:         time.Now,
		newID:       generator.GenerateSubmissionID,
	}
}

// OnSubmit registers fn to run after every successful submission.
func (c *Controller) OnSubmit(fn func(ctx context.Context, s *model.Submission)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSubmit = fn
}

func (c *Controller) transitionErr(op string) error {
	return fmt.Errorf("%s from %s: %w", op, c.state, ErrInvalidTransition)
}

// Load starts a new attempt at the first question.
func (c *Controller) Load(job model.JobContext, questions []model.Question) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	switch c.state {
	case StateIdle, StateSubmitted:
	default:
		return c.transitionErr("load")
	}
	if len(questions) != model.QuestionsPerInterview {
		return fmt.Errorf("load %d questions: %w", len(questions), ErrQuestionCount)
	}

	c.job = job
	c.questions = append([]model.Question(nil), questions...)
	c.buffer = make([]string, len(questions))
	c.index = 0
	c.submissionID = ""
	c.generation++
	c.state = StateAnswering
	return nil
}

func (c *Controller) active() bool {
	return c.state == StateAnswering || c.state == StateReadyToSubmit
}

func (c *Controller) moveTo(i int) {
	c.index = i
	if i == len(c.questions)-1 {
		c.state = StateReadyToSubmit
	} else {
		c.state = StateAnswering
	}
}

func (c *Controller) Next(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	if !c.active() || c.index >= len(c.questions)-1 {
		return c.transitionErr("next")
	}
	c.buffer[c.index] = text
	c.moveTo(c.index + 1)
	return nil
}

func (c *Controller) Previous(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	if !c.active() || c.index == 0 {
		return c.transitionErr("previous")
	}
	c.buffer[c.index] = text
	c.moveTo(c.index - 1)
	return nil
}

// Save stores text for the current question without moving.
func (c *Controller) Save(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	if !c.active() {
		return c.transitionErr("save")
	}
	c.buffer[c.index] = text
	return nil
}

// Submit persists the attempt. The mutex is released while the store write runs;
// other transitions see ErrBusy until it returns. On failure the attempt is left as it was.
func (c *Controller) Submit(ctx context.Context, text string) (*model.Submission, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.state != StateReadyToSubmit {
		err := c.transitionErr("submit")
		c.mu.Unlock()
		return nil, err
	}
	c.buffer[c.index] = text

	email, ok := c.owner()
	if !ok {
		c.mu.Unlock()
		return nil, ErrNoOwner
	}

	now := c.now()
	sub := &model.Submission{
		ID:        c.newID(now),
		Email:     email,
		Job:       c.job,
		Questions: append([]model.Question(nil), c.questions...),
		Answers:   model.NormalizeAnswers(c.buffer, len(c.questions)),
		CreatedAt: now,
	}
	gen := c.generation
	c.submitting = true
	c.mu.Unlock()

	err := c.submissions.Create(ctx, sub)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Error("Failed to save submission", zap.String("interviewId", sub.ID), zap.Error(err))
		return nil, fmt.Errorf("save submission: %w", err)
	}
	if c.generation == gen {
		c.state = StateSubmitted
		c.submissionID = sub.ID
		c.buffer = nil
	}
	hook := c.onSubmit
	c.mu.Unlock()

	c.logger.Info("Submission saved", zap.String("interviewId", sub.ID), zap.String("email", email))
	if hook != nil {
		hook(ctx, sub)
	}
	return sub, nil
}

// Quit abandons the attempt without writing anything and returns to Idle.
func (c *Controller) Quit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	if !c.active() {
		return c.transitionErr("quit")
	}
	c.clear()
	c.state = StateIdle
	return nil
}

// Reset returns to Idle unconditionally. A write already in flight still
// completes but no longer changes the state.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
	c.state = StateIdle
}

func (c *Controller) clear() {
	c.job = model.JobContext{}
	c.questions = nil
	c.buffer = nil
	c.index = 0
	c.submissionID = ""
	c.generation++
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		State:        c.state.String(),
		Index:        c.index,
		Total:        len(c.questions),
		Job:          c.job,
		SubmissionID: c.submissionID,
	}
	if c.active() {
		q := c.questions[c.index]
		snap.Question = &q
		snap.Answer = c.buffer[c.index]
	}
	return snap
}
