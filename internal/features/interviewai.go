package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interviewai/internal/model"
	"interviewai/internal/repo"
	"interviewai/internal/utils/redis"
	"interviewai/internal/utils/sse"
	"interviewai/internal/utils/token"
	rabbit "interviewai/pkg/rabbit/pkg"
)

type Options struct {
	SessionIdleTTL time.Duration
	Feedback       FeedbackConfig
	Worker         WorkerConfig
	Brokered       bool
	Location       *time.Location
	Google         IdentityVerifier
}

// InterviewAI wires the services behind the HTTP surface.
type InterviewAI struct {
	Relay    *Relay
	Sessions *Registry
	Feedback *FeedbackService
	History  *HistoryService
	Accounts *AccountService
	Events   *Events
	Hub      *sse.Hub
	Pool     *FeedbackWorkerPool

	repo   *repo.Repository
	rabbit rabbit.Rabbit
	logger *zap.Logger
}

func New(r *repo.Repository, relay *Relay, cache redis.Redis, rb rabbit.Rabbit, tokens *token.Provider, opts Options, logger *zap.Logger) *InterviewAI {
	events := NewEvents(rb, opts.Brokered, logger)
	feedback := NewFeedbackService(r, relay, cache, events, opts.Feedback, logger)

	s := &InterviewAI{
		Relay:    relay,
		Sessions: NewRegistry(r.Submission, opts.SessionIdleTTL, logger),
		Feedback: feedback,
		History:  NewHistoryService(r, feedback, opts.Location, logger),
		Accounts: NewAccountService(r, tokens, opts.Google, logger),
		Events:   events,
		Hub:      sse.NewHub(),
		Pool:     NewFeedbackWorkerPool(opts.Worker, Prefetch(r, feedback), logger),
		repo:     r,
		rabbit:   rb,
		logger:   logger,
	}
	s.Sessions.OnSubmit(s.submitted)
	events.HandleLocally(s.HandleEvent)
	return s
}

func (s *InterviewAI) submitted(ctx context.Context, sub *model.Submission) {
	if err := s.Events.Publish(ctx, EventSubmissionCreated, sub.ID, sub.Email); err != nil {
		// the broker is down; prefetch in-process instead
		s.Pool.EnqueueJob(FeedbackJob{InterviewID: sub.ID, Email: sub.Email})
	}
}

// HandleEvent routes one domain event, whether it came from the broker or in-process.
func (s *InterviewAI) HandleEvent(ctx context.Context, ev *Event) error {
	switch ev.Type {
	case EventSubmissionCreated:
		if !s.Pool.EnqueueJob(FeedbackJob{InterviewID: ev.InterviewID, Email: ev.Email}) {
			return status.Errorf(codes.ResourceExhausted, "feedback queue full for %s", ev.InterviewID)
		}
	case EventFeedbackGenerated:
		s.Hub.SendToUser(ev.Email, sse.Notification{
			"type":        ev.Type,
			"interviewId": ev.InterviewID,
			"timestamp":   ev.OccurredAt.Unix(),
		})
	default:
		s.logger.Warn("Ignoring unknown event", zap.String("type", ev.Type))
	}
	return nil
}

// Consume blocks reading broker events until ctx is done.
func (s *InterviewAI) Consume(ctx context.Context) error {
	return s.rabbit.Consume(ctx, func(ctx context.Context, msg amqp.Delivery) error {
		ev, err := DecodeEvent(msg)
		if err != nil {
			// unreadable messages are not worth a redelivery
			s.logger.Warn("Dropping malformed event", zap.Error(err))
			return nil
		}
		return s.HandleEvent(ctx, ev)
	})
}

// Session returns the live store for email, opening one from the user record when needed.
func (s *InterviewAI) Session(ctx context.Context, email string) (*Store, error) {
	if store, ok := s.Sessions.Get(email); ok {
		return store, nil
	}
	user, err := s.repo.User.Get(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, "User not found")
	}
	if err != nil {
		return nil, err
	}
	return s.Sessions.Open(user), nil
}

// StartInterview generates a question set and loads it into the user's controller.
func (s *InterviewAI) StartInterview(ctx context.Context, email string, job model.JobContext) (Snapshot, error) {
	store, err := s.Session(ctx, email)
	if err != nil {
		return Snapshot{}, err
	}
	if state := store.Controller().State(); state == StateAnswering || state == StateReadyToSubmit {
		return Snapshot{}, fmt.Errorf("load from %s: %w", state, ErrInvalidTransition)
	}

	questions, err := s.Relay.Questions(ctx, job)
	if err != nil {
		return Snapshot{}, err
	}
	if err := store.SetQuestions(job, questions); err != nil {
		return Snapshot{}, err
	}
	s.logger.Info("Interview started", zap.String("email", email), zap.String("jobRole", job.JobRole))
	return store.Controller().Snapshot(), nil
}

// SubmitInterview submits the attempt and returns the new submission.
func (s *InterviewAI) SubmitInterview(ctx context.Context, email, text string) (*model.Submission, error) {
	store, err := s.Session(ctx, email)
	if err != nil {
		return nil, err
	}
	sub, err := store.Controller().Submit(ctx, text)
	if err != nil {
		return nil, err
	}
	store.SetFeedback(nil)
	return sub, nil
}

// FeedbackFor returns feedback for id and keeps it as the session's current feedback.
func (s *InterviewAI) FeedbackFor(ctx context.Context, email, id string) (*model.Feedback, error) {
	fb, err := s.Feedback.GetByID(ctx, email, id)
	if err != nil {
		return nil, err
	}
	if store, ok := s.Sessions.Get(email); ok {
		store.SetFeedback(fb)
	}
	return fb, nil
}

// UpdateProfile saves new names and refreshes the cached session user.
func (s *InterviewAI) UpdateProfile(ctx context.Context, email string, req ProfileRequest) (*model.User, error) {
	user, err := s.Accounts.UpdateProfile(ctx, email, req)
	if err != nil {
		return nil, err
	}
	if store, ok := s.Sessions.Get(email); ok {
		store.UpdateUser(user)
	}
	return user, nil
}

func (s *InterviewAI) SignOut(email string) {
	s.Sessions.Close(email)
}

// Deactivate deletes the account and drops its session.
func (s *InterviewAI) Deactivate(ctx context.Context, email string) error {
	if err := s.Accounts.Deactivate(ctx, email); err != nil {
		return err
	}
	s.Sessions.Close(email)
	return nil
}

func (s *InterviewAI) Start() {
	s.Pool.Start()
}

func (s *InterviewAI) Shutdown() {
	s.Pool.Stop()
	s.Sessions.Shutdown()
}
