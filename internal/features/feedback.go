package features

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interviewai/internal/model"
	"interviewai/internal/repo"
	"interviewai/internal/utils/checker"
	gen "interviewai/internal/utils/generator"
	"interviewai/internal/utils/lock"
	"interviewai/internal/utils/redis"
)

// FeedbackGenerator produces parsed feedback for a stored submission.
type FeedbackGenerator interface {
	Feedback(ctx context.Context, s *model.Submission) ([]model.FeedbackItem, error)
}

type FeedbackConfig struct {
	CacheTTL     time.Duration
	LockTTL      time.Duration
	PollInterval time.Duration
}

// FeedbackService creates feedback at most once per submission and serves it afterwards.
type FeedbackService struct {
	repo      *repo.Repository
	generator FeedbackGenerator
	cache     redis.Redis
	locks     *lock.Keyed
	events    *Events
	logger    *zap.Logger
	cfg       FeedbackConfig
	now       func() time.Time
}

func NewFeedbackService(r *repo.Repository, generator FeedbackGenerator, cache redis.Redis, events *Events, cfg FeedbackConfig, logger *zap.Logger) *FeedbackService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 90 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	return &FeedbackService{
		repo:      r,
		generator: generator,
		cache:     cache,
		locks:     lock.NewKeyed(),
		events:    events,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

func cacheKey(id string) string {
	return "feedback:" + id
}

func lockKey(id string) string {
	return "feedback:lock:" + id
}

func (s *FeedbackService) fromCache(ctx context.Context, id string) *model.Feedback {
	data, err := s.cache.Get(ctx, cacheKey(id))
	if err != nil {
		s.logger.Warn("Feedback cache read failed", zap.String("interviewId", id), zap.Error(err))
		return nil
	}
	if data == nil {
		return nil
	}
	var fb model.Feedback
	if err := json.Unmarshal(data, &fb); err != nil {
		s.logger.Warn("Discarding corrupt cached feedback", zap.String("interviewId", id), zap.Error(err))
		return nil
	}
	return &fb
}

func (s *FeedbackService) toCache(ctx context.Context, fb *model.Feedback) {
	if _, err := s.cache.Set(ctx, cacheKey(fb.InterviewID), fb, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("Feedback cache write failed", zap.String("interviewId", fb.InterviewID), zap.Error(err))
	}
}

// stored returns nil, nil when no feedback exists yet.
func (s *FeedbackService) stored(ctx context.Context, id string) (*model.Feedback, error) {
	fb, err := s.repo.Feedback.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, fb)
	return fb, nil
}

// Lookup returns existing feedback for id without generating any.
func (s *FeedbackService) Lookup(ctx context.Context, id string) (*model.Feedback, error) {
	if fb := s.fromCache(ctx, id); fb != nil {
		return fb, nil
	}
	return s.stored(ctx, id)
}

// Get returns the feedback for sub, generating it if none exists yet.
func (s *FeedbackService) Get(ctx context.Context, sub *model.Submission) (*model.Feedback, error) {
	logger := s.logger.With(zap.String("interviewId", sub.ID))

	if fb, err := s.Lookup(ctx, sub.ID); err != nil || fb != nil {
		return fb, err
	}

	unlock, err := s.locks.Lock(ctx, sub.ID)
	if err != nil {
		return nil, status.FromContextError(err).Err()
	}
	defer unlock()

	if fb, err := s.stored(ctx, sub.ID); err != nil || fb != nil {
		return fb, err
	}

	release, fb, err := s.acquireRemote(ctx, sub.ID)
	if err != nil || fb != nil {
		return fb, err
	}
	defer release()

	logger.Info("Generating feedback")
	items, err := s.generator.Feedback(ctx, sub)
	if err != nil {
		logger.Error("Failed to generate feedback", zap.Error(err))
		return nil, err
	}

	fb = &model.Feedback{
		FeedbackID:  sub.ID,
		InterviewID: sub.ID,
		Job:         sub.Job,
		Email:       sub.Email,
		Items:       items,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Feedback.Create(ctx, fb); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			logger.Info("Feedback already written by another caller")
			return s.repo.Feedback.Get(ctx, sub.ID)
		}
		logger.Error("Failed to save feedback", zap.Error(err))
		return nil, err
	}
	s.toCache(ctx, fb)

	if s.events != nil {
		if err := s.events.Publish(ctx, EventFeedbackGenerated, sub.ID, sub.Email); err != nil {
			// saved already; only the notification is lost
			logger.Warn("Failed to announce feedback", zap.Error(err))
		}
	}
	logger.Info("Feedback saved", zap.Int("items", len(fb.Items)))
	return fb, nil
}

// acquireRemote takes the cross-process lock for id. While another process
// holds it, the store is polled so that process's result can be returned instead.
// A cache error degrades to the in-process lock only.
func (s *FeedbackService) acquireRemote(ctx context.Context, id string) (func(), *model.Feedback, error) {
	key := lockKey(id)
	token := gen.GenerateUUID()
	for {
		ok, err := s.cache.Lock(ctx, key, token, s.cfg.LockTTL)
		if err != nil {
			s.logger.Warn("Distributed lock unavailable", zap.String("interviewId", id), zap.Error(err))
			return func() {}, nil, nil
		}
		if ok {
			release := func() {
				rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				if _, err := s.cache.Unlock(rctx, key, token); err != nil {
					s.logger.Warn("Failed to release lock", zap.String("interviewId", id), zap.Error(err))
				}
			}
			if fb, err := s.stored(ctx, id); err != nil || fb != nil {
				release()
				return nil, fb, err
			}
			return release, nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil, status.FromContextError(ctx.Err()).Err()
		case <-time.After(s.cfg.PollInterval):
		}
		if fb, err := s.stored(ctx, id); err != nil || fb != nil {
			return nil, fb, err
		}
	}
}

// GetByID loads the submission, checks that email owns it and returns its feedback.
func (s *FeedbackService) GetByID(ctx context.Context, email, id string) (*model.Feedback, error) {
	sub, err := s.repo.Submission.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "interview %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if err := checker.CheckOwner(email, sub.Email); err != nil {
		return nil, err
	}
	return s.Get(ctx, sub)
}
