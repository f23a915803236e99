package features

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interviewai/internal/model"
	"interviewai/internal/repo"
	"interviewai/internal/utils/redis"
	rabbit "interviewai/pkg/rabbit/pkg"
)

func newTestFeedback(t *testing.T, gen FeedbackGenerator) (*FeedbackService, *repo.Repository, *model.Submission) {
	t.Helper()
	r := repo.NewMemory()
	sub := &model.Submission{
		ID:        "1700000000000-abcdef123",
		Email:     "a@b.co",
		Job:       testJob,
		Questions: testQuestions(),
		Answers:   model.NormalizeAnswers([]string{"a"}, model.QuestionsPerInterview),
		CreatedAt: time.Now(),
	}
	require.NoError(t, r.Submission.Create(context.Background(), sub))
	events := NewEvents(&rabbit.Dummy{}, true, zap.NewNop())
	svc := NewFeedbackService(r, gen, redis.Dummy(), events, FeedbackConfig{PollInterval: 5 * time.Millisecond}, zap.NewNop())
	return svc, r, sub
}

func TestFeedback_GeneratesOnceUnderConcurrency(t *testing.T) {
	gen := &countingGenerator{delay: 20 * time.Millisecond}
	svc, r, sub := newTestFeedback(t, gen)

	var wg sync.WaitGroup
	results := make([]*model.Feedback, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fb, err := svc.Get(context.Background(), sub)
			if assert.NoError(t, err) {
				results[i] = fb
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, gen.Calls())
	for _, fb := range results {
		require.NotNil(t, fb)
		assert.Equal(t, sub.ID, fb.FeedbackID)
		assert.Equal(t, sub.ID, fb.InterviewID)
		assert.Len(t, fb.Items, model.QuestionsPerInterview)
	}

	stored, err := r.Feedback.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, testJob, stored.Job)
	assert.Equal(t, "a@b.co", stored.Email)
}

func TestFeedback_ExistingIsReturned(t *testing.T) {
	gen := &countingGenerator{}
	svc, r, sub := newTestFeedback(t, gen)
	require.NoError(t, r.Feedback.Create(context.Background(), &model.Feedback{
		FeedbackID: sub.ID, InterviewID: sub.ID, Email: sub.Email, Items: testItems("1", "2", "3", "4", "5"),
	}))

	fb, err := svc.Get(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "1", fb.Items[0].Rating)
	assert.Equal(t, 0, gen.Calls())
}

func TestFeedback_FailurePersistsNothing(t *testing.T) {
	gen := &countingGenerator{err: status.Error(codes.Unavailable, "upstream down")}
	svc, r, sub := newTestFeedback(t, gen)

	_, err := svc.Get(context.Background(), sub)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	_, err = r.Feedback.Get(context.Background(), sub.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	gen.err = nil
	fb, err := svc.Get(context.Background(), sub)
	require.NoError(t, err)
	assert.NotNil(t, fb)
	assert.Equal(t, 2, gen.Calls())
}

// losingFeedback pretends another process wrote first.
type losingFeedback struct {
	repo.IFeedback
	winner *model.Feedback
}

func (l *losingFeedback) Create(ctx context.Context, fb *model.Feedback) error {
	_ = l.IFeedback.Create(ctx, l.winner)
	return repo.ErrAlreadyExists
}

func TestFeedback_DuplicateReturnsWinner(t *testing.T) {
	svc, r, sub := newTestFeedback(t, &countingGenerator{})
	winner := &model.Feedback{FeedbackID: sub.ID, InterviewID: sub.ID, Email: sub.Email, Items: testItems("10", "10", "10", "10", "10")}
	r.Feedback = &losingFeedback{IFeedback: r.Feedback, winner: winner}

	fb, err := svc.Get(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "10", fb.Items[0].Rating)
}

func TestFeedback_PublishFailureIsLogged(t *testing.T) {
	_, r, sub := newTestFeedback(t, &countingGenerator{})
	core, logs := observer.New(zap.WarnLevel)
	events := NewEvents(&recordingRabbit{err: errors.New("channel closed")}, true, zap.NewNop())
	svc := NewFeedbackService(r, &countingGenerator{}, redis.Dummy(), events, FeedbackConfig{}, zap.New(core))

	fb, err := svc.Get(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, fb.InterviewID)

	entries := logs.FilterMessage("Failed to announce feedback").All()
	require.Len(t, entries, 1)
	assert.Equal(t, sub.ID, entries[0].ContextMap()["interviewId"])
}

func TestFeedback_GetByIDChecksOwner(t *testing.T) {
	svc, _, sub := newTestFeedback(t, &countingGenerator{})

	_, err := svc.GetByID(context.Background(), "other@b.co", sub.ID)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = svc.GetByID(context.Background(), sub.Email, "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))

	fb, err := svc.GetByID(context.Background(), sub.Email, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, fb.InterviewID)
}

// heldLock reports the distributed lock as taken by someone else.
type heldLock struct {
	redis.Redis
}

func (heldLock) Lock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return false, nil
}

func TestFeedback_WaitsForRemoteHolder(t *testing.T) {
	gen := &countingGenerator{}
	svc, r, sub := newTestFeedback(t, gen)
	svc.cache = heldLock{Redis: redis.Dummy()}

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = r.Feedback.Create(context.Background(), &model.Feedback{FeedbackID: sub.ID, InterviewID: sub.ID, Items: testItems("5")})
	}()

	fb, err := svc.Get(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "5", fb.Items[0].Rating)
	assert.Equal(t, 0, gen.Calls())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	other := *sub
	other.ID = "other"
	_, err = svc.Get(ctx, &other)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || status.Code(err) == codes.DeadlineExceeded)
}
