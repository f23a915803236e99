package features

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interviewai/internal/model"
	"interviewai/internal/repo"
	"interviewai/internal/utils/checker"
)

const searchDateLayout = "02/01/2006"

// HistoryFilter narrows the history list. From and To are calendar days, both inclusive.
type HistoryFilter struct {
	Search string
	From   *time.Time
	To     *time.Time
}

type HistoryEntry struct {
	*model.Submission
	AverageRating *float64 `json:"averageRating,omitempty"`
}

type Detail struct {
	Submission *model.Submission `json:"interview"`
	Feedback   *model.Feedback   `json:"feedback"`
}

type HistoryService struct {
	repo     *repo.Repository
	feedback *FeedbackService
	location *time.Location
	logger   *zap.Logger
}

func NewHistoryService(r *repo.Repository, feedback *FeedbackService, location *time.Location, logger *zap.Logger) *HistoryService {
	if location == nil {
		location = time.UTC
	}
	return &HistoryService{repo: r, feedback: feedback, location: location, logger: logger}
}

func (h *HistoryService) dayBounds(f HistoryFilter) repo.ListQuery {
	var q repo.ListQuery
	if f.From != nil {
		y, m, d := f.From.Date()
		from := time.Date(y, m, d, 0, 0, 0, 0, h.location)
		q.From = &from
	}
	if f.To != nil {
		y, m, d := f.To.Date()
		to := time.Date(y, m, d+1, 0, 0, 0, 0, h.location).Add(-time.Nanosecond)
		q.To = &to
	}
	return q
}

func (h *HistoryService) matches(s *model.Submission, folded string) bool {
	if folded == "" {
		return true
	}
	fold := cases.Fold()
	date := s.CreatedAt.In(h.location).Format(searchDateLayout)
	return strings.Contains(fold.String(s.Job.JobRole), folded) ||
		strings.Contains(fold.String(s.Job.ExperienceLevel), folded) ||
		strings.Contains(date, folded)
}

// List returns email's submissions, newest first.
func (h *HistoryService) List(ctx context.Context, email string, f HistoryFilter) ([]HistoryEntry, error) {
	subs, err := h.repo.Submission.List(ctx, email, h.dayBounds(f))
	if errors.Is(err, repo.ErrInvalidTime) {
		return nil, status.Error(codes.InvalidArgument, "start date must not be after end date")
	}
	if err != nil {
		h.logger.Error("Failed to list submissions", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	folded := cases.Fold().String(strings.TrimSpace(f.Search))
	ids := make([]string, 0, len(subs))
	kept := subs[:0]
	for _, s := range subs {
		if h.matches(s, folded) {
			kept = append(kept, s)
			ids = append(ids, s.ID)
		}
	}

	feedbacks, err := h.repo.Feedback.ListByInterviewIDs(ctx, ids)
	if err != nil {
		h.logger.Error("Failed to load feedback for history", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	entries := make([]HistoryEntry, len(kept))
	for i, s := range kept {
		entries[i] = HistoryEntry{Submission: s}
		if fb, ok := feedbacks[s.ID]; ok {
			entries[i].AverageRating = AverageRating(fb.Items)
		}
	}
	return entries, nil
}

func (h *HistoryService) owned(ctx context.Context, email, id string) (*model.Submission, error) {
	sub, err := h.repo.Submission.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "interview %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if err := checker.CheckOwner(email, sub.Email); err != nil {
		return nil, err
	}
	return sub, nil
}

// Detail returns the submission and its feedback, nil when none has been generated.
func (h *HistoryService) Detail(ctx context.Context, email, id string) (*Detail, error) {
	sub, err := h.owned(ctx, email, id)
	if err != nil {
		return nil, err
	}
	fb, err := h.feedback.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Submission: sub, Feedback: fb}, nil
}

// Delete removes the submission only. Its feedback stays.
func (h *HistoryService) Delete(ctx context.Context, email, id string) error {
	if _, err := h.owned(ctx, email, id); err != nil {
		return err
	}
	if err := h.repo.Submission.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return status.Errorf(codes.NotFound, "interview %s not found", id)
		}
		return err
	}
	h.logger.Info("Submission deleted", zap.String("interviewId", id), zap.String("email", email))
	return nil
}

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseRating reads the leading number of a rating such as "7/10" or "8 out of 10".
// Text without one counts as 0.
func ParseRating(rating string) float64 {
	m := leadingFloat.FindString(strings.TrimSpace(rating))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// AverageRating is the mean rating halved, giving a score out of 5.
func AverageRating(items []model.FeedbackItem) *float64 {
	if len(items) == 0 {
		return nil
	}
	var total float64
	for _, it := range items {
		total += ParseRating(it.Rating)
	}
	avg := total / float64(len(items)) / 2
	return &avg
}
