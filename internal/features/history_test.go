package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interviewai/internal/model"
	"interviewai/internal/repo"
	"interviewai/internal/utils/redis"
	rabbit "interviewai/pkg/rabbit/pkg"
)

func seedHistory(t *testing.T) (*HistoryService, *repo.Repository) {
	t.Helper()
	r := repo.NewMemory()
	ctx := context.Background()
	subs := []*model.Submission{
		{ID: "1", Email: "a@b.co", Job: model.JobContext{JobRole: "Backend Engineer", ExperienceLevel: "Senior"},
			CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "2", Email: "a@b.co", Job: model.JobContext{JobRole: "Data Analyst", ExperienceLevel: "Junior"},
			CreatedAt: time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)},
		{ID: "3", Email: "a@b.co", Job: model.JobContext{JobRole: "STRASSE Planner", ExperienceLevel: "Mid"},
			CreatedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)},
		{ID: "4", Email: "c@d.co", Job: model.JobContext{JobRole: "Backend Engineer", ExperienceLevel: "Senior"},
			CreatedAt: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)},
	}
	for _, s := range subs {
		require.NoError(t, r.Submission.Create(ctx, s))
	}
	require.NoError(t, r.Feedback.Create(ctx, &model.Feedback{
		FeedbackID: "1", InterviewID: "1", Email: "a@b.co",
		Items: testItems("8", "6", "7/10", "none", "9"),
	}))

	events := NewEvents(&rabbit.Dummy{}, true, zap.NewNop())
	fb := NewFeedbackService(r, &countingGenerator{}, redis.Dummy(), events, FeedbackConfig{}, zap.NewNop())
	return NewHistoryService(r, fb, time.UTC, zap.NewNop()), r
}

func ids(entries []HistoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestHistory_ListNewestFirstWithRating(t *testing.T) {
	h, _ := seedHistory(t)
	entries, err := h.List(context.Background(), "a@b.co", HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, ids(entries))

	assert.Nil(t, entries[0].AverageRating)
	require.NotNil(t, entries[2].AverageRating)
	assert.InDelta(t, 3.0, *entries[2].AverageRating, 1e-9)
}

func TestHistory_Search(t *testing.T) {
	h, _ := seedHistory(t)
	tests := []struct {
		search string
		want   []string
	}{
		{"backend", []string{"1"}},
		{"JUNIOR", []string{"2"}},
		{"05/03/2024", []string{"2"}},
		{"/03/", []string{"3", "2", "1"}},
		{"straße", []string{"3"}},
		{"nothing", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			entries, err := h.List(context.Background(), "a@b.co", HistoryFilter{Search: tt.search})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(entries))
		})
	}
}

func TestHistory_DateRangeInclusive(t *testing.T) {
	h, _ := seedHistory(t)
	entries, err := h.List(context.Background(), "a@b.co", HistoryFilter{From: day(2024, 3, 1), To: day(2024, 3, 5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, ids(entries))

	_, err = h.List(context.Background(), "a@b.co", HistoryFilter{From: day(2024, 3, 6), To: day(2024, 3, 5)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHistory_DetailAndDelete(t *testing.T) {
	h, r := seedHistory(t)
	ctx := context.Background()

	d, err := h.Detail(ctx, "a@b.co", "1")
	require.NoError(t, err)
	assert.Equal(t, "1", d.Submission.ID)
	require.NotNil(t, d.Feedback)

	d, err = h.Detail(ctx, "a@b.co", "2")
	require.NoError(t, err)
	assert.Nil(t, d.Feedback)

	_, err = h.Detail(ctx, "a@b.co", "4")
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, codes.PermissionDenied, status.Code(h.Delete(ctx, "a@b.co", "4")))

	require.NoError(t, h.Delete(ctx, "a@b.co", "1"))
	assert.Equal(t, codes.NotFound, status.Code(h.Delete(ctx, "a@b.co", "1")))
	_, err = r.Feedback.Get(ctx, "1")
	assert.NoError(t, err, "feedback outlives its submission")
}

func TestParseRating(t *testing.T) {
	tests := map[string]float64{
		"8":            8,
		" 7.5 ":        7.5,
		"7/10":         7,
		"9 out of 10":  9,
		".5":           0.5,
		"-1":           -1,
		"none":         0,
		"":             0,
		"Rating: 6/10": 0,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseRating(in), in)
	}
	assert.Nil(t, AverageRating(nil))
}
