package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	entsql "entgo.io/ent/dialect/sql"

	"interviewai/internal/model"
	"interviewai/schema"
)

var feedbackColumns = []string{
	"interview_id", "email", "job_role", "experience_level", "job_description", "items", "created_at",
}

type IFeedback interface {
	Get(ctx context.Context, interviewID string) (*model.Feedback, error)
	// Create inserts only when no record exists for the interview id and
	// returns ErrAlreadyExists otherwise.
	Create(ctx context.Context, fb *model.Feedback) error
	ListByInterviewIDs(ctx context.Context, ids []string) (map[string]*model.Feedback, error)
}

type SQLFeedback struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) IFeedback {
	return &SQLFeedback{db: db}
}

func scanFeedback(row rowScanner) (*model.Feedback, error) {
	var (
		fb    model.Feedback
		items []byte
	)
	err := row.Scan(&fb.InterviewID, &fb.Email, &fb.Job.JobRole, &fb.Job.ExperienceLevel, &fb.Job.JobDescription,
		&items, &fb.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &fb.Items); err != nil {
		return nil, err
	}
	fb.FeedbackID = fb.InterviewID
	return &fb, nil
}

func (r *SQLFeedback) Get(ctx context.Context, interviewID string) (*model.Feedback, error) {
	query, args := builder().Select(feedbackColumns...).
		From(builder().Table(schema.FeedbacksTable)).
		Where(entsql.EQ("interview_id", interviewID)).
		Query()
	fb, err := scanFeedback(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return fb, nil
}

func (r *SQLFeedback) Create(ctx context.Context, fb *model.Feedback) error {
	items, err := json.Marshal(fb.Items)
	if err != nil {
		return err
	}
	query, args := builder().Insert(schema.FeedbacksTable).
		Columns(feedbackColumns...).
		Values(fb.InterviewID, fb.Email, fb.Job.JobRole, fb.Job.ExperienceLevel, fb.Job.JobDescription,
			string(items), fb.CreatedAt.UTC()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *SQLFeedback) ListByInterviewIDs(ctx context.Context, ids []string) (map[string]*model.Feedback, error) {
	out := make(map[string]*model.Feedback, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query, qargs := builder().Select(feedbackColumns...).
		From(builder().Table(schema.FeedbacksTable)).
		Where(entsql.In("interview_id", args...)).
		Query()
	rows, err := r.db.QueryContext(ctx, query, qargs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out[fb.InterviewID] = fb
	}
	return out, rows.Err()
}
