package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"interviewai/internal/model"
	"interviewai/internal/utils/sort"
	"interviewai/schema"
)

var submissionColumns = []string{
	"id", "email", "job_role", "experience_level", "job_description", "questions", "answers", "created_at",
}

// ListQuery narrows a submission listing. From and To are inclusive bounds.
type ListQuery struct {
	From *time.Time
	To   *time.Time
}

// Validate rejects half-open or inverted ranges.
func (q ListQuery) Validate() error {
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return ErrInvalidTime
	}
	return nil
}

func (q ListQuery) match(t time.Time) bool {
	if q.From != nil && t.Before(*q.From) {
		return false
	}
	if q.To != nil && t.After(*q.To) {
		return false
	}
	return true
}

type ISubmission interface {
	Create(ctx context.Context, s *model.Submission) error
	Get(ctx context.Context, id string) (*model.Submission, error)
	List(ctx context.Context, email string, q ListQuery) ([]*model.Submission, error)
	Delete(ctx context.Context, id string) error
}

type SQLSubmission struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) ISubmission {
	return &SQLSubmission{db: db}
}

func (r *SQLSubmission) Create(ctx context.Context, s *model.Submission) error {
	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return err
	}
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return err
	}
	query, args := builder().Insert(schema.SubmissionsTable).
		Columns(submissionColumns...).
		Values(s.ID, s.Email, s.Job.JobRole, s.Job.ExperienceLevel, s.Job.JobDescription,
			string(questions), string(answers), s.CreatedAt.UTC()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	var (
		s                  model.Submission
		questions, answers []byte
	)
	err := row.Scan(&s.ID, &s.Email, &s.Job.JobRole, &s.Job.ExperienceLevel, &s.Job.JobDescription,
		&questions, &answers, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &s.Questions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLSubmission) Get(ctx context.Context, id string) (*model.Submission, error) {
	query, args := builder().Select(submissionColumns...).
		From(builder().Table(schema.SubmissionsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// List returns the submissions owned by email, newest first.
func (r *SQLSubmission) List(ctx context.Context, email string, q ListQuery) ([]*model.Submission, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	preds := []*entsql.Predicate{entsql.EQ("email", email)}
	if q.From != nil {
		preds = append(preds, entsql.GTE("created_at", q.From.UTC()))
	}
	if q.To != nil {
		preds = append(preds, entsql.LTE("created_at", q.To.UTC()))
	}
	order, err := sort.GetSort(submissionColumns, schema.SubmissionsTable,
		[]sort.SortMethod{{Name: "created_at", Type: sort.SortTypeDesc}})
	if err != nil {
		return nil, err
	}
	selector := builder().Select(submissionColumns...).
		From(builder().Table(schema.SubmissionsTable)).
		Where(entsql.And(preds...))
	order(selector)
	query, args := selector.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLSubmission) Delete(ctx context.Context, id string) error {
	query, args := builder().Delete(schema.SubmissionsTable).Where(entsql.EQ("id", id)).Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
