package repo

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrInvalidTime   = errors.New("invalid time")
)

// mysql duplicate-entry error number
const errDupEntry = 1062

type Repository struct {
	User       IUser
	Submission ISubmission
	Feedback   IFeedback
	DB         *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{
		DB:         db,
		User:       NewUserRepository(db),
		Submission: NewSubmissionRepository(db),
		Feedback:   NewFeedbackRepository(db),
	}
}

// NewMemory returns a repository backed by process memory.
func NewMemory() *Repository {
	return &Repository{
		User:       NewMemoryUser(),
		Submission: NewMemorySubmission(),
		Feedback:   NewMemoryFeedback(),
	}
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDupEntry
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
