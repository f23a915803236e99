package repo

import (
	"context"
	"database/sql"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"interviewai/internal/model"
	"interviewai/internal/utils/tx"
	"interviewai/schema"
)

type IUser interface {
	Create(ctx context.Context, user *model.User, passwordHash string) error
	Get(ctx context.Context, email string) (*model.User, error)
	UpdateName(ctx context.Context, email, firstName, lastName string) error
	PasswordHash(ctx context.Context, email string) (string, error)
	SetPasswordHash(ctx context.Context, email, hash string) error
	Delete(ctx context.Context, email string) error
}

type SQLUser struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) IUser {
	return &SQLUser{db: db}
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.MySQL)
}

// Create stores the profile and, when passwordHash is set, its credential in one transaction.
func (r *SQLUser) Create(ctx context.Context, user *model.User, passwordHash string) error {
	err := tx.WithTransaction(ctx, r.db, func(ctx context.Context, t tx.Tx) error {
		query, args := builder().Insert(schema.UsersTable).
			Columns("email", "first_name", "last_name", "avatar", "provider", "created_at").
			Values(user.Email, user.FirstName, user.LastName, user.Avatar, user.Provider, user.CreatedAt.UTC()).
			Query()
		if _, err := t.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		if passwordHash == "" {
			return nil
		}
		query, args = builder().Insert(schema.CredentialsTable).
			Columns("email", "password_hash", "updated_at").
			Values(user.Email, passwordHash, time.Now().UTC()).
			Query()
		_, err := t.ExecContext(ctx, query, args...)
		return err
	})
	if isDuplicate(err) {
		return ErrAlreadyExists
	}
	return err
}

func (r *SQLUser) Get(ctx context.Context, email string) (*model.User, error) {
	query, args := builder().
		Select("email", "first_name", "last_name", "avatar", "provider", "created_at").
		From(builder().Table(schema.UsersTable)).
		Where(entsql.EQ("email", email)).
		Query()
	var u model.User
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&u.Email, &u.FirstName, &u.LastName, &u.Avatar, &u.Provider, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *SQLUser) UpdateName(ctx context.Context, email, firstName, lastName string) error {
	query, args := builder().Update(schema.UsersTable).
		Set("first_name", firstName).
		Set("last_name", lastName).
		Where(entsql.EQ("email", email)).
		Query()
	return r.execAffecting(ctx, query, args)
}

func (r *SQLUser) PasswordHash(ctx context.Context, email string) (string, error) {
	query, args := builder().
		Select("password_hash").
		From(builder().Table(schema.CredentialsTable)).
		Where(entsql.EQ("email", email)).
		Query()
	var hash string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&hash); err != nil {
		return "", notFound(err)
	}
	return hash, nil
}

func (r *SQLUser) SetPasswordHash(ctx context.Context, email, hash string) error {
	query, args := builder().Update(schema.CredentialsTable).
		Set("password_hash", hash).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("email", email)).
		Query()
	return r.execAffecting(ctx, query, args)
}

// Delete removes the profile and revokes the credential.
func (r *SQLUser) Delete(ctx context.Context, email string) error {
	return tx.WithTransaction(ctx, r.db, func(ctx context.Context, t tx.Tx) error {
		query, args := builder().Delete(schema.UsersTable).Where(entsql.EQ("email", email)).Query()
		res, err := t.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		query, args = builder().Delete(schema.CredentialsTable).Where(entsql.EQ("email", email)).Query()
		_, err = t.ExecContext(ctx, query, args...)
		return err
	})
}

func (r *SQLUser) execAffecting(ctx context.Context, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
