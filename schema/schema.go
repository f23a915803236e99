// Package schema holds the MySQL table definitions for users, credentials,
// submissions and feedbacks.
package schema

import (
	"context"
	"database/sql"
	"errors"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/go-sql-driver/mysql"
)

const (
	UsersTable       = "users"
	CredentialsTable = "credentials"
	SubmissionsTable = "submissions"
	FeedbacksTable   = "feedbacks"
)

// mysql error raised by CREATE INDEX when the index already exists.
const errDupKeyName = 1061

type index struct {
	name    string
	table   string
	columns []string
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.MySQL)
}

func tables() []*entsql.TableBuilder {
	b := builder()
	return []*entsql.TableBuilder{
		b.CreateTable(UsersTable).IfNotExists().
			Column(b.Column("email").Type("varchar(255)").Attr("NOT NULL")).
			Column(b.Column("first_name").Type("varchar(100)").Attr("NOT NULL")).
			Column(b.Column("last_name").Type("varchar(100)").Attr("NOT NULL")).
			Column(b.Column("avatar").Type("varchar(500)").Attr("NOT NULL DEFAULT ''")).
			Column(b.Column("provider").Type("varchar(32)").Attr("NOT NULL")).
			Column(b.Column("created_at").Type("datetime(3)").Attr("NOT NULL")).
			PrimaryKey("email"),
		b.CreateTable(CredentialsTable).IfNotExists().
			Column(b.Column("email").Type("varchar(255)").Attr("NOT NULL")).
			Column(b.Column("password_hash").Type("varchar(255)").Attr("NOT NULL")).
			Column(b.Column("updated_at").Type("datetime(3)").Attr("NOT NULL")).
			PrimaryKey("email"),
		b.CreateTable(SubmissionsTable).IfNotExists().
			Column(b.Column("id").Type("varchar(64)").Attr("NOT NULL")).
			Column(b.Column("email").Type("varchar(255)").Attr("NOT NULL")).
			Column(b.Column("job_role").Type("varchar(255)").Attr("NOT NULL")).
			Column(b.Column("experience_level").Type("varchar(64)").Attr("NOT NULL")).
			Column(b.Column("job_description").Type("text").Attr("NOT NULL")).
			Column(b.Column("questions").Type("json").Attr("NOT NULL")).
			Column(b.Column("answers").Type("json").Attr("NOT NULL")).
			Column(b.Column("created_at").Type("datetime(3)").Attr("NOT NULL")).
			PrimaryKey("id"),
		b.CreateTable(FeedbacksTable).IfNotExists().
			Column(b.Column("interview_id").Type("varchar(64)").Attr("NOT NULL")).
			Column(b.Column("email").Type("varchar(255)").Attr("NOT NULL")).
			Column(b.Column("job_role").Type("varchar(255)").Attr("NOT NULL")).
			Column(b.Column("experience_level").Type("varchar(64)").Attr("NOT NULL")).
			Column(b.Column("job_description").Type("text").Attr("NOT NULL")).
			Column(b.Column("items").Type("json").Attr("NOT NULL")).
			Column(b.Column("created_at").Type("datetime(3)").Attr("NOT NULL")).
			PrimaryKey("interview_id"),
	}
}

var indexes = []index{
	{name: "submissions_email_created_at", table: SubmissionsTable, columns: []string{"email", "created_at"}},
	{name: "feedbacks_email", table: FeedbacksTable, columns: []string{"email"}},
}

// Create creates missing tables and indexes.
func Create(ctx context.Context, db *sql.DB) error {
	for _, t := range tables() {
		query, args := t.Query()
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	for _, idx := range indexes {
		query, args := builder().CreateIndex(idx.name).Table(idx.table).Columns(idx.columns...).Query()
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			var myErr *mysql.MySQLError
			if errors.As(err, &myErr) && myErr.Number == errDupKeyName {
				continue
			}
			return err
		}
	}
	return nil
}
