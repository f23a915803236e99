package client

import (
	"database/sql"
	"os"
	"time"

	sqltrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/database/sql"
)

// Open registers the driver under name and returns a pooled handle.
func Open(name string, cfg *Database) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	driver := NewDriver(cfg)
	if cfg.TracingEnabled {
		sqltrace.Register(name, driver, sqltrace.WithServiceName(os.Getenv("DD_SERVICE")))
		db, err = sqltrace.Open(name, "", sqltrace.WithServiceName(os.Getenv("DD_SERVICE")))
	} else {
		sql.Register(name, driver)
		db, err = sql.Open(name, "")
	}
	if err != nil {
		return nil, err
	}

	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(int(cfg.MaxIdleConns))
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxOpenConns))
	}
	if cfg.ConnMaxLifeTime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifeTime) * time.Minute)
	}
	return db, nil
}
