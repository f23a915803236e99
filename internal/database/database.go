package database

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"interviewai/pkg/database/client"
	"interviewai/schema"
)

const driverName = "mysql_interviewai"

// InitDB opens the MySQL pool, checks the connection and creates missing tables.
func InitDB(ctx context.Context, logger *zap.Logger) (*sql.DB, error) {
	cfg := client.ReadConfig()

	db, err := client.Open(driverName, cfg)
	if err != nil {
		logger.Error("Error opening database", zap.Error(err))
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("Error connecting to database", zap.String("host", cfg.Host), zap.Error(err))
		db.Close()
		return nil, err
	}

	if err := schema.Create(ctx, db); err != nil {
		logger.Error("Error creating schema", zap.Error(err))
		db.Close()
		return nil, err
	}

	logger.Info("Database connected successfully", zap.String("host", cfg.Host), zap.String("name", cfg.Name))
	return db, nil
}
