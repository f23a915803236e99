package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"interviewai/internal/config"
	"interviewai/internal/database"
	"interviewai/internal/features"
	"interviewai/internal/repo"
	sv "interviewai/internal/service"
	"interviewai/internal/utils/redis"
	"interviewai/internal/utils/token"
	logging "interviewai/pkg/logger/pkg"
	rabbit "interviewai/pkg/rabbit/pkg"
	redispkg "interviewai/pkg/redis/pkg"
)

func Execute() {
	tmp := logging.NewTmpLogger()
	if err := godotenv.Load(); err != nil {
		tmp.Warn("No .env file loaded", zap.Error(err))
	}
	if err := config.Load(tmp); err != nil {
		tmp.Fatal("Failed to load config", zap.Error(err))
	}

	if err := logging.InitLogger(logging.ReadConfig()); err != nil {
		tmp.Fatal("Failed to initialize logger", zap.Error(err))
	}
	logger := logging.Logger(context.Background())
	defer logger.Sync()

	if viper.GetBool("tracing.enabled") {
		tracer.Start(tracer.WithServiceName(os.Getenv("DD_SERVICE")))
		defer tracer.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, closeRepo := openRepository(ctx, logger)
	defer closeRepo()

	cache := openCache(logger)
	rbCfg := rabbit.ReadConfig()

	svc := features.New(r,
		features.NewRelay(sv.NewGeminiClient(sv.ReadGeminiConfig(), logger), logger),
		cache,
		rabbit.New(rbCfg),
		token.NewProvider(token.ReadConfig()),
		readOptions(rbCfg.Enabled, logger),
		logger)
	svc.Start()
	defer svc.Shutdown()

	if rbCfg.Enabled {
		go startConsumer(ctx, svc, logger)
	}

	startHTTP(ctx, svc, logger)
}

func openRepository(ctx context.Context, logger *zap.Logger) (*repo.Repository, func()) {
	if !viper.GetBool("db.enabled") {
		logger.Warn("Database disabled, keeping data in memory")
		return repo.NewMemory(), func() {}
	}
	db, err := database.InitDB(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	return repo.New(db), func() { db.Close() }
}

func openCache(logger *zap.Logger) redis.Redis {
	cfg := redispkg.ReadConfig()
	if !cfg.Enabled {
		return redis.Dummy()
	}
	client, err := redispkg.New(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without cache", zap.String("address", cfg.Address), zap.Error(err))
		return redis.Dummy()
	}
	logger.Info("Redis connected", zap.String("address", cfg.Address))
	return redis.New(client)
}

func readOptions(brokered bool, logger *zap.Logger) features.Options {
	loc, err := time.LoadLocation(viper.GetString("server.timezone"))
	if err != nil {
		logger.Warn("Unknown timezone, using UTC", zap.String("timezone", viper.GetString("server.timezone")))
		loc = time.UTC
	}
	return features.Options{
		SessionIdleTTL: viper.GetDuration("session.idle_ttl"),
		Feedback: features.FeedbackConfig{
			CacheTTL: viper.GetDuration("redis.cache_ttl"),
			LockTTL:  viper.GetDuration("redis.lock_ttl"),
		},
		Worker:   features.ReadWorkerConfig(),
		Brokered: brokered,
		Location: loc,
		Google:   googleVerifier(logger),
	}
}

// googleVerifier returns nil, disabling Google sign-in, when no OAuth client id is set.
func googleVerifier(logger *zap.Logger) features.IdentityVerifier {
	clientID := token.ReadGoogleClientID()
	if clientID == "" {
		logger.Warn("auth.google_client_id not set, Google sign-in disabled")
		return nil
	}
	return token.NewGoogleVerifier(clientID)
}
