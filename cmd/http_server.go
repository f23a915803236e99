package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"interviewai/internal/features"
	"interviewai/internal/handler"
)

// startHTTP serves until ctx is cancelled, then drains within server.shutdown_timeout.
func startHTTP(ctx context.Context, svc *features.InterviewAI, logger *zap.Logger) {
	if !viper.GetBool("log.pretty") {
		gin.SetMode(gin.ReleaseMode)
	}

	var middleware []gin.HandlerFunc
	if viper.GetBool("tracing.enabled") {
		middleware = append(middleware, gintrace.Middleware(os.Getenv("DD_SERVICE")))
	}

	h := handler.New(svc, logger)
	h.SecureCookies(viper.GetBool("auth.secure_cookies"))
	router := handler.NewRouter(h, viper.GetString("cors.origin"), middleware...)

	addr := fmt.Sprintf("%s:%s", viper.GetString("server.host"), viper.GetString("server.port"))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("server.shutdown_timeout"))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	logger.Info("HTTP server stopped")
}
