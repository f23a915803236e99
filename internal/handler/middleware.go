package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	ext "interviewai/internal/utils/extractor"
	logging "interviewai/pkg/logger/pkg"
)

// RequestID reuses the caller's x-request-id or mints one, and puts it on the request context.
func (h *Handler) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := h.extractor.GetRequestID(c)
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Header(ext.XRequestID, id)
		c.Next()
	}
}

func (h *Handler) AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Logger(c.Request.Context()).Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIP", c.ClientIP()))
	}
}

// Auth requires the authToken and email cookies and a token issued for that email.
func (h *Handler) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		email, err := h.svc.Accounts.Authenticate(h.extractor.GetAuthToken(c), h.extractor.GetEmailCookie(c))
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.Set(ext.KeyEmail, email)
		c.Next()
	}
}

// CORS allows a single origin with credentials.
func CORS(origin string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{origin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{ext.XRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
