package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interviewai/internal/features"
	"interviewai/internal/repo"
	ext "interviewai/internal/utils/extractor"
	"interviewai/internal/utils/parser"
	logging "interviewai/pkg/logger/pkg"
)

const cookieMaxAge = 24 * time.Hour

type Handler struct {
	svc          *features.InterviewAI
	extractor    ext.Extractor
	logger       *zap.Logger
	secureCookie bool
	heartbeat    time.Duration
}

func New(svc *features.InterviewAI, logger *zap.Logger) *Handler {
	return &Handler{
		svc:       svc,
		extractor: ext.New(),
		logger:    logger,
		heartbeat: 60 * time.Second,
	}
}

// SecureCookies marks auth cookies Secure, for deployments behind TLS.
func (h *Handler) SecureCookies(secure bool) {
	h.secureCookie = secure
}

// statusCode maps service errors onto HTTP. grpc status codes go through the
// gateway table; sentinels from the controller and repositories are mapped here.
func statusCode(err error) int {
	var perr *parser.ParseError
	switch {
	case errors.As(err, &perr):
		return http.StatusBadGateway
	case errors.Is(err, features.ErrInvalidTransition),
		errors.Is(err, features.ErrBusy),
		errors.Is(err, repo.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, features.ErrQuestionCount):
		return http.StatusBadGateway
	case errors.Is(err, features.ErrNoOwner):
		return http.StatusUnauthorized
	case errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repo.ErrInvalidTime):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	if st, ok := status.FromError(err); ok {
		return runtime.HTTPStatusFromCode(st.Code())
	}
	return http.StatusInternalServerError
}

func message(err error, code int) string {
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return st.Message()
	}
	if code >= http.StatusInternalServerError && code != http.StatusBadGateway {
		return "internal error"
	}
	return err.Error()
}

func (h *Handler) handleError(c *gin.Context, err error) {
	code := statusCode(err)
	logger := logging.Logger(c.Request.Context())
	if code >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Int("status", code), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.String("path", c.FullPath()), zap.Int("status", code), zap.Error(err))
	}
	c.AbortWithStatusJSON(code, gin.H{"error": message(err, code)})
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.handleError(c, status.Errorf(codes.InvalidArgument, "invalid request body: %v", err))
		return false
	}
	return true
}

// email returns the caller verified by the auth middleware.
func (h *Handler) email(c *gin.Context) string {
	email, _ := h.extractor.GetEmail(c)
	return email
}
