package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interviewai/internal/features"
)

const queryDateLayout = "2006-01-02"

type historyQuery struct {
	Search string `form:"search"`
	From   string `form:"from"`
	To     string `form:"to"`
}

func parseDay(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(queryDateLayout, value)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a YYYY-MM-DD date", name)
	}
	return &t, nil
}

func (h *Handler) ListHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.handleError(c, status.Errorf(codes.InvalidArgument, "invalid query: %v", err))
		return
	}
	from, err := parseDay(q.From, "from")
	if err != nil {
		h.handleError(c, err)
		return
	}
	to, err := parseDay(q.To, "to")
	if err != nil {
		h.handleError(c, err)
		return
	}

	entries, err := h.svc.History.List(c.Request.Context(), h.email(c), features.HistoryFilter{
		Search: q.Search,
		From:   from,
		To:     to,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": entries})
}

func (h *Handler) GetHistory(c *gin.Context) {
	detail, err := h.svc.History.Detail(c.Request.Context(), h.email(c), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) DeleteHistory(c *gin.Context) {
	if err := h.svc.History.Delete(c.Request.Context(), h.email(c), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetFeedback returns the interview's feedback, generating it on first request.
func (h *Handler) GetFeedback(c *gin.Context) {
	fb, err := h.svc.FeedbackFor(c.Request.Context(), h.email(c), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, fb)
}
