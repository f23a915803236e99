package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interviewai/internal/utils/sse"
	logging "interviewai/pkg/logger/pkg"
)

func writeEvent(c *gin.Context, msg sse.Notification) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// Events streams notifications for the signed-in user until the client goes away.
func (h *Handler) Events(c *gin.Context) {
	email := h.email(c)
	logger := logging.Logger(c.Request.Context()).With(zap.String("email", email))

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ch := make(chan sse.Notification, 10)
	unregister := h.svc.Hub.Register(email, ch)
	defer unregister()

	if err := writeEvent(c, sse.Notification{
		"type":      "connection_established",
		"timestamp": time.Now().Unix(),
	}); err != nil {
		logger.Debug("Event stream write failed", zap.Error(err))
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		var msg sse.Notification
		select {
		case <-c.Request.Context().Done():
			logger.Debug("Event stream closed")
			return
		case <-heartbeat.C:
			msg = sse.Notification{"type": "heartbeat", "timestamp": time.Now().Unix()}
		case msg = <-ch:
		}
		if err := writeEvent(c, msg); err != nil {
			logger.Debug("Event stream write failed", zap.Error(err))
			return
		}
	}
}
