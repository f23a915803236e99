package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"interviewai/internal/features"
	"interviewai/internal/model"
)

type answerRequest struct {
	Answer string `json:"answer"`
}

func (h *Handler) StartInterview(c *gin.Context) {
	var req model.JobContext
	if !h.bindJSON(c, &req) {
		return
	}
	snap, err := h.svc.StartInterview(c.Request.Context(), h.email(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) controller(c *gin.Context) (*features.Controller, bool) {
	store, err := h.svc.Session(c.Request.Context(), h.email(c))
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	return store.Controller(), true
}

func (h *Handler) GetInterview(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// move applies one answer-carrying transition and returns the new snapshot.
func (h *Handler) move(c *gin.Context, step func(ctrl *features.Controller, text string) error) {
	var req answerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := step(ctrl, req.Answer); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) Next(c *gin.Context) {
	h.move(c, (*features.Controller).Next)
}

func (h *Handler) Previous(c *gin.Context) {
	h.move(c, (*features.Controller).Previous)
}

func (h *Handler) Save(c *gin.Context) {
	h.move(c, (*features.Controller).Save)
}

func (h *Handler) Submit(c *gin.Context) {
	var req answerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sub, err := h.svc.SubmitInterview(c.Request.Context(), h.email(c), req.Answer)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"interviewId": sub.ID, "interview": sub})
}

func (h *Handler) Quit(c *gin.Context) {
	store, err := h.svc.Session(c.Request.Context(), h.email(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if err := store.Quit(); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, store.Controller().Snapshot())
}
