package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"interviewai/internal/features"
)

func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.svc.Accounts.Profile(c.Request.Context(), h.email(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req features.ProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), h.email(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req features.PasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.svc.Accounts.ChangePassword(c.Request.Context(), h.email(c), req); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password Changed successfully"})
}

func (h *Handler) Deactivate(c *gin.Context) {
	if err := h.svc.Deactivate(c.Request.Context(), h.email(c)); err != nil {
		h.handleError(c, err)
		return
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}
