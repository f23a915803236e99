package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"interviewai/internal/features"
	ext "interviewai/internal/utils/extractor"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// googleRequest carries the ID token the Google sign-in popup returned.
type googleRequest struct {
	Credential string `json:"credential"`
}

func (h *Handler) setAuthCookies(c *gin.Context, res *features.AuthResult) {
	maxAge := int(cookieMaxAge.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ext.CookieAuthToken, res.Token, maxAge, "/", "", h.secureCookie, true)
	c.SetCookie(ext.CookieEmail, res.User.Email, maxAge, "/", "", h.secureCookie, false)
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(ext.CookieAuthToken, "", -1, "/", "", h.secureCookie, true)
	c.SetCookie(ext.CookieEmail, "", -1, "/", "", h.secureCookie, false)
}

func (h *Handler) signedIn(c *gin.Context, code int, res *features.AuthResult) {
	h.svc.Sessions.Open(res.User)
	h.setAuthCookies(c, res)
	c.JSON(code, res)
}

func (h *Handler) SignUp(c *gin.Context) {
	var req features.SignUpRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Accounts.SignUp(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.signedIn(c, http.StatusCreated, res)
}

func (h *Handler) SignIn(c *gin.Context) {
	var req signInRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Accounts.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.signedIn(c, http.StatusOK, res)
}

func (h *Handler) SignInWithGoogle(c *gin.Context) {
	var req googleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Accounts.SignInWithGoogle(c.Request.Context(), req.Credential)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.signedIn(c, http.StatusOK, res)
}

func (h *Handler) SignOut(c *gin.Context) {
	if email, err := h.svc.Accounts.Authenticate(h.extractor.GetAuthToken(c), h.extractor.GetEmailCookie(c)); err == nil {
		h.svc.SignOut(email)
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}
