package extractor

import (
	"strings"

	"github.com/gin-gonic/gin"
)

type Extractor interface {
	GetFirst(c *gin.Context, name string) string
	GetRequestID(c *gin.Context) string
	GetXForwardedFor(c *gin.Context) string
	GetAuthToken(c *gin.Context) string
	GetEmailCookie(c *gin.Context) string
	GetEmail(c *gin.Context) (string, bool)
}

type extractor struct {
}

func New() Extractor {
	return &extractor{}
}

func (t *extractor) GetFirst(c *gin.Context, name string) string {
	return c.GetHeader(name)
}

func (t *extractor) GetRequestID(c *gin.Context) string {
	return t.GetFirst(c, XRequestID)
}

func (t *extractor) GetXForwardedFor(c *gin.Context) string {
	values := c.Request.Header.Values(XForwardedFor)
	if len(values) == 0 {
		return ""
	}

	return strings.Join(values, ",")
}

func (t *extractor) cookie(c *gin.Context, name string) string {
	value, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return value
}

func (t *extractor) GetAuthToken(c *gin.Context) string {
	return t.cookie(c, CookieAuthToken)
}

func (t *extractor) GetEmailCookie(c *gin.Context) string {
	return t.cookie(c, CookieEmail)
}

// GetEmail returns the email the auth middleware verified for this request.
func (t *extractor) GetEmail(c *gin.Context) (string, bool) {
	email := c.GetString(KeyEmail)
	return email, email != ""
}
