package extractor

const (
	XRequestID    = "x-request-id"
	XForwardedFor = "x-forwarded-for"

	CookieAuthToken = "authToken"
	CookieEmail     = "email"

	// gin context keys set by the auth middleware
	KeyEmail = "email"
)
