package handler

import (
	"github.com/gin-gonic/gin"
)

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.Use(h.RequestID(), h.AccessLog())

	r.GET("/test", h.Test)

	api := r.Group("/api")
	api.POST("/generate-questions", h.GenerateQuestions)
	api.POST("/generate-feedback", h.GenerateFeedback)

	auth := api.Group("/auth")
	auth.POST("/signup", h.SignUp)
	auth.POST("/signin", h.SignIn)
	auth.POST("/google", h.SignInWithGoogle)
	auth.POST("/signout", h.SignOut)

	private := api.Group("", h.Auth())

	private.GET("/profile", h.GetProfile)
	private.PUT("/profile", h.UpdateProfile)
	private.DELETE("/profile", h.Deactivate)
	private.PUT("/profile/password", h.ChangePassword)

	private.POST("/interview/start", h.StartInterview)
	private.GET("/interview", h.GetInterview)
	private.POST("/interview/next", h.Next)
	private.POST("/interview/previous", h.Previous)
	private.POST("/interview/save", h.Save)
	private.POST("/interview/submit", h.Submit)
	private.POST("/interview/quit", h.Quit)

	private.GET("/feedback/:id", h.GetFeedback)

	private.GET("/history", h.ListHistory)
	private.GET("/history/:id", h.GetHistory)
	private.DELETE("/history/:id", h.DeleteHistory)

	private.GET("/events", h.Events)
}

// NewRouter builds the engine with CORS for origin and every route registered.
func NewRouter(h *Handler, origin string, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), CORS(origin))
	r.Use(middleware...)
	h.Register(r)
	return r
}
