package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interviewai/internal/features"
	"interviewai/internal/model"
	logging "interviewai/pkg/logger/pkg"
)

const (
	errGeneratingQuestions = "Error generating questions"
	errGeneratingFeedback  = "Error generating feedback"
)

type generateQuestionsRequest struct {
	JobRole         string `json:"jobRole"`
	ExperienceLevel string `json:"experienceLevel"`
	JobDescription  string `json:"jobDescription"`
}

type generateFeedbackRequest struct {
	InterviewID     string   `json:"interviewID"`
	QuestionList    []string `json:"questionList"`
	Answers         []string `json:"answers"`
	JobRole         string   `json:"jobRole"`
	ExperienceLevel string   `json:"experienceLevel"`
	JobDescription  string   `json:"jobDescription"`
}

func (h *Handler) Test(c *gin.Context) {
	c.String(http.StatusOK, "Server is working")
}

// GenerateQuestions relays to the model and returns its text untouched.
// Every failure answers 500 with the same body.
func (h *Handler) GenerateQuestions(c *gin.Context) {
	var req generateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.Logger(c.Request.Context()).Warn("Bad generate-questions body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGeneratingQuestions})
		return
	}

	raw, err := h.svc.Relay.GenerateQuestions(c.Request.Context(), model.JobContext{
		JobRole:         req.JobRole,
		ExperienceLevel: req.ExperienceLevel,
		JobDescription:  req.JobDescription,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGeneratingQuestions})
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": raw})
}

func (h *Handler) GenerateFeedback(c *gin.Context) {
	var req generateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.Logger(c.Request.Context()).Warn("Bad generate-feedback body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGeneratingFeedback})
		return
	}

	raw, err := h.svc.Relay.GenerateFeedback(c.Request.Context(), features.FeedbackInput{
		InterviewID: req.InterviewID,
		Questions:   req.QuestionList,
		Answers:     req.Answers,
		Job: model.JobContext{
			JobRole:         req.JobRole,
			ExperienceLevel: req.ExperienceLevel,
			JobDescription:  req.JobDescription,
		},
	})
	if err != nil {
		logging.Logger(c.Request.Context()).Warn("Feedback relay failed", zap.String("interviewId", req.InterviewID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGeneratingFeedback})
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": raw})
}
