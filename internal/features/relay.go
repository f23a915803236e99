package features

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interviewai/internal/model"
	sv "interviewai/internal/service"
	"interviewai/internal/utils/parser"
)

// FeedbackInput is the relay payload for one finished interview.
type FeedbackInput struct {
	InterviewID string
	Questions   []string
	Answers     []string
	Job         model.JobContext
}

// Relay builds prompts and forwards them upstream once. It keeps no state between calls.
type Relay struct {
	generator sv.Generator
	logger    *zap.Logger
}

func NewRelay(generator sv.Generator, logger *zap.Logger) *Relay {
	return &Relay{generator: generator, logger: logger}
}

func validateJob(job model.JobContext) error {
	var missing []string
	if strings.TrimSpace(job.JobRole) == "" {
		missing = append(missing, "jobRole")
	}
	if strings.TrimSpace(job.ExperienceLevel) == "" {
		missing = append(missing, "experienceLevel")
	}
	if strings.TrimSpace(job.JobDescription) == "" {
		missing = append(missing, "jobDescription")
	}
	if len(missing) > 0 {
		return status.Errorf(codes.InvalidArgument, "missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// GenerateQuestions returns the raw model text for a question set.
func (r *Relay) GenerateQuestions(ctx context.Context, job model.JobContext) (string, error) {
	if err := validateJob(job); err != nil {
		return "", err
	}
	raw, err := r.generator.Generate(ctx, sv.QuestionsPrompt(job.JobRole, job.ExperienceLevel, job.JobDescription))
	if err != nil {
		r.logger.Error("Error generating questions", zap.String("jobRole", job.JobRole), zap.Error(err))
		return "", err
	}
	return raw, nil
}

// GenerateFeedback returns the raw model text for a feedback set. Both lists must be
// present; empty lists are forwarded as they are.
func (r *Relay) GenerateFeedback(ctx context.Context, in FeedbackInput) (string, error) {
	if in.Questions == nil || in.Answers == nil {
		return "", status.Error(codes.InvalidArgument, "Invalid data format: questions and answers must be arrays")
	}
	raw, err := r.generator.Generate(ctx, sv.FeedbackPrompt(in.Questions, in.Answers,
		in.Job.JobRole, in.Job.ExperienceLevel, in.Job.JobDescription))
	if err != nil {
		r.logger.Error("Error generating feedback", zap.String("interviewId", in.InterviewID), zap.Error(err))
		return "", err
	}
	return raw, nil
}

// Questions generates and parses a question set.
func (r *Relay) Questions(ctx context.Context, job model.JobContext) ([]model.Question, error) {
	raw, err := r.GenerateQuestions(ctx, job)
	if err != nil {
		return nil, err
	}
	qs, err := parser.ParseQuestions(raw).Unwrap()
	if err != nil {
		r.logger.Warn("Unusable question payload", zap.String("jobRole", job.JobRole), zap.Error(err))
		return nil, fmt.Errorf("questions: %w", err)
	}
	return qs, nil
}

// Feedback generates and parses a feedback set for a stored submission.
func (r *Relay) Feedback(ctx context.Context, s *model.Submission) ([]model.FeedbackItem, error) {
	raw, err := r.GenerateFeedback(ctx, FeedbackInput{
		InterviewID: s.ID,
		Questions:   s.QuestionTexts(),
		Answers:     model.NormalizeAnswers(s.Answers, len(s.Questions)),
		Job:         s.Job,
	})
	if err != nil {
		return nil, err
	}
	items, err := parser.ParseFeedback(raw).Unwrap()
	if err != nil {
		r.logger.Warn("Unusable feedback payload", zap.String("interviewId", s.ID), zap.Error(err))
		return nil, fmt.Errorf("feedback: %w", err)
	}
	return items, nil
}
