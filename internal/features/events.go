package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	gen "interviewai/internal/utils/generator"
	rabbit "interviewai/pkg/rabbit/pkg"
)

const (
	EventSubmissionCreated = "submission.created"
	EventFeedbackGenerated = "feedback.generated"
)

// ErrNoHandler is returned by Publish when there is neither a broker nor a local handler.
var ErrNoHandler = errors.New("no event handler")

type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	InterviewID string    `json:"interviewId"`
	Email       string    `json:"email"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Events publishes domain events to RabbitMQ. Without a broker they are
// handed straight to the local handler instead.
type Events struct {
	rabbit   rabbit.Rabbit
	brokered bool
	local    func(ctx context.Context, ev *Event) error
	logger   *zap.Logger
	now      func() time.Time
}

func NewEvents(rb rabbit.Rabbit, brokered bool, logger *zap.Logger) *Events {
	return &Events{
		rabbit:   rb,
		brokered: brokered,
		logger:   logger,
		now:      time.Now,
	}
}

// HandleLocally sets the handler used when no broker is configured.
func (e *Events) HandleLocally(fn func(ctx context.Context, ev *Event) error) {
	e.local = fn
}

func (e *Events) Publish(ctx context.Context, eventType, interviewID, email string) error {
	ev := &Event{
		ID:          gen.GenerateUUID(),
		Type:        eventType,
		InterviewID: interviewID,
		Email:       email,
		OccurredAt:  e.now().UTC(),
	}

	if !e.brokered {
		if e.local == nil {
			return ErrNoHandler
		}
		go func() {
			if err := e.local(context.WithoutCancel(ctx), ev); err != nil {
				e.logger.Warn("Local event handler failed", zap.String("type", ev.Type),
					zap.String("interviewId", ev.InterviewID), zap.Error(err))
			}
		}()
		return nil
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := e.rabbit.Publish(ctx, body); err != nil {
		e.logger.Error("Failed to publish event", zap.String("type", ev.Type),
			zap.String("interviewId", ev.InterviewID), zap.Error(err))
		return err
	}
	e.logger.Debug("Published event", zap.String("type", ev.Type), zap.String("interviewId", ev.InterviewID))
	return nil
}

// DecodeEvent reads an event from a broker delivery.
func DecodeEvent(msg amqp.Delivery) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" || ev.InterviewID == "" {
		return nil, fmt.Errorf("decode event: missing type or interviewId")
	}
	return &ev, nil
}
