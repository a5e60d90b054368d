package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
)

// Submission event types.
const (
	EventSubmissionCreated     = "submission.created"
	EventSubmissionResubmitted = "submission.resubmitted"
	EventSubmissionGraded      = "submission.graded"
)

// SubmissionEvent is broadcast after a submission write is committed.
type SubmissionEvent struct {
	Type         string                  `json:"type"`
	Source       string                  `json:"source"`
	AssignmentID uint                    `json:"assignment_id"`
	SubmissionID uint                    `json:"submission_id"`
	StudentID    uint                    `json:"student_id"`
	Status       models.SubmissionStatus `json:"status"`
	Grade        *int                    `json:"grade,omitempty"`
	ActorID      uint                    `json:"actor_id"`
	OccurredAt   time.Time               `json:"occurred_at"`
}

// EventPublisher fans submission events out to the configured brokers.
type EventPublisher interface {
	Publish(ctx context.Context, event SubmissionEvent) error
	Channel() string
	Subject() string
}

type eventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
}

// NewEventPublisher builds a publisher on Redis pub/sub and NATS. Either
// transport may be nil.
func NewEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":submissions"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".submissions"
	}

	return &eventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *eventPublisher) Channel() string {
	return p.redisChannel
}

func (p *eventPublisher) Subject() string {
	return p.natsSubject
}

func (p *eventPublisher) Publish(ctx context.Context, event SubmissionEvent) error {
	event.Source = p.nodeID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		} else {
			observability.EventsPublished().WithLabelValues("redis").Inc()
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			errs = append(errs, err)
		} else {
			observability.EventsPublished().WithLabelValues("nats").Inc()
		}
	}

	return errors.Join(errs...)
}

// publishQuietly logs publication failures; the write they describe is already committed.
func publishQuietly(ctx context.Context, publisher EventPublisher, logger zerolog.Logger, event SubmissionEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn().Err(err).Str("event", event.Type).Uint("submission_id", event.SubmissionID).Msg("failed to publish submission event")
	}
}
