package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/models"
)

func TestEventPublisherPublishesToRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	publisher := NewEventPublisher(client, nil, "classroom", testLogger())
	require.Equal(t, "classroom:submissions", publisher.Channel())
	require.Equal(t, "classroom.submissions", publisher.Subject())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, publisher.Channel())
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	grade := 95
	require.NoError(t, publisher.Publish(ctx, SubmissionEvent{
		Type:         EventSubmissionGraded,
		AssignmentID: 7,
		SubmissionID: 11,
		StudentID:    3,
		Status:       models.SubmissionStatusGraded,
		Grade:        &grade,
		ActorID:      1,
	}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event SubmissionEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	require.Equal(t, EventSubmissionGraded, event.Type)
	require.Equal(t, uint(11), event.SubmissionID)
	require.NotEmpty(t, event.Source)
	require.False(t, event.OccurredAt.IsZero())
	require.Equal(t, 95, *event.Grade)
}

func TestEventPublisherWithoutTransportsIsNoop(t *testing.T) {
	publisher := NewEventPublisher(nil, nil, "classroom", testLogger())
	require.NoError(t, publisher.Publish(context.Background(), SubmissionEvent{Type: EventSubmissionCreated}))
}

func TestEventPublisherReportsRedisFailure(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	defer client.Close()
	server.Close()

	publisher := NewEventPublisher(client, nil, "classroom", testLogger())
	require.Error(t, publisher.Publish(context.Background(), SubmissionEvent{Type: EventSubmissionCreated}))
}
