package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []EventType
	d.Subscribe(EventUserCreated, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	d.Subscribe(EventUserDeleted, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), NewEvent(EventUserCreated, "1", Actor{ID: "admin"}, nil)))
	require.NoError(t, d.Publish(context.Background(), NewEvent(EventUserUpdated, "1", Actor{}, nil)))
	require.Equal(t, []EventType{EventUserCreated}, got)
}

func TestDispatcherRunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	calls := 0
	d.Subscribe(EventUserDeleted, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventUserDeleted, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventUserDeleted, "7", Actor{}, UserDeletedPayload{Email: "x@example.com"}))
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)
}

func TestSubscribeAllRunsAfterTypedHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var order []string
	d.SubscribeAll(func(_ context.Context, e Event) error {
		order = append(order, "all:"+string(e.Type))
		return nil
	})
	d.Subscribe(EventUserCreated, func(context.Context, Event) error {
		order = append(order, "created")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), NewEvent(EventUserCreated, "1", Actor{}, nil)))
	require.NoError(t, d.Publish(context.Background(), NewEvent(EventUserDeleted, "1", Actor{}, nil)))
	require.Equal(t, []string{"created", "all:user_created", "all:user_deleted"}, order)
}

func TestNewEventStampsIDAndTime(t *testing.T) {
	e := NewEvent(EventUserUpdated, "3", Actor{ID: "a"}, UserUpdatedPayload{TeamID: "2"})
	require.NotEmpty(t, e.ID)
	require.False(t, e.Timestamp.IsZero())
	require.Equal(t, "3", e.UserID)
}

func TestStreamPublisherNilClientIsNoop(t *testing.T) {
	var p *StreamPublisher
	require.NoError(t, p.Handle(context.Background(), Event{}))
	require.NoError(t, NewStreamPublisher(nil, "s", 0).Handle(context.Background(), Event{}))
}
