package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/Wyydra/callbridge/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *NotificationRelay) {
	t.Helper()
	relay := NewNotificationRelay(nil)
	d := NewDispatcher(relay, nil, 64)
	t.Cleanup(d.Stop)
	return d, relay
}

func notification(id, title string) domain.NotificationEvent {
	return domain.NotificationEvent{Envelope: domain.NotificationEnvelope{ID: id, Title: title}}
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sub := newRecordingSubscriber("ui")
	d.Attach(sub)

	for i := 0; i < 100; i++ {
		d.Dispatch(notification(fmt.Sprint(i), "n"))
	}

	events := sub.waitForEvents(t, 100)
	require.Len(t, events, 100)
	for i, e := range events {
		assert.Equal(t, fmt.Sprint(i), e.(domain.NotificationEvent).Envelope.ID)
	}
}

func TestDispatcherDropsNonNotificationsWithoutSubscriber(t *testing.T) {
	d, relay := newTestDispatcher(t)

	d.Dispatch(domain.CallInviteEvent{InviteID: "CA1"})
	d.Dispatch(domain.RegistrationEvent{Token: "tok"})
	d.Dispatch(domain.CallStateChangedEvent{State: domain.StateRinging})

	_, ok := relay.Drain()
	assert.False(t, ok)

	sub := newRecordingSubscriber("ui")
	d.Attach(sub)
	assert.Never(t, func() bool { return len(sub.Events()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestDispatcherReplaysLatestNotificationOnce(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Dispatch(notification("1", "old"))
	d.Dispatch(notification("2", "new"))

	first := newRecordingSubscriber("first")
	d.Attach(first)
	events := first.waitForEvents(t, 1)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].(domain.NotificationEvent).Envelope.Title)

	d.Detach(first)
	second := newRecordingSubscriber("second")
	d.Attach(second)
	assert.Never(t, func() bool { return len(second.Events()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Len(t, first.Events(), 1)
}

func TestDispatcherAttachReplacesSubscriber(t *testing.T) {
	d, _ := newTestDispatcher(t)
	a := newRecordingSubscriber("a")
	b := newRecordingSubscriber("b")

	d.Attach(a)
	d.Attach(b)
	d.Dispatch(notification("1", "for b"))

	b.waitForEvents(t, 1)
	assert.Empty(t, a.Events())
}

func TestDispatcherIgnoresStaleDetach(t *testing.T) {
	d, _ := newTestDispatcher(t)
	a := newRecordingSubscriber("a")
	b := newRecordingSubscriber("b")

	d.Attach(a)
	d.Attach(b)
	d.Detach(a)
	require.True(t, d.Attached())

	d.Dispatch(domain.CallInviteEvent{InviteID: "CA1"})
	events := b.waitForEvents(t, 1)
	assert.Equal(t, domain.EventCallInvite, events[0].Kind())

	d.Detach(b)
	assert.False(t, d.Attached())
}

func TestDispatcherFlushesQueuedEventsOnDetach(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sub := newBlockingSubscriber("slow")
	d.Attach(sub)

	for i := 0; i < 5; i++ {
		d.Dispatch(notification(fmt.Sprint(i), "n"))
	}
	d.Detach(sub)
	d.Dispatch(notification("late", "n"))

	close(sub.release)
	events := sub.waitForEvents(t, 5)
	assert.Never(t, func() bool { return len(sub.Events()) > 5 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, "4", events[4].(domain.NotificationEvent).Envelope.ID)
}

func TestDispatcherDoesNotBlockOnSlowSubscriber(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sub := newBlockingSubscriber("slow")
	d.Attach(sub)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			d.Dispatch(notification(fmt.Sprint(i), "n"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Dispatch blocked on a slow subscriber")
	}

	close(sub.release)
	sub.waitForEvents(t, 200)
}

// blockingSubscriber holds every delivery until release is closed.
type blockingSubscriber struct {
	*recordingSubscriber
	release chan struct{}
}

func newBlockingSubscriber(id string) *blockingSubscriber {
	return &blockingSubscriber{
		recordingSubscriber: newRecordingSubscriber(id),
		release:             make(chan struct{}),
	}
}

func (s *blockingSubscriber) Handle(event domain.Event) error {
	<-s.release
	return s.recordingSubscriber.Handle(event)
}
