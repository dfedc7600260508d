package domain

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationIDsIncrease(t *testing.T) {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[NotificationID]struct{})
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				id := NewNotificationID()
				mu.Lock()
				ids[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, ids, 640)

	a := NewNotificationID()
	b := NewNotificationID()
	assert.Greater(t, b, a)
}

func TestEnvelopeFromData(t *testing.T) {
	p := NewPayload("sender", "m1", map[string]string{
		"title":        "Hi",
		"body":         "Test",
		"click_action": "OPEN",
		"extra":        "x",
	}, nil)

	env, err := NewNotificationEnvelope(p)
	require.NoError(t, err)
	assert.Equal(t, "m1", env.ID)
	assert.Equal(t, "Hi", env.Title)
	assert.Equal(t, "Test", env.Body)
	assert.Equal(t, "OPEN", env.ClickAction)
	assert.Equal(t, "x", env.Data["extra"])
}

func TestEnvelopePrefersNotificationBlock(t *testing.T) {
	p := NewPayload("sender", "m1", map[string]string{"title": "from data"}, &PushNotification{
		Title: "from block",
		Link:  "app://x",
	})

	env, err := NewNotificationEnvelope(p)
	require.NoError(t, err)
	assert.Equal(t, "from block", env.Title)
	assert.Equal(t, "app://x", env.Link)
	assert.Equal(t, "from data", env.Data["title"])
}

func TestEnvelopeRejectsEmptyPayload(t *testing.T) {
	_, err := NewNotificationEnvelope(NewPayload("sender", "m1", nil, nil))
	assert.Error(t, err)
}

func TestPayloadIsCopied(t *testing.T) {
	data := map[string]string{"k": "v"}
	p := NewPayload("sender", "m1", data, nil)
	data["k"] = "changed"
	assert.Equal(t, "v", p.Data["k"])
}

func TestTransportErrorMessages(t *testing.T) {
	assert.Equal(t, "Registration Error: 20101, Invalid Access Token", NewRegistrationError(20101, "Invalid Access Token").Error())
	assert.Equal(t, "Call Error: 31005, Connection error", NewConnectError(31005, "Connection error").Error())

	te := AsTransportError(TransportRegistration, NewConnectError(31005, "Connection error"))
	assert.Equal(t, TransportRegistration, te.Kind)
	assert.Equal(t, 31005, te.Code)

	te = AsTransportError(TransportConnect, errors.New("boom"))
	assert.Equal(t, "Call Error: 0, boom", te.Error())
}

func TestCallStateActive(t *testing.T) {
	assert.False(t, StateIdle.Active())
	assert.False(t, StateDisconnected.Active())
	for _, s := range []CallState{StateRinging, StateConnecting, StateConnected, StateReconnecting} {
		assert.True(t, s.Active(), s.String())
	}
}
