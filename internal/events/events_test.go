package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	msg, err := Encode(Event{Type: UserLoggedIn, UserID: "u1", Username: "jane", Role: "editor", At: at})
	require.NoError(t, err)

	assert.Equal(t, []byte("u1"), msg.Key)
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, []byte(UserLoggedIn), msg.Headers[0].Value)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "user_logged_in", body["type"])
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, "editor", body["role"])
	assert.NotContains(t, body, "actor_id")
	assert.NotContains(t, body, "active")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: UserDeleted}))
}
