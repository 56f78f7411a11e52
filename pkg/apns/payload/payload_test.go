package payload_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apnskit/apnskit/pkg/apns/payload"
)

func intPtr(v int) *int             { return &v }
func float64Ptr(v float64) *float64 { return &v }

func TestPayload_Marshal(t *testing.T) {
	data, err := json.Marshal(payload.Payload{
		Alert:             &payload.Alert{Body: "Hello World!"},
		Badge:             intPtr(11),
		Sound:             &payload.Sound{Name: "default"},
		ThreadID:          "my-thread-id",
		Category:          "my-category",
		ContentAvailable:  true,
		MutableContent:    true,
		TargetContentID:   "my-target-id",
		InterruptionLevel: payload.InterruptionLevelActive,
		RelevanceScore:    float64Ptr(0.5),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"alert": "Hello World!",
		"badge": 11,
		"sound": "default",
		"thread-id": "my-thread-id",
		"category": "my-category",
		"content-available": 1,
		"mutable-content": 1,
		"target-content-id": "my-target-id",
		"interruption-level": "active",
		"relevance-score": 0.5
	}`, string(data))
}

func TestPayload_MarshalOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(payload.Payload{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestPayload_MarshalZeroBadge(t *testing.T) {
	// Badge 0 removes the current badge and must be emitted.
	data, err := json.Marshal(payload.Payload{Badge: intPtr(0)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"badge": 0}`, string(data))
}

func TestPayload_MarshalFlattensUserInfo(t *testing.T) {
	data, err := json.Marshal(payload.Payload{
		Alert: &payload.Alert{Body: "Hello World!"},
		UserInfo: map[string]any{
			"foo": true,
			"bar": -10,
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"alert": "Hello World!", "foo": true, "bar": -10}`, string(data))
}

func TestPayload_MarshalUserInfoOnly(t *testing.T) {
	data, err := json.Marshal(payload.Payload{
		UserInfo: map[string]any{"foo": true},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"foo": true}`, string(data))
}

func TestPayload_MarshalReservedKeyCollision(t *testing.T) {
	_, err := json.Marshal(payload.Payload{
		Alert:    &payload.Alert{Body: "Hello World!"},
		UserInfo: map[string]any{"badge": 3},
	})
	assert.ErrorIs(t, err, payload.ErrReservedKey)
}

func TestPayload_Unmarshal(t *testing.T) {
	var got payload.Payload
	require.NoError(t, json.Unmarshal([]byte(`{
		"alert": "Hello World!",
		"badge": 11,
		"sound": "default",
		"thread-id": "my-thread-id",
		"category": "my-category",
		"content-available": 1,
		"mutable-content": 1,
		"target-content-id": "my-target-id",
		"interruption-level": "active",
		"relevance-score": 0.5
	}`), &got))

	assert.Equal(t, payload.Payload{
		Alert:             &payload.Alert{Body: "Hello World!"},
		Badge:             intPtr(11),
		Sound:             &payload.Sound{Name: "default"},
		ThreadID:          "my-thread-id",
		Category:          "my-category",
		ContentAvailable:  true,
		MutableContent:    true,
		TargetContentID:   "my-target-id",
		InterruptionLevel: payload.InterruptionLevelActive,
		RelevanceScore:    float64Ptr(0.5),
	}, got)
}

func TestPayload_UnmarshalUserInfo(t *testing.T) {
	var got payload.Payload
	require.NoError(t, json.Unmarshal([]byte(`{
		"alert": "Hello World!",
		"foo": true,
		"bar": -10
	}`), &got))

	assert.Equal(t, &payload.Alert{Body: "Hello World!"}, got.Alert)
	assert.Equal(t, map[string]any{
		"foo": true,
		"bar": float64(-10),
	}, got.UserInfo)
}

func TestPayload_UnmarshalNullFixedKey(t *testing.T) {
	var got payload.Payload
	require.NoError(t, json.Unmarshal([]byte(`{"alert": null, "badge": null}`), &got))
	assert.Nil(t, got.Alert)
	assert.Nil(t, got.Badge)
}

func TestPayload_UnmarshalBadFlag(t *testing.T) {
	var got payload.Payload
	err := json.Unmarshal([]byte(`{"content-available": 2}`), &got)
	assert.Error(t, err)
}

func TestPayload_UnmarshalBadInterruptionLevel(t *testing.T) {
	var got payload.Payload
	err := json.Unmarshal([]byte(`{"interruption-level": "urgent"}`), &got)
	assert.Error(t, err)
}

func TestParseInterruptionLevel(t *testing.T) {
	tests := []struct {
		in   string
		want payload.InterruptionLevel
	}{
		{"active", payload.InterruptionLevelActive},
		{"critical", payload.InterruptionLevelCritical},
		{"passive", payload.InterruptionLevelPassive},
		{"time-sensitive", payload.InterruptionLevelTimeSensitive},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := payload.ParseInterruptionLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := payload.ParseInterruptionLevel("urgent")
	assert.Error(t, err)
}
