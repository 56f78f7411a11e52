package payload_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apnskit/apnskit/pkg/apns/payload"
)

func TestAlert_MarshalBareString(t *testing.T) {
	data, err := json.Marshal(payload.Alert{Body: "Hello World!"})
	require.NoError(t, err)
	assert.Equal(t, `"Hello World!"`, string(data))
}

func TestAlert_MarshalObject(t *testing.T) {
	data, err := json.Marshal(payload.Alert{
		Title:       "Title",
		Subtitle:    "Subtitle",
		Body:        "Hello World!",
		LaunchImage: "http://example.com/img.png",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "Title",
		"subtitle": "Subtitle",
		"body": "Hello World!",
		"launch-image": "http://example.com/img.png"
	}`, string(data))
}

func TestAlert_MarshalLocalized(t *testing.T) {
	// Localized keys take the place of the plain title, subtitle, and body.
	data, err := json.Marshal(payload.Alert{
		Title:           "Title",
		Subtitle:        "Subtitle",
		Body:            "Hello World!",
		LaunchImage:     "http://example.com/img.png",
		TitleLocKey:     "REQUEST_FORMAT",
		TitleLocArgs:    []string{"Foo", "Bar"},
		SubtitleLocKey:  "SUBTITLE_FORMAT",
		SubtitleLocArgs: []string{"Bar", "Baz"},
		LocKey:          "BODY_FORMAT",
		LocArgs:         []string{"Apple", "Pie"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title-loc-key": "REQUEST_FORMAT",
		"title-loc-args": ["Foo", "Bar"],
		"subtitle-loc-key": "SUBTITLE_FORMAT",
		"subtitle-loc-args": ["Bar", "Baz"],
		"loc-key": "BODY_FORMAT",
		"loc-args": ["Apple", "Pie"],
		"launch-image": "http://example.com/img.png"
	}`, string(data))
}

func TestAlert_MarshalLocArgsWithoutKey(t *testing.T) {
	// Loc-args accompany their key only; without the key they are dropped.
	data, err := json.Marshal(payload.Alert{
		Body:    "Hello World!",
		LocArgs: []string{"Apple", "Pie"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"body": "Hello World!"}`, string(data))
}

func TestAlert_MarshalEmptyBodyInObject(t *testing.T) {
	// The body key is always present in the object shape, even when empty.
	data, err := json.Marshal(payload.Alert{Title: "Title"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "Title", "body": ""}`, string(data))
}

func TestAlert_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		data string
		want payload.Alert
	}{
		{
			name: "bare string",
			data: `"Hello World!"`,
			want: payload.Alert{Body: "Hello World!"},
		},
		{
			name: "object with body",
			data: `{"body": "Hello World!"}`,
			want: payload.Alert{Body: "Hello World!"},
		},
		{
			name: "object",
			data: `{
				"title": "Title",
				"subtitle": "Subtitle",
				"body": "Hello World!",
				"launch-image": "http://example.com/img.png"
			}`,
			want: payload.Alert{
				Title:       "Title",
				Subtitle:    "Subtitle",
				Body:        "Hello World!",
				LaunchImage: "http://example.com/img.png",
			},
		},
		{
			name: "localized object",
			data: `{
				"title": "Title",
				"subtitle": "Subtitle",
				"body": "Hello World!",
				"launch-image": "http://example.com/img.png",
				"title-loc-key": "REQUEST_FORMAT",
				"title-loc-args": ["Foo", "Bar"],
				"subtitle-loc-key": "SUBTITLE_FORMAT",
				"subtitle-loc-args": ["Bar", "Baz"],
				"loc-key": "BODY_FORMAT",
				"loc-args": ["Apple", "Pie"]
			}`,
			want: payload.Alert{
				Title:           "Title",
				Subtitle:        "Subtitle",
				Body:            "Hello World!",
				LaunchImage:     "http://example.com/img.png",
				TitleLocKey:     "REQUEST_FORMAT",
				TitleLocArgs:    []string{"Foo", "Bar"},
				SubtitleLocKey:  "SUBTITLE_FORMAT",
				SubtitleLocArgs: []string{"Bar", "Baz"},
				LocKey:          "BODY_FORMAT",
				LocArgs:         []string{"Apple", "Pie"},
			},
		},
		{
			name: "body via loc-key",
			data: `{"loc-key": "BODY_FORMAT", "loc-args": ["Apple", "Pie"]}`,
			want: payload.Alert{
				LocKey:  "BODY_FORMAT",
				LocArgs: []string{"Apple", "Pie"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload.Alert
			require.NoError(t, json.Unmarshal([]byte(tt.data), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlert_UnmarshalMissingBody(t *testing.T) {
	var got payload.Alert
	err := json.Unmarshal([]byte(`{"title": "Title"}`), &got)
	assert.ErrorIs(t, err, payload.ErrMissingField)
}

func TestAlert_UnmarshalUnknownField(t *testing.T) {
	var got payload.Alert
	err := json.Unmarshal([]byte(`{"body": "Hello", "color": "red"}`), &got)
	assert.ErrorIs(t, err, payload.ErrUnknownField)
}

func TestAlert_RoundTrip(t *testing.T) {
	alerts := []payload.Alert{
		{Body: "Hello World!"},
		{Title: "Title", Body: "Hello World!"},
		{
			Subtitle:    "Subtitle",
			Body:        "Hello World!",
			LaunchImage: "img.png",
		},
		{
			TitleLocKey:  "TITLE_FORMAT",
			TitleLocArgs: []string{"Foo"},
			LocKey:       "BODY_FORMAT",
			LocArgs:      []string{"Apple", "Pie"},
		},
	}

	for _, alert := range alerts {
		data, err := json.Marshal(alert)
		require.NoError(t, err)

		var got payload.Alert
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, alert, got)
	}
}
