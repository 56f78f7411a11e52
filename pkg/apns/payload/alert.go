package payload

import (
	"encoding/json"
	"fmt"
)

// Alert describes the user-visible content of a notification.
//
// An alert has two legal wire shapes: when every field except Body is unset
// it collapses to a bare JSON string, otherwise it encodes as an object.
// Localized and plain forms of the same group never co-occur in the output:
// when a loc-key is set the companion plain field is dropped, and loc-args
// are emitted only alongside their key.
type Alert struct {
	Title       string // short string shown prominently, e.g. on Apple Watch
	Subtitle    string
	Body        string
	LaunchImage string // launch image file shown when opening the app

	// TitleLocKey names a localized title string; emitted instead of Title.
	TitleLocKey  string
	TitleLocArgs []string

	// SubtitleLocKey names a localized subtitle string; emitted instead of
	// Subtitle.
	SubtitleLocKey  string
	SubtitleLocArgs []string

	// LocKey names a localized message string; emitted instead of Body.
	LocKey  string
	LocArgs []string
}

// collapses reports whether the alert encodes as a bare string.
func (a Alert) collapses() bool {
	return a.Title == "" && a.Subtitle == "" && a.LaunchImage == "" &&
		a.TitleLocKey == "" && len(a.TitleLocArgs) == 0 &&
		a.SubtitleLocKey == "" && len(a.SubtitleLocArgs) == 0 &&
		a.LocKey == "" && len(a.LocArgs) == 0
}

type alertObject struct {
	TitleLocKey     string   `json:"title-loc-key,omitempty"`
	TitleLocArgs    []string `json:"title-loc-args,omitempty"`
	Title           string   `json:"title,omitempty"`
	SubtitleLocKey  string   `json:"subtitle-loc-key,omitempty"`
	SubtitleLocArgs []string `json:"subtitle-loc-args,omitempty"`
	Subtitle        string   `json:"subtitle,omitempty"`
	LocKey          string   `json:"loc-key,omitempty"`
	LocArgs         []string `json:"loc-args,omitempty"`
	Body            *string  `json:"body,omitempty"`
	LaunchImage     string   `json:"launch-image,omitempty"`
}

// MarshalJSON emits the bare-string shape when only Body is set and the
// object shape otherwise.
func (a Alert) MarshalJSON() ([]byte, error) {
	if a.collapses() {
		return json.Marshal(a.Body)
	}

	obj := alertObject{LaunchImage: a.LaunchImage}
	if a.TitleLocKey != "" {
		obj.TitleLocKey = a.TitleLocKey
		obj.TitleLocArgs = a.TitleLocArgs
	} else {
		obj.Title = a.Title
	}
	if a.SubtitleLocKey != "" {
		obj.SubtitleLocKey = a.SubtitleLocKey
		obj.SubtitleLocArgs = a.SubtitleLocArgs
	} else {
		obj.Subtitle = a.Subtitle
	}
	if a.LocKey != "" {
		obj.LocKey = a.LocKey
		obj.LocArgs = a.LocArgs
	} else {
		body := a.Body
		obj.Body = &body
	}
	return json.Marshal(obj)
}

// UnmarshalJSON accepts both wire shapes. Objects use a strict schema:
// unknown keys are rejected, and a body must be present either as the plain
// field or through loc-key.
func (a *Alert) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var body string
		if err := json.Unmarshal(data, &body); err != nil {
			return err
		}
		*a = Alert{Body: body}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Alert
	hasBody := false
	for key, value := range raw {
		var err error
		switch key {
		case "title":
			err = json.Unmarshal(value, &out.Title)
		case "subtitle":
			err = json.Unmarshal(value, &out.Subtitle)
		case "body":
			err = json.Unmarshal(value, &out.Body)
			hasBody = true
		case "launch-image":
			err = json.Unmarshal(value, &out.LaunchImage)
		case "title-loc-key":
			err = json.Unmarshal(value, &out.TitleLocKey)
		case "title-loc-args":
			err = json.Unmarshal(value, &out.TitleLocArgs)
		case "subtitle-loc-key":
			err = json.Unmarshal(value, &out.SubtitleLocKey)
		case "subtitle-loc-args":
			err = json.Unmarshal(value, &out.SubtitleLocArgs)
		case "loc-key":
			err = json.Unmarshal(value, &out.LocKey)
		case "loc-args":
			err = json.Unmarshal(value, &out.LocArgs)
		default:
			return fmt.Errorf("%w: alert key %q", ErrUnknownField, key)
		}
		if err != nil {
			return fmt.Errorf("alert %s: %w", key, err)
		}
	}
	if !hasBody && out.LocKey == "" {
		return fmt.Errorf("%w: alert body", ErrMissingField)
	}

	*a = out
	return nil
}
