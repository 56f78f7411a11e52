// Package payload implements the APNs notification payload and the two-shape
// wire encodings Apple defines for the alert and sound fields.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Predefined codec errors.
var (
	// ErrMissingField indicates a required field was absent from an object shape.
	ErrMissingField = errors.New("missing field")
	// ErrUnknownField indicates an object shape carried a key outside its schema.
	ErrUnknownField = errors.New("unknown field")
	// ErrReservedKey indicates a user-info key collides with a reserved payload key.
	ErrReservedKey = errors.New("reserved payload key")
)

// InterruptionLevel classifies the importance and delivery timing of a
// notification as perceived on the receiving device.
type InterruptionLevel string

const (
	// InterruptionLevelActive presents the notification immediately, lights up
	// the screen, and can play a sound.
	InterruptionLevelActive InterruptionLevel = "active"

	// InterruptionLevelCritical presents the notification immediately and
	// bypasses the mute switch to play its sound. Requires a critical sound.
	InterruptionLevelCritical InterruptionLevel = "critical"

	// InterruptionLevelPassive adds the notification to the notification list
	// without lighting up the screen or playing a sound.
	InterruptionLevelPassive InterruptionLevel = "passive"

	// InterruptionLevelTimeSensitive presents the notification immediately but
	// does not break through system notification controls.
	InterruptionLevelTimeSensitive InterruptionLevel = "time-sensitive"
)

// ParseInterruptionLevel maps a wire string to its InterruptionLevel.
func ParseInterruptionLevel(s string) (InterruptionLevel, error) {
	switch l := InterruptionLevel(s); l {
	case InterruptionLevelActive, InterruptionLevelCritical,
		InterruptionLevelPassive, InterruptionLevelTimeSensitive:
		return l, nil
	}
	return "", fmt.Errorf("invalid interruption level %q", s)
}

// Valid reports whether the level is one of the defined wire values.
func (l InterruptionLevel) Valid() bool {
	_, err := ParseInterruptionLevel(string(l))
	return err == nil
}

// Payload is the JSON body of a push request.
//
// Optional fields are omitted from the output when unset, never emitted as
// null. The content-available and mutable-content flags serialize as the
// integers 0/1 and are dropped entirely when false. UserInfo entries are
// flattened alongside the fixed keys at the top level of the object.
type Payload struct {
	Alert             *Alert
	Badge             *int // 0 removes the current badge
	Sound             *Sound
	ThreadID          string // app-specific identifier grouping related notifications
	Category          string // identifier of a registered notification category
	ContentAvailable  bool   // background update flag
	MutableContent    bool   // notification service app extension flag
	TargetContentID   string // identifier of the window brought forward
	InterruptionLevel InterruptionLevel
	RelevanceScore    *float64 // used to sort notifications in the summary
	UserInfo          map[string]any
}

// reservedKeys are the fixed top-level payload keys. User info must not
// collide with them.
var reservedKeys = map[string]bool{
	"alert":              true,
	"badge":              true,
	"sound":              true,
	"thread-id":          true,
	"category":           true,
	"content-available":  true,
	"mutable-content":    true,
	"target-content-id":  true,
	"interruption-level": true,
	"relevance-score":    true,
}

type payloadObject struct {
	Alert             *Alert            `json:"alert,omitempty"`
	Badge             *int              `json:"badge,omitempty"`
	Sound             *Sound            `json:"sound,omitempty"`
	ThreadID          string            `json:"thread-id,omitempty"`
	Category          string            `json:"category,omitempty"`
	ContentAvailable  int               `json:"content-available,omitempty"`
	MutableContent    int               `json:"mutable-content,omitempty"`
	TargetContentID   string            `json:"target-content-id,omitempty"`
	InterruptionLevel InterruptionLevel `json:"interruption-level,omitempty"`
	RelevanceScore    *float64          `json:"relevance-score,omitempty"`
}

// MarshalJSON emits the fixed keys followed by the flattened UserInfo
// entries. A UserInfo key matching a reserved key is an encoding error.
func (p Payload) MarshalJSON() ([]byte, error) {
	for key := range p.UserInfo {
		if reservedKeys[key] {
			return nil, fmt.Errorf("%w: %q", ErrReservedKey, key)
		}
	}

	obj := payloadObject{
		Alert:             p.Alert,
		Badge:             p.Badge,
		Sound:             p.Sound,
		ThreadID:          p.ThreadID,
		Category:          p.Category,
		TargetContentID:   p.TargetContentID,
		InterruptionLevel: p.InterruptionLevel,
		RelevanceScore:    p.RelevanceScore,
	}
	if p.ContentAvailable {
		obj.ContentAvailable = 1
	}
	if p.MutableContent {
		obj.MutableContent = 1
	}

	fixed, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	if len(p.UserInfo) == 0 {
		return fixed, nil
	}

	extra, err := json.Marshal(p.UserInfo)
	if err != nil {
		return nil, err
	}
	if len(fixed) == 2 { // no fixed keys were emitted
		return extra, nil
	}
	merged := append(fixed[:len(fixed)-1], ',')
	return append(merged, extra[1:]...), nil
}

// UnmarshalJSON decodes the fixed keys and collects everything else into
// UserInfo. Null values for fixed keys are treated as absent.
func (p *Payload) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Payload
	for key, value := range raw {
		if reservedKeys[key] && string(value) == "null" {
			continue
		}

		var err error
		switch key {
		case "alert":
			out.Alert = &Alert{}
			err = json.Unmarshal(value, out.Alert)
		case "badge":
			err = json.Unmarshal(value, &out.Badge)
		case "sound":
			out.Sound = &Sound{}
			err = json.Unmarshal(value, out.Sound)
		case "thread-id":
			err = json.Unmarshal(value, &out.ThreadID)
		case "category":
			err = json.Unmarshal(value, &out.Category)
		case "content-available":
			out.ContentAvailable, err = intFlag(value)
		case "mutable-content":
			out.MutableContent, err = intFlag(value)
		case "target-content-id":
			err = json.Unmarshal(value, &out.TargetContentID)
		case "interruption-level":
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				out.InterruptionLevel, err = ParseInterruptionLevel(s)
			}
		case "relevance-score":
			err = json.Unmarshal(value, &out.RelevanceScore)
		default:
			var v any
			if err = json.Unmarshal(value, &v); err == nil {
				if out.UserInfo == nil {
					out.UserInfo = make(map[string]any)
				}
				out.UserInfo[key] = v
			}
		}
		if err != nil {
			return fmt.Errorf("payload %s: %w", key, err)
		}
	}

	*p = out
	return nil
}

// intFlag parses the integer-coded booleans used by content-available and
// mutable-content. Only 0 and 1 are legal.
func intFlag(value json.RawMessage) (bool, error) {
	var v int
	if err := json.Unmarshal(value, &v); err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("flag must be 0 or 1, got %d", v)
}
