package apns

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"

	"github.com/apnskit/apnskit/pkg/apns/payload"
)

// Notification describes a single push to one device. The zero value of
// every optional field omits the corresponding header or payload key.
type Notification struct {
	// DeviceToken is the hex-encoded token identifying the target device.
	// Required.
	DeviceToken string

	// PushType must reflect the contents of the payload. Defaults to
	// PushTypeAlert.
	PushType PushType

	// ID is the canonical UUID of the notification. When zero the gateway
	// assigns one and returns it in the response.
	ID uuid.UUID

	// Expiration is the time at which the gateway stops storing and
	// retrying delivery. The Unix epoch requests a single attempt with no
	// storage; the zero time omits the header.
	Expiration time.Time

	// Priority defaults to PriorityImmediate.
	Priority Priority

	// Topic is the app's bundle ID, with a suffix for some push types.
	Topic string

	// CollapseID coalesces multiple notifications into one on the device.
	// At most 64 bytes.
	CollapseID string

	// Alert carries the displayed content.
	Alert *payload.Alert

	// Badge is the number shown on the app icon. 0 removes the badge.
	Badge *int

	// Sound names a sound file, or configures a critical alert sound.
	Sound *payload.Sound

	// ThreadID groups related notifications.
	ThreadID string

	// Category is the identifier of a registered notification category.
	Category string

	// ContentAvailable marks a silent background update.
	ContentAvailable bool

	// MutableContent routes the notification through the app's service
	// extension before delivery.
	MutableContent bool

	// TargetContentID is the identifier of the window brought forward.
	TargetContentID string

	// InterruptionLevel sets the delivery importance. The critical level
	// requires a Sound with Critical set.
	InterruptionLevel payload.InterruptionLevel

	// RelevanceScore, between 0 and 1, sorts notifications in the summary.
	RelevanceScore *float64

	// UserInfo is app-defined data flattened into the top level of the
	// payload. Keys must not collide with the fixed payload keys.
	UserInfo map[string]any
}

// EncodeRequest validates a notification and converts it into wire-ready
// headers and a JSON body. Every local failure surfaces here: illegal
// header text, a critical sound that disagrees with the interruption
// level, out-of-range fields, and a body over the size ceiling for the
// push type. Nothing is sent.
func EncodeRequest(n *Notification) (http.Header, []byte, error) {
	if n.DeviceToken == "" {
		return nil, nil, ErrMissingDeviceToken
	}

	pushType := n.PushType
	if pushType == "" {
		pushType = PushTypeAlert
	}
	if !pushType.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidPushType, string(pushType))
	}

	priority := n.Priority
	if priority == 0 {
		priority = PriorityImmediate
	}
	if !priority.Valid() {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidPriority, int(priority))
	}

	headers := http.Header{}
	set := func(name, value string) error {
		if !httpguts.ValidHeaderFieldValue(value) {
			return fmt.Errorf("%w: %s", ErrInvalidHeader, name)
		}
		headers.Set(name, value)
		return nil
	}

	if err := set(headerPushType, string(pushType)); err != nil {
		return nil, nil, err
	}
	if n.ID != uuid.Nil {
		if err := set(headerID, n.ID.String()); err != nil {
			return nil, nil, err
		}
	}
	if !n.Expiration.IsZero() {
		if err := set(headerExpiration, strconv.FormatInt(n.Expiration.Unix(), 10)); err != nil {
			return nil, nil, err
		}
	}
	if priority != PriorityImmediate {
		if err := set(headerPriority, strconv.Itoa(int(priority))); err != nil {
			return nil, nil, err
		}
	}
	if n.Topic != "" {
		if err := set(headerTopic, n.Topic); err != nil {
			return nil, nil, err
		}
	}
	if n.CollapseID != "" {
		if len(n.CollapseID) > maxCollapseIDBytes {
			return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidCollapseID, len(n.CollapseID))
		}
		if err := set(headerCollapseID, n.CollapseID); err != nil {
			return nil, nil, err
		}
	}

	if n.InterruptionLevel != "" && !n.InterruptionLevel.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidInterruptionLevel, string(n.InterruptionLevel))
	}
	if n.Badge != nil && *n.Badge < 0 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidBadge, *n.Badge)
	}
	if n.RelevanceScore != nil && (*n.RelevanceScore < 0 || *n.RelevanceScore > 1) {
		return nil, nil, fmt.Errorf("%w: got %v", ErrInvalidRelevanceScore, *n.RelevanceScore)
	}

	// A critical interruption level and a critical sound only work as a
	// pair. Checked before serialization so a mismatch never produces
	// partial output.
	isCriticalLevel := n.InterruptionLevel == payload.InterruptionLevelCritical
	isCriticalSound := n.Sound != nil && n.Sound.Critical
	if isCriticalLevel != isCriticalSound {
		return nil, nil, ErrCriticalSoundMismatch
	}

	var sound *payload.Sound
	if n.Sound != nil {
		s := *n.Sound
		s.Critical = isCriticalLevel
		sound = &s
	}

	body, err := json.Marshal(payload.Payload{
		Alert:             n.Alert,
		Badge:             n.Badge,
		Sound:             sound,
		ThreadID:          n.ThreadID,
		Category:          n.Category,
		ContentAvailable:  n.ContentAvailable,
		MutableContent:    n.MutableContent,
		TargetContentID:   n.TargetContentID,
		InterruptionLevel: n.InterruptionLevel,
		RelevanceScore:    n.RelevanceScore,
		UserInfo:          n.UserInfo,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encoding payload: %w", err)
	}

	if limit := pushType.MaxPayloadSize(); len(body) > limit {
		return nil, nil, &PayloadTooLargeError{Size: len(body), Limit: limit}
	}
	return headers, body, nil
}
