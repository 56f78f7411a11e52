package relay

import (
	"github.com/apnskit/apnskit/pkg/apns"
	"github.com/apnskit/apnskit/pkg/apns/payload"
)

// PushJob is the JSON body of a queued push request. The fields are
// flat so producers in other services stay simple; the relay expands
// them into a full notification.
type PushJob struct {
	DeviceToken string `json:"device_token"`
	Topic       string `json:"topic,omitempty"`
	PushType    string `json:"push_type,omitempty"`
	CollapseID  string `json:"collapse_id,omitempty"`

	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Body     string `json:"body,omitempty"`

	Badge             *int           `json:"badge,omitempty"`
	Sound             string         `json:"sound,omitempty"`
	SoundVolume       float64        `json:"sound_volume,omitempty"`
	InterruptionLevel string         `json:"interruption_level,omitempty"`
	RelevanceScore    *float64       `json:"relevance_score,omitempty"`
	ContentAvailable  bool           `json:"content_available,omitempty"`
	UserInfo          map[string]any `json:"user_info,omitempty"`
}

// Notification expands the job into a deliverable notification.
//
// A critical interruption level and a critical sound are only valid as
// a pair, so the critical flag on the sound is derived from the level,
// with the default sound standing in when the job names none.
func (j PushJob) Notification() *apns.Notification {
	n := &apns.Notification{
		DeviceToken:       j.DeviceToken,
		PushType:          apns.PushType(j.PushType),
		Topic:             j.Topic,
		CollapseID:        j.CollapseID,
		Badge:             j.Badge,
		ContentAvailable:  j.ContentAvailable,
		InterruptionLevel: payload.InterruptionLevel(j.InterruptionLevel),
		RelevanceScore:    j.RelevanceScore,
		UserInfo:          j.UserInfo,
	}

	if j.Title != "" || j.Subtitle != "" || j.Body != "" {
		n.Alert = &payload.Alert{
			Title:    j.Title,
			Subtitle: j.Subtitle,
			Body:     j.Body,
		}
	}

	critical := n.InterruptionLevel == payload.InterruptionLevelCritical
	if j.Sound != "" || critical {
		sound := &payload.Sound{Name: j.Sound, Volume: j.SoundVolume}
		if sound.Name == "" {
			sound.Name = payload.DefaultSoundName
		}
		if critical {
			sound.Critical = true
			if sound.Volume == 0 {
				sound.Volume = 1
			}
		}
		n.Sound = sound
	}

	return n
}
