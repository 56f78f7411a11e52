package payload

import (
	"encoding/json"
	"fmt"
)

// DefaultSoundName plays the system notification sound.
const DefaultSoundName = "default"

// Sound selects the sound played when a notification is delivered.
//
// A non-critical sound encodes as the bare file name. A critical sound,
// which may bypass the device mute switch, encodes as an object carrying an
// integer-coded critical flag and a volume clamped to [0, 1]. The critical
// flag must agree with the notification's interruption level; the request
// encoder reconciles the two before serialization.
type Sound struct {
	Critical bool
	Name     string  // sound file in the app bundle, or DefaultSoundName
	Volume   float64 // 0 (silent) through 1 (full volume); critical alerts only
}

type criticalSound struct {
	Critical int     `json:"critical"`
	Name     string  `json:"name"`
	Volume   float64 `json:"volume"`
}

// MarshalJSON emits the bare name for non-critical sounds and the object
// shape, with the volume clamped to [0, 1], for critical ones.
func (s Sound) MarshalJSON() ([]byte, error) {
	if !s.Critical {
		return json.Marshal(s.Name)
	}
	return json.Marshal(criticalSound{
		Critical: 1,
		Name:     s.Name,
		Volume:   min(max(s.Volume, 0), 1),
	})
}

// UnmarshalJSON accepts both wire shapes. The object shape requires
// critical, name, and volume to all be present and rejects unknown keys.
// The critical flag is an integer; any non-zero value means true.
func (s *Sound) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*s = Sound{Name: name}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Sound
	var hasCritical, hasName, hasVolume bool
	for key, value := range raw {
		var err error
		switch key {
		case "critical":
			var critical int64
			err = json.Unmarshal(value, &critical)
			out.Critical = critical != 0
			hasCritical = true
		case "name":
			err = json.Unmarshal(value, &out.Name)
			hasName = true
		case "volume":
			err = json.Unmarshal(value, &out.Volume)
			hasVolume = true
		default:
			return fmt.Errorf("%w: sound key %q", ErrUnknownField, key)
		}
		if err != nil {
			return fmt.Errorf("sound %s: %w", key, err)
		}
	}
	switch {
	case !hasCritical:
		return fmt.Errorf("%w: sound critical", ErrMissingField)
	case !hasName:
		return fmt.Errorf("%w: sound name", ErrMissingField)
	case !hasVolume:
		return fmt.Errorf("%w: sound volume", ErrMissingField)
	}

	*s = out
	return nil
}
