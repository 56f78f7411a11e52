package apns

// Request header names recognized by the gateway.
const (
	headerPushType   = "apns-push-type"
	headerID         = "apns-id"
	headerExpiration = "apns-expiration"
	headerPriority   = "apns-priority"
	headerTopic      = "apns-topic"
	headerCollapseID = "apns-collapse-id"
)

// Payload ceilings enforced by the gateway, in bytes.
const (
	// MaxPayloadSize is the JSON body limit for every push type except VoIP.
	MaxPayloadSize = 4096

	// MaxPayloadSizeVoIP is the JSON body limit for VoIP notifications.
	MaxPayloadSizeVoIP = 5120
)

// maxCollapseIDBytes bounds the apns-collapse-id header value.
const maxCollapseIDBytes = 64

// PushType is the value of the apns-push-type header. It must accurately
// reflect the contents of the payload; watchOS 6 and later reject requests
// without it, and a mismatch may delay or drop the notification.
type PushType string

const (
	// PushTypeAlert is for notifications that trigger a user interaction,
	// such as an alert, badge, or sound. The topic must be the app's
	// bundle ID.
	PushTypeAlert PushType = "alert"

	// PushTypeBackground is for silent notifications that deliver content
	// in the background. Background pushes must use PriorityConsiderPower.
	PushTypeBackground PushType = "background"

	// PushTypeLocation is for notifications that request the user's
	// location. The topic carries a ".location-query" suffix.
	PushTypeLocation PushType = "location"

	// PushTypeVoIP is for notifications about an incoming Voice-over-IP
	// call. The topic carries a ".voip" suffix.
	PushTypeVoIP PushType = "voip"

	// PushTypeComplication is for updates to a watchOS app's
	// complications. The topic carries a ".complication" suffix.
	PushTypeComplication PushType = "complication"

	// PushTypeFileProvider signals changes to a File Provider extension.
	// The topic carries a ".pushkit.fileprovider" suffix.
	PushTypeFileProvider PushType = "fileprovider"

	// PushTypeMDM tells managed devices to contact the MDM server. The
	// topic comes from the UID attribute of the MDM push certificate.
	PushTypeMDM PushType = "mdm"
)

// Valid reports whether t is a push type the gateway recognizes.
func (t PushType) Valid() bool {
	switch t {
	case PushTypeAlert, PushTypeBackground, PushTypeLocation, PushTypeVoIP,
		PushTypeComplication, PushTypeFileProvider, PushTypeMDM:
		return true
	}
	return false
}

// MaxPayloadSize returns the body ceiling for this push type.
func (t PushType) MaxPayloadSize() int {
	if t == PushTypeVoIP {
		return MaxPayloadSizeVoIP
	}
	return MaxPayloadSize
}

// Priority is the value of the apns-priority header. The gateway assumes
// PriorityImmediate when the header is absent.
type Priority int

const (
	// PriorityImmediate delivers the notification immediately.
	PriorityImmediate Priority = 10

	// PriorityConsiderPower delivers the notification based on power
	// considerations on the user's device.
	PriorityConsiderPower Priority = 5

	// PriorityPrioritizePower puts the device's power above all other
	// delivery factors and never awakens the device.
	PriorityPrioritizePower Priority = 1
)

// Valid reports whether p is a priority the gateway recognizes.
func (p Priority) Valid() bool {
	switch p {
	case PriorityImmediate, PriorityConsiderPower, PriorityPrioritizePower:
		return true
	}
	return false
}
