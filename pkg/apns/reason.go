package apns

import "net/http"

// Reason is the error string the gateway returns in the body of a failed
// request. The constants below cover every reason the service documents;
// responses carrying a reason outside this set are preserved verbatim and
// treated as server errors.
type Reason string

// Status 400, bad request.
const (
	ReasonBadCollapseID          Reason = "BadCollapseId"
	ReasonBadDeviceToken         Reason = "BadDeviceToken"
	ReasonBadExpirationDate      Reason = "BadExpirationDate"
	ReasonBadMessageID           Reason = "BadMessageId"
	ReasonBadPriority            Reason = "BadPriority"
	ReasonBadTopic               Reason = "BadTopic"
	ReasonDeviceTokenNotForTopic Reason = "DeviceTokenNotForTopic"
	ReasonDuplicateHeaders       Reason = "DuplicateHeaders"
	ReasonIdleTimeout            Reason = "IdleTimeout"
	ReasonInvalidPushType        Reason = "InvalidPushType"
	ReasonMissingDeviceToken     Reason = "MissingDeviceToken"
	ReasonMissingTopic           Reason = "MissingTopic"
	ReasonPayloadEmpty           Reason = "PayloadEmpty"
	ReasonTopicDisallowed        Reason = "TopicDisallowed"
)

// Status 403, an authentication problem with the certificate or provider
// token.
const (
	ReasonBadCertificate            Reason = "BadCertificate"
	ReasonBadCertificateEnvironment Reason = "BadCertificateEnvironment"
	ReasonExpiredProviderToken      Reason = "ExpiredProviderToken"
	ReasonForbidden                 Reason = "Forbidden"
	ReasonInvalidProviderToken      Reason = "InvalidProviderToken"
	ReasonMissingProviderToken      Reason = "MissingProviderToken"
)

// Status 404 and 405, a malformed request line.
const (
	ReasonBadPath          Reason = "BadPath"
	ReasonMethodNotAllowed Reason = "MethodNotAllowed"
)

// Status 410, the device token is no longer active for the topic. The
// response timestamp records when the gateway last confirmed that.
const (
	ReasonExpiredToken Reason = "ExpiredToken"
	ReasonUnregistered Reason = "Unregistered"
)

// Status 413 and 429, the request was oversized or over quota.
const (
	ReasonPayloadTooLarge             Reason = "PayloadTooLarge"
	ReasonTooManyProviderTokenUpdates Reason = "TooManyProviderTokenUpdates"
	ReasonTooManyRequests             Reason = "TooManyRequests"
)

// Status 500 and 503, trouble on the gateway side.
const (
	ReasonInternalServerError Reason = "InternalServerError"
	ReasonServiceUnavailable  Reason = "ServiceUnavailable"
	ReasonShutdown            Reason = "Shutdown"
)

var reasonStatus = map[Reason]int{
	ReasonBadCollapseID:          http.StatusBadRequest,
	ReasonBadDeviceToken:         http.StatusBadRequest,
	ReasonBadExpirationDate:      http.StatusBadRequest,
	ReasonBadMessageID:           http.StatusBadRequest,
	ReasonBadPriority:            http.StatusBadRequest,
	ReasonBadTopic:               http.StatusBadRequest,
	ReasonDeviceTokenNotForTopic: http.StatusBadRequest,
	ReasonDuplicateHeaders:       http.StatusBadRequest,
	ReasonIdleTimeout:            http.StatusBadRequest,
	ReasonInvalidPushType:        http.StatusBadRequest,
	ReasonMissingDeviceToken:     http.StatusBadRequest,
	ReasonMissingTopic:           http.StatusBadRequest,
	ReasonPayloadEmpty:           http.StatusBadRequest,
	ReasonTopicDisallowed:        http.StatusBadRequest,

	ReasonBadCertificate:            http.StatusForbidden,
	ReasonBadCertificateEnvironment: http.StatusForbidden,
	ReasonExpiredProviderToken:      http.StatusForbidden,
	ReasonForbidden:                 http.StatusForbidden,
	ReasonInvalidProviderToken:      http.StatusForbidden,
	ReasonMissingProviderToken:      http.StatusForbidden,

	ReasonBadPath:          http.StatusNotFound,
	ReasonMethodNotAllowed: http.StatusMethodNotAllowed,

	ReasonExpiredToken: http.StatusGone,
	ReasonUnregistered: http.StatusGone,

	ReasonPayloadTooLarge:             http.StatusRequestEntityTooLarge,
	ReasonTooManyProviderTokenUpdates: http.StatusTooManyRequests,
	ReasonTooManyRequests:             http.StatusTooManyRequests,

	ReasonInternalServerError: http.StatusInternalServerError,
	ReasonServiceUnavailable:  http.StatusServiceUnavailable,
	ReasonShutdown:            http.StatusServiceUnavailable,
}

// Known reports whether r is a documented gateway reason.
func (r Reason) Known() bool {
	_, ok := reasonStatus[r]
	return ok
}

// Status returns the HTTP status the gateway pairs with this reason.
// Undocumented reasons map to 500.
func (r Reason) Status() int {
	if status, ok := reasonStatus[r]; ok {
		return status
	}
	return http.StatusInternalServerError
}
