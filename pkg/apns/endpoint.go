package apns

import (
	"fmt"
	"net/url"
	"strings"
)

// APNs gateway hosts. Notifications for apps signed with a development
// provisioning profile must go to the sandbox host.
const (
	HostProduction  = "https://api.push.apple.com"
	HostDevelopment = "https://api.sandbox.push.apple.com"
)

// ParseHost resolves an environment name to an APNs base URL. It accepts
// "prod"/"production" and "dev"/"development" case-insensitively; any other
// value must be an absolute URL, which allows pointing the client at a mock
// gateway.
func ParseHost(s string) (string, error) {
	switch strings.ToLower(s) {
	case "prod", "production":
		return HostProduction, nil
	case "dev", "development":
		return HostDevelopment, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidEndpoint, err.Error())
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an environment name or an absolute URL", ErrInvalidEndpoint, s)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}
