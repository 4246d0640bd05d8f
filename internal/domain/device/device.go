package device

import "time"

// Platform values accepted at registration.
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformWeb     = "web"
	PlatformFlutter = "flutter"
)

// ValidPlatform reports whether p is a known client platform.
func ValidPlatform(p string) bool {
	switch p {
	case PlatformAndroid, PlatformIOS, PlatformWeb, PlatformFlutter:
		return true
	}
	return false
}

// Registration is one push token registration. A token has at most one
// active registration; several user ids may map to the same derived
// device id when a household shares a phone.
// Corresponds to the 'device_registrations' table.
type Registration struct {
	ID           int64
	UserID       string
	Token        string
	DeviceID     string
	Platform     string
	UserRole     string // patient or staff
	IsActive     bool
	RegisteredAt time.Time
	LastUsedAt   time.Time
}
