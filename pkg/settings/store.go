package settings

import (
	"errors"
	"time"
)

// MaxProfiles is the number of network profiles kept. Older entries are
// dropped when a new one is added.
const MaxProfiles = 10

// ForceConfigKey is the integer flag that forces configuration mode on the
// next start. It is consumed (reset to 0) as soon as it is read.
const ForceConfigKey = "force_ap"

// Store errors.
var (
	ErrInvalidProfile = errors.New("invalid profile")
	ErrClosed         = errors.New("settings store closed")
	ErrCorrupt        = errors.New("settings document corrupt")
)

// Profile is one stored set of network credentials.
type Profile struct {
	SSID     string
	Password string

	// UpdatedAt is when the profile was last written.
	UpdatedAt time.Time
}

// Store is the settings collaborator used by the connection supervisor
// (writer) and the startup path (reader).
type Store interface {
	// GetInt returns the integer stored under key, or 0 if unset.
	GetInt(key string) (int, error)

	// SetInt stores an integer under key.
	SetInt(key string, value int) error

	// AddProfile appends p, or replaces the profile with the same SSID.
	// The written profile becomes the most recent one.
	AddProfile(p Profile) error

	// Profiles returns the stored profiles, most recent first.
	Profiles() ([]Profile, error)
}

// ConsumeForceConfig reads the one-shot force flag and clears it if set.
// A subsequent start returns to normal mode unless the flag is re-armed.
func ConsumeForceConfig(s Store) (bool, error) {
	v, err := s.GetInt(ForceConfigKey)
	if err != nil {
		return false, err
	}
	if v != 1 {
		return false, nil
	}
	if err := s.SetInt(ForceConfigKey, 0); err != nil {
		return true, err
	}
	return true, nil
}

// ArmForceConfig sets the one-shot force flag.
func ArmForceConfig(s Store) error {
	return s.SetInt(ForceConfigKey, 1)
}

// promote returns profiles with p at the front, any older entry for the same
// SSID removed, and the list capped at MaxProfiles.
func promote(profiles []Profile, p Profile) []Profile {
	out := make([]Profile, 0, len(profiles)+1)
	out = append(out, p)
	for _, existing := range profiles {
		if existing.SSID == p.SSID {
			continue
		}
		out = append(out, existing)
	}
	if len(out) > MaxProfiles {
		out = out[:MaxProfiles]
	}
	return out
}

func validate(p Profile) error {
	if p.SSID == "" {
		return ErrInvalidProfile
	}
	return nil
}
