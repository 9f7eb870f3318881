package preference

import "errors"

var (
	ErrPreferencesNotFound = errors.New("preferences not found")

	// ErrNotAvailable is returned by ClaimAvailability when the user's
	// availability flag was already false, i.e. another match claimed it first.
	ErrNotAvailable = errors.New("user is not available for matching")
)
