package matching

import "errors"

var (
	// ErrNoMatches means the candidate pool was empty after filtering.
	ErrNoMatches = errors.New("no matching candidates found")

	// ErrLowCompatibility means candidates exist but the best score is
	// below the match threshold.
	ErrLowCompatibility = errors.New("best candidate is below the compatibility threshold")

	ErrExpertNotFound = errors.New("no available expert for the requested categories")
)
