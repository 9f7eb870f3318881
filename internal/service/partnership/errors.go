package partnership

import "errors"

var (
	ErrPartnershipNotFound = errors.New("partnership not found")
	ErrNotParticipant      = errors.New("user is not a participant of this partnership")
	ErrAlreadyPartnered    = errors.New("user already has an active or pending partnership")
	ErrInvalidTransition   = errors.New("invalid partnership status transition")
)
