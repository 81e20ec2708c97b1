package services

import "errors"

// Shared errors used across services and the HTTP mapping.
var (
	// Not found
	ErrNotFound       = errors.New("requested resource not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrLeagueNotFound = errors.New("league not found")
	ErrRosterNotFound = errors.New("roster entry not found")
	ErrMatchNotFound  = errors.New("match not found")

	// Validation and business rules
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrLeagueNameRequired = errors.New("league name is required")
	ErrInvalidRatingMode  = errors.New("invalid rating update mode")
	ErrRostersSameEntry   = errors.New("a match requires two distinct roster entries")

	// Conflicts
	ErrMatchAlreadyAccepted = errors.New("match has already been accepted")
	ErrImmediateModeLeague  = errors.New("league applies ratings immediately; nothing to consolidate")
	ErrEmailConflict        = errors.New("email address is already in use")
	ErrNicknameConflict     = errors.New("nickname is already in use")
	ErrAlreadyLeagueMember  = errors.New("user already has a roster entry in this league")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrNotLeagueMember      = errors.New("user is not a member of this league")
	ErrNotLeagueAdmin       = errors.New("only a league admin can perform this action")
	ErrParticipantOnly      = errors.New("only a match participant can perform this action")

	// Export
	ErrExportNotConfigured = errors.New("standings export storage is not configured")
)
