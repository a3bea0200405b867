package httpserver

const (
	ErrInvalidJSON      = "invalid json"
	ErrMissingID        = "missing id"
	ErrDependency       = "dependency error"
	ErrNotFound         = "not found"
	ErrInvalidSignature = "invalid signature"
	ErrTooManyTests     = "too many test attempts, please wait a minute before trying again"
	ErrAPIKeyRequired   = "api key is required"
	ErrInvalidAPIKey    = "invalid api key format"
	ErrNoAdminNumbers   = "at least one admin number is required"
	ErrNoValidNumbers   = "no valid phone numbers provided"
)
