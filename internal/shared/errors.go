package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingAPIKey = fmt.Errorf("missing Steam Web API key")

	// Login errors
	ErrLoginCancelled   = fmt.Errorf("login cancelled")
	ErrLoginTimeout     = fmt.Errorf("login timed out")
	ErrInvalidAssertion = fmt.Errorf("invalid OpenID assertion")
	ErrVerifyFailed     = fmt.Errorf("OpenID assertion rejected by Steam")

	// API and storage errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrPlayerNotFound  = fmt.Errorf("player not found")
	ErrAccountNotFound = fmt.Errorf("account not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
