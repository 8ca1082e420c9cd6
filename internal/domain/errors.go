package domain

import "errors"

var (
	ErrStorage           = errors.New("storage failure")
	ErrConfiguration     = errors.New("missing credential or identifier")
	ErrProviderAuth      = errors.New("provider rejected credentials")
	ErrProviderRateLimit = errors.New("provider rate limit exceeded")
	ErrProviderTimeout   = errors.New("run did not reach a terminal state before deadline")
	ErrProviderRequest   = errors.New("provider rejected request")
	ErrRunInFlight       = errors.New("a run is already active for this turn")
	ErrAlreadyCompleted  = errors.New("exchange fields already back-filled")
	ErrMessageNotFound   = errors.New("message not found")
)
