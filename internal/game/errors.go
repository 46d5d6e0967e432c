package game

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrWrongPIN         = errors.New("wrong admin pin")
	ErrInvalidState     = errors.New("action not allowed in current status")
	ErrRoundMismatch    = errors.New("round mismatch")
	ErrScenarioInactive = errors.New("scenario no longer accepts votes")
	ErrNameTaken        = errors.New("name already taken")
	ErrCodeConflict     = errors.New("session code conflict")
	ErrValidation       = errors.New("invalid input")
)
