package services

import "errors"

var (
	// ErrSessionActive is returned by StartSession while another session is
	// still the active one.
	ErrSessionActive = errors.New("an emergency session is already active")
	// ErrAccessDenied is returned by the access gateway when the caller is
	// not a registered contact or has not unlocked the requested tier.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidCode is returned when an access code is malformed or does
	// not match.
	ErrInvalidCode = errors.New("invalid access code")
	// ErrInvalidInput is returned for rejected contact or vault input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when an entry or contact id is unknown.
	ErrNotFound = errors.New("not found")
)
