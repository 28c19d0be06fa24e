package models

import "errors"

// Error taxonomy shared by services and handlers. Services wrap these with
// fmt.Errorf("...: %w", ...) and handlers resolve them to HTTP statuses
// with errors.Is.
var (
	// ErrValidation marks malformed input: bad email grammar, too-short
	// password, missing todo text.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateEmail marks a unique-constraint violation on the email.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrAuthFailed covers bad credentials and bad/revoked/expired tokens.
	// Unknown email and wrong password both collapse into it so callers
	// cannot enumerate accounts.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotFound covers both absent resources and resources owned by
	// someone else; the two are intentionally indistinguishable.
	ErrNotFound = errors.New("not found")
)
