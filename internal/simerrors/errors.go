// Package simerrors defines the error taxonomy of spec §7, as plain wrapped
// error values rather than a typed exception hierarchy — idiomatic Go uses
// errors.Is/errors.As against sentinels, not a class tree.
package simerrors

import "errors"

// Sentinels identifying the taxonomy of spec §7. Wrap with fmt.Errorf and
// "%w" to attach context; callers distinguish kinds with errors.Is.
var (
	// ErrConfiguration marks a static-data record missing required fields, a
	// disabled/invalid-rate listing, or an incomplete price seed. Handled at
	// startup: the offending instrument is dropped from activation.
	ErrConfiguration = errors.New("configuration error")

	// ErrConnectionFailure marks a database or matching-engine channel being
	// unavailable. Retryable; callers log at warn level.
	ErrConnectionFailure = errors.New("connection failure")

	// ErrDataIntegrity marks a registry add/update that would violate the
	// uniqueness invariant. Surfaced as a false return, not a panic.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrCardinalityViolation marks a "select single" path that saw 0 or >1
	// matching rows.
	ErrCardinalityViolation = errors.New("cardinality violation")

	// ErrInvalidArgument marks a reply message missing a mandatory field.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrChannelUnbound marks a send on a Trading Request Channel with no
	// bound matching-engine endpoint.
	ErrChannelUnbound = errors.New("channel unbound")

	// ErrConnectionPropertyMissing marks a relational datasource configured
	// without one of host/port/user/dbname/password (spec §6).
	ErrConnectionPropertyMissing = errors.New("connection property missing")
)
