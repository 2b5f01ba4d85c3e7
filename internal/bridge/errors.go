package bridge

import "errors"

// Domain errors for the bridge package.
var (
	// ErrBuildFailed is returned when the assembly cannot be built.
	// No partial bridge runs after a build failure.
	ErrBuildFailed = errors.New("bridge: build failed")

	// ErrInvalidEndpoint is returned when an endpoint URL is malformed.
	ErrInvalidEndpoint = errors.New("bridge: invalid endpoint")

	// ErrUnknownScheme is returned when no connector is registered for
	// an endpoint's scheme.
	ErrUnknownScheme = errors.New("bridge: unknown endpoint scheme")

	// ErrDuplicateInbound is returned when a record is given more than
	// one inbound link. Each record has exactly one writer.
	ErrDuplicateInbound = errors.New("bridge: record already has an inbound link")

	// ErrDuplicateRecord is returned when two records are configured
	// under the same name.
	ErrDuplicateRecord = errors.New("bridge: record already configured")

	// ErrNilCodec is returned when a link is registered without its
	// encode or decode function.
	ErrNilCodec = errors.New("bridge: link codec must not be nil")

	// ErrReceiverConflict is returned when two inbound links claim the
	// same transport path.
	ErrReceiverConflict = errors.New("bridge: path already has a receiver")
)
