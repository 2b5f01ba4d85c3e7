package record

import "errors"

// Domain errors for the record package.
var (
	// ErrDecodingFailed is returned when a payload cannot be decoded
	// into a record.
	ErrDecodingFailed = errors.New("record: decoding failed")

	// ErrEncodingFailed is returned when a record cannot be encoded
	// for the wire.
	ErrEncodingFailed = errors.New("record: encoding failed")
)
