// Package knx implements the field-bus side of the record bridge.
//
// It provides the binary codec layer for KNX datapoint types, group
// address parsing, telegram framing, and a client for the knxd group
// socket protocol.
//
// # Datapoint Types
//
// KNX defines standardised fixed-width encodings (DPTs). The bridge
// uses two of them:
//
//   - DPT 1.001: 1-bit switch packed into a single byte
//   - DPT 9.001: 2-byte float (sign, exponent, mantissa) for temperatures
//
// Codec functions are pure and never panic; a payload of the wrong
// length fails with ErrLengthMismatch.
//
// # Group Addresses
//
// Group addresses use the 3-level format Main/Middle/Sub (e.g. "1/0/7"):
//
//	addr, err := knx.ParseGroupAddress("1/0/7")
//	if err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
package knx
