package knx

import (
	"fmt"
	"math"
)

// DPT represents a KNX Datapoint Type identifier.
//
// Format: "major.minor" (e.g., "1.001", "9.001")
type DPT string

// Datapoint types bridged by this gateway.
const (
	// DPTSwitch is the 1-bit on/off encoding (0=Off, 1=On).
	DPTSwitch DPT = "1.001"

	// DPTTemperature is the 2-byte float encoding, -273 to 670760 °C.
	DPTTemperature DPT = "9.001"
)

// DPT9 2-byte float format constants.
//
// Layout:
//
//	Byte 0: SEEE EMMM (sign, 4-bit exponent, mantissa high)
//	Byte 1: MMMM MMMM (mantissa low)
//
// Value = 0.01 × mantissa × 2^exponent, mantissa is an 11-bit
// two's-complement integer.
const (
	// dpt9Min and dpt9Max bound the representable range. Encoding
	// saturates at these values rather than failing.
	dpt9Min = -671088.64
	dpt9Max = 670760.96

	// dpt9MantissaMask extracts the 11-bit mantissa.
	dpt9MantissaMask = 0x07FF

	// dpt9Invalid is the KNX "invalid data" sentinel for all DPT 9.xxx
	// types (sensor fault or value not available).
	dpt9Invalid = 0x7FFF
)

// EncodeDPT1 encodes a boolean to 1-bit KNX format.
//
// Returns a single byte with the LSB set to 0 or 1; all other bits are
// zero-filled.
func EncodeDPT1(value bool) []byte {
	if value {
		return []byte{0x01}
	}
	return []byte{0x00}
}

// DecodeDPT1 decodes a 1-bit KNX value to boolean.
//
// The payload must be exactly 1 byte. Only the least-significant bit is
// significant; all other bits are ignored.
func DecodeDPT1(data []byte) (bool, error) {
	if len(data) != 1 {
		return false, fmt.Errorf("%w: DPT1 requires 1 byte, got %d", ErrLengthMismatch, len(data))
	}
	return (data[0] & 0x01) != 0, nil
}

// EncodeDPT9 encodes a float to the 2-byte KNX floating point format.
//
// The encoder picks the representable value nearest to the input and
// saturates at the format's minimum and maximum instead of failing, so
// it never returns an error. Resolution is 0.01 × 2^exponent.
func EncodeDPT9(value float64) []byte {
	if value < dpt9Min {
		value = dpt9Min
	} else if value > dpt9Max {
		value = dpt9Max
	}

	var sign uint16
	if value < 0 {
		sign = 0x8000
	}

	// Scale into the 11-bit mantissa, growing the exponent until it fits.
	// The clamp above guarantees exp never exceeds 15.
	exp := 0
	mantissa := value * 100
	for mantissa > 2047 || mantissa < -2048 {
		mantissa /= 2
		exp++
	}

	m := int16(math.Round(mantissa))

	encoded := sign | (uint16(exp) << 11) | (uint16(m) & dpt9MantissaMask)
	return []byte{byte(encoded >> 8), byte(encoded)}
}

// DecodeDPT9 decodes a 2-byte KNX floating point value.
//
// The payload must be exactly 2 bytes. The 0x7FFF sentinel decodes to an
// error since it signals a sensor fault rather than a value.
func DecodeDPT9(data []byte) (float64, error) {
	if len(data) != 2 {
		return 0, fmt.Errorf("%w: DPT9 requires 2 bytes, got %d", ErrLengthMismatch, len(data))
	}

	raw := uint16(data[0])<<8 | uint16(data[1])
	if raw == dpt9Invalid {
		return 0, fmt.Errorf("%w: DPT9 invalid value 0x7FFF (sensor error or not available)", ErrDecodingFailed)
	}

	sign := (raw & 0x8000) != 0
	exp := (raw >> 11) & 0x0F
	mantissa := int16(raw & dpt9MantissaMask)
	if sign {
		mantissa |= -0x800 // sign extend the 11-bit mantissa
	}

	return float64(mantissa) * 0.01 * math.Pow(2, float64(exp)), nil
}
