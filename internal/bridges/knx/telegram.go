package knx

import (
	"encoding/binary"
	"fmt"
	"time"
)

// knxd protocol message types.
const (
	// EIBOpenGroupCon opens a group socket for bidirectional group
	// communication. Telegrams sent on this socket are forwarded to the
	// KNX bus backend.
	EIBOpenGroupCon uint16 = 0x0026

	// EIBGroupPacket carries a group telegram in both directions.
	EIBGroupPacket uint16 = 0x0027
)

// APCI (Application Protocol Control Information) codes for group
// communication.
const (
	// APCIRead asks the device listening on a GA for its current value.
	APCIRead byte = 0x00

	// APCIResponse answers a group read request.
	APCIResponse byte = 0x40

	// APCIWrite sends a value to the devices listening on a GA.
	APCIWrite byte = 0x80
)

// knxdHeaderSize is the size of the knxd message header (size + type).
const knxdHeaderSize = 4

// Telegram is the basic unit of communication on the KNX bus: a
// read/write/response addressed to a group address, with an optional
// DPT-encoded payload.
type Telegram struct {
	// Source is the sender's individual address (e.g., "1.1.5").
	// Only populated for received telegrams.
	Source string

	// Destination is the target group address.
	Destination GroupAddress

	// APCI indicates the telegram type (read, response, or write).
	APCI byte

	// Data contains the DPT-encoded payload (empty for reads).
	Data []byte

	// Timestamp records when the telegram was received or created.
	Timestamp time.Time
}

// ParseTelegram parses a raw knxd group packet into a Telegram.
//
// The GROUPCON receive format is:
//
//	Byte 0-1: source individual address (big-endian)
//	Byte 2-3: destination group address (big-endian)
//	Byte 4:   TPCI (usually 0x00)
//	Byte 5:   APCI (upper 2 bits) | data (lower 6 bits) for short frames
//	Byte 6+:  additional data bytes for long frames
//
// The receive format carries a source address prefix that the send format
// does not; that asymmetry is part of knxd's GROUPCON protocol.
func ParseTelegram(data []byte) (Telegram, error) {
	if len(data) < 6 {
		return Telegram{}, fmt.Errorf("%w: too short (%d bytes, need at least 6)", ErrInvalidTelegram, len(data))
	}

	srcRaw := binary.BigEndian.Uint16(data[0:2])
	source := formatIndividualAddress(srcRaw)

	destRaw := binary.BigEndian.Uint16(data[2:4])
	dest := GroupAddressFromUint16(destRaw)

	apci := data[5] & 0xC0

	var payload []byte
	if len(data) > 6 {
		// Long frame: data bytes follow the 6-byte header.
		payload = make([]byte, len(data)-6)
		copy(payload, data[6:])
	} else if apci == APCIWrite || apci == APCIResponse {
		// Short frame: the value rides in the lower 6 bits of the APCI byte.
		payload = []byte{data[5] & 0x3F}
	}
	// For APCIRead the payload stays nil.

	return Telegram{
		Source:      source,
		Destination: dest,
		APCI:        apci,
		Data:        payload,
		Timestamp:   time.Now(),
	}, nil
}

// formatIndividualAddress converts a 16-bit individual address to the
// "area.line.device" format used for physical devices on the bus.
func formatIndividualAddress(ia uint16) string {
	area := (ia >> 12) & 0x0F
	line := (ia >> 8) & 0x0F
	device := ia & 0xFF
	return fmt.Sprintf("%d.%d.%d", area, line, device)
}

// Encode encodes the telegram for sending on a GROUPCON socket.
//
// Short APDU (no data, or a single byte ≤ 0x3F): GA(2) + [0x00, APCI|value].
// Long APDU: GA(2) + [0x00, APCI] + data.
func (t Telegram) Encode() []byte {
	smallData := len(t.Data) == 1 && t.Data[0] <= 0x3F

	if len(t.Data) == 0 || smallData {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint16(buf[0:2], t.Destination.ToUint16())
		buf[2] = 0x00 // TPCI
		if smallData {
			buf[3] = t.APCI | (t.Data[0] & 0x3F)
		} else {
			buf[3] = t.APCI
		}
		return buf
	}

	buf := make([]byte, 4+len(t.Data))
	binary.BigEndian.PutUint16(buf[0:2], t.Destination.ToUint16())
	buf[2] = 0x00 // TPCI
	buf[3] = t.APCI
	copy(buf[4:], t.Data)
	return buf
}

// IsWrite returns true if this is a group write telegram.
func (t Telegram) IsWrite() bool {
	return t.APCI == APCIWrite
}

// IsRead returns true if this is a group read request.
func (t Telegram) IsRead() bool {
	return t.APCI == APCIRead
}

// IsResponse returns true if this is a group read response.
func (t Telegram) IsResponse() bool {
	return t.APCI == APCIResponse
}

// String returns a human-readable representation of the telegram.
func (t Telegram) String() string {
	apciStr := "UNKNOWN"
	switch t.APCI {
	case APCIRead:
		apciStr = "READ"
	case APCIResponse:
		apciStr = "RESPONSE"
	case APCIWrite:
		apciStr = "WRITE"
	}
	return fmt.Sprintf("Telegram{GA:%s, APCI:%s, Data:%X}", t.Destination, apciStr, t.Data)
}

// NewWriteTelegram creates a group write telegram for the given GA.
func NewWriteTelegram(dest GroupAddress, data []byte) Telegram {
	return Telegram{
		Destination: dest,
		APCI:        APCIWrite,
		Data:        data,
		Timestamp:   time.Now(),
	}
}

// NewReadTelegram creates a group read request for the given GA.
func NewReadTelegram(dest GroupAddress) Telegram {
	return Telegram{
		Destination: dest,
		APCI:        APCIRead,
		Timestamp:   time.Now(),
	}
}

// EncodeKNXDMessage wraps a payload in the knxd message format:
//
//	Byte 0-1: size field (big-endian, type + payload; excludes itself)
//	Byte 2-3: message type (big-endian)
//	Byte 4+:  payload
func EncodeKNXDMessage(msgType uint16, payload []byte) []byte {
	buf := make([]byte, knxdHeaderSize+len(payload))

	binary.BigEndian.PutUint16(buf[0:2], uint16(2+len(payload)))
	binary.BigEndian.PutUint16(buf[2:4], msgType)
	copy(buf[4:], payload)

	return buf
}

// ParseKNXDMessage parses a raw knxd message read from the socket,
// returning the message type and payload.
func ParseKNXDMessage(data []byte) (msgType uint16, payload []byte, err error) {
	if len(data) < knxdHeaderSize {
		return 0, nil, fmt.Errorf("%w: message too short (%d bytes)", ErrInvalidTelegram, len(data))
	}

	declaredSize := binary.BigEndian.Uint16(data[0:2])
	expectedSize := len(data) - 2
	if int(declaredSize) != expectedSize {
		return 0, nil, fmt.Errorf("%w: size mismatch (declared %d, expected %d)",
			ErrInvalidTelegram, declaredSize, expectedSize)
	}

	msgType = binary.BigEndian.Uint16(data[2:4])
	if len(data) > knxdHeaderSize {
		payload = data[knxdHeaderSize:]
	}

	return msgType, payload, nil
}
