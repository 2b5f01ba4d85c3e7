// Package record defines the typed records that flow through the
// bridge, together with their wire codecs.
//
// Three records are bridged:
//
//   - SwitchState: the current on/off state of a switch actuator,
//     read from the bus and published to MQTT.
//   - SwitchControl: an on/off command received from MQTT and written
//     to the bus.
//   - Temperature: a sensor reading in Celsius, read from the bus and
//     published to MQTT.
//
// Each record carries the KNX group address it belongs to and a
// millisecond timestamp. JSON decoding is tolerant: unknown keys are
// ignored and missing keys default to the field's zero value, so peers
// with older or newer schemas interoperate.
package record
