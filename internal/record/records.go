package record

import "time"

// SwitchState is the current state of a switch actuator (DPT 1.001).
//
// Produced from bus traffic and published to MQTT.
type SwitchState struct {
	// Address is the KNX group address (e.g., "1/0/7").
	Address string `json:"address"`

	// IsOn is the switch on/off state.
	IsOn bool `json:"is_on"`

	// Timestamp of the last update in milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// SwitchControl is an on/off command for a switch actuator (DPT 1.001).
//
// Received from MQTT and written to the bus.
type SwitchControl struct {
	// Address is the KNX group address to control (e.g., "1/0/6").
	Address string `json:"address"`

	// IsOn is the desired on/off state.
	IsOn bool `json:"is_on"`

	// Timestamp of the command in milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Temperature is a sensor reading in Celsius (DPT 9.001).
type Temperature struct {
	// Address is the KNX group address (e.g., "9/1/0").
	Address string `json:"address"`

	// Celsius is the measured temperature.
	Celsius float64 `json:"celsius"`

	// Timestamp of the measurement in milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// NewSwitchState creates a SwitchState stamped with the current time.
func NewSwitchState(address string, isOn bool) SwitchState {
	return SwitchState{Address: address, IsOn: isOn, Timestamp: NowMillis()}
}

// NewSwitchControl creates a SwitchControl stamped with the current time.
func NewSwitchControl(address string, isOn bool) SwitchControl {
	return SwitchControl{Address: address, IsOn: isOn, Timestamp: NowMillis()}
}

// NewTemperature creates a Temperature stamped with the current time.
func NewTemperature(address string, celsius float64) Temperature {
	return Temperature{Address: address, Celsius: celsius, Timestamp: NowMillis()}
}

// NowMillis returns the current Unix time in milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
