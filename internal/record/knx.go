package record

import (
	"fmt"

	"github.com/homespan/knxbridge/internal/bridges/knx"
)

// SwitchStateFromKNX decodes a DPT 1.001 payload received on the given
// group address into a SwitchState.
func SwitchStateFromKNX(data []byte, address string) (SwitchState, error) {
	isOn, err := knx.DecodeDPT1(data)
	if err != nil {
		return SwitchState{}, fmt.Errorf("%w: switch state on %s: %w", ErrDecodingFailed, address, err)
	}
	return NewSwitchState(address, isOn), nil
}

// SwitchControlToKNX encodes a SwitchControl command as a DPT 1.001
// payload for the bus.
func SwitchControlToKNX(control SwitchControl) []byte {
	return knx.EncodeDPT1(control.IsOn)
}

// TemperatureFromKNX decodes a DPT 9.001 payload received on the given
// group address into a Temperature.
func TemperatureFromKNX(data []byte, address string) (Temperature, error) {
	celsius, err := knx.DecodeDPT9(data)
	if err != nil {
		return Temperature{}, fmt.Errorf("%w: temperature on %s: %w", ErrDecodingFailed, address, err)
	}
	return NewTemperature(address, celsius), nil
}

// TemperatureToKNX encodes a Temperature as a DPT 9.001 payload,
// saturating at the format's limits.
func TemperatureToKNX(temp Temperature) []byte {
	return knx.EncodeDPT9(temp.Celsius)
}
