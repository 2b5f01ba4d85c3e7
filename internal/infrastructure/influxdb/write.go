package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTemperature records a temperature sample tagged with its group
// address. Non-blocking; the point is batched and sent asynchronously.
func (c *Client) WriteTemperature(address string, celsius float64, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"temperature",
		map[string]string{
			"address": address,
		},
		map[string]interface{}{
			"celsius": celsius,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteSwitchEvent records a switch state change tagged with its group
// address. The boolean is stored as 0/1 so it can be graphed.
func (c *Client) WriteSwitchEvent(address string, isOn bool, at time.Time) {
	if !c.IsConnected() {
		return
	}

	value := 0
	if isOn {
		value = 1
	}

	point := write.NewPoint(
		"switch",
		map[string]string{
			"address": address,
		},
		map[string]interface{}{
			"is_on": value,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}
