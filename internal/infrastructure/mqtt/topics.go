package mqtt

import "fmt"

// TopicPrefixSystem is the base for the bridge's own system topics.
// Record topics (e.g. knx/lights/state) come from configuration.
const TopicPrefixSystem = "knxbridge/system"

// Topics provides builders for the bridge's system topics.
type Topics struct{}

// SystemStatus returns the availability topic. The bridge publishes
// retained online/offline payloads here, and the broker publishes the
// LWT here on an unexpected disconnect.
//
// Example: knxbridge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
