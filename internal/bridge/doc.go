// Package bridge assembles typed record flows between the KNX bus and
// the MQTT broker.
//
// A record is configured declaratively: a buffer policy, an optional
// inbound link (the single writer), any number of outbound links
// (independent fan-out), and monitor taps. Endpoints are URLs whose
// scheme selects the transport:
//
//	knx://1/0/7          group address on the bus
//	mqtt://knx/lights/state   broker topic
//
// Build is all-or-nothing: configuration errors surface before any
// I/O is wired, and a failure while wiring tears down everything that
// was started. Per record the wiring order is buffer, inbound link,
// outbound links, monitors.
package bridge
