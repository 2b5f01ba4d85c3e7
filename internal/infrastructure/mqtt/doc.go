// Package mqtt wraps paho.mqtt.golang for the bridge's broker side.
//
// It provides connection management with automatic reconnection,
// publish and subscribe helpers with panic recovery, and the bridge's
// availability topic (Last Will and Testament plus graceful online and
// offline status messages on knxbridge/system/status).
//
// Record topics themselves come from configuration; this package only
// owns the system topics.
//
// Thread Safety: all methods are safe for concurrent use. Subscriptions
// are restored automatically after a reconnect.
package mqtt
