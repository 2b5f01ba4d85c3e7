// Package influxdb writes record telemetry to an InfluxDB v2 server.
//
// Writes are non-blocking and batched by the client library, so a slow
// or unreachable server never stalls a record flow. Async write
// failures surface through the SetOnError callback.
//
// The integration is optional; Connect returns ErrDisabled when it is
// switched off in configuration.
package influxdb
