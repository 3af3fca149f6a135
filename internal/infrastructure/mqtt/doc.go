// Package mqtt provides the publish-only MQTT client used to announce
// sequence state to external consumers such as scoreboard displays and
// timing-system bridges.
//
// The client wraps paho.mqtt.golang with:
//   - Auto-reconnect with exponential backoff
//   - Last Will and Testament on lugerelay/system/status for crash detection
//   - Online/offline status publishing on connect and graceful shutdown
//   - Payload size and QoS validation on publish
//
// MQTT is optional. When disabled in config the client is never created
// and the sequence engine's publisher stays nil, which silently disables
// event publishing without affecting runs.
//
// The controller never subscribes: all commands arrive over the HTTP API.
package mqtt
