package sequence

import (
	"encoding/json"
	"time"
)

// MQTT topics for sequence state, consumed by external displays and
// timing-system integrations.
const (
	// TopicEvent carries run lifecycle events (started, cues, relay,
	// completed, stopped).
	TopicEvent = "lugerelay/sequence/event"

	// TopicStatus carries full status snapshots, retained so a display
	// connecting mid-run sees the current state immediately.
	TopicStatus = "lugerelay/sequence/status"

	// TopicRelay carries the relay's logical state, retained.
	TopicRelay = "lugerelay/relay/state"
)

// WebSocket channels mirroring the MQTT topics.
const (
	ChannelEvent  = "sequence.event"
	ChannelStatus = "sequence.status"
	ChannelRelay  = "relay.state"
)

// Event types.
const (
	EventStarted   = "started"
	EventCue       = "cue"
	EventRelay     = "relay"
	EventCompleted = "completed"
	EventStopped   = "stopped"
)

// Event is a run lifecycle notification.
type Event struct {
	Type      string `json:"type"`
	RunID     string `json:"run_id"`
	Kind      Kind   `json:"kind"`
	Cue       int    `json:"cue,omitempty"`
	Relay     *bool  `json:"relay,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Publisher is the interface for publishing events to MQTT.
// Implemented by the mqtt infrastructure client; nil disables publishing.
type Publisher interface {
	// Publish sends a message to the specified MQTT topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Broadcaster is the interface for pushing events to WebSocket clients.
// Implemented by the api hub; nil disables broadcasting.
type Broadcaster interface {
	// Broadcast sends an event to all clients subscribed to the given channel.
	Broadcast(channel string, payload any)
}

// publishEvent sends an event to MQTT and the WebSocket hub, followed by
// a fresh status snapshot on the status channel. Failures are logged and
// never affect the run.
func (e *Engine) publishEvent(evt Event) {
	evt.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)

	if e.hub != nil {
		e.hub.Broadcast(ChannelEvent, evt)
		e.hub.Broadcast(ChannelStatus, e.Status())
	}

	if e.pub == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		e.logger.Error("marshalling sequence event", "error", err)
		return
	}
	if err := e.pub.Publish(TopicEvent, data, 1, false); err != nil {
		e.logger.Warn("publishing sequence event", "type", evt.Type, "error", err)
	}
	if status, err := json.Marshal(e.Status()); err == nil {
		if err := e.pub.Publish(TopicStatus, status, 1, true); err != nil {
			e.logger.Warn("publishing sequence status", "error", err)
		}
	}
}

// publishRelayState reports a relay transition on its dedicated topic
// and channel, retained for late subscribers.
func (e *Engine) publishRelayState(active bool) {
	if e.hub != nil {
		e.hub.Broadcast(ChannelRelay, map[string]bool{"active": active})
	}
	if e.pub == nil {
		return
	}
	payload := []byte(`{"active":false}`)
	if active {
		payload = []byte(`{"active":true}`)
	}
	if err := e.pub.Publish(TopicRelay, payload, 1, true); err != nil {
		e.logger.Warn("publishing relay state", "error", err)
	}
}
