package mqtt

import (
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/lanternworks/storyloom/internal/config"
	"github.com/lanternworks/storyloom/internal/events"
)

// SignalSink receives routed input signals. Implemented by the engine.
type SignalSink interface {
	HandleSignal(now time.Time, name string, payload map[string]interface{})
}

// Subscriber is the topic-subscribe surface of Client, split out so
// tests can fake the broker.
type Subscriber interface {
	Subscribe(topic string, handler paho.MessageHandler) error
}

// Bridge subscribes to the configured kiosk topics and forwards each
// message as a player input signal. Message payloads are optional JSON
// objects; non-JSON payloads forward the signal with no payload.
type Bridge struct {
	bus  *events.Bus
	sink SignalSink
}

// NewBridge creates a bridge routing into sink.
func NewBridge(bus *events.Bus, sink SignalSink) *Bridge {
	return &Bridge{bus: bus, sink: sink}
}

// Start subscribes every binding. Failed subscriptions are reported on
// the bus and skipped; the rest of the bindings still come up.
func (b *Bridge) Start(sub Subscriber, bindings []config.KioskBinding) {
	for _, binding := range bindings {
		binding := binding
		err := sub.Subscribe(binding.Topic, func(client paho.Client, msg paho.Message) {
			b.handleMessage(binding, msg.Payload())
		})
		if err != nil {
			b.bus.Emit("error", "system.error", "kiosk subscribe failed", map[string]interface{}{
				"topic": binding.Topic,
				"error": err.Error(),
			})
		}
	}
}

func (b *Bridge) handleMessage(binding config.KioskBinding, raw []byte) {
	var payload map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			payload = nil
		}
	}

	b.bus.Emit("info", "input.received", "", map[string]interface{}{
		"source": "kiosk",
		"topic":  binding.Topic,
		"input":  binding.Signal,
	})
	b.sink.HandleSignal(time.Now(), binding.Signal, payload)
}
