package reporter

import "github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"

// Bus is the slice of *mqtt.Client the reporter depends on: a single
// subscription to the broadcast `state` topic. The reporter never
// publishes to MQTT, only to the voice-cloud HTTPS callback.
type Bus interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}
