package orchestrator

import "github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"

// Bus is the slice of *mqtt.Client the orchestrator depends on. Both
// ActionRunner and QueryRunner take one, so tests can fake it without a
// live broker.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}
