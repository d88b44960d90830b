package orchestrator

import (
	"sync"

	"github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"
)

// fakeBus is an in-memory Bus: Subscribe records the handler, Publish hands
// the payload to an injected responder that can call straight back into
// whichever handler is registered for the response topic it was given.
type fakeBus struct {
	mu        sync.Mutex
	handlers  map[string]mqtt.MessageHandler
	published [][]byte
	respond   func(topic string, payload []byte, handlers map[string]mqtt.MessageHandler)
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeBus) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeBus) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	return nil
}

func (f *fakeBus) Publish(topic string, payload []byte, _ byte, _ bool) error {
	f.mu.Lock()
	f.published = append(f.published, payload)
	respond := f.respond
	handlers := f.handlers
	f.mu.Unlock()

	if respond != nil {
		respond(topic, payload, handlers)
	}
	return nil
}
