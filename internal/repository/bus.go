package repository

// MessageBus is the engine's outbound event port. The NATS transport
// implements it; tests substitute a recorder.
type MessageBus interface {
	Publish(topic string, data []byte) error
}
