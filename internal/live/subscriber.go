package live

// Subscriber is the delivery side of a live connection. Implementations must
// not block: Send returns false when the subscriber cannot accept the message
// (full buffer), which the coordinator treats as a slow client.
type Subscriber interface {
	// Send queues a message for delivery. Returns false if the message was
	// dropped because the subscriber's buffer is full.
	Send(data []byte) bool

	// Close tears down the subscriber, delivering reason to the peer on a
	// best-effort basis. Safe to call more than once.
	Close(reason string)
}
