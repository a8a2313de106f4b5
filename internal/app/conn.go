package app

// Frame is a raw outbound payload, one encoded envelope.
type Frame []byte

// Conn abstracts a connection's outbound half.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the relay.
type PublishResult struct {
	SentTo  int
	Dropped []string
}
