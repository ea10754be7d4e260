package transport

// Capabilities describes the features of a transport backend that
// matter to discovery: whether token appearance order is preserved and
// whether delivery is acknowledged.
type Capabilities struct {
	// SupportsOrdering indicates declarations arrive in publish order.
	// Without it a remove can overtake the declare it cancels.
	SupportsOrdering bool

	// SupportsAck indicates the transport supports explicit message
	// acknowledgment.
	SupportsAck bool

	// SupportsNack indicates the transport supports negative
	// acknowledgment (redelivery).
	SupportsNack bool

	// Durable indicates declarations outlive the publishing process, so
	// a late-joining observer still sees earlier tokens.
	Durable bool

	// Name is the human-readable name of the transport.
	Name string

	// Version is the transport/driver version.
	Version string
}

// SupportsReliableDelivery returns true if the transport supports
// at-least-once delivery semantics (ack + nack).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// Predefined capability sets.
var (
	// ChannelCapabilities for the in-memory Go channel transport.
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
		Durable:          false,
	}

	// NATSCapabilities for the NATS Core transport.
	NATSCapabilities = Capabilities{
		Name:             "nats",
		SupportsOrdering: true,
		SupportsAck:      true,
		SupportsNack:     true,
		Durable:          false,
	}
)
