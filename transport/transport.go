// Package transport defines the pub/sub boundary a graphflow discovery
// session runs on. Each backend (channel, nats) lives in its own
// sub-package and registers itself with the transport registry.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport combines the publisher and subscriber pair a session uses
// for liveliness declarations.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Builder is the function signature for creating a transport from config.
// Each transport package provides a Builder that can be registered.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config provides the configuration values needed by transports. The
// interface lets transports access only the config they need without
// depending on the full config package.
type Config interface {
	// GetPubSubSystem returns the transport type name.
	GetPubSubSystem() string

	// GetLivelinessTopic returns the topic carrying liveliness tokens.
	GetLivelinessTopic() string

	// NATS
	GetNATSURL() string
}

// CapabilitiesProvider is implemented by transports that can report
// their capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
