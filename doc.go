// Package graphflow implements a discovery substrate on top of Watermill:
// participants encode their identity (node, publisher, subscription,
// service, client) into slash-delimited liveliness tokens, publish them
// on a shared topic, and watch that topic to maintain a live cache of
// everything present in their domain. It reads the target transport
// (NATS or Go Channels) from Config, builds the publisher/subscriber
// pair, and keeps the graph cache in sync for as long as Watch runs.
//
// Session is the entry point: fill Config, create a Session, Declare
// the entities your process owns, and run Watch in a goroutine to learn
// about everyone else's. The token codec itself (Make, Parse, Mangle,
// SubscriptionToken) is exposed separately for callers that only need
// the wire format; see README.md for a copy/paste quick start snippet.
//
// # Tokens
//
// A liveliness token is a key expression of the form
//
//	@ros2_lv/<domain>/<session>/<kind>/<namespace>/<name>[/<topic>/<type>/<qos>]
//
// where names containing slashes are mangled with "%" and the root
// namespace is written as the "_" placeholder. Parse rejects anything
// that does not round-trip: unknown kind tags, non-numeric domains,
// empty segments, or truncated topic descriptors.
//
// # Transports
//
// Graphflow ships 2 transports out of the box:
//   - channel: In-memory Go channels for testing and single-process graphs
//   - nats: Brokered discovery across processes and hosts
//
// Additional backends register themselves through the transport
// registry; import a transport package for its side effect and select
// it by name in Config.PubSubSystem.
package graphflow
