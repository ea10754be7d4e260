// Package entity implements the identity of a discoverable graph
// participant and the liveliness-token codec that is graphflow's wire
// contract. A local participant renders its Entity to a token string and
// publishes it; a remote participant parses observed tokens back into
// Entity records for the graph cache.
//
// The token layout, joined by "/", is:
//
//	<admin space>/<domain id>/<session id>/<kind tag>/<namespace>/<node name>
//
// with three extra segments for non-node entities:
//
//	.../<topic name>/<topic type>/<qos>
//
// The namespace segment is "_" when the namespace is the root "/",
// because the key space forbids empty segments. Node and topic names are
// mangled so they occupy exactly one segment; the topic type is emitted
// verbatim.
package entity

import (
	"fmt"
	"strconv"
	"strings"

	errspkg "github.com/drblury/graphflow/internal/runtime/errors"
	"github.com/drblury/graphflow/internal/runtime/ids"
	"github.com/drblury/graphflow/internal/runtime/keyexpr"
	"github.com/drblury/graphflow/internal/runtime/qos"
)

// Kind enumerates the discoverable graph participants.
type Kind int

const (
	KindNode Kind = iota
	KindPublisher
	KindSubscription
	KindService
	KindClient
)

// Two-character wire tags. The tag<->kind mapping is a total bijection;
// changing a tag breaks discovery against every deployed peer.
const (
	tagNode         = "NN"
	tagPublisher    = "MP"
	tagSubscription = "MS"
	tagService      = "SS"
	tagClient       = "SC"
)

var kindToTag = map[Kind]string{
	KindNode:         tagNode,
	KindPublisher:    tagPublisher,
	KindSubscription: tagSubscription,
	KindService:      tagService,
	KindClient:       tagClient,
}

var tagToKind = map[string]Kind{
	tagNode:         KindNode,
	tagPublisher:    KindPublisher,
	tagSubscription: KindSubscription,
	tagService:      KindService,
	tagClient:       KindClient,
}

// Tag returns the two-character wire tag for the kind, or "" if the
// kind is not one of the known values.
func (k Kind) Tag() string {
	return kindToTag[k]
}

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindPublisher:
		return "publisher"
	case KindSubscription:
		return "subscription"
	case KindService:
		return "service"
	case KindClient:
		return "client"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// NodeInfo describes the node that owns an entity.
type NodeInfo struct {
	// DomainID partitions independent graphs sharing one key space.
	DomainID uint64

	// Namespace is the slash-rooted node namespace; "/" is the root.
	Namespace string

	// Name is the node name. It may contain slashes; they are mangled
	// into the token so the name occupies a single segment.
	Name string

	// Enclave is the local security domain. It is carried on the record
	// but never encoded into the token, so entities reconstructed from
	// the wire always have an empty enclave.
	Enclave string
}

// TopicInfo describes the topic side of a publisher, subscription,
// service, or client entity.
type TopicInfo struct {
	// Name is the topic or service name, mangled like a node name.
	Name string

	// Type is the opaque type string, emitted verbatim.
	Type string

	// QoS is the endpoint's QoS profile.
	QoS qos.Profile
}

// Entity is the immutable identity of one graph participant together
// with its rendered liveliness token. Construct it with Make for local
// entities or Parse for tokens observed from remote peers.
type Entity struct {
	id      string
	kind    Kind
	node    NodeInfo
	topic   *TopicInfo
	keyexpr string
}

// Make builds the Entity for a locally created participant and renders
// its token eagerly. topic must be non-nil exactly when kind is not
// KindNode. The namespace and name must be non-empty, and the namespace
// must not contain empty segments; rendering itself cannot fail once
// these preconditions hold.
func Make(id ids.SessionID, kind Kind, node NodeInfo, topic *TopicInfo) (Entity, error) {
	if _, ok := kindToTag[kind]; !ok {
		return Entity{}, fmt.Errorf("%w: %d", errspkg.ErrInvalidKind, int(kind))
	}
	if node.Namespace == "" || node.Name == "" {
		return Entity{}, errspkg.ErrInvalidNodeInfo
	}
	// Namespaces are emitted without mangling, so every one of their
	// segments must be non-empty or the token would violate the key
	// space. Catches trailing and doubled delimiters.
	if node.Namespace != keyexpr.Delimiter {
		for _, seg := range keyexpr.Split(strings.TrimPrefix(node.Namespace, keyexpr.Delimiter)) {
			if seg == "" {
				return Entity{}, fmt.Errorf("%w: namespace %q has an empty segment", errspkg.ErrInvalidNodeInfo, node.Namespace)
			}
		}
	}
	if kind != KindNode && topic == nil {
		return Entity{}, fmt.Errorf("%w: %s entity requires topic info", errspkg.ErrInvalidTopicInfo, kind)
	}

	e := Entity{
		id:   id.String(),
		kind: kind,
		node: node,
	}
	if topic != nil {
		t := *topic
		e.topic = &t
	}
	e.keyexpr = e.render()
	return e, nil
}

func (e *Entity) render() string {
	var b strings.Builder
	b.WriteString(keyexpr.AdminSpace)
	b.WriteString(keyexpr.Delimiter)
	b.WriteString(strconv.FormatUint(e.node.DomainID, 10))
	b.WriteString(keyexpr.Delimiter)
	b.WriteString(e.id)
	b.WriteString(keyexpr.Delimiter)
	b.WriteString(e.kind.Tag())
	b.WriteString(keyexpr.Delimiter)
	if e.node.Namespace == keyexpr.Delimiter {
		b.WriteString(keyexpr.EmptyNamespaceSegment)
	} else {
		b.WriteString(strings.TrimPrefix(e.node.Namespace, keyexpr.Delimiter))
	}
	b.WriteString(keyexpr.Delimiter)
	b.WriteString(keyexpr.Mangle(e.node.Name))
	if e.topic != nil {
		b.WriteString(keyexpr.Delimiter)
		b.WriteString(keyexpr.Mangle(e.topic.Name))
		b.WriteString(keyexpr.Delimiter)
		b.WriteString(e.topic.Type)
		b.WriteString(keyexpr.Delimiter)
		b.WriteString(e.topic.QoS.EncodeKeyExpr())
	}
	return b.String()
}

// Token segment positions. The first four fields are anchored at the
// front; the node name and topic fields are anchored at the back. The
// namespace is whatever lies in between, which is how a namespace with
// internal delimiters (it is intentionally not mangled) survives the
// trip through the fixed surrounding fields.
const (
	segAdminSpace = iota
	segDomainID
	segSessionID
	segKind
	segNamespace

	minSegments      = 6
	minTopicSegments = 9
	topicFieldCount  = 3
)

// Parse reconstructs an Entity from a token observed on the key space.
// Validation is strict and short-circuiting in the documented order; a
// failed field is never substituted with a default. The enclave is not
// on the wire and comes back empty.
func Parse(token string) (Entity, error) {
	parts := keyexpr.Split(token)
	if len(parts) < minSegments {
		return Entity{}, fmt.Errorf("%w: expected at least %d segments, got %d", errspkg.ErrMalformedToken, minSegments, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return Entity{}, fmt.Errorf("%w: empty segment", errspkg.ErrMalformedToken)
		}
	}

	if parts[segAdminSpace] != keyexpr.AdminSpace {
		return Entity{}, fmt.Errorf("%w: %q", errspkg.ErrInvalidAdminSpace, parts[segAdminSpace])
	}

	kind, ok := tagToKind[parts[segKind]]
	if !ok {
		return Entity{}, fmt.Errorf("%w: %q", errspkg.ErrUnknownEntityKind, parts[segKind])
	}

	domainID, err := strconv.ParseUint(parts[segDomainID], 10, 64)
	if err != nil {
		return Entity{}, fmt.Errorf("%w: %q", errspkg.ErrInvalidDomainID, parts[segDomainID])
	}

	nameEnd := len(parts)
	var topic *TopicInfo
	if kind != KindNode {
		if len(parts) < minTopicSegments {
			return Entity{}, fmt.Errorf("%w: %s token has %d segments", errspkg.ErrMissingTopicInfo, kind, len(parts))
		}
		profile, err := qos.ParseKeyExpr(parts[len(parts)-1])
		if err != nil {
			return Entity{}, err
		}
		topic = &TopicInfo{
			Name: keyexpr.Demangle(parts[len(parts)-3]),
			Type: parts[len(parts)-2],
			QoS:  profile,
		}
		nameEnd = len(parts) - topicFieldCount
	}

	nsParts := parts[segNamespace : nameEnd-1]
	namespace := keyexpr.Delimiter
	if len(nsParts) > 1 || nsParts[0] != keyexpr.EmptyNamespaceSegment {
		namespace = keyexpr.Delimiter + strings.Join(nsParts, keyexpr.Delimiter)
	}

	return Entity{
		id:   parts[segSessionID],
		kind: kind,
		node: NodeInfo{
			DomainID:  domainID,
			Namespace: namespace,
			Name:      keyexpr.Demangle(parts[nameEnd-1]),
		},
		topic:   topic,
		keyexpr: token,
	}, nil
}

// SubscriptionToken returns the wildcard key expression matching every
// liveliness token of the given domain. The transport layer subscribes
// with this pattern to observe all discovery traffic for the domain.
func SubscriptionToken(domainID uint64) string {
	return keyexpr.AdminSpace + keyexpr.Delimiter + strconv.FormatUint(domainID, 10) + keyexpr.Delimiter + "**"
}

// ID returns the owning session's identity in its hex wire form.
func (e Entity) ID() string { return e.id }

// Kind returns the entity kind.
func (e Entity) Kind() Kind { return e.kind }

// DomainID returns the graph domain the entity belongs to.
func (e Entity) DomainID() uint64 { return e.node.DomainID }

// NodeNamespace returns the slash-rooted namespace of the owning node.
func (e Entity) NodeNamespace() string { return e.node.Namespace }

// NodeName returns the owning node's name.
func (e Entity) NodeName() string { return e.node.Name }

// NodeEnclave returns the owning node's security enclave. Empty for
// entities parsed from the wire.
func (e Entity) NodeEnclave() string { return e.node.Enclave }

// TopicInfo returns the topic descriptor and true for non-node
// entities, or a zero TopicInfo and false for nodes.
func (e Entity) TopicInfo() (TopicInfo, bool) {
	if e.topic == nil {
		return TopicInfo{}, false
	}
	return *e.topic, true
}

// KeyExpr returns the rendered liveliness token.
func (e Entity) KeyExpr() string { return e.keyexpr }
