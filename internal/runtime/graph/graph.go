// Package graph maintains the cache of discovered graph entities. The
// discovery session feeds it with parsed liveliness tokens as they
// appear and disappear; applications query it for the nodes, topics,
// and services that currently exist.
package graph

import (
	"sort"
	"sync"
	"time"

	"github.com/drblury/graphflow/internal/runtime/entity"
	"github.com/drblury/graphflow/internal/runtime/jsoncodec"
)

// Cache stores one entity record per liveliness token. All methods are
// safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	entities map[string]entity.Entity
	metrics  *Metrics
}

// NewCache creates an empty cache. metrics may be nil.
func NewCache(metrics *Metrics) *Cache {
	return &Cache{
		entities: make(map[string]entity.Entity),
		metrics:  metrics,
	}
}

// Put records an entity under its token. Re-putting the same token is
// idempotent. Reports whether the entity was newly inserted.
func (c *Cache) Put(e entity.Entity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entities[e.KeyExpr()]; ok {
		return false
	}
	c.entities[e.KeyExpr()] = e
	if c.metrics != nil {
		c.metrics.entityAdded(e.Kind())
	}
	return true
}

// Remove drops the entity recorded under token. Removing an unknown
// token is a no-op. Reports whether anything was removed.
func (c *Cache) Remove(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entities[token]
	if !ok {
		return false
	}
	delete(c.entities, token)
	if c.metrics != nil {
		c.metrics.entityRemoved(e.Kind())
	}
	return true
}

// Get returns the entity recorded under token.
func (c *Cache) Get(token string) (entity.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entities[token]
	return e, ok
}

// Len returns the number of live entities.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities)
}

// Nodes returns all node entities.
func (c *Cache) Nodes() []entity.Entity {
	return c.byKind(entity.KindNode)
}

func (c *Cache) byKind(kind entity.Kind) []entity.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []entity.Entity
	for _, e := range c.entities {
		if e.Kind() == kind {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KeyExpr() < out[j].KeyExpr() })
	return out
}

// NodeNames returns the sorted, deduplicated names of all live nodes.
func (c *Cache) NodeNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := map[string]bool{}
	for _, e := range c.entities {
		if e.Kind() == entity.KindNode {
			seen[e.NodeName()] = true
		}
	}
	return sortedKeys(seen)
}

// Namespaces returns the sorted, deduplicated namespaces of all live nodes.
func (c *Cache) Namespaces() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := map[string]bool{}
	for _, e := range c.entities {
		if e.Kind() == entity.KindNode {
			seen[e.NodeNamespace()] = true
		}
	}
	return sortedKeys(seen)
}

// TopicNamesAndTypes returns every topic with a live publisher or
// subscription, mapped to its sorted, deduplicated type names.
func (c *Cache) TopicNamesAndTypes() map[string][]string {
	return c.namesAndTypes(entity.KindPublisher, entity.KindSubscription)
}

// ServiceNamesAndTypes returns every service with a live server or
// client, mapped to its sorted, deduplicated type names.
func (c *Cache) ServiceNamesAndTypes() map[string][]string {
	return c.namesAndTypes(entity.KindService, entity.KindClient)
}

func (c *Cache) namesAndTypes(kinds ...entity.Kind) map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	types := map[string]map[string]bool{}
	for _, e := range c.entities {
		if !kindIn(e.Kind(), kinds) {
			continue
		}
		topic, ok := e.TopicInfo()
		if !ok {
			continue
		}
		if types[topic.Name] == nil {
			types[topic.Name] = map[string]bool{}
		}
		types[topic.Name][topic.Type] = true
	}

	out := make(map[string][]string, len(types))
	for name, set := range types {
		out[name] = sortedKeys(set)
	}
	return out
}

// CountPublishers returns the number of live publishers on topic.
func (c *Cache) CountPublishers(topic string) int {
	return c.countEndpoints(entity.KindPublisher, topic)
}

// CountSubscriptions returns the number of live subscriptions on topic.
func (c *Cache) CountSubscriptions(topic string) int {
	return c.countEndpoints(entity.KindSubscription, topic)
}

func (c *Cache) countEndpoints(kind entity.Kind, topic string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, e := range c.entities {
		if e.Kind() != kind {
			continue
		}
		if t, ok := e.TopicInfo(); ok && t.Name == topic {
			count++
		}
	}
	return count
}

// NodeEntities returns every entity owned by the node with the given
// namespace and name, the node record itself included.
func (c *Cache) NodeEntities(namespace, name string) []entity.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []entity.Entity
	for _, e := range c.entities {
		if e.NodeNamespace() == namespace && e.NodeName() == name {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KeyExpr() < out[j].KeyExpr() })
	return out
}

// snapshotEntity is the JSON shape of one entity in a Snapshot.
type snapshotEntity struct {
	Token     string `json:"token"`
	Kind      string `json:"kind"`
	SessionID string `json:"session_id"`
	DomainID  uint64 `json:"domain_id"`
	Namespace string `json:"namespace"`
	NodeName  string `json:"node_name"`

	TopicName string `json:"topic_name,omitempty"`
	TopicType string `json:"topic_type,omitempty"`
	QoS       string `json:"qos,omitempty"`
}

type snapshot struct {
	CollectedAt time.Time        `json:"collected_at"`
	Entities    []snapshotEntity `json:"entities"`
}

// Snapshot returns a point-in-time JSON view of the cache, ordered by
// token, for debugging and introspection endpoints.
func (c *Cache) Snapshot() ([]byte, error) {
	c.mu.RLock()
	snap := snapshot{CollectedAt: time.Now().UTC()}
	for _, e := range c.entities {
		se := snapshotEntity{
			Token:     e.KeyExpr(),
			Kind:      e.Kind().String(),
			SessionID: e.ID(),
			DomainID:  e.DomainID(),
			Namespace: e.NodeNamespace(),
			NodeName:  e.NodeName(),
		}
		if topic, ok := e.TopicInfo(); ok {
			se.TopicName = topic.Name
			se.TopicType = topic.Type
			se.QoS = topic.QoS.EncodeKeyExpr()
		}
		snap.Entities = append(snap.Entities, se)
	}
	c.mu.RUnlock()

	sort.Slice(snap.Entities, func(i, j int) bool { return snap.Entities[i].Token < snap.Entities[j].Token })
	return jsoncodec.Marshal(snap)
}

func kindIn(kind entity.Kind, kinds []entity.Kind) bool {
	for _, k := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
