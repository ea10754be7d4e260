package graph

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/graphflow/internal/runtime/entity"
	"github.com/drblury/graphflow/internal/runtime/ids"
	"github.com/drblury/graphflow/internal/runtime/jsoncodec"
	"github.com/drblury/graphflow/internal/runtime/qos"
)

func mustMake(t *testing.T, kind entity.Kind, node entity.NodeInfo, topic *entity.TopicInfo) entity.Entity {
	t.Helper()
	e, err := entity.Make(ids.NewSessionID(), kind, node, topic)
	require.NoError(t, err)
	return e
}

func testTopic(name, typ string) *entity.TopicInfo {
	return &entity.TopicInfo{
		Name: name,
		Type: typ,
		QoS:  qos.Profile{Reliability: qos.ReliabilityReliable, History: qos.HistoryKeepLast, Depth: 10},
	}
}

func TestPutRemove(t *testing.T) {
	cache := NewCache(nil)
	node := mustMake(t, entity.KindNode, entity.NodeInfo{Namespace: "/", Name: "talker"}, nil)

	assert.True(t, cache.Put(node))
	assert.Equal(t, 1, cache.Len())

	t.Run("put is idempotent", func(t *testing.T) {
		assert.False(t, cache.Put(node))
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("get", func(t *testing.T) {
		got, ok := cache.Get(node.KeyExpr())
		require.True(t, ok)
		assert.Equal(t, node.KeyExpr(), got.KeyExpr())
	})

	t.Run("remove", func(t *testing.T) {
		assert.True(t, cache.Remove(node.KeyExpr()))
		assert.Zero(t, cache.Len())
	})

	t.Run("remove unknown token is a no-op", func(t *testing.T) {
		assert.False(t, cache.Remove(node.KeyExpr()))
	})
}

func TestNodeQueries(t *testing.T) {
	cache := NewCache(nil)
	cache.Put(mustMake(t, entity.KindNode, entity.NodeInfo{Namespace: "/", Name: "talker"}, nil))
	cache.Put(mustMake(t, entity.KindNode, entity.NodeInfo{Namespace: "/fleet", Name: "listener"}, nil))
	cache.Put(mustMake(t, entity.KindNode, entity.NodeInfo{Namespace: "/fleet", Name: "talker"}, nil))
	// Non-node entities do not contribute node names.
	cache.Put(mustMake(t, entity.KindPublisher, entity.NodeInfo{Namespace: "/", Name: "ignored"}, testTopic("chatter", "std_msgs::String")))

	assert.Equal(t, []string{"listener", "talker"}, cache.NodeNames())
	assert.Equal(t, []string{"/", "/fleet"}, cache.Namespaces())
	assert.Len(t, cache.Nodes(), 3)
}

func TestTopicAndServiceQueries(t *testing.T) {
	cache := NewCache(nil)
	node := entity.NodeInfo{Namespace: "/", Name: "talker"}

	cache.Put(mustMake(t, entity.KindPublisher, node, testTopic("chatter", "std_msgs::String")))
	cache.Put(mustMake(t, entity.KindSubscription, node, testTopic("chatter", "std_msgs::String")))
	cache.Put(mustMake(t, entity.KindSubscription, node, testTopic("rosout", "rcl_interfaces::Log")))
	cache.Put(mustMake(t, entity.KindService, node, testTopic("add_two_ints", "example_interfaces::AddTwoInts")))
	cache.Put(mustMake(t, entity.KindClient, node, testTopic("add_two_ints", "example_interfaces::AddTwoInts")))

	topics := cache.TopicNamesAndTypes()
	assert.Equal(t, map[string][]string{
		"chatter": {"std_msgs::String"},
		"rosout":  {"rcl_interfaces::Log"},
	}, topics)

	services := cache.ServiceNamesAndTypes()
	assert.Equal(t, map[string][]string{
		"add_two_ints": {"example_interfaces::AddTwoInts"},
	}, services)

	assert.Equal(t, 1, cache.CountPublishers("chatter"))
	assert.Equal(t, 1, cache.CountSubscriptions("chatter"))
	assert.Equal(t, 1, cache.CountSubscriptions("rosout"))
	assert.Zero(t, cache.CountPublishers("rosout"))
	assert.Zero(t, cache.CountPublishers("nonexistent"))
}

func TestNodeEntities(t *testing.T) {
	cache := NewCache(nil)
	talker := entity.NodeInfo{Namespace: "/", Name: "talker"}
	other := entity.NodeInfo{Namespace: "/", Name: "listener"}

	cache.Put(mustMake(t, entity.KindNode, talker, nil))
	cache.Put(mustMake(t, entity.KindPublisher, talker, testTopic("chatter", "std_msgs::String")))
	cache.Put(mustMake(t, entity.KindNode, other, nil))

	owned := cache.NodeEntities("/", "talker")
	require.Len(t, owned, 2)
	for _, e := range owned {
		assert.Equal(t, "talker", e.NodeName())
	}

	assert.Empty(t, cache.NodeEntities("/missing", "talker"))
}

func TestSnapshot(t *testing.T) {
	cache := NewCache(nil)
	node := mustMake(t, entity.KindNode, entity.NodeInfo{DomainID: 5, Namespace: "/", Name: "talker"}, nil)
	pub := mustMake(t, entity.KindPublisher, entity.NodeInfo{DomainID: 5, Namespace: "/", Name: "talker"}, testTopic("chatter", "std_msgs::String"))
	cache.Put(node)
	cache.Put(pub)

	data, err := cache.Snapshot()
	require.NoError(t, err)

	var snap struct {
		Entities []struct {
			Token     string `json:"token"`
			Kind      string `json:"kind"`
			DomainID  uint64 `json:"domain_id"`
			TopicName string `json:"topic_name"`
			QoS       string `json:"qos"`
		} `json:"entities"`
	}
	require.NoError(t, jsoncodec.Unmarshal(data, &snap))
	require.Len(t, snap.Entities, 2)

	kinds := []string{snap.Entities[0].Kind, snap.Entities[1].Kind}
	assert.Contains(t, kinds, "node")
	assert.Contains(t, kinds, "publisher")
	for _, e := range snap.Entities {
		assert.Equal(t, uint64(5), e.DomainID)
		if e.Kind == "publisher" {
			assert.Equal(t, "chatter", e.TopicName)
			assert.Equal(t, "1:0:1,10", e.QoS)
		}
	}
}

func TestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	require.NoError(t, metrics.Register())
	require.NoError(t, metrics.Register(), "second Register must be a no-op")

	cache := NewCache(metrics)
	node := mustMake(t, entity.KindNode, entity.NodeInfo{Namespace: "/", Name: "talker"}, nil)

	cache.Put(node)
	metrics.TokenRejected()

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.entitiesCurrent.WithLabelValues("node")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.tokensTotal.WithLabelValues("accepted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.tokensTotal.WithLabelValues("rejected")))

	cache.Remove(node.KeyExpr())
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.entitiesCurrent.WithLabelValues("node")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.tokensTotal.WithLabelValues("removed")))
}

func TestMetricsSecondInstanceAdoptsCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := NewMetrics(registry)
	require.NoError(t, first.Register())

	second := NewMetrics(registry)
	require.NoError(t, second.Register())

	// Increments from the second instance must land in the registered
	// collectors, not in orphaned ones nothing scrapes.
	second.TokenRejected()
	assert.Equal(t, float64(1), testutil.ToFloat64(first.tokensTotal.WithLabelValues(resultRejected)))

	NewCache(second).Put(mustMake(t, entity.KindNode, entity.NodeInfo{Namespace: "/", Name: "talker"}, nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(first.entitiesCurrent.WithLabelValues("node")))
}
