package session

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configpkg "github.com/drblury/graphflow/internal/runtime/config"
	"github.com/drblury/graphflow/internal/runtime/entity"
	"github.com/drblury/graphflow/internal/runtime/ids"
	"github.com/drblury/graphflow/internal/runtime/qos"
	transportpkg "github.com/drblury/graphflow/transport"
	_ "github.com/drblury/graphflow/transport/channel"
)

const waitFor = 5 * time.Second

func newChannelTransport() transportpkg.Transport {
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	return transportpkg.Transport{Publisher: pubSub, Subscriber: pubSub}
}

func newTestSession(t *testing.T, cfg configpkg.Config, tr transportpkg.Transport) *Session {
	t.Helper()
	s, err := NewWithTransport(cfg, tr, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func startWatch(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = s.Watch(ctx) }()
}

func testTopic() *entity.TopicInfo {
	return &entity.TopicInfo{
		Name: "chatter",
		Type: "std_msgs::String",
		QoS:  qos.Profile{Reliability: qos.ReliabilityReliable, History: qos.HistoryKeepLast, Depth: 10},
	}
}

func TestNewBuildsChannelTransport(t *testing.T) {
	s, err := New(context.Background(), configpkg.Config{}, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.NotEmpty(t, s.ID().String())
	assert.Zero(t, s.Graph().Len())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(context.Background(), configpkg.Config{PubSubSystem: "nats"}, nil)
	assert.Error(t, err)
}

func TestNewWithTransportRequiresBothEnds(t *testing.T) {
	_, err := NewWithTransport(configpkg.Config{}, transportpkg.Transport{}, nil)
	assert.Error(t, err)
}

func TestDiscoveryBetweenSessions(t *testing.T) {
	tr := newChannelTransport()
	talker := newTestSession(t, configpkg.Config{}, tr)
	listener := newTestSession(t, configpkg.Config{}, tr)
	startWatch(t, listener)

	node, err := talker.Declare(entity.KindNode, entity.NodeInfo{Namespace: "/", Name: "talker"}, nil)
	require.NoError(t, err)
	pub, err := talker.Declare(entity.KindPublisher, entity.NodeInfo{Namespace: "/", Name: "talker"}, testTopic())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return listener.Graph().Len() == 2
	}, waitFor, 10*time.Millisecond)

	assert.Equal(t, []string{"talker"}, listener.Graph().NodeNames())
	assert.Equal(t, 1, listener.Graph().CountPublishers("chatter"))

	got, ok := listener.Graph().Get(node.KeyExpr())
	require.True(t, ok)
	assert.Equal(t, talker.ID().String(), got.ID())

	require.NoError(t, talker.Undeclare(pub))
	require.Eventually(t, func() bool {
		return listener.Graph().Len() == 1
	}, waitFor, 10*time.Millisecond)
	assert.Zero(t, listener.Graph().CountPublishers("chatter"))
}

func TestDeclareStampsSessionDomain(t *testing.T) {
	tr := newChannelTransport()
	s := newTestSession(t, configpkg.Config{DomainID: 7}, tr)

	e, err := s.Declare(entity.KindNode, entity.NodeInfo{DomainID: 99, Namespace: "/", Name: "n"}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), e.DomainID())
	assert.Equal(t, s.ID().String(), e.ID())
}

func TestDeclareRejectsInvalidEntity(t *testing.T) {
	tr := newChannelTransport()
	s := newTestSession(t, configpkg.Config{}, tr)

	_, err := s.Declare(entity.KindPublisher, entity.NodeInfo{Namespace: "/", Name: "talker"}, nil)
	assert.Error(t, err)
}

func TestWatchIgnoresOtherDomains(t *testing.T) {
	tr := newChannelTransport()
	other := newTestSession(t, configpkg.Config{DomainID: 1}, tr)
	watcher := newTestSession(t, configpkg.Config{DomainID: 2}, tr)
	startWatch(t, watcher)

	_, err := other.Declare(entity.KindNode, entity.NodeInfo{Namespace: "/", Name: "foreign"}, nil)
	require.NoError(t, err)

	// Publish something the watcher does care about, so we know the
	// foreign token had a chance to arrive first.
	local := newTestSession(t, configpkg.Config{DomainID: 2}, tr)
	_, err = local.Declare(entity.KindNode, entity.NodeInfo{Namespace: "/", Name: "local"}, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return watcher.Graph().Len() == 1
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, []string{"local"}, watcher.Graph().NodeNames())
}

func TestWatchSurvivesMalformedTokens(t *testing.T) {
	tr := newChannelTransport()
	watcher := newTestSession(t, configpkg.Config{}, tr)
	startWatch(t, watcher)

	publishRaw := func(token, op string) {
		msg := message.NewMessage(ids.CreateULID(), []byte(token))
		if token != "" {
			msg.Metadata.Set(TokenMetadataKey, token)
		}
		if op != "" {
			msg.Metadata.Set(OpMetadataKey, op)
		}
		require.NoError(t, tr.Publisher.Publish(configpkg.DefaultLivelinessTopic, msg))
	}

	// A parade of garbage, then one valid declaration.
	publishRaw("", OpDeclare)
	publishRaw("@ros2_lv/0/abc/ZZ/_/talker", OpDeclare)
	publishRaw("@ros2_lv/12x/abc/NN/_/talker", OpDeclare)
	publishRaw("@ros2_lv/0/abc/NN/_/talker", "reboot")
	publishRaw("@ros2_lv/0/abc/NN/_/talker", OpDeclare)

	require.Eventually(t, func() bool {
		return watcher.Graph().Len() == 1
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, []string{"talker"}, watcher.Graph().NodeNames())
}

func TestWatchUndeclareUnknownTokenIsHarmless(t *testing.T) {
	tr := newChannelTransport()
	watcher := newTestSession(t, configpkg.Config{}, tr)
	startWatch(t, watcher)

	msg := message.NewMessage(ids.CreateULID(), nil)
	msg.Metadata.Set(TokenMetadataKey, "@ros2_lv/0/abc/NN/_/never_seen")
	msg.Metadata.Set(OpMetadataKey, OpUndeclare)
	require.NoError(t, tr.Publisher.Publish(configpkg.DefaultLivelinessTopic, msg))

	declarer := newTestSession(t, configpkg.Config{}, tr)
	_, err := declarer.Declare(entity.KindNode, entity.NodeInfo{Namespace: "/", Name: "talker"}, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return watcher.Graph().Len() == 1
	}, waitFor, 10*time.Millisecond)
}
