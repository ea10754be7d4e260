package transport

import (
	"context"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConfig struct {
	system string
	topic  string
	nats   string
}

func (c *stubConfig) GetPubSubSystem() string    { return c.system }
func (c *stubConfig) GetLivelinessTopic() string { return c.topic }
func (c *stubConfig) GetNATSURL() string         { return c.nats }

func TestRegistryBuild(t *testing.T) {
	r := NewRegistry()
	built := false
	r.Register("stub", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error) {
		built = true
		return Transport{}, nil
	})

	_, err := r.Build(context.Background(), &stubConfig{system: "stub"}, watermill.NopLogger{})
	require.NoError(t, err)
	assert.True(t, built)
}

func TestRegistryBuildErrors(t *testing.T) {
	r := NewRegistry()

	t.Run("nil config", func(t *testing.T) {
		_, err := r.Build(context.Background(), nil, watermill.NopLogger{})
		assert.Error(t, err)
	})

	t.Run("unknown transport", func(t *testing.T) {
		_, err := r.Build(context.Background(), &stubConfig{system: "missing"}, watermill.NopLogger{})
		assert.ErrorContains(t, err, `unknown transport: "missing"`)
	})
}

func TestRegistryCapabilities(t *testing.T) {
	r := NewRegistry()
	caps := Capabilities{Name: "stub", SupportsOrdering: true, SupportsAck: true, SupportsNack: true}
	r.RegisterWithCapabilities("stub", nil, caps)

	assert.Equal(t, caps, r.GetCapabilities("stub"))
	assert.True(t, r.GetCapabilities("stub").SupportsReliableDelivery())

	t.Run("unknown name yields zero capabilities", func(t *testing.T) {
		got := r.GetCapabilities("nope")
		assert.Equal(t, "nope", got.Name)
		assert.False(t, got.SupportsReliableDelivery())
	})
}

func TestRegistryNamesAndHas(t *testing.T) {
	r := NewRegistry()
	r.Register("a", nil)
	r.Register("b", nil)

	assert.ElementsMatch(t, []string{"a", "b"}, r.Names())
	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("c"))
}
