// Package session runs the discovery side of a graph participant: it
// publishes liveliness tokens for locally created entities and watches
// the shared topic for tokens from remote peers, feeding every decoded
// record into the graph cache. One bad token never disrupts the
// processing of the others.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/drblury/graphflow/internal/runtime/config"
	"github.com/drblury/graphflow/internal/runtime/entity"
	"github.com/drblury/graphflow/internal/runtime/graph"
	"github.com/drblury/graphflow/internal/runtime/ids"
	"github.com/drblury/graphflow/internal/runtime/keyexpr"
	"github.com/drblury/graphflow/internal/runtime/logging"
	transportpkg "github.com/drblury/graphflow/transport"
)

// Metadata keys and values of a liveliness message.
const (
	TokenMetadataKey = "liveliness_token"
	OpMetadataKey    = "liveliness_op"

	OpDeclare   = "declare"
	OpUndeclare = "undeclare"
)

// Session is one participant's connection to the discovery substrate.
type Session struct {
	id        ids.SessionID
	cfg       configpkg.Config
	transport transportpkg.Transport
	cache     *graph.Cache
	metrics   *graph.Metrics
	log       logging.ServiceLogger
	tracer    trace.Tracer
}

// New builds a session on the transport selected by cfg.PubSubSystem.
func New(ctx context.Context, cfg configpkg.Config, log logging.ServiceLogger) (*Session, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNopServiceLogger()
	}

	tr, err := transportpkg.Build(ctx, &cfg, logging.NewWatermillAdapter(log))
	if err != nil {
		return nil, fmt.Errorf("building transport: %w", err)
	}
	return NewWithTransport(cfg, tr, log)
}

// NewWithTransport builds a session on an already constructed
// transport. Used by tests and by applications that bring their own
// publisher/subscriber pair.
func NewWithTransport(cfg configpkg.Config, tr transportpkg.Transport, log logging.ServiceLogger) (*Session, error) {
	cfg.Normalize()
	if log == nil {
		log = logging.NewNopServiceLogger()
	}
	if tr.Publisher == nil || tr.Subscriber == nil {
		return nil, errors.New("graphflow: transport must have a publisher and a subscriber")
	}

	var metrics *graph.Metrics
	if cfg.MetricsEnabled {
		metrics = graph.NewMetrics(nil)
		if err := metrics.Register(); err != nil {
			return nil, fmt.Errorf("registering graph metrics: %w", err)
		}
	}

	id := ids.NewSessionID()
	return &Session{
		id:        id,
		cfg:       cfg,
		transport: tr,
		cache:     graph.NewCache(metrics),
		metrics:   metrics,
		log:       log.With(logging.LogFields{"session_id": id.String(), "domain_id": cfg.DomainID}),
		tracer:    otel.Tracer("github.com/drblury/graphflow/internal/runtime/session"),
	}, nil
}

// ID returns the session identity stamped into every declared token.
func (s *Session) ID() ids.SessionID { return s.id }

// Graph returns the cache of currently discovered entities.
func (s *Session) Graph() *graph.Cache { return s.cache }

// Declare builds the entity identity for a locally created participant
// and publishes its liveliness token. The session's domain id overrides
// whatever is set on node, since a session only speaks for its own
// domain. The returned Entity is what Undeclare expects back.
func (s *Session) Declare(kind entity.Kind, node entity.NodeInfo, topic *entity.TopicInfo) (entity.Entity, error) {
	node.DomainID = s.cfg.DomainID
	e, err := entity.Make(s.id, kind, node, topic)
	if err != nil {
		return entity.Entity{}, err
	}
	if err := s.publish(e.KeyExpr(), OpDeclare); err != nil {
		return entity.Entity{}, fmt.Errorf("declaring %s: %w", kind, err)
	}
	s.log.Debug("declared entity", logging.LogFields{"token": e.KeyExpr()})
	return e, nil
}

// Undeclare retracts a previously declared entity.
func (s *Session) Undeclare(e entity.Entity) error {
	if err := s.publish(e.KeyExpr(), OpUndeclare); err != nil {
		return fmt.Errorf("undeclaring %s: %w", e.Kind(), err)
	}
	s.log.Debug("undeclared entity", logging.LogFields{"token": e.KeyExpr()})
	return nil
}

func (s *Session) publish(token, op string) error {
	msg := message.NewMessage(ids.CreateULID(), []byte(token))
	msg.Metadata.Set(TokenMetadataKey, token)
	msg.Metadata.Set(OpMetadataKey, op)
	return s.transport.Publisher.Publish(s.cfg.LivelinessTopic, msg)
}

// Watch consumes the liveliness topic until ctx is cancelled, keeping
// the graph cache in sync with the tokens observed there. Tokens from
// other domains are ignored; malformed tokens are logged, counted, and
// skipped.
func (s *Session) Watch(ctx context.Context) error {
	messages, err := s.transport.Subscriber.Subscribe(ctx, s.cfg.LivelinessTopic)
	if err != nil {
		return fmt.Errorf("subscribing to %q: %w", s.cfg.LivelinessTopic, err)
	}

	scope := entity.SubscriptionToken(s.cfg.DomainID)
	s.log.Info("watching liveliness topic", logging.LogFields{
		"topic": s.cfg.LivelinessTopic,
		"scope": scope,
	})

	for msg := range messages {
		s.handle(ctx, scope, msg)
		msg.Ack()
	}
	return nil
}

func (s *Session) handle(ctx context.Context, scope string, msg *message.Message) {
	token := msg.Metadata.Get(TokenMetadataKey)
	op := msg.Metadata.Get(OpMetadataKey)

	_, span := s.tracer.Start(ctx, "liveliness.handle", trace.WithAttributes(
		attribute.String("liveliness.op", op),
		attribute.String("liveliness.token", token),
	))
	defer span.End()

	if token == "" {
		s.countRejected()
		s.log.Error("liveliness message without token", nil, logging.LogFields{"message_uuid": msg.UUID})
		return
	}
	if !keyexpr.Matches(scope, token) {
		s.log.Trace("ignoring token outside domain scope", logging.LogFields{"token": token})
		return
	}

	switch op {
	case OpDeclare:
		e, err := entity.Parse(token)
		if err != nil {
			s.countRejected()
			span.RecordError(err)
			s.log.Error("discarding invalid liveliness token", err, logging.LogFields{"token": token})
			return
		}
		if s.cache.Put(e) {
			s.log.Debug("discovered entity", logging.LogFields{"token": token, "kind": e.Kind().String()})
		}
	case OpUndeclare:
		if s.cache.Remove(token) {
			s.log.Debug("entity went away", logging.LogFields{"token": token})
		}
	default:
		s.countRejected()
		s.log.Error("liveliness message with unknown op", nil, logging.LogFields{"op": op, "token": token})
	}
}

func (s *Session) countRejected() {
	if s.metrics != nil {
		s.metrics.TokenRejected()
	}
}

// Close releases the underlying transport.
func (s *Session) Close() error {
	return errors.Join(
		s.transport.Publisher.Close(),
		s.transport.Subscriber.Close(),
	)
}
