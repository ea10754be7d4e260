package graphflow

import (
	attachmentpkg "github.com/drblury/graphflow/internal/runtime/attachment"
	configpkg "github.com/drblury/graphflow/internal/runtime/config"
	entitypkg "github.com/drblury/graphflow/internal/runtime/entity"
	errspkg "github.com/drblury/graphflow/internal/runtime/errors"
	graphpkg "github.com/drblury/graphflow/internal/runtime/graph"
	idspkg "github.com/drblury/graphflow/internal/runtime/ids"
	jsoncodec "github.com/drblury/graphflow/internal/runtime/jsoncodec"
	keyexprpkg "github.com/drblury/graphflow/internal/runtime/keyexpr"
	loggingpkg "github.com/drblury/graphflow/internal/runtime/logging"
	qospkg "github.com/drblury/graphflow/internal/runtime/qos"
	sessionpkg "github.com/drblury/graphflow/internal/runtime/session"
	transportpkg "github.com/drblury/graphflow/transport"
)

type (
	Config  = configpkg.Config
	Session = sessionpkg.Session

	// Entity identity
	Entity    = entitypkg.Entity
	Kind      = entitypkg.Kind
	NodeInfo  = entitypkg.NodeInfo
	TopicInfo = entitypkg.TopicInfo
	SessionID = idspkg.SessionID

	// QoS sub-codec
	QoSProfile  = qospkg.Profile
	Reliability = qospkg.Reliability
	Durability  = qospkg.Durability
	History     = qospkg.History
	Liveliness  = qospkg.Liveliness

	// Payload attachment
	Attachment = attachmentpkg.Attachment

	// Graph cache
	Graph        = graphpkg.Cache
	GraphMetrics = graphpkg.Metrics

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	ConfigValidationError = errspkg.ConfigValidationError

	// Transport plumbing
	Transport             = transportpkg.Transport
	TransportBuilder      = transportpkg.Builder
	TransportConfig       = transportpkg.Config
	TransportRegistry     = transportpkg.Registry
	TransportCapabilities = transportpkg.Capabilities
)

var (
	NewSession              = sessionpkg.New
	NewSessionWithTransport = sessionpkg.NewWithTransport

	// Token codec
	MakeEntity        = entitypkg.Make
	ParseToken        = entitypkg.Parse
	SubscriptionToken = entitypkg.SubscriptionToken

	// Key expression helpers
	Mangle   = keyexprpkg.Mangle
	Demangle = keyexprpkg.Demangle
	SplitKey = keyexprpkg.Split
	Matches  = keyexprpkg.Matches

	ParseQoSKeyExpr = qospkg.ParseKeyExpr

	AttachmentFromMetadata = attachmentpkg.FromMetadata

	// Graph cache and its Prometheus collectors
	NewGraph        = graphpkg.NewCache
	NewGraphMetrics = graphpkg.NewMetrics

	// Session identity
	NewSessionID       = idspkg.NewSessionID
	SessionIDFromBytes = idspkg.SessionIDFromBytes
	CreateULID         = idspkg.CreateULID

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NewNopServiceLogger       = loggingpkg.NewNopServiceLogger

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal

	// Modular transport registry. Import individual transports for
	// their side effect: _ "github.com/drblury/graphflow/transport/channel"
	DefaultTransportRegistry = transportpkg.DefaultRegistry
	RegisterTransport        = transportpkg.Register
	BuildTransport           = transportpkg.Build
	GetTransportCapabilities = transportpkg.GetCapabilities

	ErrInvalidKind       = errspkg.ErrInvalidKind
	ErrInvalidNodeInfo   = errspkg.ErrInvalidNodeInfo
	ErrInvalidTopicInfo  = errspkg.ErrInvalidTopicInfo
	ErrMalformedToken    = errspkg.ErrMalformedToken
	ErrInvalidAdminSpace = errspkg.ErrInvalidAdminSpace
	ErrUnknownEntityKind = errspkg.ErrUnknownEntityKind
	ErrInvalidDomainID   = errspkg.ErrInvalidDomainID
	ErrMissingTopicInfo  = errspkg.ErrMissingTopicInfo
	ErrInvalidQoS        = errspkg.ErrInvalidQoS
	ErrMissingAttachment = errspkg.ErrMissingAttachment
	ErrInvalidAttachment = errspkg.ErrInvalidAttachment
)

// Entity kinds and their token tags.
const (
	KindNode         = entitypkg.KindNode
	KindPublisher    = entitypkg.KindPublisher
	KindSubscription = entitypkg.KindSubscription
	KindService      = entitypkg.KindService
	KindClient       = entitypkg.KindClient
)

// QoS policy values as they appear in encoded tokens.
const (
	ReliabilitySystemDefault = qospkg.ReliabilitySystemDefault
	ReliabilityReliable      = qospkg.ReliabilityReliable
	ReliabilityBestEffort    = qospkg.ReliabilityBestEffort

	DurabilitySystemDefault  = qospkg.DurabilitySystemDefault
	DurabilityTransientLocal = qospkg.DurabilityTransientLocal
	DurabilityVolatile       = qospkg.DurabilityVolatile

	HistorySystemDefault = qospkg.HistorySystemDefault
	HistoryKeepLast      = qospkg.HistoryKeepLast
	HistoryKeepAll       = qospkg.HistoryKeepAll

	LivelinessSystemDefault = qospkg.LivelinessSystemDefault
	LivelinessAutomatic     = qospkg.LivelinessAutomatic
)

// Key expression alphabet.
const (
	AdminSpace            = keyexprpkg.AdminSpace
	Delimiter             = keyexprpkg.Delimiter
	SlashReplacement      = keyexprpkg.SlashReplacement
	EmptyNamespaceSegment = keyexprpkg.EmptyNamespaceSegment
)

// Liveliness message metadata keys and operations.
const (
	TokenMetadataKey = sessionpkg.TokenMetadataKey
	OpMetadataKey    = sessionpkg.OpMetadataKey
	OpDeclare        = sessionpkg.OpDeclare
	OpUndeclare      = sessionpkg.OpUndeclare
)

// Configuration defaults applied by Config.Normalize.
const (
	DefaultPubSubSystem    = configpkg.DefaultPubSubSystem
	DefaultLivelinessTopic = configpkg.DefaultLivelinessTopic
)
