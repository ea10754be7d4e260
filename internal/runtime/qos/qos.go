// Package qos models the quality-of-service profile carried inside a
// liveliness token and its compact key-expression sub-encoding. The
// numeric values of the policy enums are part of the wire contract and
// must never be renumbered.
package qos

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	errspkg "github.com/drblury/graphflow/internal/runtime/errors"
)

// Reliability is the delivery-guarantee policy of a topic endpoint.
type Reliability int

const (
	ReliabilitySystemDefault Reliability = 0
	ReliabilityReliable      Reliability = 1
	ReliabilityBestEffort    Reliability = 2
	ReliabilityUnknown       Reliability = 3
)

// Durability controls whether late joiners receive historical samples.
type Durability int

const (
	DurabilitySystemDefault  Durability = 0
	DurabilityTransientLocal Durability = 1
	DurabilityVolatile       Durability = 2
	DurabilityUnknown        Durability = 3
)

// History controls how many samples are retained per topic instance.
type History int

const (
	HistorySystemDefault History = 0
	HistoryKeepLast      History = 1
	HistoryKeepAll       History = 2
	HistoryUnknown       History = 3
)

// Liveliness describes how an endpoint asserts it is alive. Tokens on
// the key space make this automatic, so it is never on the wire.
type Liveliness int

const (
	LivelinessSystemDefault Liveliness = 0
	LivelinessAutomatic     Liveliness = 1
	LivelinessManualByTopic Liveliness = 3
	LivelinessUnknown       Liveliness = 4
)

const (
	// delimiter separates the three policy fields of the sub-encoding.
	delimiter = ":"
	// historyDelimiter separates the history policy from its depth.
	historyDelimiter = ","
)

// Profile aggregates the QoS settings of a topic endpoint. Only
// Reliability, Durability, History, and Depth are carried in a
// liveliness token; the remaining fields are fixed to protocol defaults
// when a profile is reconstructed from the wire.
type Profile struct {
	Reliability Reliability
	Durability  Durability
	History     History
	Depth       uint64

	Liveliness    Liveliness
	LeaseDuration time.Duration
	Deadline      time.Duration
	Lifespan      time.Duration
}

// Reverse lookup tables for the wire encoding. Built once, read-only
// afterwards, safe to share across goroutines.
var (
	strToReliability = map[string]Reliability{
		strconv.Itoa(int(ReliabilitySystemDefault)): ReliabilitySystemDefault,
		strconv.Itoa(int(ReliabilityReliable)):      ReliabilityReliable,
		strconv.Itoa(int(ReliabilityBestEffort)):    ReliabilityBestEffort,
		strconv.Itoa(int(ReliabilityUnknown)):       ReliabilityUnknown,
	}

	strToDurability = map[string]Durability{
		strconv.Itoa(int(DurabilitySystemDefault)):  DurabilitySystemDefault,
		strconv.Itoa(int(DurabilityTransientLocal)): DurabilityTransientLocal,
		strconv.Itoa(int(DurabilityVolatile)):       DurabilityVolatile,
		strconv.Itoa(int(DurabilityUnknown)):        DurabilityUnknown,
	}

	strToHistory = map[string]History{
		strconv.Itoa(int(HistorySystemDefault)): HistorySystemDefault,
		strconv.Itoa(int(HistoryKeepLast)):      HistoryKeepLast,
		strconv.Itoa(int(HistoryKeepAll)):       HistoryKeepAll,
		strconv.Itoa(int(HistoryUnknown)):       HistoryUnknown,
	}
)

// EncodeKeyExpr renders the profile as the token sub-string
// "<reliability>:<durability>:<history>,<depth>". The policy fields are
// their decimal enum values; nothing here can contain a key-expression
// delimiter, so no escaping is needed.
func (p Profile) EncodeKeyExpr() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(p.Reliability)))
	b.WriteString(delimiter)
	b.WriteString(strconv.Itoa(int(p.Durability)))
	b.WriteString(delimiter)
	b.WriteString(strconv.Itoa(int(p.History)))
	b.WriteString(historyDelimiter)
	b.WriteString(strconv.FormatUint(p.Depth, 10))
	return b.String()
}

// ParseKeyExpr reconstructs a Profile from its token sub-string. An
// unknown enum value is an error, never silently mapped to a default.
// Depth must be a whole decimal number that fits in a uint64; any junk
// before or after the digits, or an overflow, is an error. Fields
// beyond the first three, and depth fields beyond the first, are
// ignored, so encodings from newer peers stay readable.
//
// Fields not yet carried on the wire are forced to protocol defaults:
// liveliness is automatic (tokens are the liveliness mechanism), and
// lease duration, deadline, and lifespan are left at system default.
func ParseKeyExpr(keyexpr string) (Profile, error) {
	parts := strings.Split(keyexpr, delimiter)
	if len(parts) < 3 {
		return Profile{}, fmt.Errorf("%w: expected at least 3 policy fields, got %d", errspkg.ErrInvalidQoS, len(parts))
	}
	historyParts := strings.Split(parts[2], historyDelimiter)
	if len(historyParts) < 2 {
		return Profile{}, fmt.Errorf("%w: history field %q is missing a depth", errspkg.ErrInvalidQoS, parts[2])
	}

	reliability, ok := strToReliability[parts[0]]
	if !ok {
		return Profile{}, fmt.Errorf("%w: unknown reliability %q", errspkg.ErrInvalidQoS, parts[0])
	}
	durability, ok := strToDurability[parts[1]]
	if !ok {
		return Profile{}, fmt.Errorf("%w: unknown durability %q", errspkg.ErrInvalidQoS, parts[1])
	}
	history, ok := strToHistory[historyParts[0]]
	if !ok {
		return Profile{}, fmt.Errorf("%w: unknown history %q", errspkg.ErrInvalidQoS, historyParts[0])
	}

	depth, err := strconv.ParseUint(historyParts[1], 10, 64)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: invalid history depth %q", errspkg.ErrInvalidQoS, historyParts[1])
	}

	return Profile{
		Reliability: reliability,
		Durability:  durability,
		History:     history,
		Depth:       depth,
		Liveliness:  LivelinessAutomatic,
	}, nil
}
