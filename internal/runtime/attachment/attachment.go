// Package attachment carries the per-message side-channel fields that
// ride alongside data-plane payloads: the publisher's GID, a sequence
// number, and the source timestamp. They travel as watermill message
// metadata and are parsed strictly; a malformed field is reported, never
// replaced with a guess.
package attachment

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/graphflow/internal/runtime/errors"
)

// Metadata keys.
const (
	sourceGIDKey       = "source_gid"
	sequenceNumberKey  = "sequence_number"
	sourceTimestampKey = "source_timestamp"
)

// GIDSize is the size of a publisher GID in bytes.
const GIDSize = 16

// maxInt64Digits bounds the metadata value length: the largest int64 is
// 19 decimal digits, anything longer cannot be valid.
const maxInt64Digits = 19

// Attachment is the decoded side-channel of one data-plane message.
type Attachment struct {
	SourceGID       [GIDSize]byte
	SequenceNumber  int64
	SourceTimestamp int64
}

// ToMetadata renders the attachment into watermill message metadata.
func (a Attachment) ToMetadata() message.Metadata {
	return message.Metadata{
		sourceGIDKey:       hex.EncodeToString(a.SourceGID[:]),
		sequenceNumberKey:  strconv.FormatInt(a.SequenceNumber, 10),
		sourceTimestampKey: strconv.FormatInt(a.SourceTimestamp, 10),
	}
}

// FromMetadata parses an attachment out of message metadata. Every
// field is required. Integer fields must be whole positive decimal
// numbers of plausible length; a zero or negative value is invalid
// because no publisher ever emits one.
func FromMetadata(md message.Metadata) (Attachment, error) {
	var a Attachment

	gid, err := gidFromMetadata(md)
	if err != nil {
		return Attachment{}, err
	}
	a.SourceGID = gid

	a.SequenceNumber, err = int64FromMetadata(md, sequenceNumberKey)
	if err != nil {
		return Attachment{}, err
	}
	a.SourceTimestamp, err = int64FromMetadata(md, sourceTimestampKey)
	if err != nil {
		return Attachment{}, err
	}
	return a, nil
}

func gidFromMetadata(md message.Metadata) ([GIDSize]byte, error) {
	var gid [GIDSize]byte

	value := md.Get(sourceGIDKey)
	if value == "" {
		return gid, fmt.Errorf("%w: %s", errspkg.ErrMissingAttachment, sourceGIDKey)
	}
	raw, err := hex.DecodeString(value)
	if err != nil {
		return gid, fmt.Errorf("%w: %s is not hex encoded", errspkg.ErrInvalidAttachment, sourceGIDKey)
	}
	if len(raw) != GIDSize {
		return gid, fmt.Errorf("%w: %s has %d bytes, want %d", errspkg.ErrInvalidAttachment, sourceGIDKey, len(raw), GIDSize)
	}
	copy(gid[:], raw)
	return gid, nil
}

func int64FromMetadata(md message.Metadata, key string) (int64, error) {
	value := md.Get(key)
	if value == "" {
		return 0, fmt.Errorf("%w: %s", errspkg.ErrMissingAttachment, key)
	}
	if len(value) > maxInt64Digits {
		return 0, fmt.Errorf("%w: %s is longer than any int64", errspkg.ErrInvalidAttachment, key)
	}
	num, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", errspkg.ErrInvalidAttachment, key, value)
	}
	if num <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", errspkg.ErrInvalidAttachment, key, num)
	}
	return num, nil
}
