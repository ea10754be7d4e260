// Package ids generates the identifiers used across graphflow: the
// binary session identity whose hex rendering becomes the session
// segment of every liveliness token, and ULIDs for watermill message
// UUIDs.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// CreateULID returns a time-sortable ULID encoded as a 26-character string.
func CreateULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return id.String()
}

// SessionIDSize is the size of a session identity in bytes.
const SessionIDSize = 16

// SessionID is the binary identity of a transport session. Its String
// rendering is the wire form used inside liveliness tokens.
type SessionID [SessionIDSize]byte

// NewSessionID draws a fresh session identity. ULIDs are 16 random-ish
// bytes already, so the same monotonic entropy source backs both.
func NewSessionID() SessionID {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return SessionID(id)
}

// SessionIDFromBytes builds a SessionID from a raw transport identity.
func SessionIDFromBytes(b []byte) (SessionID, error) {
	if len(b) != SessionIDSize {
		return SessionID{}, fmt.Errorf("graphflow: session id must be %d bytes, got %d", SessionIDSize, len(b))
	}
	var id SessionID
	copy(id[:], b)
	return id, nil
}

// String renders the identity as fixed-width lowercase hex, one byte to
// two digits, concatenated in byte order. This is the form that appears
// as the session segment of a liveliness token.
func (id SessionID) String() string {
	return hex.EncodeToString(id[:])
}
