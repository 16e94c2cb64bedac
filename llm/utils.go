package llm

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// NewBatchID returns a 24-character hex ID: a 4-byte timestamp followed by 8
// random bytes.
func NewBatchID() string {
	randomBytes := make([]byte, 8)
	rand.Read(randomBytes)

	id := make([]byte, 12)
	binary.BigEndian.PutUint32(id[:4], uint32(time.Now().Unix()))
	copy(id[4:], randomBytes)

	return hex.EncodeToString(id)
}

func isValidBatchID(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil && len(s) == 24
}

// EnsureBatchID returns s when it is a valid batch ID and a fresh one otherwise.
func EnsureBatchID(s string) string {
	if !isValidBatchID(s) {
		return NewBatchID()
	}
	return s
}
