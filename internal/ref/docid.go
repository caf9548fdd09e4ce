package ref

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// NewID generates a 24-hex-character document id: a 4-byte unix timestamp
// followed by 8 random bytes. The timestamp prefix keeps ids roughly sortable
// by creation time.
func NewID() string {
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(buf[4:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// timestamp-derived suffix rather than panicking.
		binary.BigEndian.PutUint64(buf[4:], uint64(time.Now().UnixNano()))
	}
	return hex.EncodeToString(buf[:])
}
