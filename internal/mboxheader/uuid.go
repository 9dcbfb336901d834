package mboxheader

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// makeUUID generates a random UUID version 4 (RFC 4122)
func makeUUID() string {
	return uuid.NewString()
}

// makeUUIDv7 generates a UUID version 7 (RFC 9562) whose timestamp is
// taken from t instead of the current time. Times before the Unix epoch
// cannot be encoded and get a version 4 UUID.
func makeUUIDv7(t time.Time) string {
	if t.Before(time.Unix(0, 0)) {
		return makeUUID()
	}
	id := uuid.New()

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(t.UnixMilli())<<16)
	copy(id[0:6], ts[0:6])

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	return id.String()
}
