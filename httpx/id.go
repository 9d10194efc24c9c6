package httpx

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync/atomic"
)

var idSeq atomic.Uint64

// genID returns 8 random bytes in hex. If the random source fails a
// process-local sequence number is used instead.
func genID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err == nil {
		return hex.EncodeToString(b[:])
	}
	return "seq-" + strconv.FormatUint(idSeq.Add(1), 10)
}
