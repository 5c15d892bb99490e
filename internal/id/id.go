package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var mu sync.Mutex

// New returns a ULID string. Run IDs sort lexicographically by creation
// time, which keeps journal listings in chronological order for free.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}
