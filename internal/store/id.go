package store

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Table ids are prefixed ULIDs: sortable by creation time, and the prefix
// keeps them distinguishable from user ids in lock keys and log lines.
const tableIDPrefix = "tbl_"

var (
	ulidEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	ulidEntropyMu sync.Mutex
)

func NewTableID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()
	return tableIDPrefix + ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}
