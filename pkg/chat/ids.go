package chat

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator allocates message identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator allocates random UUIDv4 identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceGenerator allocates Prefix1, Prefix2, ... in order. The zero value
// is ready to use and safe for concurrent use.
type SequenceGenerator struct {
	Prefix string

	next atomic.Uint64
}

func (g *SequenceGenerator) NewID() string {
	return g.Prefix + strconv.FormatUint(g.next.Add(1), 10)
}
