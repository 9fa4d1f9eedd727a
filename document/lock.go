package document

import (
	"time"

	"github.com/xraph/cosmoq/id"
)

// Lock is a distributed lock record. The acquisition protocol lives in the
// storage backends; this type only carries the stored state. Locks have
// fixed placement so held locks are queryable as a consistent set.
type Lock struct {
	Resource   string      `json:"resource"`
	Holder     id.ServerID `json:"holder,omitempty"`
	AcquiredAt time.Time   `json:"acquired_at"`
	ExpireAt   time.Time   `json:"expire_at"`
}

// Kind returns KindLock.
func (*Lock) Kind() Kind { return KindLock }

// RoutingKey returns "" — locks have fixed placement.
func (*Lock) RoutingKey() string { return "" }
