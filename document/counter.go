package document

import "time"

// Counter is a counter increment record with fixed placement. Each increment
// is a distinct document; readers sum all documents sharing a counter key.
type Counter struct {
	Key      string     `json:"key"`
	Value    int64      `json:"value"`
	ExpireAt *time.Time `json:"expire_at,omitempty"`
}

// Kind returns KindCounter.
func (*Counter) Kind() Kind { return KindCounter }

// RoutingKey returns "" — counters have fixed placement.
func (*Counter) RoutingKey() string { return "" }
