package document

import "time"

// SetEntry is one member of a named scored set. Key is its routing field:
// all entries of one set share a partition, so set operations can run as a
// single-partition transactional batch.
type SetEntry struct {
	Key      string     `json:"key"`
	Value    string     `json:"value"`
	Score    float64    `json:"score"`
	ExpireAt *time.Time `json:"expire_at,omitempty"`
}

// Kind returns KindSet.
func (*SetEntry) Kind() Kind { return KindSet }

// RoutingKey returns the set key.
func (e *SetEntry) RoutingKey() string { return e.Key }

// HashField is one field of a named hash, routed on the hash key.
type HashField struct {
	Key      string     `json:"key"`
	Field    string     `json:"field"`
	Value    string     `json:"value"`
	ExpireAt *time.Time `json:"expire_at,omitempty"`
}

// Kind returns KindHash.
func (*HashField) Kind() Kind { return KindHash }

// RoutingKey returns the hash key.
func (f *HashField) RoutingKey() string { return f.Key }

// ListEntry is one element of a named list, routed on the list key.
// Position orders elements within the list; lower comes first.
type ListEntry struct {
	Key      string     `json:"key"`
	Value    string     `json:"value"`
	Position int64      `json:"position"`
	ExpireAt *time.Time `json:"expire_at,omitempty"`
}

// Kind returns KindList.
func (*ListEntry) Kind() Kind { return KindList }

// RoutingKey returns the list key.
func (e *ListEntry) RoutingKey() string { return e.Key }
