package layout

import (
	"fmt"

	"github.com/xraph/cosmoq"
	"github.com/xraph/cosmoq/document"
)

// Partition-key prefixes for kinds routed on a field, and fixed keys for
// kinds where every instance shares one partition.
const (
	pkJobPrefix  = "job:"
	pkSetPrefix  = "set:"
	pkHashPrefix = "hash:"
	pkListPrefix = "list:"

	pkServers  = "servers"
	pkLocks    = "locks"
	pkQueues   = "queues"
	pkCounters = "counters"
)

// PartitionKey returns the partition key for a document. Derivation depends
// only on the document's kind and routing field, never on the layout
// strategy: strategy moves kinds between containers, it never changes where
// a document lands inside one.
//
// An empty routing field produces a degenerate key such as "job:". The
// resolver does not validate routing fields; callers that need non-empty
// queue or collection names enforce that before writing.
func PartitionKey(doc document.Document) (string, error) {
	switch doc.Kind() {
	case document.KindJob:
		return pkJobPrefix + doc.RoutingKey(), nil
	case document.KindServer:
		return pkServers, nil
	case document.KindLock:
		return pkLocks, nil
	case document.KindQueue:
		return pkQueues, nil
	case document.KindCounter:
		return pkCounters, nil
	case document.KindSet:
		return pkSetPrefix + doc.RoutingKey(), nil
	case document.KindHash:
		return pkHashPrefix + doc.RoutingKey(), nil
	case document.KindList:
		return pkListPrefix + doc.RoutingKey(), nil
	}

	return "", fmt.Errorf("%w: kind %d", cosmoq.ErrUnsupportedKind, int(doc.Kind()))
}

// JobPartitionKey returns the partition key for any job in the given queue.
// Storage backends use it to scope queue-wide queries without materializing
// a document.
func JobPartitionKey(queue string) string {
	return pkJobPrefix + queue
}

// SetPartitionKey returns the partition key for the named set.
func SetPartitionKey(key string) string {
	return pkSetPrefix + key
}

// HashPartitionKey returns the partition key for the named hash.
func HashPartitionKey(key string) string {
	return pkHashPrefix + key
}

// ListPartitionKey returns the partition key for the named list.
func ListPartitionKey(key string) string {
	return pkListPrefix + key
}

// ServersPartitionKey returns the fixed partition key shared by all server
// documents.
func ServersPartitionKey() string { return pkServers }

// LocksPartitionKey returns the fixed partition key shared by all lock
// documents.
func LocksPartitionKey() string { return pkLocks }

// QueuesPartitionKey returns the fixed partition key shared by all queue
// documents.
func QueuesPartitionKey() string { return pkQueues }

// CountersPartitionKey returns the fixed partition key shared by all counter
// documents.
func CountersPartitionKey() string { return pkCounters }
