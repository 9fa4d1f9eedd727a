package document

// Kind identifies the logical category of a stored document.
// The set is closed; both layout resolvers switch over it exhaustively.
type Kind int

const (
	// KindJob is a background job record.
	KindJob Kind = iota
	// KindServer is a worker server heartbeat record.
	KindServer
	// KindLock is a distributed lock record.
	KindLock
	// KindQueue is a queue metadata record.
	KindQueue
	// KindSet is one entry of a named scored set.
	KindSet
	// KindHash is one field of a named hash.
	KindHash
	// KindList is one entry of a named list.
	KindList
	// KindCounter is a counter increment record.
	KindCounter
)

// kindNames is indexed by Kind.
var kindNames = [...]string{
	KindJob:     "job",
	KindServer:  "server",
	KindLock:    "lock",
	KindQueue:   "queue",
	KindSet:     "set",
	KindHash:    "hash",
	KindList:    "list",
	KindCounter: "counter",
}

// String returns the lowercase name of the kind, or "unknown" for values
// outside the closed set.
func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	return k >= KindJob && k <= KindCounter
}

// Kinds returns all members of the closed set in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindJob, KindServer, KindLock, KindQueue,
		KindSet, KindHash, KindList, KindCounter,
	}
}

// Document is implemented by every storable document type. Placement needs
// exactly two capabilities: the kind tag and the kind's routing field.
// Everything else about a document is opaque to the layout resolvers.
type Document interface {
	Kind() Kind

	// RoutingKey returns the field the kind routes on: the queue name for
	// jobs, the logical collection key for set/hash/list members, and ""
	// for kinds with fixed placement (server, lock, queue, counter).
	RoutingKey() string
}
