// Package storage defines the aggregate persistence interface over cosmoq
// documents. Each document family gets its own small interface; the
// composite Store composes them all. Backends: Cosmos DB and Memory. Every
// backend routes each operation through the layout resolvers, so container
// placement and partition keys are never hardcoded in a backend.
package storage

import (
	"context"
	"time"

	"github.com/xraph/cosmoq/document"
	"github.com/xraph/cosmoq/id"
)

// JobStore persists job documents. Reads and deletes take the queue name
// because jobs partition by queue: a point read needs the partition key.
type JobStore interface {
	// CreateJob persists a new job. Returns cosmoq.ErrJobAlreadyExists if a
	// job with the same ID exists in the queue.
	CreateJob(ctx context.Context, j *document.Job) error

	// GetJob retrieves a job by queue and ID.
	GetJob(ctx context.Context, queue string, jobID id.JobID) (*document.Job, error)

	// UpdateJob replaces an existing job document.
	UpdateJob(ctx context.Context, j *document.Job) error

	// DeleteJob removes a job by queue and ID.
	DeleteJob(ctx context.Context, queue string, jobID id.JobID) error

	// ClaimJob atomically claims the next enqueued job in the queue for the
	// given server, moving it to the processing state. Returns
	// cosmoq.ErrJobNotFound if the queue has no claimable job.
	ClaimJob(ctx context.Context, queue string, server id.ServerID) (*document.Job, error)

	// QueueLength counts enqueued jobs in the queue.
	QueueLength(ctx context.Context, queue string) (int, error)
}

// QueueStore persists queue metadata documents.
type QueueStore interface {
	// EnsureQueue records the queue name if not already known.
	EnsureQueue(ctx context.Context, name string) error

	// ListQueues returns all known queue names.
	ListQueues(ctx context.Context) ([]string, error)
}

// ServerStore persists server heartbeat documents.
type ServerStore interface {
	// AnnounceServer registers or refreshes a server record.
	AnnounceServer(ctx context.Context, s *document.Server) error

	// Heartbeat updates the server's heartbeat timestamp.
	Heartbeat(ctx context.Context, serverID id.ServerID) error

	// RemoveServer deletes a server record.
	RemoveServer(ctx context.Context, serverID id.ServerID) error

	// ListServers returns all registered servers.
	ListServers(ctx context.Context) ([]*document.Server, error)

	// RemoveTimedOutServers deletes servers whose heartbeat is older than
	// the cutoff and reports how many were removed.
	RemoveTimedOutServers(ctx context.Context, cutoff time.Time) (int, error)
}

// LockStore persists distributed lock documents. Only storage-level
// acquire/release is provided; renewal and fencing belong to callers.
type LockStore interface {
	// AcquireLock creates the lock document for the resource. Returns
	// cosmoq.ErrLockHeld if an unexpired lock already exists.
	AcquireLock(ctx context.Context, resource string, holder id.ServerID, ttl time.Duration) error

	// ReleaseLock deletes the lock document. Returns cosmoq.ErrLockNotHeld
	// if no lock exists for the resource.
	ReleaseLock(ctx context.Context, resource string) error
}

// CollectionStore persists set, hash, and list members. All members of one
// logical collection share a partition, so multi-member writes are atomic.
type CollectionStore interface {
	// AddToSet upserts entries into named sets. Entries for the same set
	// key are written in one transactional batch.
	AddToSet(ctx context.Context, entries ...*document.SetEntry) error

	// RemoveFromSet deletes the entry with the given value from the set.
	RemoveFromSet(ctx context.Context, key, value string) error

	// ListSet returns all entries of the named set ordered by score.
	ListSet(ctx context.Context, key string) ([]*document.SetEntry, error)

	// SetHashFields upserts fields of the named hash in one batch.
	SetHashFields(ctx context.Context, key string, fields map[string]string) error

	// GetHash returns all fields of the named hash.
	GetHash(ctx context.Context, key string) (map[string]string, error)

	// PushToList appends a value to the named list.
	PushToList(ctx context.Context, key, value string) error

	// ListRange returns list values between from and to inclusive,
	// zero-indexed in insertion order.
	ListRange(ctx context.Context, key string, from, to int) ([]string, error)
}

// CounterStore persists counter increments.
type CounterStore interface {
	// IncrementCounter records a delta for the counter key. expireAt, if
	// non-nil, marks when the increment stops counting.
	IncrementCounter(ctx context.Context, key string, delta int64, expireAt *time.Time) error

	// CounterValue sums all unexpired increments for the key.
	CounterValue(ctx context.Context, key string) (int64, error)
}

// Store is the aggregate persistence interface. A single backend implements
// all document families.
type Store interface {
	JobStore
	QueueStore
	ServerStore
	LockStore
	CollectionStore
	CounterStore

	// Provision creates the database and the containers the active layout
	// requires. Called once at startup, never on the operation path.
	Provision(ctx context.Context) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
