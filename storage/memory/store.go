// Package memory is a fully in-memory implementation of storage.Store.
// Safe for concurrent access. Intended for unit testing and development.
//
// Documents are held in a container → partition key → document id map and
// every operation routes through the layout resolvers, so tests against
// this backend exercise the same placement logic the Cosmos backend uses.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/cosmoq"
	"github.com/xraph/cosmoq/document"
	"github.com/xraph/cosmoq/id"
	"github.com/xraph/cosmoq/layout"
	"github.com/xraph/cosmoq/storage"
)

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// partition maps document id to the stored document.
type partition map[string]any

// Store is an in-memory storage.Store routed through a layout.Resolver.
type Store struct {
	mu     sync.RWMutex
	layout *layout.Resolver

	// containers mirrors the physical layout: container name → partition
	// key → documents.
	containers map[string]map[string]partition

	// provisioned records the container names Provision created.
	provisioned []string

	// listSeq orders list entries within one store instance.
	listSeq int64
}

// New returns an empty Store routed through the given resolver.
func New(lay *layout.Resolver) *Store {
	s := &Store{
		layout:     lay,
		containers: make(map[string]map[string]partition),
	}
	return s
}

// Provision records the layout's container set, mirroring what the Cosmos
// backend creates. Idempotent.
func (m *Store) Provision(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.provisioned = m.layout.Containers()
	for _, name := range m.provisioned {
		if m.containers[name] == nil {
			m.containers[name] = make(map[string]partition)
		}
	}
	return nil
}

// ProvisionedContainers returns the container names created by Provision.
func (m *Store) ProvisionedContainers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.provisioned))
	copy(out, m.provisioned)
	return out
}

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// part returns the partition for (container, pk), creating it on demand.
// Caller holds mu.
func (m *Store) part(container, pk string) partition {
	cont := m.containers[container]
	if cont == nil {
		cont = make(map[string]partition)
		m.containers[container] = cont
	}
	p := cont[pk]
	if p == nil {
		p = make(partition)
		cont[pk] = p
	}
	return p
}

// resolve returns the (container, partition key) pair for a document.
func (m *Store) resolve(doc document.Document) (string, string, error) {
	container, err := m.layout.Container(doc)
	if err != nil {
		return "", "", err
	}
	pk, err := layout.PartitionKey(doc)
	if err != nil {
		return "", "", err
	}
	return container, pk, nil
}

// ──────────────────────────────────────────────────
// Job store
// ──────────────────────────────────────────────────

// CreateJob persists a new job in its queue partition.
func (m *Store) CreateJob(_ context.Context, j *document.Job) error {
	container, pk, err := m.resolve(j)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.part(container, pk)
	if _, exists := p[j.ID.String()]; exists {
		return cosmoq.ErrJobAlreadyExists
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	stored := *j
	p[j.ID.String()] = &stored
	return nil
}

// GetJob retrieves a job by queue and ID.
func (m *Store) GetJob(_ context.Context, queue string, jobID id.JobID) (*document.Job, error) {
	container, err := m.layout.ContainerForKind(document.KindJob)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	p := m.containers[container][layout.JobPartitionKey(queue)]
	stored, ok := p[jobID.String()].(*document.Job)
	if !ok {
		return nil, cosmoq.ErrJobNotFound
	}
	j := *stored
	return &j, nil
}

// UpdateJob replaces an existing job document.
func (m *Store) UpdateJob(_ context.Context, j *document.Job) error {
	container, pk, err := m.resolve(j)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.part(container, pk)
	if _, exists := p[j.ID.String()]; !exists {
		return cosmoq.ErrJobNotFound
	}
	stored := *j
	p[j.ID.String()] = &stored
	return nil
}

// DeleteJob removes a job by queue and ID.
func (m *Store) DeleteJob(_ context.Context, queue string, jobID id.JobID) error {
	container, err := m.layout.ContainerForKind(document.KindJob)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.containers[container][layout.JobPartitionKey(queue)]
	if _, exists := p[jobID.String()]; !exists {
		return cosmoq.ErrJobNotFound
	}
	delete(p, jobID.String())
	return nil
}

// ClaimJob claims the oldest enqueued, due job in the queue.
func (m *Store) ClaimJob(_ context.Context, queue string, server id.ServerID) (*document.Job, error) {
	container, err := m.layout.ContainerForKind(document.KindJob)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	p := m.containers[container][layout.JobPartitionKey(queue)]

	var oldest *document.Job
	for _, v := range p {
		j, ok := v.(*document.Job)
		if !ok || j.State != document.JobEnqueued || j.RunAt.After(now) {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, cosmoq.ErrJobNotFound
	}

	oldest.State = document.JobProcessing
	oldest.ServerID = server
	started := now
	oldest.StartedAt = &started

	j := *oldest
	return &j, nil
}

// QueueLength counts enqueued jobs in the queue.
func (m *Store) QueueLength(_ context.Context, queue string) (int, error) {
	container, err := m.layout.ContainerForKind(document.KindJob)
	if err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, v := range m.containers[container][layout.JobPartitionKey(queue)] {
		if j, ok := v.(*document.Job); ok && j.State == document.JobEnqueued {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Queue store
// ──────────────────────────────────────────────────

// EnsureQueue records the queue name if not already known.
func (m *Store) EnsureQueue(_ context.Context, name string) error {
	container, err := m.layout.ContainerForKind(document.KindQueue)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.part(container, layout.QueuesPartitionKey())
	if _, exists := p[name]; exists {
		return nil
	}
	p[name] = &document.Queue{Name: name, CreatedAt: time.Now().UTC()}
	return nil
}

// ListQueues returns all known queue names sorted.
func (m *Store) ListQueues(_ context.Context) ([]string, error) {
	container, err := m.layout.ContainerForKind(document.KindQueue)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for name := range m.containers[container][layout.QueuesPartitionKey()] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// ──────────────────────────────────────────────────
// Server store
// ──────────────────────────────────────────────────

// AnnounceServer registers or refreshes a server record.
func (m *Store) AnnounceServer(_ context.Context, srv *document.Server) error {
	container, pk, err := m.resolve(srv)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if srv.HeartbeatAt.IsZero() {
		srv.HeartbeatAt = time.Now().UTC()
	}
	stored := *srv
	m.part(container, pk)[srv.ID.String()] = &stored
	return nil
}

// Heartbeat updates the server's heartbeat timestamp.
func (m *Store) Heartbeat(_ context.Context, serverID id.ServerID) error {
	container, err := m.layout.ContainerForKind(document.KindServer)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.containers[container][layout.ServersPartitionKey()]
	srv, ok := p[serverID.String()].(*document.Server)
	if !ok {
		return cosmoq.ErrServerNotFound
	}
	srv.HeartbeatAt = time.Now().UTC()
	return nil
}

// RemoveServer deletes a server record.
func (m *Store) RemoveServer(_ context.Context, serverID id.ServerID) error {
	container, err := m.layout.ContainerForKind(document.KindServer)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.containers[container][layout.ServersPartitionKey()]
	if _, exists := p[serverID.String()]; !exists {
		return cosmoq.ErrServerNotFound
	}
	delete(p, serverID.String())
	return nil
}

// ListServers returns all registered servers.
func (m *Store) ListServers(_ context.Context) ([]*document.Server, error) {
	container, err := m.layout.ContainerForKind(document.KindServer)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*document.Server
	for _, v := range m.containers[container][layout.ServersPartitionKey()] {
		if srv, ok := v.(*document.Server); ok {
			s := *srv
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// RemoveTimedOutServers deletes servers whose heartbeat predates the cutoff.
func (m *Store) RemoveTimedOutServers(_ context.Context, cutoff time.Time) (int, error) {
	container, err := m.layout.ContainerForKind(document.KindServer)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.containers[container][layout.ServersPartitionKey()]
	removed := 0
	for key, v := range p {
		if srv, ok := v.(*document.Server); ok && srv.HeartbeatAt.Before(cutoff) {
			delete(p, key)
			removed++
		}
	}
	return removed, nil
}

// ──────────────────────────────────────────────────
// Lock store
// ──────────────────────────────────────────────────

// AcquireLock creates the lock record unless an unexpired one exists.
func (m *Store) AcquireLock(_ context.Context, resource string, holder id.ServerID, ttl time.Duration) error {
	container, err := m.layout.ContainerForKind(document.KindLock)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	p := m.part(container, layout.LocksPartitionKey())
	if existing, ok := p[resource].(*document.Lock); ok && existing.ExpireAt.After(now) {
		return cosmoq.ErrLockHeld
	}
	p[resource] = &document.Lock{
		Resource:   resource,
		Holder:     holder,
		AcquiredAt: now,
		ExpireAt:   now.Add(ttl),
	}
	return nil
}

// ReleaseLock deletes the lock record.
func (m *Store) ReleaseLock(_ context.Context, resource string) error {
	container, err := m.layout.ContainerForKind(document.KindLock)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.containers[container][layout.LocksPartitionKey()]
	if _, exists := p[resource]; !exists {
		return cosmoq.ErrLockNotHeld
	}
	delete(p, resource)
	return nil
}

// ──────────────────────────────────────────────────
// Collection store
// ──────────────────────────────────────────────────

// AddToSet upserts entries into their sets, keyed by value.
func (m *Store) AddToSet(_ context.Context, entries ...*document.SetEntry) error {
	if len(entries) == 0 {
		return nil
	}

	container, err := m.layout.ContainerForKind(document.KindSet)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		stored := *e
		m.part(container, layout.SetPartitionKey(e.Key))[e.Value] = &stored
	}
	return nil
}

// RemoveFromSet deletes the entry with the given value from the set.
func (m *Store) RemoveFromSet(_ context.Context, key, value string) error {
	container, err := m.layout.ContainerForKind(document.KindSet)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.containers[container][layout.SetPartitionKey(key)]
	if _, exists := p[value]; !exists {
		return cosmoq.ErrEntryNotFound
	}
	delete(p, value)
	return nil
}

// ListSet returns all entries of the named set ordered by score.
func (m *Store) ListSet(_ context.Context, key string) ([]*document.SetEntry, error) {
	container, err := m.layout.ContainerForKind(document.KindSet)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*document.SetEntry
	for _, v := range m.containers[container][layout.SetPartitionKey(key)] {
		if e, ok := v.(*document.SetEntry); ok {
			entry := *e
			out = append(out, &entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out, nil
}

// SetHashFields upserts fields of the named hash.
func (m *Store) SetHashFields(_ context.Context, key string, fields map[string]string) error {
	container, err := m.layout.ContainerForKind(document.KindHash)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.part(container, layout.HashPartitionKey(key))
	for field, value := range fields {
		p[field] = &document.HashField{Key: key, Field: field, Value: value}
	}
	return nil
}

// GetHash returns all fields of the named hash.
func (m *Store) GetHash(_ context.Context, key string) (map[string]string, error) {
	container, err := m.layout.ContainerForKind(document.KindHash)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string)
	for _, v := range m.containers[container][layout.HashPartitionKey(key)] {
		if f, ok := v.(*document.HashField); ok {
			out[f.Field] = f.Value
		}
	}
	return out, nil
}

// PushToList appends a value to the named list.
func (m *Store) PushToList(_ context.Context, key, value string) error {
	container, err := m.layout.ContainerForKind(document.KindList)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.listSeq++
	entry := &document.ListEntry{Key: key, Value: value, Position: m.listSeq}
	m.part(container, layout.ListPartitionKey(key))[id.NewEntryID().String()] = entry
	return nil
}

// ListRange returns list values between from and to inclusive, zero-indexed
// in insertion order.
func (m *Store) ListRange(_ context.Context, key string, from, to int) ([]string, error) {
	if to < from || from < 0 {
		return nil, nil
	}

	container, err := m.layout.ContainerForKind(document.KindList)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []*document.ListEntry
	for _, v := range m.containers[container][layout.ListPartitionKey(key)] {
		if e, ok := v.(*document.ListEntry); ok {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })

	var out []string
	for i, e := range entries {
		if i < from {
			continue
		}
		if i > to {
			break
		}
		out = append(out, e.Value)
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Counter store
// ──────────────────────────────────────────────────

// IncrementCounter records a delta for the counter key.
func (m *Store) IncrementCounter(_ context.Context, key string, delta int64, expireAt *time.Time) error {
	container, err := m.layout.ContainerForKind(document.KindCounter)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &document.Counter{Key: key, Value: delta, ExpireAt: expireAt}
	m.part(container, layout.CountersPartitionKey())[id.NewEntryID().String()] = entry
	return nil
}

// CounterValue sums all unexpired increments for the key.
func (m *Store) CounterValue(_ context.Context, key string) (int64, error) {
	container, err := m.layout.ContainerForKind(document.KindCounter)
	if err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now().UTC()
	var total int64
	for _, v := range m.containers[container][layout.CountersPartitionKey()] {
		c, ok := v.(*document.Counter)
		if !ok || c.Key != key {
			continue
		}
		if c.ExpireAt != nil && !c.ExpireAt.After(now) {
			continue
		}
		total += c.Value
	}
	return total, nil
}
