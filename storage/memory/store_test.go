package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/cosmoq"
	"github.com/xraph/cosmoq/document"
	"github.com/xraph/cosmoq/id"
	"github.com/xraph/cosmoq/layout"
)

func newStore(t *testing.T, cfg *layout.Config) *Store {
	t.Helper()
	lay, err := layout.New(cfg)
	if err != nil {
		t.Fatalf("layout.New: %v", err)
	}
	return New(lay)
}

func consolidated(t *testing.T) *Store {
	t.Helper()
	return newStore(t, &layout.Config{
		Strategy:             layout.StrategyConsolidated,
		JobsContainer:        "jobs",
		MetadataContainer:    "metadata",
		CollectionsContainer: "collections",
	})
}

func dedicated(t *testing.T) *Store {
	t.Helper()
	return newStore(t, &layout.Config{
		Strategy:          layout.StrategyDedicated,
		JobsContainer:     "jobs",
		ServersContainer:  "servers",
		LocksContainer:    "locks",
		QueuesContainer:   "queues",
		SetsContainer:     "sets",
		HashesContainer:   "hashes",
		ListsContainer:    "lists",
		CountersContainer: "counters",
	})
}

func newJob(queue string) *document.Job {
	return &document.Job{
		ID:      id.NewJobID(),
		Name:    "send-email",
		Queue:   queue,
		Payload: []byte(`{"to":"a@b.c"}`),
		State:   document.JobEnqueued,
		RunAt:   time.Now().UTC().Add(-time.Second), // eligible immediately
	}
}

// ──────────────────────────────────────────────────
// Lifecycle and provisioning
// ──────────────────────────────────────────────────

func TestLifecycle(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	if err := s.Provision(ctx); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestProvision_ConsolidatedCreatesThreeContainers(t *testing.T) {
	t.Parallel()
	s := consolidated(t)

	if err := s.Provision(context.Background()); err != nil {
		t.Fatalf("Provision: %v", err)
	}

	got := s.ProvisionedContainers()
	want := []string{"jobs", "metadata", "collections"}
	if len(got) != len(want) {
		t.Fatalf("provisioned %d containers, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("container[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestProvision_DedicatedCreatesEightContainers(t *testing.T) {
	t.Parallel()
	s := dedicated(t)

	if err := s.Provision(context.Background()); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if got := s.ProvisionedContainers(); len(got) != 8 {
		t.Fatalf("provisioned %d containers, want 8: %v", len(got), got)
	}
}

// ──────────────────────────────────────────────────
// Job store
// ──────────────────────────────────────────────────

func TestJobCreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, s := range []*Store{consolidated(t), dedicated(t)} {
		j := newJob("critical")
		if err := s.CreateJob(ctx, j); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}

		got, err := s.GetJob(ctx, "critical", j.ID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if got.Name != j.Name || got.Queue != "critical" {
			t.Errorf("GetJob returned %+v, want name=%q queue=%q", got, j.Name, "critical")
		}
	}
}

func TestJobCreate_Duplicate(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	j := newJob("default")
	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := s.CreateJob(ctx, j); !errors.Is(err, cosmoq.ErrJobAlreadyExists) {
		t.Fatalf("duplicate CreateJob = %v, want ErrJobAlreadyExists", err)
	}
}

func TestJobGet_WrongQueueMisses(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	j := newJob("critical")
	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	// Jobs partition by queue: a lookup through the wrong queue must miss
	// even though the job exists in the same container.
	if _, err := s.GetJob(ctx, "default", j.ID); !errors.Is(err, cosmoq.ErrJobNotFound) {
		t.Fatalf("GetJob in wrong queue = %v, want ErrJobNotFound", err)
	}
}

func TestJobUpdateAndDelete(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	j := newJob("default")
	if err := s.CreateJob(ctx, j); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	j.State = document.JobSucceeded
	if err := s.UpdateJob(ctx, j); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	got, err := s.GetJob(ctx, "default", j.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.State != document.JobSucceeded {
		t.Errorf("State = %q, want %q", got.State, document.JobSucceeded)
	}

	if err := s.DeleteJob(ctx, "default", j.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	if _, err := s.GetJob(ctx, "default", j.ID); !errors.Is(err, cosmoq.ErrJobNotFound) {
		t.Fatalf("GetJob after delete = %v, want ErrJobNotFound", err)
	}
}

func TestJobClaim(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()
	server := id.NewServerID()

	first := newJob("default")
	first.CreatedAt = time.Now().UTC().Add(-time.Minute)
	second := newJob("default")

	if err := s.CreateJob(ctx, first); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := s.CreateJob(ctx, second); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	claimed, err := s.ClaimJob(ctx, "default", server)
	if err != nil {
		t.Fatalf("ClaimJob: %v", err)
	}
	if claimed.ID.String() != first.ID.String() {
		t.Errorf("claimed %s, want oldest job %s", claimed.ID, first.ID)
	}
	if claimed.State != document.JobProcessing {
		t.Errorf("claimed job state = %q, want %q", claimed.State, document.JobProcessing)
	}
	if claimed.ServerID.String() != server.String() {
		t.Errorf("claimed job server = %q, want %q", claimed.ServerID, server)
	}

	// Second claim takes the remaining job; third finds nothing.
	if _, err := s.ClaimJob(ctx, "default", server); err != nil {
		t.Fatalf("second ClaimJob: %v", err)
	}
	if _, err := s.ClaimJob(ctx, "default", server); !errors.Is(err, cosmoq.ErrJobNotFound) {
		t.Fatalf("empty ClaimJob = %v, want ErrJobNotFound", err)
	}
}

func TestQueueLength(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.CreateJob(ctx, newJob("bulk")); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
	}
	if err := s.CreateJob(ctx, newJob("other")); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	n, err := s.QueueLength(ctx, "bulk")
	if err != nil {
		t.Fatalf("QueueLength: %v", err)
	}
	if n != 3 {
		t.Errorf("QueueLength(bulk) = %d, want 3", n)
	}
}

// ──────────────────────────────────────────────────
// Queue store
// ──────────────────────────────────────────────────

func TestQueues(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	for _, q := range []string{"default", "critical", "default"} {
		if err := s.EnsureQueue(ctx, q); err != nil {
			t.Fatalf("EnsureQueue(%q): %v", q, err)
		}
	}

	got, err := s.ListQueues(ctx)
	if err != nil {
		t.Fatalf("ListQueues: %v", err)
	}
	want := []string{"critical", "default"}
	if len(got) != len(want) {
		t.Fatalf("ListQueues = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListQueues[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// ──────────────────────────────────────────────────
// Server store
// ──────────────────────────────────────────────────

func TestServerLifecycle(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	srv := &document.Server{
		ID:          id.NewServerID(),
		Hostname:    "worker-1",
		Queues:      []string{"default"},
		Concurrency: 10,
		StartedAt:   time.Now().UTC(),
	}
	if err := s.AnnounceServer(ctx, srv); err != nil {
		t.Fatalf("AnnounceServer: %v", err)
	}

	servers, err := s.ListServers(ctx)
	if err != nil {
		t.Fatalf("ListServers: %v", err)
	}
	if len(servers) != 1 || servers[0].Hostname != "worker-1" {
		t.Fatalf("ListServers = %+v, want one worker-1", servers)
	}

	before := servers[0].HeartbeatAt
	time.Sleep(10 * time.Millisecond)
	if err := s.Heartbeat(ctx, srv.ID); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	servers, _ = s.ListServers(ctx)
	if !servers[0].HeartbeatAt.After(before) {
		t.Error("Heartbeat did not advance HeartbeatAt")
	}

	if err := s.RemoveServer(ctx, srv.ID); err != nil {
		t.Fatalf("RemoveServer: %v", err)
	}
	if err := s.RemoveServer(ctx, srv.ID); !errors.Is(err, cosmoq.ErrServerNotFound) {
		t.Fatalf("RemoveServer twice = %v, want ErrServerNotFound", err)
	}
}

func TestRemoveTimedOutServers(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	stale := &document.Server{
		ID:          id.NewServerID(),
		Hostname:    "stale",
		HeartbeatAt: time.Now().UTC().Add(-time.Hour),
	}
	fresh := &document.Server{
		ID:       id.NewServerID(),
		Hostname: "fresh",
	}
	if err := s.AnnounceServer(ctx, stale); err != nil {
		t.Fatalf("AnnounceServer: %v", err)
	}
	if err := s.AnnounceServer(ctx, fresh); err != nil {
		t.Fatalf("AnnounceServer: %v", err)
	}

	removed, err := s.RemoveTimedOutServers(ctx, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("RemoveTimedOutServers: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	servers, _ := s.ListServers(ctx)
	if len(servers) != 1 || servers[0].Hostname != "fresh" {
		t.Errorf("remaining servers = %+v, want only fresh", servers)
	}
}

// ──────────────────────────────────────────────────
// Lock store
// ──────────────────────────────────────────────────

func TestLocks(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()
	holder := id.NewServerID()

	if err := s.AcquireLock(ctx, "recurring-jobs", holder, time.Minute); err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if err := s.AcquireLock(ctx, "recurring-jobs", holder, time.Minute); !errors.Is(err, cosmoq.ErrLockHeld) {
		t.Fatalf("second AcquireLock = %v, want ErrLockHeld", err)
	}

	// A different resource is independent.
	if err := s.AcquireLock(ctx, "cleanup", holder, time.Minute); err != nil {
		t.Fatalf("AcquireLock(cleanup): %v", err)
	}

	if err := s.ReleaseLock(ctx, "recurring-jobs"); err != nil {
		t.Fatalf("ReleaseLock: %v", err)
	}
	if err := s.ReleaseLock(ctx, "recurring-jobs"); !errors.Is(err, cosmoq.ErrLockNotHeld) {
		t.Fatalf("double ReleaseLock = %v, want ErrLockNotHeld", err)
	}
	if err := s.AcquireLock(ctx, "recurring-jobs", holder, time.Minute); err != nil {
		t.Fatalf("re-AcquireLock after release: %v", err)
	}
}

func TestLocks_ExpiredLockIsReacquirable(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	if err := s.AcquireLock(ctx, "flaky", id.NewServerID(), -time.Second); err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if err := s.AcquireLock(ctx, "flaky", id.NewServerID(), time.Minute); err != nil {
		t.Fatalf("AcquireLock over expired lock = %v, want success", err)
	}
}

// ──────────────────────────────────────────────────
// Collection store
// ──────────────────────────────────────────────────

func TestSets(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	entries := []*document.SetEntry{
		{Key: "scheduled", Value: "job-b", Score: 2},
		{Key: "scheduled", Value: "job-a", Score: 1},
		{Key: "other", Value: "job-c", Score: 0},
	}
	if err := s.AddToSet(ctx, entries...); err != nil {
		t.Fatalf("AddToSet: %v", err)
	}

	got, err := s.ListSet(ctx, "scheduled")
	if err != nil {
		t.Fatalf("ListSet: %v", err)
	}
	if len(got) != 2 || got[0].Value != "job-a" || got[1].Value != "job-b" {
		t.Fatalf("ListSet = %+v, want job-a then job-b", got)
	}

	// Re-adding a value updates the score in place.
	if err := s.AddToSet(ctx, &document.SetEntry{Key: "scheduled", Value: "job-a", Score: 9}); err != nil {
		t.Fatalf("AddToSet update: %v", err)
	}
	got, _ = s.ListSet(ctx, "scheduled")
	if len(got) != 2 || got[1].Value != "job-a" || got[1].Score != 9 {
		t.Fatalf("ListSet after update = %+v, want job-a re-scored to 9", got)
	}

	if err := s.RemoveFromSet(ctx, "scheduled", "job-a"); err != nil {
		t.Fatalf("RemoveFromSet: %v", err)
	}
	if err := s.RemoveFromSet(ctx, "scheduled", "job-a"); !errors.Is(err, cosmoq.ErrEntryNotFound) {
		t.Fatalf("RemoveFromSet twice = %v, want ErrEntryNotFound", err)
	}
}

func TestHashes(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	if err := s.SetHashFields(ctx, "job:123", map[string]string{
		"state": "enqueued",
		"queue": "default",
	}); err != nil {
		t.Fatalf("SetHashFields: %v", err)
	}
	if err := s.SetHashFields(ctx, "job:123", map[string]string{
		"state": "processing",
	}); err != nil {
		t.Fatalf("SetHashFields update: %v", err)
	}

	got, err := s.GetHash(ctx, "job:123")
	if err != nil {
		t.Fatalf("GetHash: %v", err)
	}
	if got["state"] != "processing" || got["queue"] != "default" {
		t.Errorf("GetHash = %v, want state=processing queue=default", got)
	}

	empty, err := s.GetHash(ctx, "job:999")
	if err != nil {
		t.Fatalf("GetHash(missing): %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("GetHash(missing) = %v, want empty", empty)
	}
}

func TestLists(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	for _, v := range []string{"first", "second", "third"} {
		if err := s.PushToList(ctx, "processing", v); err != nil {
			t.Fatalf("PushToList(%q): %v", v, err)
		}
	}

	got, err := s.ListRange(ctx, "processing", 0, 1)
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("ListRange(0,1) = %v, want [first second]", got)
	}

	all, _ := s.ListRange(ctx, "processing", 0, 100)
	if len(all) != 3 {
		t.Errorf("ListRange(0,100) returned %d values, want 3", len(all))
	}

	if got, _ := s.ListRange(ctx, "processing", 2, 1); got != nil {
		t.Errorf("ListRange(2,1) = %v, want nil", got)
	}
}

// ──────────────────────────────────────────────────
// Counter store
// ──────────────────────────────────────────────────

func TestCounters(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	if err := s.IncrementCounter(ctx, "stats:succeeded", 2, nil); err != nil {
		t.Fatalf("IncrementCounter: %v", err)
	}
	if err := s.IncrementCounter(ctx, "stats:succeeded", 3, nil); err != nil {
		t.Fatalf("IncrementCounter: %v", err)
	}
	expired := time.Now().UTC().Add(-time.Minute)
	if err := s.IncrementCounter(ctx, "stats:succeeded", 100, &expired); err != nil {
		t.Fatalf("IncrementCounter expired: %v", err)
	}
	if err := s.IncrementCounter(ctx, "stats:failed", 7, nil); err != nil {
		t.Fatalf("IncrementCounter: %v", err)
	}

	got, err := s.CounterValue(ctx, "stats:succeeded")
	if err != nil {
		t.Fatalf("CounterValue: %v", err)
	}
	if got != 5 {
		t.Errorf("CounterValue(stats:succeeded) = %d, want 5 (expired increments excluded)", got)
	}

	if got, _ := s.CounterValue(ctx, "stats:missing"); got != 0 {
		t.Errorf("CounterValue(missing) = %d, want 0", got)
	}
}

// ──────────────────────────────────────────────────
// Placement
// ──────────────────────────────────────────────────

// The memory store mirrors physical placement, so container contents can be
// asserted directly: under the consolidated layout, metadata kinds co-locate
// in one container while jobs and collections stay separate.
func TestPlacement_ConsolidatedCoLocation(t *testing.T) {
	t.Parallel()
	s := consolidated(t)
	ctx := context.Background()

	if err := s.CreateJob(ctx, newJob("default")); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := s.EnsureQueue(ctx, "default"); err != nil {
		t.Fatalf("EnsureQueue: %v", err)
	}
	if err := s.AcquireLock(ctx, "r", id.NewServerID(), time.Minute); err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if err := s.IncrementCounter(ctx, "c", 1, nil); err != nil {
		t.Fatalf("IncrementCounter: %v", err)
	}
	if err := s.AddToSet(ctx, &document.SetEntry{Key: "k", Value: "v"}); err != nil {
		t.Fatalf("AddToSet: %v", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.containers["jobs"]["job:default"]) != 1 {
		t.Error("job missing from jobs container under partition job:default")
	}
	meta := s.containers["metadata"]
	for _, pk := range []string{"queues", "locks", "counters"} {
		if len(meta[pk]) != 1 {
			t.Errorf("metadata container missing partition %q", pk)
		}
	}
	if len(s.containers["collections"]["set:k"]) != 1 {
		t.Error("set entry missing from collections container under partition set:k")
	}
}
