package layout_test

import (
	"errors"
	"testing"

	"github.com/xraph/cosmoq"
	"github.com/xraph/cosmoq/document"
	"github.com/xraph/cosmoq/layout"
)

// ---------------------------------------------------------------------------
// ContainerForKind — dedicated
// ---------------------------------------------------------------------------

func TestContainerForKind_Dedicated(t *testing.T) {
	r, err := layout.New(dedicatedConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		kind document.Kind
		want string
	}{
		{document.KindJob, "jobs"},
		{document.KindServer, "servers"},
		{document.KindLock, "locks"},
		{document.KindQueue, "queues"},
		{document.KindSet, "sets"},
		{document.KindHash, "hashes"},
		{document.KindList, "lists"},
		{document.KindCounter, "counters"},
	}
	for _, tt := range tests {
		got, err := r.ContainerForKind(tt.kind)
		if err != nil {
			t.Fatalf("ContainerForKind(%v) returned error: %v", tt.kind, err)
		}
		if got != tt.want {
			t.Errorf("ContainerForKind(%v) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// ContainerForKind — consolidated
// ---------------------------------------------------------------------------

func TestContainerForKind_Consolidated(t *testing.T) {
	r, err := layout.New(consolidatedConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		kind document.Kind
		want string
	}{
		{document.KindJob, "jobs"},
		{document.KindServer, "metadata"},
		{document.KindLock, "metadata"},
		{document.KindQueue, "metadata"},
		{document.KindCounter, "metadata"},
		{document.KindSet, "collections"},
		{document.KindHash, "collections"},
		{document.KindList, "collections"},
	}
	for _, tt := range tests {
		got, err := r.ContainerForKind(tt.kind)
		if err != nil {
			t.Fatalf("ContainerForKind(%v) returned error: %v", tt.kind, err)
		}
		if got != tt.want {
			t.Errorf("ContainerForKind(%v) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestContainerForKind_Deterministic(t *testing.T) {
	for _, cfg := range []*layout.Config{dedicatedConfig(), consolidatedConfig()} {
		r, err := layout.New(cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for _, k := range document.Kinds() {
			first, err := r.ContainerForKind(k)
			if err != nil {
				t.Fatalf("ContainerForKind(%v): %v", k, err)
			}
			for i := 0; i < 100; i++ {
				got, _ := r.ContainerForKind(k)
				if got != first {
					t.Fatalf("%s: ContainerForKind(%v) changed between calls: %q then %q",
						cfg.Strategy, k, first, got)
				}
			}
		}
	}
}

func TestContainerForKind_UnsupportedKind(t *testing.T) {
	for _, cfg := range []*layout.Config{dedicatedConfig(), consolidatedConfig()} {
		r, err := layout.New(cfg)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := r.ContainerForKind(document.Kind(99)); !errors.Is(err, cosmoq.ErrUnsupportedKind) {
			t.Errorf("%s: ContainerForKind(99) = %v, want ErrUnsupportedKind", cfg.Strategy, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Container (document overload)
// ---------------------------------------------------------------------------

func TestContainer_DispatchesOnDocumentKind(t *testing.T) {
	r, err := layout.New(consolidatedConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		doc  document.Document
		want string
	}{
		{&document.Job{Queue: "critical"}, "jobs"},
		{&document.Server{}, "metadata"},
		{&document.Lock{Resource: "recurring-jobs"}, "metadata"},
		{&document.Queue{Name: "default"}, "metadata"},
		{&document.Counter{Key: "stats:succeeded"}, "metadata"},
		{&document.SetEntry{Key: "scheduled"}, "collections"},
		{&document.HashField{Key: "job:123"}, "collections"},
		{&document.ListEntry{Key: "processing"}, "collections"},
	}
	for _, tt := range tests {
		got, err := r.Container(tt.doc)
		if err != nil {
			t.Fatalf("Container(%v) returned error: %v", tt.doc.Kind(), err)
		}
		if got != tt.want {
			t.Errorf("Container(%v) = %q, want %q", tt.doc.Kind(), got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Containers (provisioning set)
// ---------------------------------------------------------------------------

func TestContainers_DedicatedReturnsAllEight(t *testing.T) {
	r, err := layout.New(dedicatedConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := r.Containers()
	want := []string{"jobs", "servers", "locks", "queues", "sets", "hashes", "lists", "counters"}

	if len(got) != len(want) {
		t.Fatalf("Containers() returned %d names, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Containers()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestContainers_ConsolidatedReturnsThree(t *testing.T) {
	r, err := layout.New(consolidatedConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := r.Containers()
	want := []string{"jobs", "metadata", "collections"}

	if len(got) != len(want) {
		t.Fatalf("Containers() returned %d names, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Containers()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestContainers_DeduplicatesSharedNames(t *testing.T) {
	// A dedicated layout where several kinds deliberately share a name.
	cfg := dedicatedConfig()
	cfg.ServersContainer = "meta"
	cfg.LocksContainer = "meta"
	cfg.QueuesContainer = "meta"

	r, err := layout.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := r.Containers()
	seen := make(map[string]int)
	for _, name := range got {
		seen[name]++
	}
	if seen["meta"] != 1 {
		t.Errorf("Containers() repeated %q %d times: %v", "meta", seen["meta"], got)
	}
	if len(got) != 6 {
		t.Errorf("Containers() returned %d names, want 6: %v", len(got), got)
	}
}
