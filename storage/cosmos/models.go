package cosmos

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/xraph/cosmoq/document"
	"github.com/xraph/cosmoq/id"
)

// Envelopes stored in Cosmos. Every envelope carries the document id, the
// resolved partition key under "pk" (matching partitionKeyPath), and the
// kind tag under "type" so mixed containers under the consolidated layout
// stay queryable per kind.

// ── Job ───────────────────────────────────────────

type jobDoc struct {
	ID         string            `json:"id"`
	PK         string            `json:"pk"`
	Type       string            `json:"type"`
	Name       string            `json:"name"`
	Queue      string            `json:"queue"`
	Payload    []byte            `json:"payload"`
	State      string            `json:"state"`
	Priority   int               `json:"priority"`
	MaxRetries int               `json:"max_retries"`
	RetryCount int               `json:"retry_count"`
	LastError  string            `json:"last_error,omitempty"`
	ServerID   string            `json:"server_id,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	RunAt      time.Time         `json:"run_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	ExpireAt   *time.Time        `json:"expire_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

func toJobDoc(j *document.Job, pk string) *jobDoc {
	return &jobDoc{
		ID:         j.ID.String(),
		PK:         pk,
		Type:       document.KindJob.String(),
		Name:       j.Name,
		Queue:      j.Queue,
		Payload:    j.Payload,
		State:      string(j.State),
		Priority:   j.Priority,
		MaxRetries: j.MaxRetries,
		RetryCount: j.RetryCount,
		LastError:  j.LastError,
		ServerID:   j.ServerID.String(),
		Parameters: j.Parameters,
		RunAt:      j.RunAt,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		ExpireAt:   j.ExpireAt,
		CreatedAt:  j.CreatedAt,
	}
}

func fromJobDoc(d *jobDoc) (*document.Job, error) {
	jobID, err := id.ParseJobID(d.ID)
	if err != nil {
		return nil, err
	}

	serverID := id.Nil
	if d.ServerID != "" {
		serverID, err = id.ParseServerID(d.ServerID)
		if err != nil {
			return nil, err
		}
	}

	return &document.Job{
		ID:         jobID,
		Name:       d.Name,
		Queue:      d.Queue,
		Payload:    d.Payload,
		State:      document.JobState(d.State),
		Priority:   d.Priority,
		MaxRetries: d.MaxRetries,
		RetryCount: d.RetryCount,
		LastError:  d.LastError,
		ServerID:   serverID,
		Parameters: d.Parameters,
		RunAt:      d.RunAt,
		StartedAt:  d.StartedAt,
		FinishedAt: d.FinishedAt,
		ExpireAt:   d.ExpireAt,
		CreatedAt:  d.CreatedAt,
	}, nil
}

// ── Server ────────────────────────────────────────

type serverDoc struct {
	ID          string    `json:"id"`
	PK          string    `json:"pk"`
	Type        string    `json:"type"`
	Hostname    string    `json:"hostname"`
	Queues      []string  `json:"queues"`
	Concurrency int       `json:"concurrency"`
	StartedAt   time.Time `json:"started_at"`
	HeartbeatAt time.Time `json:"heartbeat_at"`
}

func toServerDoc(srv *document.Server, pk string) *serverDoc {
	return &serverDoc{
		ID:          srv.ID.String(),
		PK:          pk,
		Type:        document.KindServer.String(),
		Hostname:    srv.Hostname,
		Queues:      srv.Queues,
		Concurrency: srv.Concurrency,
		StartedAt:   srv.StartedAt,
		HeartbeatAt: srv.HeartbeatAt,
	}
}

func fromServerDoc(d *serverDoc) (*document.Server, error) {
	serverID, err := id.ParseServerID(d.ID)
	if err != nil {
		return nil, err
	}

	return &document.Server{
		ID:          serverID,
		Hostname:    d.Hostname,
		Queues:      d.Queues,
		Concurrency: d.Concurrency,
		StartedAt:   d.StartedAt,
		HeartbeatAt: d.HeartbeatAt,
	}, nil
}

// ── Lock ──────────────────────────────────────────

// Lock documents use the resource name as their id: resources are unique
// within the shared locks partition, and acquisition relies on the create
// conflict for mutual exclusion.
type lockDoc struct {
	ID         string    `json:"id"`
	PK         string    `json:"pk"`
	Type       string    `json:"type"`
	Holder     string    `json:"holder,omitempty"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpireAt   time.Time `json:"expire_at"`
}

// ── Queue ─────────────────────────────────────────

type queueDoc struct {
	ID        string    `json:"id"`
	PK        string    `json:"pk"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// ── Collections ───────────────────────────────────

type setDoc struct {
	ID       string     `json:"id"`
	PK       string     `json:"pk"`
	Type     string     `json:"type"`
	Key      string     `json:"key"`
	Value    string     `json:"value"`
	Score    float64    `json:"score"`
	ExpireAt *time.Time `json:"expire_at,omitempty"`
}

type hashDoc struct {
	ID       string     `json:"id"`
	PK       string     `json:"pk"`
	Type     string     `json:"type"`
	Key      string     `json:"key"`
	Field    string     `json:"field"`
	Value    string     `json:"value"`
	ExpireAt *time.Time `json:"expire_at,omitempty"`
}

type listDoc struct {
	ID       string     `json:"id"`
	PK       string     `json:"pk"`
	Type     string     `json:"type"`
	Key      string     `json:"key"`
	Value    string     `json:"value"`
	Position int64      `json:"position"`
	ExpireAt *time.Time `json:"expire_at,omitempty"`
}

// ── Counter ───────────────────────────────────────

type counterDoc struct {
	ID       string     `json:"id"`
	PK       string     `json:"pk"`
	Type     string     `json:"type"`
	Key      string     `json:"key"`
	Value    int64      `json:"value"`
	ExpireAt *time.Time `json:"expire_at,omitempty"`
}

// contentID derives a deterministic, Cosmos-safe document id from a member
// value, so re-adding the same set member or hash field upserts in place.
func contentID(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:16])
}
