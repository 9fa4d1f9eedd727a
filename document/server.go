package document

import (
	"time"

	"github.com/xraph/cosmoq/id"
)

// Server is a worker server heartbeat record. Servers have fixed placement:
// every instance lands in the same partition so a single-partition query
// lists the whole fleet.
type Server struct {
	ID          id.ServerID `json:"id"`
	Hostname    string      `json:"hostname"`
	Queues      []string    `json:"queues"`
	Concurrency int         `json:"concurrency"`
	StartedAt   time.Time   `json:"started_at"`
	HeartbeatAt time.Time   `json:"heartbeat_at"`
}

// Kind returns KindServer.
func (*Server) Kind() Kind { return KindServer }

// RoutingKey returns "" — servers have fixed placement.
func (*Server) RoutingKey() string { return "" }
