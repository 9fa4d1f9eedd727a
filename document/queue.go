package document

import "time"

// Queue is a queue metadata record with fixed placement. One document exists
// per known queue name; job membership is tracked on the jobs themselves.
type Queue struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Kind returns KindQueue.
func (*Queue) Kind() Kind { return KindQueue }

// RoutingKey returns "" — queues have fixed placement.
func (*Queue) RoutingKey() string { return "" }
