// Package queue defines message payloads exchanged over the message broker.
package queue

// TaskEvent is published on every task mutation. It carries enough
// information for downstream consumers to audit or notify without
// querying the primary database.
type TaskEvent struct {
	Action  string `json:"action"` // task.created | task.updated | task.deleted
	TaskID  uint64 `json:"task_id"`
	OwnerID uint64 `json:"owner_id"`
	ActorID uint64 `json:"actor_id"` // subject that performed the mutation
	Title   string `json:"title"`
	At      string `json:"at"`
}
