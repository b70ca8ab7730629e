package model

import (
	"time"

	"github.com/iliyamo/task-tracker/internal/access"
)

// TaskStatus enumerates the lifecycle states of a task. Values are
// stored by name in the `tasks.status` column.
type TaskStatus string

const (
	StatusDone      TaskStatus = "DONE"
	StatusPending   TaskStatus = "PENDING"
	StatusNone      TaskStatus = "NONE"
	StatusCancelled TaskStatus = "CANCELLED"
)

// StatusByName decodes a client-supplied status string. Unknown values
// return false so callers can degrade to StatusNone.
func StatusByName(name string) (TaskStatus, bool) {
	switch TaskStatus(name) {
	case StatusDone, StatusPending, StatusNone, StatusCancelled:
		return TaskStatus(name), true
	}
	return StatusNone, false
}

// Task mirrors a row of the `tasks` table. Parent is a weak
// self-reference; the database cascades deletes through it, so removing
// a task removes its whole subtree.
//
// Fields:
//  ID           – primary key (sequence starts at a high base so ids
//                 never collide with legacy rows).
//  OwnerID      – owning user, never null.
//  Parent       – optional parent task id.
//  Title        – short title, required.
//  Description  – optional free text.
//  Status       – DONE | PENDING | NONE | CANCELLED.
//  SharePolicy  – sharing policy, default ParentSelect.
//  CreationDate – timestamp of creation.
//  Deadline     – optional due date.
type Task struct {
	ID           uint64             // tasks.id
	OwnerID      uint64             // tasks.owner_id
	Parent       *uint64            // tasks.parent (nullable)
	Title        string             // tasks.title
	Description  *string            // tasks.description (nullable)
	Status       TaskStatus         // tasks.status
	SharePolicy  access.ShareLevel  // tasks.access_politics (signed int)
	CreationDate time.Time          // tasks.creation_date
	Deadline     *time.Time         // tasks.deadline (nullable)
}
