package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/task-tracker/internal/access"
	"github.com/iliyamo/task-tracker/internal/model"
)

type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

// Create inserts a task and fills in its server-assigned id. The
// sequence starts at a high base (see schema) so new ids never collide
// with legacy rows.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks (owner_id, parent, title, description, status, access_politics, creation_date, deadline) VALUES (?,?,?,?,?,?,?,?)",
		t.OwnerID, t.Parent, t.Title, t.Description, string(t.Status), int(t.SharePolicy), t.CreationDate, t.Deadline)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID fetches one task. sql.ErrNoRows passes through so handlers
// can answer 404 before any permission check.
func (r *TaskRepo) GetByID(ctx context.Context, id uint64) (model.Task, error) {
	var (
		t        model.Task
		parent   sql.NullInt64
		desc     sql.NullString
		status   string
		politics int
		deadline sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, owner_id, parent, title, description, status, access_politics, creation_date, deadline FROM tasks WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.OwnerID, &parent, &t.Title, &desc, &status, &politics, &t.CreationDate, &deadline)
	if err != nil {
		return model.Task{}, err
	}
	if parent.Valid {
		p := uint64(parent.Int64)
		t.Parent = &p
	}
	if desc.Valid {
		d := desc.String
		t.Description = &d
	}
	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	t.Status = model.TaskStatus(status)
	t.SharePolicy = access.ShareByID(politics)
	return t, nil
}

// Update writes back every mutable field of the task. Last writer wins;
// the row carries no version column.
func (r *TaskRepo) Update(ctx context.Context, t model.Task) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tasks SET parent=?, title=?, description=?, status=?, access_politics=?, deadline=? WHERE id=?",
		t.Parent, t.Title, t.Description, string(t.Status), int(t.SharePolicy), t.Deadline, t.ID)
	return err
}

// Delete removes a task; children go with it through the ON DELETE
// CASCADE constraint on tasks.parent.
func (r *TaskRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id=?", id)
	return err
}
