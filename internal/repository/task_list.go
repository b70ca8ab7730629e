package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/task-tracker/internal/access"
	"github.com/iliyamo/task-tracker/internal/model"
)

// TaskQuery defines filters for listing the tasks visible to a subject.
type TaskQuery struct {
	Requester     access.Subject
	WriteRequired bool               // only tasks the subject may write
	FilterOwner   *uint64            // list another user's tasks (admin only)
	Status        *model.TaskStatus  // optional status filter
	Search        string             // case-insensitive match on title or description
	Short         bool               // short field projection
}

// TaskRow is one row of a task listing. Description, CreationDate and
// Deadline are only populated for full (non-short) projections.
type TaskRow struct {
	ID           uint64
	Title        string
	Status       model.TaskStatus
	Parent       *uint64
	Description  *string
	CreationDate *time.Time
	Deadline     *time.Time
	Writable     bool
	ownerID      uint64
	policy       access.ShareLevel
}

// buildListQuery constructs the SELECT for a task listing. The visible
// set is a true union: tasks owned by the effective target user OR
// tasks whose policy grants the requested kind of access to everyone.
// Being one table, a row matching both clauses still appears once.
// Returns ErrForbidden when a non-admin supplies an owner override.
func buildListQuery(q TaskQuery) (string, []any, error) {
	effOwner := q.Requester.UserID
	if q.FilterOwner != nil {
		if !q.Requester.Admin() {
			return "", nil, ErrForbidden
		}
		effOwner = *q.FilterOwner
	}

	levels := access.ReadableLevels()
	if q.WriteRequired {
		levels = access.WritableLevels()
	}
	in := make([]string, len(levels))
	args := []any{effOwner}
	for i, lvl := range levels {
		in[i] = "?"
		args = append(args, int(lvl))
	}

	where := []string{"(owner_id = ? OR access_politics IN (" + strings.Join(in, ",") + "))"}

	if q.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*q.Status))
	}
	if q.Search != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		needle := "%" + strings.ToLower(q.Search) + "%"
		args = append(args, needle, needle)
	}

	cols := "id, title, status, parent, owner_id, access_politics"
	if !q.Short {
		cols += ", description, creation_date, deadline"
	}
	return "SELECT " + cols + " FROM tasks WHERE " + strings.Join(where, " AND "), args, nil
}

// List runs a task listing for the subject. No ordering is guaranteed.
// Writable is computed per row: the policy grants write or the
// requester owns the task.
func (r *TaskRepo) List(ctx context.Context, q TaskQuery) ([]TaskRow, error) {
	query, args, err := buildListQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TaskRow{}
	for rows.Next() {
		var (
			row      TaskRow
			status   string
			parent   sql.NullInt64
			politics int
			desc     sql.NullString
			created  sql.NullTime
			deadline sql.NullTime
		)
		dest := []any{&row.ID, &row.Title, &status, &parent, &row.ownerID, &politics}
		if !q.Short {
			dest = append(dest, &desc, &created, &deadline)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row.Status = model.TaskStatus(status)
		row.policy = access.ShareByID(politics)
		if parent.Valid {
			p := uint64(parent.Int64)
			row.Parent = &p
		}
		if desc.Valid {
			d := desc.String
			row.Description = &d
		}
		if created.Valid {
			c := created.Time
			row.CreationDate = &c
		}
		if deadline.Valid {
			d := deadline.Time
			row.Deadline = &d
		}
		row.Writable = row.policy.Writable() || (!q.Requester.Anonymous && row.ownerID == q.Requester.UserID)
		out = append(out, row)
	}
	return out, rows.Err()
}
