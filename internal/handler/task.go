package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-tracker/internal/access"
	"github.com/iliyamo/task-tracker/internal/middleware"
	"github.com/iliyamo/task-tracker/internal/model"
	"github.com/iliyamo/task-tracker/internal/queue"
	"github.com/iliyamo/task-tracker/internal/repository"
	"github.com/iliyamo/task-tracker/internal/tasktree"
)

// taskStore is the slice of the task repository the task endpoints
// need.
type taskStore interface {
	Create(ctx context.Context, t *model.Task) error
	GetByID(ctx context.Context, id uint64) (model.Task, error)
	Update(ctx context.Context, t model.Task) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, q repository.TaskQuery) ([]repository.TaskRow, error)
}

// eventPublisher pushes task lifecycle events to the broker. May be nil
// when no broker is configured; publishing is best-effort either way.
type eventPublisher interface {
	PublishTaskEvent(ctx context.Context, ev queue.TaskEvent) error
}

// TaskHandler bundles dependencies for the task endpoints.
type TaskHandler struct {
	Tasks  taskStore
	Events eventPublisher
	Now    func() time.Time
}

func NewTaskHandler(tasks *repository.TaskRepo, events eventPublisher) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Events: events, Now: func() time.Time { return time.Now().UTC() }}
}

// ----- DTOs -----

type createTaskReq struct {
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Status         string  `json:"status"`
	AccessPolitics string  `json:"access_politics"`
	Parent         *uint64 `json:"parent"`
	Deadline       *string `json:"deadline"`
}

type updateTaskReq struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Status         *string `json:"status"`
	AccessPolitics *string `json:"access_politics"`
	Parent         *uint64 `json:"parent"`
	Deadline       *string `json:"deadline"`
}

type taskResp struct {
	ID             uint64  `json:"id"`
	OwnerID        uint64  `json:"owner_id"`
	Parent         *uint64 `json:"parent"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Status         string  `json:"status"`
	AccessPolitics string  `json:"access_politics"` // always the symbolic name
	CreationDate   string  `json:"creation_date"`
	Deadline       *string `json:"deadline"`
}

// taskRowResp is one row of a listing; the optional fields only appear
// on full (non-short) projections.
type taskRowResp struct {
	ID           uint64     `json:"id"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	Parent       *uint64    `json:"parent"`
	Description  *string    `json:"description,omitempty"`
	CreationDate *time.Time `json:"creation_date,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Writable     *bool      `json:"writable,omitempty"`
}

type taskNodeResp struct {
	taskRowResp
	Children []taskNodeResp `json:"children,omitempty"`
}

func serializeTask(t model.Task) taskResp {
	resp := taskResp{
		ID:             t.ID,
		OwnerID:        t.OwnerID,
		Parent:         t.Parent,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		AccessPolitics: t.SharePolicy.String(),
		CreationDate:   t.CreationDate.Format(time.RFC3339),
	}
	if t.Deadline != nil {
		d := t.Deadline.Format(time.RFC3339)
		resp.Deadline = &d
	}
	return resp
}

func serializeRow(row repository.TaskRow, short bool) taskRowResp {
	out := taskRowResp{
		ID:     row.ID,
		Title:  row.Title,
		Status: string(row.Status),
		Parent: row.Parent,
	}
	if !short {
		out.Description = row.Description
		out.CreationDate = row.CreationDate
		out.Deadline = row.Deadline
		w := row.Writable
		out.Writable = &w
	}
	return out
}

// parseDeadline accepts the ISO-ish formats clients actually send.
func parseDeadline(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// List answers GET /v1/tasks. Query parameters: owner (admin-only
// override), status, search, write, short.
func (h *TaskHandler) List(c echo.Context) error {
	rows, short, err := h.listRows(c, false)
	if err != nil {
		return err // listRows already wrote the response
	}
	out := make([]taskRowResp, 0, len(rows))
	for _, row := range rows {
		out = append(out, serializeRow(row, short))
	}
	return c.JSON(http.StatusOK, out)
}

// Tree answers GET /v1/tasks/tree: the full-projection listing
// reassembled into a parent/child forest.
func (h *TaskHandler) Tree(c echo.Context) error {
	rows, _, err := h.listRows(c, true)
	if err != nil {
		return err
	}
	forest := tasktree.Build(rows)
	return c.JSON(http.StatusOK, serializeForest(forest))
}

func serializeForest(nodes []*tasktree.Node) []taskNodeResp {
	out := make([]taskNodeResp, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, taskNodeResp{
			taskRowResp: serializeRow(n.TaskRow, false),
			Children:    serializeForest(n.Children),
		})
	}
	return out
}

// listRows runs the shared query logic of List and Tree. forceFull
// overrides the short projection (tree views always need full rows).
// On failure it writes the HTTP response itself and returns a non-nil
// error.
func (h *TaskHandler) listRows(c echo.Context, forceFull bool) ([]repository.TaskRow, bool, error) {
	sub := middleware.CurrentSubject(c)

	q := repository.TaskQuery{
		Requester:     sub,
		WriteRequired: c.QueryParam("write") == "true",
		Search:        c.QueryParam("search"),
		Short:         !forceFull && c.QueryParam("short") != "false",
	}
	if raw := c.QueryParam("owner"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid owner id"})
		}
		q.FilterOwner = &n
	}
	// An unknown status name degrades to no status filter.
	if raw := c.QueryParam("status"); raw != "" {
		if st, ok := model.StatusByName(raw); ok {
			q.Status = &st
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Tasks.List(ctx, q)
	if err != nil {
		if err == repository.ErrForbidden {
			return nil, false, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return nil, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return rows, q.Short, nil
}

// Get answers GET /v1/tasks/:id. Existence is checked before
// permission, so unknown ids are 404 even for anonymous callers.
func (h *TaskHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	sub := middleware.CurrentSubject(c)
	if !access.Resolve(sub, t.OwnerID, t.SharePolicy).CanRead {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	return c.JSON(http.StatusOK, serializeTask(t))
}

// Create answers POST /v1/tasks. The READ_CREATE tier floor is enforced
// by route middleware. Unknown status degrades to NONE; an absent or
// unknown sharing policy degrades to PRIVATE, never to something more
// open.
func (h *TaskHandler) Create(c echo.Context) error {
	var req createTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required fields"})
	}

	sub := middleware.CurrentSubject(c)
	t := model.Task{
		OwnerID:      sub.UserID,
		Parent:       req.Parent,
		Title:        req.Title,
		Description:  req.Description,
		Status:       model.StatusNone,
		SharePolicy:  access.Private,
		CreationDate: h.Now(),
	}
	if st, ok := model.StatusByName(req.Status); ok {
		t.Status = st
	}
	if lvl, ok := access.ShareByName(req.AccessPolitics); ok {
		t.SharePolicy = lvl
	}
	if req.Deadline != nil {
		d, err := parseDeadline(*req.Deadline)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date format for deadline"})
		}
		t.Deadline = &d
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tasks.Create(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create task failed"})
	}
	h.publish(ctx, "task.created", t, sub)
	return c.JSON(http.StatusCreated, serializeTask(t))
}

// Update answers PUT /v1/tasks/:id. Write access follows the standard
// visibility decision; only the owner or an admin may change the
// sharing policy.
func (h *TaskHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}
	var req updateTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	sub := middleware.CurrentSubject(c)
	vis := access.Resolve(sub, t.OwnerID, t.SharePolicy)
	if !vis.CanWrite {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.Status != nil {
		if st, ok := model.StatusByName(*req.Status); ok {
			t.Status = st
		}
	}
	if req.AccessPolitics != nil && (sub.Admin() || t.OwnerID == sub.UserID) {
		if lvl, ok := access.ShareByName(*req.AccessPolitics); ok {
			t.SharePolicy = lvl
		}
	}
	if req.Parent != nil {
		t.Parent = req.Parent
	}
	if req.Deadline != nil {
		d, err := parseDeadline(*req.Deadline)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date format for deadline"})
		}
		t.Deadline = &d
	}

	if err := h.Tasks.Update(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
	}
	h.publish(ctx, "task.updated", t, sub)
	return c.JSON(http.StatusOK, serializeTask(t))
}

// Delete answers DELETE /v1/tasks/:id. Only the owner or an admin may
// delete; children cascade through the database constraint.
func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	sub := middleware.CurrentSubject(c)
	if !sub.Admin() && t.OwnerID != sub.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	if err := h.Tasks.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete task failed"})
	}
	h.publish(ctx, "task.deleted", t, sub)
	return c.NoContent(http.StatusNoContent)
}

// publish sends a lifecycle event to the broker when one is configured.
// Failures are the publisher's to log; the request never fails on them.
func (h *TaskHandler) publish(ctx context.Context, action string, t model.Task, sub access.Subject) {
	if h.Events == nil {
		return
	}
	_ = h.Events.PublishTaskEvent(ctx, queue.TaskEvent{
		Action:  action,
		TaskID:  t.ID,
		OwnerID: t.OwnerID,
		ActorID: sub.UserID,
		Title:   t.Title,
		At:      h.Now().Format(time.RFC3339),
	})
}
