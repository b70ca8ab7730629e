package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/task-tracker/internal/model"
	"github.com/iliyamo/task-tracker/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,password_hash,is_admin,created_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

// Create inserts a user and returns its ID. The password is hashed
// here so plain text never reaches the database layer twice.
func (r *UserRepo) Create(ctx context.Context, username, email, password string, isAdmin bool, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, is_admin) VALUES (?,?,?,?)",
		username, email, hash, isAdmin)
	if err != nil {
		// MySQL duplicate-key; which unique index tripped decides the sentinel.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			if strings.Contains(err.Error(), "email") {
				return 0, ErrEmailExists
			}
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by its unique login name.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.TrimSpace(username)
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns every user. Admin-only at the handler level.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserUpdate carries the optional fields of a user update; nil fields
// are left untouched.
type UserUpdate struct {
	Username *string
	Email    *string
	Password *string
	IsAdmin  *bool
}

// Update applies a partial update. Username/email uniqueness is checked
// against other rows before writing.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate, cost int) (model.User, error) {
	set := []string{}
	args := []any{}

	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if taken, err := r.takenByOther(ctx, "username", name, id); err != nil {
			return model.User{}, err
		} else if taken {
			return model.User{}, ErrUsernameExists
		}
		set = append(set, "username=?")
		args = append(args, name)
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if taken, err := r.takenByOther(ctx, "email", email, id); err != nil {
			return model.User{}, err
		} else if taken {
			return model.User{}, ErrEmailExists
		}
		set = append(set, "email=?")
		args = append(args, email)
	}
	if upd.Password != nil {
		hash, err := utils.HashPassword(*upd.Password, cost)
		if err != nil {
			return model.User{}, err
		}
		set = append(set, "password_hash=?")
		args = append(args, hash)
	}
	if upd.IsAdmin != nil {
		set = append(set, "is_admin=?")
		args = append(args, *upd.IsAdmin)
	}

	if len(set) > 0 {
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...); err != nil {
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a user row. Owned tasks and tokens cascade via
// foreign keys.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	return err
}

func (r *UserRepo) takenByOther(ctx context.Context, column, value string, selfID uint64) (bool, error) {
	var existing uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE "+column+"=? LIMIT 1", value).Scan(&existing)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing != selfID, nil
}
