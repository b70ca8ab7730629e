// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current subject lacks the
// required permission, while ErrInvalidToken covers every way a
// presented credential can be unusable.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation they
// are not permitted to perform, such as a non-admin filtering the task
// list by another owner. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidToken is returned for unknown and for expired tokens alike;
// the two cases are deliberately indistinguishable so that token
// existence never leaks to the caller. Handlers translate it into an
// HTTP 401 response.
var ErrInvalidToken = errors.New("invalid token")

// ErrUsernameExists is returned when a username is already taken.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when an email is already registered.
var ErrEmailExists = errors.New("email already exists")
