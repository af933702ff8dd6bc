// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without inspecting
// driver errors. Token validation failures deliberately collapse expired,
// revoked and unknown tokens into the same value so callers cannot leak
// which case occurred.
package repository

import "errors"

// ErrEmailExists is returned when a user insert hits the unique email
// constraint. Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenInvalid is returned when a refresh or verification token is
// unknown, expired, revoked or already consumed. Handlers translate this
// into an HTTP 401 (refresh) or 400 (verification) response.
var ErrTokenInvalid = errors.New("token invalid")
