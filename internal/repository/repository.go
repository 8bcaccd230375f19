// Package repository implements the per-collection persistence layer on top of
// the docstore adapter. No business rules live here; lifecycle orchestration
// (system comments, counter recomputes, cascades) belongs to the service layer.
package repository

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrCaseNotFound    = errors.New("case not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrFileNotFound    = errors.New("file not found")
	ErrAlertNotFound   = errors.New("alert not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("username already exists")
)

// newID returns a time-ordered document id.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
