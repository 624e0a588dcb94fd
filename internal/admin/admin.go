// Package admin implements the back-office services behind the admin token:
// consultation triage, blog posts, newsletter subscribers, and project time
// tracking.
package admin

import (
	"errors"
	"time"
)

var (
	ErrInvalidStatus     = errors.New("admin: invalid status transition")
	ErrInvalidEmail      = errors.New("admin: invalid email address")
	ErrAlreadySubscribed = errors.New("admin: already subscribed")
	ErrEmptyTitle        = errors.New("admin: post title is required")
	ErrSessionOpen       = errors.New("admin: a work session is already open for this project")
	ErrNoOpenSession     = errors.New("admin: no open work session for this project")
	ErrEmptyProject      = errors.New("admin: project is required")
)

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

func utcNow(clock Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}
