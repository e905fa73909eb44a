package domain

import (
	"errors"
	"strings"
	"time"
)

// Request priorities and lifecycle states.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityUrgent = "urgent"

	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

var (
	ErrInvalidRequest    = errors.New("maintenance: invalid request")
	ErrInvalidTransition = errors.New("maintenance: invalid status transition")
)

// Request is a maintenance issue filed against a unit or property.
type Request struct {
	ID          string
	OrgID       string
	PropertyID  string
	UnitID      string
	TenantID    string
	Title       string
	Description string
	Priority    string
	Status      string
	ResolvedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *Request) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrInvalidRequest
	}
	if strings.TrimSpace(r.OrgID) == "" {
		return ErrInvalidRequest
	}
	if strings.TrimSpace(r.PropertyID) == "" {
		return ErrInvalidRequest
	}
	if strings.TrimSpace(r.Title) == "" {
		return ErrInvalidRequest
	}
	switch r.Priority {
	case PriorityLow, PriorityNormal, PriorityUrgent:
	default:
		return ErrInvalidRequest
	}
	switch r.Status {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
	default:
		return ErrInvalidRequest
	}
	return nil
}

// Transition moves the request to the next status. Closed requests
// cannot be reopened.
func (r *Request) Transition(status string, at time.Time) error {
	if r.Status == StatusClosed {
		return ErrInvalidTransition
	}
	switch status {
	case StatusOpen, StatusInProgress:
		if r.Status == StatusResolved {
			return ErrInvalidTransition
		}
	case StatusResolved:
		at = at.UTC()
		r.ResolvedAt = &at
	case StatusClosed:
	default:
		return ErrInvalidRequest
	}
	r.Status = status
	return nil
}
