package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"rentledger/internal/maintenance/domain"
	"rentledger/internal/maintenance/notify"
	"rentledger/internal/observability/metrics"
)

var ErrNotFound = errors.New("maintenance: not found")

// EventPublisher publishes maintenance domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// RequestFiled is emitted when a maintenance request is filed.
type RequestFiled struct {
	RequestID  string    `json:"request_id"`
	PropertyID string    `json:"property_id"`
	UnitID     string    `json:"unit_id"`
	Priority   string    `json:"priority"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RequestStatusChanged is emitted on every status transition.
type RequestStatusChanged struct {
	RequestID  string    `json:"request_id"`
	PropertyID string    `json:"property_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Service provides maintenance request commands and queries.
type Service struct {
	requests domain.RequestRepository
	channel  notify.Channel
	events   EventPublisher
	logger   *log.Logger
	now      func() time.Time
}

func NewService(requests domain.RequestRepository, channel notify.Channel, events EventPublisher, logger *log.Logger) (*Service, error) {
	if requests == nil {
		return nil, errors.New("maintenance service: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		requests: requests,
		channel:  channel,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// FileRequestInput carries caller-supplied request fields.
type FileRequestInput struct {
	PropertyID  string
	UnitID      string
	TenantID    string
	Title       string
	Description string
	Priority    string
}

// File registers a new request, notifies the configured channel and
// publishes RequestFiled.
func (s *Service) File(ctx context.Context, orgID string, in FileRequestInput) (*domain.Request, error) {
	now := s.now()
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	req := &domain.Request{
		ID:          newID("mreq"),
		OrgID:       orgID,
		PropertyID:  in.PropertyID,
		UnitID:      in.UnitID,
		TenantID:    in.TenantID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Status:      domain.StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.requests.Save(ctx, req); err != nil {
		return nil, err
	}
	metrics.IncMaintenanceEvent("filed")
	s.notify(ctx, notify.RenderFiled(req))
	s.publish(ctx, RequestFiled{
		RequestID:  req.ID,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		Priority:   req.Priority,
		Title:      req.Title,
		OccurredAt: now,
	})
	return req, nil
}

// UpdateStatus transitions a request and notifies on resolution.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Request, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	now := s.now()
	if err := req.Transition(status, now); err != nil {
		return nil, err
	}
	req.UpdatedAt = now
	if err := s.requests.Save(ctx, req); err != nil {
		return nil, err
	}
	metrics.IncMaintenanceEvent(status)
	if status == domain.StatusResolved || status == domain.StatusClosed {
		s.notify(ctx, notify.RenderStatus(req))
	}
	s.publish(ctx, RequestStatusChanged{
		RequestID:  req.ID,
		PropertyID: req.PropertyID,
		Status:     req.Status,
		OccurredAt: now,
	})
	return req, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Request, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

func (s *Service) ListByProperty(ctx context.Context, propertyID string) ([]domain.Request, error) {
	return s.requests.ListByProperty(ctx, propertyID)
}

func (s *Service) ListOpen(ctx context.Context, orgID string) ([]domain.Request, error) {
	return s.requests.ListOpenByOrg(ctx, orgID)
}

func (s *Service) notify(ctx context.Context, content string) {
	if s.channel == nil {
		return
	}
	if err := s.channel.Send(ctx, content); err != nil {
		s.logger.Printf("maintenance: webhook notify failed: %v", err)
	}
}

func (s *Service) publish(ctx context.Context, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Printf("maintenance: publish event failed: %v", err)
	}
}

func newID(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return prefix + "-" + hex.EncodeToString([]byte(time.Now().UTC().Format("20060102150405")))
	}
	return prefix + "-" + hex.EncodeToString(buf)
}
