package application

import (
	"context"
	"testing"

	"rentledger/internal/maintenance/domain"
)

type stubRequestRepo struct {
	byID map[string]*domain.Request
}

func (s *stubRequestRepo) Get(_ context.Context, id string) (*domain.Request, error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *stubRequestRepo) ListByProperty(_ context.Context, propertyID string) ([]domain.Request, error) {
	var out []domain.Request
	for _, r := range s.byID {
		if r.PropertyID == propertyID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubRequestRepo) ListOpenByOrg(_ context.Context, orgID string) ([]domain.Request, error) {
	var out []domain.Request
	for _, r := range s.byID {
		if r.OrgID == orgID && (r.Status == domain.StatusOpen || r.Status == domain.StatusInProgress) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubRequestRepo) Save(_ context.Context, r *domain.Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	cp := *r
	s.byID[r.ID] = &cp
	return nil
}

type stubChannel struct {
	sent []string
}

func (s *stubChannel) Send(_ context.Context, content string) error {
	s.sent = append(s.sent, content)
	return nil
}

type capturingPublisher struct {
	events []any
}

func (p *capturingPublisher) Publish(_ context.Context, event any) error {
	p.events = append(p.events, event)
	return nil
}

func TestFileNotifiesAndPublishes(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*domain.Request{}}
	channel := &stubChannel{}
	pub := &capturingPublisher{}
	svc, err := NewService(repo, channel, pub, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	req, err := svc.File(context.Background(), "org-1", FileRequestInput{
		PropertyID: "prop-1",
		UnitID:     "unit-1",
		Title:      "Burst pipe in kitchen",
		Priority:   domain.PriorityUrgent,
	})
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if req.Status != domain.StatusOpen {
		t.Fatalf("status = %q, want open", req.Status)
	}
	if len(channel.sent) != 1 {
		t.Fatalf("notifications sent = %d, want 1", len(channel.sent))
	}
	if len(pub.events) != 1 {
		t.Fatalf("events = %d, want 1", len(pub.events))
	}
	if _, ok := pub.events[0].(RequestFiled); !ok {
		t.Fatalf("event type = %T, want RequestFiled", pub.events[0])
	}
}

func TestFileDefaultsPriority(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*domain.Request{}}
	svc, err := NewService(repo, nil, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	req, err := svc.File(context.Background(), "org-1", FileRequestInput{PropertyID: "prop-1", Title: "Leaky tap"})
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if req.Priority != domain.PriorityNormal {
		t.Fatalf("priority = %q, want normal", req.Priority)
	}
}

func TestUpdateStatusResolvedNotifies(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*domain.Request{}}
	channel := &stubChannel{}
	svc, err := NewService(repo, channel, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	repo.byID["mreq-1"] = &domain.Request{
		ID: "mreq-1", OrgID: "org-1", PropertyID: "prop-1", Title: "Leaky tap",
		Priority: domain.PriorityNormal, Status: domain.StatusInProgress,
	}

	req, err := svc.UpdateStatus(context.Background(), "mreq-1", domain.StatusResolved)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if req.ResolvedAt == nil {
		t.Fatal("resolved_at not set")
	}
	if len(channel.sent) != 1 {
		t.Fatalf("notifications sent = %d, want 1", len(channel.sent))
	}
}

func TestUpdateStatusClosedIsFinal(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*domain.Request{}}
	svc, err := NewService(repo, nil, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	repo.byID["mreq-1"] = &domain.Request{
		ID: "mreq-1", OrgID: "org-1", PropertyID: "prop-1", Title: "Leaky tap",
		Priority: domain.PriorityNormal, Status: domain.StatusClosed,
	}

	if _, err := svc.UpdateStatus(context.Background(), "mreq-1", domain.StatusOpen); err != domain.ErrInvalidTransition {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}
