package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rentledger/internal/maintenance/domain"
)

func TestWebhookChannelSend(t *testing.T) {
	var received webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	channel, err := NewWebhookChannel(srv.URL, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := channel.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if received.MsgType != "text" || received.Text.Content != "hello" {
		t.Fatalf("unexpected payload: %+v", received)
	}
}

func TestWebhookChannelNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	channel, err := NewWebhookChannel(srv.URL, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := channel.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestRenderFiledIncludesPriorityAndUnit(t *testing.T) {
	req := &domain.Request{
		ID: "mreq-1", OrgID: "org-1", PropertyID: "prop-1", UnitID: "unit-3",
		Title: "Broken gate", Priority: domain.PriorityUrgent, Status: domain.StatusOpen,
	}

	content := RenderFiled(req)
	for _, want := range []string{"prop-1", "unit-3", "urgent", "Broken gate"} {
		if !strings.Contains(content, want) {
			t.Fatalf("rendered content missing %q: %s", want, content)
		}
	}
}
