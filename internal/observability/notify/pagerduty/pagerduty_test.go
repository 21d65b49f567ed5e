package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danxi/authgate/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when routing key missing")
	}
}

func TestBuildEventDefaults(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key", Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := client.buildEvent(notify.PortalAnomalyPayload{
		Kind:          notify.KindUnclassifiedResponse,
		MarkerVersion: "uis-2024",
		StatusCode:    200,
		Metadata:      map[string]string{"kind": "ignored", "group": "fudan_staff"},
	})

	if event["dedup_key"] != "portal:unclassified_response:uis-2024" {
		t.Fatalf("unexpected dedup key %v", event["dedup_key"])
	}
	section, ok := event["payload"].(map[string]any)
	if !ok {
		t.Fatalf("expected payload section")
	}
	if section["severity"] != notify.SeverityCritical {
		t.Fatalf("expected default severity, got %v", section["severity"])
	}
	if section["source"] != "authgate" || section["component"] != "authgate" {
		t.Fatalf("expected default source/component, got %v/%v", section["source"], section["component"])
	}

	custom, ok := section["custom_details"].(map[string]any)
	if !ok {
		t.Fatalf("expected custom details")
	}
	if custom["kind"] != notify.KindUnclassifiedResponse {
		t.Fatalf("metadata must not override canonical fields, got %v", custom["kind"])
	}
	if custom["group"] != "fudan_staff" {
		t.Fatalf("expected metadata merged, got %v", custom["group"])
	}
}

func TestSendPortalAnomalyPostsToEndpoint(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = client.SendPortalAnomaly(context.Background(), notify.PortalAnomalyPayload{
		Kind:     notify.KindMaintenance,
		Severity: "WARNING",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["routing_key"] != "rk" || got["event_action"] != "trigger" {
		t.Fatalf("unexpected event: %v", got)
	}
	section, _ := got["payload"].(map[string]any)
	if section["severity"] != notify.SeverityWarning {
		t.Fatalf("expected lower-cased severity, got %v", section["severity"])
	}
}

func TestSendPortalAnomalyErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid routing key", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.SendPortalAnomaly(context.Background(), notify.PortalAnomalyPayload{}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
