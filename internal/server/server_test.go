package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/distrobmj-cmd/julianarbitraje/internal/rate"
	"github.com/distrobmj-cmd/julianarbitraje/internal/service"
)

type stubState struct {
	snap service.Snapshot
}

func (s *stubState) Snapshot() service.Snapshot { return s.snap }

func activeState() *stubState {
	return &stubState{snap: service.Snapshot{
		HasRate: true,
		Rate: rate.Reading{
			Value:         decimal.RequireFromString("4000.71"),
			EffectiveDate: "2026-08-29",
		},
		Threshold:     decimal.RequireFromString("3920.70"),
		InstantAlerts: 3,
		Digests:       7,
		Cycles:        42,
		NextRefreshIn: 25 * time.Minute,
		NextDigestIn:  12 * time.Minute,
		LastCycleAt:   time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}}
}

func TestStatusEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	status(activeState())(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["status"] != "active" {
		t.Fatalf("status = %v", payload["status"])
	}
	if payload["trm_actual"] != "4000.71" {
		t.Fatalf("trm_actual = %v", payload["trm_actual"])
	}
	if payload["fecha_trm"] != "2026-08-29" {
		t.Fatalf("fecha_trm = %v", payload["fecha_trm"])
	}
	if payload["umbral_alerta"] != "3920.7" {
		t.Fatalf("umbral_alerta = %v", payload["umbral_alerta"])
	}
	if payload["alertas_instantaneas"] != float64(3) {
		t.Fatalf("alertas_instantaneas = %v", payload["alertas_instantaneas"])
	}
	if payload["proxima_actualizacion_trm_min"] != float64(25) {
		t.Fatalf("proxima_actualizacion_trm_min = %v", payload["proxima_actualizacion_trm_min"])
	}
}

func TestStatusEndpointWithoutRate(t *testing.T) {
	rec := httptest.NewRecorder()
	status(&stubState{})(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if v, present := payload["trm_actual"]; !present || v != nil {
		t.Fatalf("trm_actual should be present and null, got %v (present=%v)", v, present)
	}
}

func TestHomePage(t *testing.T) {
	rec := httptest.NewRecorder()
	home(activeState())(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "ACTIVO") {
		t.Fatalf("home page should announce the bot is active: %s", body)
	}
	if !strings.Contains(body, "4000.71 COP") {
		t.Fatalf("home page should show the reference rate: %s", body)
	}
	if !strings.Contains(body, "3920.70 COP") {
		t.Fatalf("home page should show the alert threshold: %s", body)
	}
}

func TestHomePageWithoutRate(t *testing.T) {
	rec := httptest.NewRecorder()
	home(&stubState{})(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Body.String(), "sin datos") {
		t.Fatalf("home page should show the missing-rate placeholder: %s", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	health()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Fatalf("body = %s", got)
	}
}
