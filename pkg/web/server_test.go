package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cyclopsvision/go-mentor/pkg/guidance"
	"github.com/cyclopsvision/go-mentor/pkg/procedure"
	"github.com/cyclopsvision/go-mentor/pkg/verify"
)

func newTestDashboard(t *testing.T) (*Server, *guidance.Engine, *procedure.Procedure) {
	t.Helper()

	proc := procedure.New("Assemble the chair", []procedure.Step{
		{ID: 1, Title: "Attach the legs"},
		{ID: 2, Title: "Mount the backrest"},
		{ID: 3, Title: "Tighten all screws"},
	})

	engine := guidance.New(verify.NewMock(), guidance.DefaultConfig())
	if err := engine.Configure(proc); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	t.Cleanup(engine.Reset)

	return NewServer(":0", engine, proc), engine, proc
}

func getJSON[T any](t *testing.T, s *Server, path string) T {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", path, resp.StatusCode)
	}
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return v
}

func TestStatusEndpoint(t *testing.T) {
	s, _, _ := newTestDashboard(t)

	snap := getJSON[map[string]any](t, s, "/api/status")
	if snap["state"] != "monitoring" {
		t.Errorf("state = %v", snap["state"])
	}
	if snap["total_steps"] != float64(3) || snap["step_index"] != float64(0) {
		t.Errorf("snapshot = %v", snap)
	}
}

func TestStepsEndpoint(t *testing.T) {
	s, engine, _ := newTestDashboard(t)
	engine.ManualAdvance()

	resp := getJSON[struct {
		Title string `json:"title"`
		Steps []struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"steps"`
	}](t, s, "/api/steps")

	if resp.Title != "Assemble the chair" || len(resp.Steps) != 3 {
		t.Fatalf("steps = %+v", resp)
	}
	want := []string{"done", "active", "pending"}
	for i, st := range resp.Steps {
		if st.Status != want[i] {
			t.Errorf("step %d status = %q, want %q", i, st.Status, want[i])
		}
	}
}

func TestAdvanceEndpoint(t *testing.T) {
	s, engine, _ := newTestDashboard(t)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodPost, "/api/advance", nil))
	if err != nil {
		t.Fatalf("POST /api/advance: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if snap := engine.Status(); snap.StepIndex != 1 {
		t.Errorf("step index = %d, want 1", snap.StepIndex)
	}
}

func TestMistakeEndpoint(t *testing.T) {
	s, engine, _ := newTestDashboard(t)

	body, _ := json.Marshal(map[string]string{"reason": "screws in the wrong holes"})
	req := httptest.NewRequest(http.MethodPost, "/api/mistake", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("POST /api/mistake: %v", err)
	}
	resp.Body.Close()

	snap := engine.Status()
	if snap.State != guidance.StateMistake || snap.MistakeReason != "screws in the wrong holes" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestLogEndpoint(t *testing.T) {
	s, _, _ := newTestDashboard(t)

	s.AddLog("info", "session started")
	s.AddLog("step", "step 1 complete")

	logs := getJSON[[]LogEntry](t, s, "/api/log")
	if len(logs) != 2 {
		t.Fatalf("logs = %d entries, want 2", len(logs))
	}
	if logs[0].Type != "info" || logs[1].Message != "step 1 complete" {
		t.Errorf("logs = %+v", logs)
	}
}
