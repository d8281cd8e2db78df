package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestSolver(t *testing.T, serverURL string) *TwoCaptcha {
	t.Helper()
	s, err := NewTwoCaptcha(TwoCaptchaConfig{
		APIKey:       "key-1",
		BaseURL:      serverURL,
		PollAttempts: 3,
		PollDelay:    time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewTwoCaptcha: %v", err)
	}
	return s
}

func TestSolve_ReadyAfterPolling(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/createTask":
			json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "taskId": 7001})
		case "/getTaskResult":
			polls++
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			// taskId уходит на сервис числом, не строкой.
			if id, ok := body["taskId"].(float64); !ok || id != 7001 {
				t.Errorf("poll taskId = %v (%T), want numeric 7001", body["taskId"], body["taskId"])
			}
			if polls < 2 {
				json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "status": "processing"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"errorId":  0,
				"status":   "ready",
				"solution": map[string]string{"text": "aB3kZ9"},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	s := newTestSolver(t, server.URL)
	sol, err := s.Solve(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sol.Solved {
		t.Fatalf("expected solved, got %+v", sol)
	}
	if sol.Answer != "aB3kZ9" {
		t.Errorf("answer = %q", sol.Answer)
	}
	if sol.TaskID != "7001" {
		t.Errorf("task id = %q, want 7001", sol.TaskID)
	}
	if polls != 2 {
		t.Errorf("polls = %d, want 2", polls)
	}
}

func TestSolve_CreateTaskError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errorId":          1,
			"errorDescription": "ERROR_KEY_DOES_NOT_EXIST",
		})
	}))
	defer server.Close()

	s := newTestSolver(t, server.URL)
	sol, err := s.Solve(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Solved {
		t.Error("expected unsolved")
	}
	if sol.Answer != "ERROR_KEY_DOES_NOT_EXIST" {
		t.Errorf("answer should carry the service message, got %q", sol.Answer)
	}
}

func TestSolve_PollBudgetExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/createTask":
			json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "taskId": 7002})
		case "/getTaskResult":
			json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "status": "processing"})
		}
	}))
	defer server.Close()

	s := newTestSolver(t, server.URL)
	sol, err := s.Solve(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sol.Solved {
		t.Error("expected unsolved after poll budget")
	}
	// TaskID сохраняется — по таймауту всё ещё можно пожаловаться.
	if sol.TaskID != "7002" {
		t.Errorf("task id = %q, want 7002", sol.TaskID)
	}
}

func TestReportBad(t *testing.T) {
	var reported any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reportIncorrect" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		reported = body["taskId"]
		json.NewEncoder(w).Encode(map[string]any{"errorId": 0})
	}))
	defer server.Close()

	s := newTestSolver(t, server.URL)
	if err := s.ReportBad(context.Background(), "7001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Сервис принимает числовой taskId.
	if id, ok := reported.(float64); !ok || id != 7001 {
		t.Errorf("reported task id = %v (%T), want numeric 7001", reported, reported)
	}
}

func TestReportBad_NonNumericTaskID(t *testing.T) {
	s := newTestSolver(t, "http://127.0.0.1:0")
	if err := s.ReportBad(context.Background(), "not-a-number"); err == nil {
		t.Fatal("expected error for non-numeric task id")
	}
}
