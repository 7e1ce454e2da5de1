package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/parsa-hm/lectern/internal/tools"
)

type fakeAssistant struct {
	answer    string
	sources   []tools.Source
	err       error
	gotQuery  string
	gotSessID string
	titles    []string
}

func (f *fakeAssistant) Answer(ctx context.Context, query, sessionID string) (string, []tools.Source, error) {
	f.gotQuery = query
	f.gotSessID = sessionID
	return f.answer, f.sources, f.err
}

func (f *fakeAssistant) CourseStats() (int, []string) {
	return len(f.titles), f.titles
}

func doRequest(t *testing.T, assistant Assistant, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h := &QueryHandler{Assistant: assistant}
	h.Register(e.Group("/api"))

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestQueryEndpoint(t *testing.T) {
	assistant := &fakeAssistant{
		answer:  "Variables hold values.",
		sources: []tools.Source{{Text: "Go Fundamentals - Lesson 1", URL: "https://example.com/go/1"}},
	}

	rec := doRequest(t, assistant, http.MethodPost, "/api/query",
		`{"query":"what are variables?","session_id":"s1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Answer    string         `json:"answer"`
		Sources   []tools.Source `json:"sources"`
		SessionID string         `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Answer != "Variables hold values." || resp.SessionID != "s1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].URL != "https://example.com/go/1" {
		t.Fatalf("unexpected sources %+v", resp.Sources)
	}
	if assistant.gotQuery != "what are variables?" || assistant.gotSessID != "s1" {
		t.Fatalf("assistant received %q / %q", assistant.gotQuery, assistant.gotSessID)
	}
}

func TestQueryEndpointMintsSessionID(t *testing.T) {
	assistant := &fakeAssistant{answer: "hi"}

	rec := doRequest(t, assistant, http.MethodPost, "/api/query", `{"query":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SessionID string         `json:"session_id"`
		Sources   []tools.Source `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatalf("server must mint a session id when none is given")
	}
	if resp.SessionID != assistant.gotSessID {
		t.Fatalf("minted id %q not forwarded to the assistant (%q)", resp.SessionID, assistant.gotSessID)
	}
	if resp.Sources == nil {
		t.Fatalf("sources must serialize as an empty array, not null")
	}
}

func TestQueryEndpointRejectsEmptyQuery(t *testing.T) {
	rec := doRequest(t, &fakeAssistant{}, http.MethodPost, "/api/query", `{"query":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestQueryEndpointAssistantFailure(t *testing.T) {
	rec := doRequest(t, &fakeAssistant{err: errors.New("api down")},
		http.MethodPost, "/api/query", `{"query":"q"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestCoursesEndpoint(t *testing.T) {
	assistant := &fakeAssistant{titles: []string{"Go Fundamentals", "Advanced Python Programming"}}

	rec := doRequest(t, assistant, http.MethodGet, "/api/courses", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		TotalCourses int      `json:"total_courses"`
		CourseTitles []string `json:"course_titles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.TotalCourses != 2 || len(resp.CourseTitles) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
}
