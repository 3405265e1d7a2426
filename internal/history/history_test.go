package history

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStore_AddAndRecent_NewestFirst(t *testing.T) {
	s, err := NewStore(10)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for i := 0; i < 3; i++ {
		s.Add(Entry{ID: fmt.Sprintf("id-%d", i), Prompt: fmt.Sprintf("p%d", i), FinishedAt: time.Now()})
	}

	got := s.Recent(0)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].ID != "id-2" || got[2].ID != "id-0" {
		t.Fatalf("entries should be newest first: %+v", got)
	}
}

func TestStore_Recent_Limit(t *testing.T) {
	s, _ := NewStore(10)
	for i := 0; i < 5; i++ {
		s.Add(Entry{ID: fmt.Sprintf("id-%d", i)})
	}
	got := s.Recent(2)
	if len(got) != 2 || got[0].ID != "id-4" {
		t.Fatalf("unexpected limited result: %+v", got)
	}
}

func TestStore_EvictsOldEntries(t *testing.T) {
	s, _ := NewStore(2)
	for i := 0; i < 5; i++ {
		s.Add(Entry{ID: fmt.Sprintf("id-%d", i)})
	}
	got := s.Recent(0)
	if len(got) != 2 {
		t.Fatalf("expected capacity 2, got %d entries", len(got))
	}
	if got[0].ID != "id-4" || got[1].ID != "id-3" {
		t.Fatalf("expected the two newest entries, got: %+v", got)
	}
}

func TestStore_UpdateSameID(t *testing.T) {
	s, _ := NewStore(10)
	s.Add(Entry{ID: "a", Status: "failed"})
	s.Add(Entry{ID: "a", Status: "completed"})

	got := s.Recent(0)
	if len(got) != 1 {
		t.Fatalf("duplicate id should not duplicate entries: %+v", got)
	}
	if got[0].Status != "completed" {
		t.Fatalf("update should win: %+v", got[0])
	}
}

func TestHandler(t *testing.T) {
	s, _ := NewStore(10)
	s.Add(Entry{ID: "a", Prompt: "make a thing", Status: "completed"})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	s.Handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body struct {
		History []Entry `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.History) != 1 || body.History[0].ID != "a" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	s, _ := NewStore(10)
	req := httptest.NewRequest(http.MethodPost, "/api/history", nil)
	rec := httptest.NewRecorder()
	s.Handler(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
