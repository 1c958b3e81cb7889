package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/memory"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/registry"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/room"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/service"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/transport/ws"
)

type stubVerifier map[string]int64

func (s stubVerifier) VerifyAccessToken(token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("unknown token")
}

func newTestRouter(t *testing.T) (http.Handler, *memory.MeetingStore) {
	t.Helper()

	reg := registry.NewRegistry()
	rooms := room.NewTable(reg, 10)
	store := memory.NewMeetingStore()
	hub := ws.NewHub()
	relay := ws.NewRelay(reg, hub)
	gate := service.NewGatekeeper(store, rooms, hub)
	meetingSvc := service.NewMeetingService(store)

	verifier := stubVerifier{"alice": 1, "bob": 2}
	wsServer := ws.NewServer(hub, reg, rooms, gate, relay, verifier)
	handler := NewHandler(meetingSvc, gate)

	return NewRouter(handler, wsServer, verifier, nil), store
}

func doReq(t *testing.T, router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(""))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateMeeting(t *testing.T) {
	router, store := newTestRouter(t)

	rec := doReq(t, router, http.MethodPost, "/api/meetings", "alice")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var resp CreateMeetingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MeetingID == "" {
		t.Fatal("empty meeting id")
	}

	m, err := store.Get(context.Background(), resp.MeetingID)
	if err != nil {
		t.Fatalf("meeting not stored: %v", err)
	}
	if m.CreatorID != 1 || m.Status != domain.StatusWaiting {
		t.Fatalf("meeting = %+v", m)
	}
}

func TestCreateMeetingUnauthorized(t *testing.T) {
	router, _ := newTestRouter(t)

	if rec := doReq(t, router, http.MethodPost, "/api/meetings", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status=%d", rec.Code)
	}
	if rec := doReq(t, router, http.MethodPost, "/api/meetings", "stranger"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status=%d", rec.Code)
	}
}

func TestGetMeeting(t *testing.T) {
	router, store := newTestRouter(t)
	m, _ := store.Create(context.Background(), 1)

	rec := doReq(t, router, http.MethodGet, "/api/meetings/"+m.ID, "bob")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var item MeetingItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.MeetingID != m.ID || item.Status != "waiting" || item.CreatorID != "1" {
		t.Fatalf("item = %+v", item)
	}

	if rec := doReq(t, router, http.MethodGet, "/api/meetings/nope", "bob"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown meeting: status=%d", rec.Code)
	}
}

func TestEndMeeting(t *testing.T) {
	router, store := newTestRouter(t)
	m, _ := store.Create(context.Background(), 1)

	// не создатель
	rec := doReq(t, router, http.MethodPost, "/api/meetings/"+m.ID+"/end", "bob")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-creator end: status=%d", rec.Code)
	}

	rec = doReq(t, router, http.MethodPost, "/api/meetings/"+m.ID+"/end", "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("creator end: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var item MeetingItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.Status != "ended" {
		t.Fatalf("status=%s", item.Status)
	}

	// повторный end идемпотентен
	if rec := doReq(t, router, http.MethodPost, "/api/meetings/"+m.ID+"/end", "alice"); rec.Code != http.StatusOK {
		t.Fatalf("repeat end: status=%d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	if rec := doReq(t, router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}
