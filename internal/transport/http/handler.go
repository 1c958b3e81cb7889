package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Astitva-Bhardwaj/Video-Call/internal/domain"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/service"
	httpmw "github.com/Astitva-Bhardwaj/Video-Call/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	meetingSvc *service.MeetingService
	gate       *service.Gatekeeper
}

func NewHandler(meetingSvc *service.MeetingService, gate *service.Gatekeeper) *Handler {
	return &Handler{meetingSvc: meetingSvc, gate: gate}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func mapMeeting(m *domain.Meeting) MeetingItem {
	roster := make([]string, 0, len(m.Roster))
	for _, id := range m.Roster {
		roster = append(roster, strconv.FormatInt(id, 10))
	}
	return MeetingItem{
		MeetingID: m.ID,
		CreatorID: strconv.FormatInt(m.CreatorID, 10),
		Status:    string(m.Status),
		Roster:    roster,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// POST /api/meetings
func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == 0 {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	m, err := h.meetingSvc.CreateMeeting(r.Context(), userID)
	if err != nil {
		slog.Error("handler.CreateMeeting:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "error creating meeting"})
		return
	}

	writeJSON(w, http.StatusCreated, CreateMeetingResponse{MeetingID: m.ID})
}

// GET /api/meetings/{id}
func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := h.meetingSvc.GetMeeting(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrMeetingNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "meeting not found"})
			return
		}
		slog.Error("handler.GetMeeting:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "error fetching meeting"})
		return
	}

	writeJSON(w, http.StatusOK, mapMeeting(m))
}

// POST /api/meetings/{id}/end
func (h *Handler) EndMeeting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == 0 {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	m, err := h.gate.AttemptEnd(r.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMeetingNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "meeting not found"})
		case errors.Is(err, domain.ErrForbidden):
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "only the creator may end the meeting"})
		default:
			slog.Error("handler.EndMeeting:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "error ending meeting"})
		}
		return
	}

	writeJSON(w, http.StatusOK, mapMeeting(m))
}
