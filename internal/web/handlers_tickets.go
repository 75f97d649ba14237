package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/gridview/internal/tickets"
)

// maxBodySize caps ticket API request bodies.
const maxBodySize = 1 << 20

// ticketList is the body of GET /api/tickets.
type ticketList struct {
	Data   []tickets.Ticket `json:"data"`
	Counts map[string]int   `json:"counts"`
}

// statusUpdate is the body of PATCH /api/tickets/{id}.
type statusUpdate struct {
	Status string `json:"status"`
}

func (s *Server) ticketService(w http.ResponseWriter, r *http.Request) (*tickets.Service, bool) {
	if s.tickets == nil {
		s.respondError(w, r, errors.New("unknown view: tickets"), http.StatusNotFound)
		return nil, false
	}
	return s.tickets, true
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.ticketService(w, r)
	if !ok {
		return
	}
	writeJSON(w, ticketList{Data: svc.Tickets(), Counts: svc.Counts()})
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.ticketService(w, r)
	if !ok {
		return
	}
	id, err := ticketID(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	t, err := svc.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, ticketErrorStatus(err))
		return
	}
	writeJSON(w, t)
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.ticketService(w, r)
	if !ok {
		return
	}
	var in tickets.NewTicket
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	t, err := svc.Create(WithRequestMetadata(r.Context(), r), in)
	if err != nil {
		s.respondError(w, r, err, ticketErrorStatus(err))
		return
	}
	w.Header().Set("Location", "/api/tickets/"+strconv.Itoa(t.ID))
	writeJSONStatus(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.ticketService(w, r)
	if !ok {
		return
	}
	id, err := ticketID(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	var in statusUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	t, err := svc.UpdateStatus(WithRequestMetadata(r.Context(), r), id, in.Status)
	if err != nil {
		s.respondError(w, r, err, ticketErrorStatus(err))
		return
	}
	writeJSON(w, t)
}

func ticketID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("bad ticket id %q", raw)
	}
	return id, nil
}

// ticketErrorStatus maps service errors to HTTP status codes.
func ticketErrorStatus(err error) int {
	switch {
	case errors.Is(err, tickets.ErrNotFound):
		return http.StatusNotFound
	case strings.Contains(err.Error(), "invalid ticket"), strings.Contains(err.Error(), "invalid status"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads one JSON object with unknown fields rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
