package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pbaille/fine/internal/aggregate"
	"github.com/pbaille/fine/internal/domain"
	"github.com/pbaille/fine/internal/service"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ListEvents(r.Context()))
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req service.CreateEventInput
	if !s.decode(w, r, &req) {
		return
	}

	event, err := s.svc.CreateEvent(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) calendar(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	year, month := now.Year(), now.Month()
	if m := r.URL.Query().Get("month"); m != "" {
		var err error
		if year, month, err = aggregate.ParseMonth(m); err != nil {
			s.handleError(w, r, domain.NewValidationError("month", "must be YYYY-MM"))
			return
		}
	}
	writeJSON(w, http.StatusOK, s.svc.Calendar(r.Context(), year, month))
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	writeJSON(w, http.StatusOK, s.svc.ListPostSummaries(r.Context(), category))
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePostInput
	if !s.decode(w, r, &req) {
		return
	}

	post, err := s.svc.CreatePost(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.svc.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCommentInput
	if !s.decode(w, r, &req) {
		return
	}

	comment, err := s.svc.AddComment(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) profileStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.ProfileStats(r.Context(), r.URL.Query().Get("author"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) getAllocation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Allocation(r.Context()))
}

// SetAllocationRequest is the request body for PUT /allocation
type SetAllocationRequest struct {
	Values map[string]int `json:"values"`
}

func (s *Server) setAllocation(w http.ResponseWriter, r *http.Request) {
	var req SetAllocationRequest
	if !s.decode(w, r, &req) {
		return
	}

	totals, err := s.svc.SetAllocationValues(r.Context(), req.Values)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// decode reads a JSON body into v, answering 400 itself on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

// handleError maps service errors onto status codes. Anything that is not a
// validation or lookup failure is logged and hidden behind a 500.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: verr.Error(), Fields: verr.Errors})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}
