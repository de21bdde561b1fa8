package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/roach88/codetrail/internal/progress"
)

// LearnerHeader carries the caller's learner id on API requests. A
// request without it is anonymous.
const LearnerHeader = "X-Learner-ID"

const maxRequestBody = 1 << 20

// LearnerCreator registers new learners. Implemented by *progress.Store.
type LearnerCreator interface {
	CreateLearner(ctx context.Context, l progress.Learner) error
}

// IDGenerator mints learner ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator mints random UUID learner ids.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// FixedIDGenerator returns ids from a fixed list, for tests.
type FixedIDGenerator struct {
	IDs  []string
	next int
}

// NewID implements IDGenerator.
func (g *FixedIDGenerator) NewID() string {
	id := g.IDs[g.next%len(g.IDs)]
	g.next++
	return id
}

// Server exposes the operation surface over HTTP.
//
// POST /api/register creates a learner and returns its id. POST
// /api/{op} dispatches an operation for the learner named by the
// request header; every operation response is 200 with the structured
// result, including structured errors.
type Server struct {
	api      *API
	learners LearnerCreator
	ids      IDGenerator
	mux      *http.ServeMux
}

// NewServer wires the HTTP surface around a dispatcher.
func NewServer(a *API, learners LearnerCreator, ids IDGenerator) *Server {
	s := &Server{
		api:      a,
		learners: learners,
		ids:      ids,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /api/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/{op}", s.handleOp)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorValue(NewCallerError("malformed request body: %v", err), nil))
		return
	}

	id := s.ids.NewID()
	if err := s.learners.CreateLearner(r.Context(), progress.Learner{ID: id, Email: body.Email}); err != nil {
		slog.Error("learner registration failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]any{"kind": "internal", "traceback": ""},
		})
		return
	}

	w.Header().Set(LearnerHeader, id)
	writeJSON(w, http.StatusOK, map[string]any{"learner_id": id})
}

func (s *Server) handleOp(w http.ResponseWriter, r *http.Request) {
	var args map[string]any
	if err := decodeBody(r, &args); err != nil {
		writeJSON(w, http.StatusBadRequest, errorValue(NewCallerError("malformed request body: %v", err), nil))
		return
	}

	learnerID := r.Header.Get(LearnerHeader)
	result := s.api.Dispatch(r.Context(), learnerID, r.PathValue("op"), args)
	writeJSON(w, http.StatusOK, result)
}

// decodeBody parses an optional JSON body. An empty body is valid and
// leaves the destination untouched.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encoding failed", "error", err)
	}
}
