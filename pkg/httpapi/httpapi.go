// Package httpapi exposes the question gate over HTTP.
//
// Routes:
//
//	POST /ask     {"question": "..."} -> {"outcome": "...", "text": "..."}
//	GET  /health  {"status": "ok"}
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/germanamz/physbot/pkg/engine"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds the size of an /ask request body.
const maxBodyBytes = 64 << 10

// Handler answers one raw question. *engine.Engine satisfies it.
type Handler interface {
	Handle(ctx context.Context, raw string) engine.Reply
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Outcome engine.Outcome `json:"outcome"`
	Text    string         `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type server struct {
	log *slog.Logger
	h   Handler
}

// NewRouter returns the HTTP handler for h. A nil log discards all records.
func NewRouter(h Handler, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := &server{log: log, h: h}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/ask", s.handleAsk)

	return r
}

// NewServer wraps NewRouter in an *http.Server listening on addr.
func NewServer(addr string, h Handler, log *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(h, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest

	if err := decodeAsk(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	reply := s.h.Handle(r.Context(), req.Question)

	s.log.InfoContext(r.Context(), "ask handled",
		"req_id", middleware.GetReqID(r.Context()),
		"outcome", reply.Outcome,
	)

	writeJSON(w, statusFor(reply.Outcome), askResponse{Outcome: reply.Outcome, Text: reply.Text})
}

// decodeAsk reads exactly one JSON object with no unknown fields. An empty
// body leaves req zero, which Handle treats as an empty question.
func decodeAsk(body io.Reader, req *askRequest) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after request body")
	}

	return nil
}

func statusFor(o engine.Outcome) int {
	switch o {
	case engine.OutcomeEmpty:
		return http.StatusBadRequest
	case engine.OutcomeFailed:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
