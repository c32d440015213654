package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"revscore/internal/domain"
)

// Analyser produces the report for one product URL.
type Analyser interface {
	Analyse(ctx context.Context, url string) (domain.Report, error)
}

type Handlers struct{ A Analyser }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type analyseRequest struct {
	URL string `json:"url"`
}

const maxBodyBytes = 64 << 10

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"health":"ok"}`))
	})
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Group(func(r chi.Router) {
		r.Use(s.limit)
		r.Post("/v1/analyse", h.analyse)
		r.Post("/analyse", h.analyse)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body, nil
}

func (h *Handlers) analyse(w http.ResponseWriter, r *http.Request) {
	var req analyseRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", `expected {"url": "..."}`)
		return
	}
	if req.URL == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "url is required")
		return
	}

	rep, err := h.A.Analyse(r.Context(), req.URL)
	switch {
	case errors.Is(err, domain.ErrInvalidTarget):
		writeProblem(w, http.StatusBadRequest, "Invalid URL", err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		writeProblem(w, http.StatusGatewayTimeout, "Timeout", "analysis did not finish in time")
		return
	case err != nil:
		log.Error().Err(err).Str("url", req.URL).Msg("analyse failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "analysis failed")
		return
	}

	etag, body, err := calcETagAndBody(rep)
	if err != nil {
		log.Error().Err(err).Str("url", req.URL).Msg("failed to marshal report")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "report could not be encoded")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write analyse body")
	}
}
