package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/castforge-project/castforge/release"
	"github.com/castforge-project/castforge/release/meta"
	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// errorType is the machine-readable kind of an API error.
type errorType string

const (
	errorTypeBadRequest    errorType = "bad_request"
	errorTypeNotFound      errorType = "not_found"
	errorTypeInternalError errorType = "internal_error"
)

// handleDescribe assembles and renders a description for a release name or directory.
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var req release.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errorTypeBadRequest, err.Error())
		return
	}
	if req.Name == "" && req.Path == "" {
		s.writeError(w, http.StatusBadRequest, errorTypeBadRequest, "either name or path is required")
		return
	}

	result, err := s.describer.Describe(r.Context(), &req)
	if err != nil {
		s.writeDescribeError(w, err)
		return
	}

	s.writeJSON(w, result)
}

// handleRender renders a caller-assembled metadata bundle.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var bundle meta.Bundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		s.writeError(w, http.StatusBadRequest, errorTypeBadRequest, err.Error())
		return
	}

	result, err := s.describer.Render(&bundle)
	if err != nil {
		s.writeDescribeError(w, err)
		return
	}

	s.writeJSON(w, result)
}

// releaseListing is one entry of the release listing endpoint.
type releaseListing struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) handleReleases(w http.ResponseWriter, _ *http.Request) {
	listings := make([]releaseListing, 0)
	if s.store != nil {
		for _, id := range s.store.IDs() {
			if snap := s.store.Get(id); snap != nil {
				listings = append(listings, releaseListing{ID: id, Name: snap.Name, UpdatedAt: snap.UpdatedAt})
			}
		}
	}

	s.writeJSON(w, listings)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, errorTypeNotFound, "release "+id+" not found")
		return
	}

	snap := s.store.Get(id)
	if snap == nil {
		s.writeError(w, http.StatusNotFound, errorTypeNotFound, "release "+id+" not found")
		return
	}

	s.writeJSON(w, snap)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// writeDescribeError maps describer errors onto API error responses.
func (s *Server) writeDescribeError(w http.ResponseWriter, err error) {
	var invalidErr *meta.ErrInvalidField
	if errors.As(err, &invalidErr) {
		s.writeError(w, http.StatusBadRequest, errorTypeBadRequest, invalidErr.Error())
		return
	}

	s.logger.Error("failed to describe release", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, errorTypeInternalError, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to serialize response", zap.Error(err))
	}
}

// writeError writes an API error object.
func (s *Server) writeError(w http.ResponseWriter, status int, type_ errorType, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	e := jx.GetEncoder()
	e.ObjStart()
	e.FieldStart("type")
	e.StrEscape(string(type_))
	e.FieldStart("description")
	e.StrEscape(description)
	e.ObjEnd()

	_, _ = w.Write(e.Bytes())
}
