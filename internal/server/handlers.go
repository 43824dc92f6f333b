package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/hyperifyio/askpage/internal/answer"
	"github.com/hyperifyio/askpage/internal/app"
	"github.com/hyperifyio/askpage/internal/extract"
	"github.com/hyperifyio/askpage/internal/features"
	"github.com/hyperifyio/askpage/internal/fetch"
	"github.com/hyperifyio/askpage/internal/store"
)

const maxBodyBytes = 16 << 20

type askRequest struct {
	Message string   `json:"message"`
	Models  []string `json:"models,omitempty"`
}

type captureResponse struct {
	Success      bool                 `json:"success"`
	ContextSaved bool                 `json:"contextSaved"`
	SelectionID  string               `json:"selectionId"`
	Context      *extract.PageContext `json:"context"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": app.BuildVersion})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Settings(r.Context())
	if err != nil {
		jsonError(w, "failed to load settings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var st store.Settings
	if !decode(w, r, &st) {
		return
	}
	if err := s.svc.SaveSettings(r.Context(), st); err != nil {
		jsonError(w, "failed to save settings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	saved, err := s.svc.Settings(r.Context())
	if err != nil {
		jsonError(w, "failed to load settings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// handleCapture responds only after the context has been persisted, so a
// client may ask immediately afterwards.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req app.CaptureRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.svc.Capture(r.Context(), req)
	if err != nil {
		jsonError(w, err.Error(), captureStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, captureResponse{
		Success:      true,
		ContextSaved: res.Context != nil,
		SelectionID:  res.SelectionID,
		Context:      res.Context,
	})
}

func captureStatus(err error) int {
	var se *fetch.StatusError
	switch {
	case errors.Is(err, app.ErrNoPage):
		return http.StatusBadRequest
	case errors.As(err, &se), errors.Is(err, fetch.ErrUnsupportedContentType):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleGetContext returns the current context. With ?selection=<id> and
// ?wait=<duration> it first waits for that capture to finish.
func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	selection := q.Get("selection")
	var wait time.Duration
	if v := q.Get("wait"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			jsonError(w, "invalid wait duration", http.StatusBadRequest)
			return
		}
		wait = min(d, s.maxWait)
	}

	var (
		pc  *extract.PageContext
		err error
	)
	if selection != "" && wait > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		defer cancel()
		pc, err = s.svc.AwaitContext(ctx, selection)
		if errors.Is(err, context.DeadlineExceeded) {
			jsonError(w, "context not ready", http.StatusGatewayTimeout)
			return
		}
	} else {
		pc, err = s.svc.CurrentContext(r.Context())
	}
	if err != nil {
		jsonError(w, "failed to load context: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"context": pc})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		jsonError(w, "message is required", http.StatusBadRequest)
		return
	}
	turn, err := s.svc.Ask(r.Context(), req.Message)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("ask failed")
		jsonError(w, err.Error(), askStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": turn.Content})
}

func askStatus(err error) int {
	switch {
	case errors.Is(err, answer.ErrMissingAPIKey):
		return http.StatusBadRequest
	case answer.IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"models": s.svc.CompareModels(r.Context())})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		jsonError(w, "message is required", http.StatusBadRequest)
		return
	}
	results, err := s.svc.Compare(r.Context(), req.Message, req.Models)
	if err != nil {
		jsonError(w, err.Error(), askStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.svc.Conversation(r.Context())
	if err != nil {
		jsonError(w, "failed to load conversation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if conv == nil {
		conv = []store.Turn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": conv})
}

func (s *Server) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearConversation(r.Context()); err != nil {
		jsonError(w, "failed to clear conversation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	out, contentType, err := s.svc.Export(r.Context(), format)
	switch {
	case errors.Is(err, features.ErrExportDisabled):
		jsonError(w, err.Error(), http.StatusForbidden)
		return
	case errors.Is(err, features.ErrUnsupportedFormat):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if format == "" {
		format = features.FormatJSON
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="conversation.`+fileExt(format)+`"`)
	_, _ = w.Write(out)
}

func fileExt(format string) string {
	if format == features.FormatMarkdown {
		return "md"
	}
	return format
}
