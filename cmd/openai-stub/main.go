// Command openai-stub is a deterministic OpenAI-compatible server for local
// end-to-end runs without a real model provider.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newRouter(model, os.Getenv("STUB_API_KEY"))); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

// newRouter serves /v1/models and /v1/chat/completions. When apiKey is
// set, requests without the matching bearer token get 401.
func newRouter(model, apiKey string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if apiKey != "" && req.Header.Get("Authorization") != "Bearer "+apiKey {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/v1/models", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	r.Post("/v1/chat/completions", func(w http.ResponseWriter, req *http.Request) {
		var cr chatRequest
		if err := json.NewDecoder(req.Body).Decode(&cr); err != nil || len(cr.Messages) == 0 {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		used := cr.Model
		if used == "" {
			used = model
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":     "stub-1",
			"object": "chat.completion",
			"model":  used,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       chatMessage{Role: "assistant", Content: reply(cr.Messages)},
			}},
		})
	})
	return r
}

// reply echoes the question found in the last user message.
func reply(msgs []chatMessage) string {
	var user string
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			user = msgs[i].Content
			break
		}
	}
	q := user
	if _, after, ok := strings.Cut(user, "User's question: "); ok {
		q, _, _ = strings.Cut(after, "\n")
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return "No question received."
	}
	return "Stub answer to: " + q
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": map[string]string{"message": msg, "type": "invalid_request_error"}})
}
