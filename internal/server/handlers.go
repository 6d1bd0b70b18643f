// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/noldarim/worklog/internal/worklog/render"
)

const (
	defaultHours  = 24
	defaultFormat = render.FormatJSON
	maxHours      = 24 * 366
)

var contentTypes = map[render.Format]string{
	render.FormatLog:     "text/plain; charset=utf-8",
	render.FormatBullets: "text/plain; charset=utf-8",
	render.FormatYAML:    "application/yaml",
	render.FormatJSON:    "application/json",
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	svc Summarizer
}

// NewHandlers creates the handler set.
func NewHandlers(svc Summarizer) *Handlers {
	return &Handlers{svc: svc}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		getLog().Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["context"] = err.Error()
	}
	writeJSON(w, status, body)
}

// Healthz handles GET /healthz
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetSummary handles GET /api/v1/summary?hours=N&format=log|bullets|yaml|json
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	hours := defaultHours
	if raw := q.Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHours {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer", err)
			return
		}
		hours = n
	}

	format := defaultFormat
	if raw := q.Get("format"); raw != "" {
		f, err := render.ParseFormat(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unsupported format", err)
			return
		}
		format = f
	}

	res, err := h.svc.Run(r.Context(), hours)
	if err != nil {
		getLog().Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("Summary run failed")
		writeError(w, http.StatusInternalServerError, "Failed to build summary", err)
		return
	}

	// Render fully before writing so a render error can still become a 500
	var buf bytes.Buffer
	if err := render.Write(&buf, format, res, h.svc.Digest(res), h.svc.RenderOptions()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render summary", err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
