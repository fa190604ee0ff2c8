package api

import (
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sugawarayuuta/sonnet"
)

// shockSchemaJSON constrains shock requests before they reach the driver:
// fraction in [0,1], region one of the five known tags, nothing else.
const shockSchemaJSON = `{
	"type": "object",
	"required": ["fraction", "region"],
	"additionalProperties": false,
	"properties": {
		"fraction": {"type": "number", "minimum": 0, "maximum": 1},
		"region": {"enum": ["random", "top_left", "top_right", "bottom_left", "bottom_right"]}
	}
}`

var shockSchema = jsonschema.MustCompileString("shock.json", shockSchemaJSON)

// handleShock validates and queues a shock injection. The driver applies it
// before its next sweep, keeping the lattice single-owner.
func (s *Server) handleShock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.AdminKey == "" {
		http.Error(w, "shock endpoint disabled (no admin key set)", http.StatusForbidden)
		return
	}
	if !s.checkBearerToken(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	var raw any
	if err := sonnet.Unmarshal(body, &raw); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := shockSchema.Validate(raw); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var req ShockRequest
	if err := sonnet.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	select {
	case s.shockCh <- req:
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]any{"queued": true})
	default:
		http.Error(w, "shock queue full", http.StatusServiceUnavailable)
	}
}
