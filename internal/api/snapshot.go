package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"finsim/internal/sim"

	"github.com/go-chi/chi/v5"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/snapshot.schema.json
var snapshotSchemaJSON string

const maxSnapshotBytes = 16 << 20

func compileSnapshotSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.CompileString("snapshot.schema.json", snapshotSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}
	return schema, nil
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.game.ExportSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handlePutSnapshot replaces a session's state. The body is checked against
// the snapshot schema before the engine sees it; the engine then applies its
// own consistency checks.
func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(raw) > maxSnapshotBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "snapshot too large")
		return
	}
	if err := s.validateSnapshot(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var snap sim.Snapshot
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := s.game.ImportSnapshot(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), snap)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) validateSnapshot(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := s.snapshot.Validate(doc); err != nil {
		return fmt.Errorf("snapshot rejected: %w", err)
	}
	return nil
}
