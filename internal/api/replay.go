package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
)

const maxReplayCommands = 100

type replayCommand struct {
	Method         string          `json:"method"`
	Path           string          `json:"path"`
	Body           json.RawMessage `json:"body,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type replayResult struct {
	Method         string          `json:"method"`
	Path           string          `json:"path"`
	IdempotencyKey string          `json:"idempotency_key"`
	Status         int             `json:"status"`
	Response       json.RawMessage `json:"response,omitempty"`
}

// replayWriter captures one dispatched response.
type replayWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (w *replayWriter) Header() http.Header { return w.header }

func (w *replayWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *replayWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

// handleSyncReplay runs commands queued by an offline client, in order,
// through the same routes a live client would hit. Each keeps its original
// idempotency key so a partially delivered queue can be replayed safely.
func (s *Server) handleSyncReplay(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Commands []replayCommand `json:"commands"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(in.Commands) > maxReplayCommands {
		writeError(w, http.StatusBadRequest, "too many commands")
		return
	}

	results := make([]replayResult, 0, len(in.Commands))
	for _, cmd := range in.Commands {
		res := replayResult{Method: cmd.Method, Path: cmd.Path, IdempotencyKey: cmd.IdempotencyKey}
		method := strings.ToUpper(strings.TrimSpace(cmd.Method))
		if (method != http.MethodPost && method != http.MethodPut && method != http.MethodDelete) ||
			!strings.HasPrefix(cmd.Path, "/v1/sessions") || strings.TrimSpace(cmd.IdempotencyKey) == "" {
			res.Status = http.StatusBadRequest
			res.Response = json.RawMessage(`{"error":"command must be a keyed write under /v1/sessions"}`)
			results = append(results, res)
			continue
		}

		body := cmd.Body
		if len(body) == 0 {
			body = json.RawMessage("{}")
		}
		req, err := http.NewRequestWithContext(r.Context(), method, cmd.Path, bytes.NewReader(body))
		if err != nil {
			res.Status = http.StatusBadRequest
			results = append(results, res)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", cmd.IdempotencyKey)

		rec := &replayWriter{header: make(http.Header)}
		s.mux.ServeHTTP(rec, req)
		res.Status = rec.status
		if json.Valid(rec.body.Bytes()) {
			res.Response = json.RawMessage(bytes.TrimSpace(rec.body.Bytes()))
		}
		results = append(results, res)
	}
	s.log.Info("sync replay", "commands", len(in.Commands))
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
