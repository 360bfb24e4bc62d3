package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/capround/cutoffs/internal/core"
	"github.com/capround/cutoffs/internal/logging"
)

// sessionResponse is the envelope returned by every state-changing endpoint:
// the full session plus the current sort toggle so the table header can
// render its icons.
type sessionResponse struct {
	Session       core.Session       `json:"session"`
	SortField     core.SortField     `json:"sortField,omitempty"`
	SortDirection core.SortDirection `json:"sortDirection,omitempty"`
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, session core.Session) {
	field, dir := s.service.SortState(r.Context(), session.SessionID)
	writeJSON(w, sessionResponse{Session: session, SortField: field, SortDirection: dir})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleGetSession returns the session's current state.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		respondError(w, r, errors.New("missing session id"), http.StatusBadRequest)
		return
	}
	s.respondSession(w, r, s.service.Get(r.Context(), sessionID))
}

// handleImport accepts a multipart CSV upload and replaces the active list
// wholesale. A file with zero qualifying rows is rejected and the session is
// left unchanged.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		respondError(w, r, errors.New("file too large or invalid form"), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !hasCSVExtension(header.Filename) {
		respondError(w, r, core.ErrInvalidCSV, http.StatusBadRequest)
		return
	}

	logger := logging.FromContext(r.Context())
	logger.Info("import started",
		"session_id", sessionID, "file", header.Filename, "size", header.Size)

	session, err := s.service.ImportReplace(r.Context(), sessionID, file)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	logger.Info("import completed",
		"session_id", sessionID, "records", len(session.ActiveRecords))
	s.respondSession(w, r, session)
}

// handleAddRecord appends a manually entered record. Numeric fields default
// to zero when unparseable rather than rejecting the submission.
func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var input core.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, r, errors.New("invalid request body"), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(input.InstitutionName) == "" {
		respondError(w, r, errors.New("institution name is required"), http.StatusBadRequest)
		return
	}

	rec, session := s.service.AddRecord(r.Context(), sessionID, input)
	writeJSON(w, struct {
		Record  core.Record  `json:"record"`
		Session core.Session `json:"session"`
	}{rec, session})
}

// handleDelete soft-deletes a record. An unknown id is a defined no-op and
// still returns the current state.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	recordID := chi.URLParam(r, "recordID")
	s.respondSession(w, r, s.service.Delete(r.Context(), sessionID, recordID))
}

// handleRestore moves a deleted record back to its original slot. An unknown
// id is a defined no-op.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	recordID := chi.URLParam(r, "recordID")
	s.respondSession(w, r, s.service.Restore(r.Context(), sessionID, recordID))
}

// handleSort re-sorts the active list by a column. Choosing the same column
// twice in a row flips the direction.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Field core.SortField `json:"field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errors.New("invalid request body"), http.StatusBadRequest)
		return
	}

	session, dir, err := s.service.Sort(r.Context(), sessionID, req.Field)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	writeJSON(w, sessionResponse{Session: session, SortField: req.Field, SortDirection: dir})
}

// handleMove applies a drag reorder.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, errors.New("invalid request body"), http.StatusBadRequest)
		return
	}

	s.respondSession(w, r, s.service.Move(r.Context(), sessionID, req.From, req.To))
}

// handleUndo reverses the pending action, if any.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	s.respondSession(w, r, s.service.Undo(r.Context(), sessionID))
}

// handleSave flushes the session to the store immediately ("Save Now").
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.service.SaveNow(r.Context(), sessionID); err != nil {
		respondError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]string{"status": "saved"})
}

// handleLoad rehydrates the session from the store, replacing in-memory
// state entirely ("Load Saved"). An absent session is not an error.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, found, err := s.service.Reload(r.Context(), sessionID)
	if err != nil {
		respondError(w, r, err, http.StatusBadGateway)
		return
	}

	field, dir := s.service.SortState(r.Context(), sessionID)
	writeJSON(w, struct {
		sessionResponse
		Found bool `json:"found"`
	}{sessionResponse{Session: session, SortField: field, SortDirection: dir}, found})
}

// hasCSVExtension reports whether the filename looks like a CSV export.
func hasCSVExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}
