package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dgallion1/maillink/internal/review"
	"github.com/dgallion1/maillink/internal/selection"
	"github.com/go-chi/chi/v5"
)

// sessionView is the JSON form of a review session. Each address's
// start_pos and end_pos are UTF-8 byte offsets into the submitted text,
// and surrounding_text spans up to SURROUNDING_RANGE bytes each side.
type sessionView struct {
	SessionID string       `json:"session_id"`
	Title     string       `json:"title,omitempty"`
	Extracted bool         `json:"extracted"`
	Found     int          `json:"found"`
	Selected  int          `json:"selected"`
	Addresses []review.Row `json:"addresses"`
}

func viewOf(sess *review.Session) sessionView {
	rows := sess.Rows()
	selected := 0
	for _, row := range rows {
		if row.Selected {
			selected++
		}
	}
	return sessionView{
		SessionID: sess.ID,
		Title:     sess.Title,
		Extracted: sess.Extracted,
		Found:     len(rows),
		Selected:  selected,
		Addresses: rows,
	}
}

func nothingToReview(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":             review.ErrNothingToReview.Error(),
		"nothing_to_review": true,
	})
}

// handleScan scans the input and opens a review session with the default
// selection applied.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(w, r)
	if err != nil {
		inputError(w, err, s.cfg.MaxUploadBytes)
		return
	}

	sess, err := review.NewSession(doc.Text, s.orchestrator.Worker().ScanOptions())
	if errors.Is(err, review.ErrNothingToReview) {
		nothingToReview(w)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sess.Title = doc.Title
	sess.Extracted = doc.Extracted
	s.orchestrator.Sessions().Put(sess)

	s.log.Info("session opened", "session_id", sess.ID, "found", sess.Len(), "selected", sess.SelectedCount())
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *review.Session {
	sess := s.orchestrator.Sessions().Get(chi.URLParam(r, "sessionID"))
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
	}
	return sess
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.orchestrator.Sessions().Delete(chi.URLParam(r, "sessionID")) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectionRequest struct {
	Op string `json:"op"`
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	op, err := selection.ParseOp(req.Op)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.Apply(op); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

type addressPatch struct {
	Selected    *bool   `json:"selected"`
	AddressText *string `json:"address_text"`
}

func (s *Server) handlePatchAddress(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "addressID"))
	if err != nil {
		jsonError(w, "address id must be an integer", http.StatusBadRequest)
		return
	}
	var req addressPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if _, ok := sess.Address(id); !ok {
		jsonError(w, "address not found", http.StatusNotFound)
		return
	}

	if req.AddressText != nil {
		if err := sess.EditAddress(id, *req.AddressText); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Selected != nil {
		if err := sess.SetSelected(id, *req.Selected); err != nil {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

type convertResponse struct {
	*review.Result
	Title     string `json:"title,omitempty"`
	Extracted bool   `json:"extracted"`
}

// handleCommit rewrites the text with the session's current selection and
// closes the session.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	log := s.log.With("session_id", sess.ID)

	start := time.Now()
	res, err := sess.Commit(sess.Selected())
	if err != nil {
		log.Error("commit failed", "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.orchestrator.Sessions().Delete(sess.ID)
	s.orchestrator.Worker().Record(time.Since(start), res)

	for _, wn := range res.Warnings {
		log.Warn("converting address inside existing link", "address_id", wn.AddressID, "address", wn.Address)
	}
	log.Info("session committed", "converted", len(res.Converted), "nested_anchors", res.Audit.NestedAnchors)

	writeJSON(w, http.StatusOK, convertResponse{Result: res, Title: sess.Title, Extracted: sess.Extracted})
}
