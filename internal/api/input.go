package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/maillink/internal/document"
	"github.com/dgallion1/maillink/internal/parser"
)

type textRequest struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

// errTooLarge is reported as 413.
var errTooLarge = errors.New("input too large")

// readDocument accepts either a JSON body {"text": ...} or a multipart
// upload in the "file" field.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*document.Document, error) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return s.readUpload(r)
	}

	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errTooLarge
		}
		return nil, fmt.Errorf("invalid json body: %w", err)
	}
	if int64(len(req.Text)) > s.cfg.MaxUploadBytes {
		return nil, errTooLarge
	}
	return &document.Document{
		Title:  req.Title,
		Format: document.FormatText,
		Text:   req.Text,
	}, nil
}

func (s *Server) readUpload(r *http.Request) (*document.Document, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, errTooLarge
	}

	return s.orchestrator.Worker().ParseFile(data, filename)
}

func inputError(w http.ResponseWriter, err error, maxBytes int64) {
	if errors.Is(err, errTooLarge) {
		jsonError(w, fmt.Sprintf("input exceeds max size (%d bytes)", maxBytes), http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, err.Error(), http.StatusBadRequest)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
