package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Hassanibrar632/Automated-BookGen/internal/notes"
	"github.com/Hassanibrar632/Automated-BookGen/internal/store"
)

// maxNotesUploadBytes caps the size of an uploaded notes document.
const maxNotesUploadBytes = 16 << 20

type createBookRequest struct {
	Title       string `json:"title"`
	BeforeNotes string `json:"before_notes"`
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxNotesUploadBytes+1024*1024) // extra 1MB for form overhead
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		req.Title = r.FormValue("title")
		req.BeforeNotes = r.FormValue("before_notes")

		if file, header, err := r.FormFile("notes"); err == nil {
			defer file.Close()
			filename := sanitizeFilename(header.Filename)
			if !notes.IsSupportedExtension(filename) {
				jsonError(w, fmt.Sprintf("unsupported notes file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
				return
			}
			text, err := notes.FromReader(file, filename)
			if err != nil {
				jsonError(w, "failed to read notes file: "+err.Error(), http.StatusBadRequest)
				return
			}
			if req.BeforeNotes != "" {
				req.BeforeNotes += "\n\n"
			}
			req.BeforeNotes += text
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}

	id, err := s.store.CreateBook(req.Title, req.BeforeNotes)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTitle) {
			jsonError(w, "a book with this title already exists", http.StatusConflict)
			return
		}
		s.log.Error("create book failed", "title", req.Title, "error", err)
		jsonError(w, "failed to create book", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"book_id": id,
		"title":   req.Title,
	})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	title := bookTitle(r)
	view, err := s.gen.GetBookAndOutline(title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "book not found", http.StatusNotFound)
			return
		}
		s.log.Error("get book failed", "title", title, "error", err)
		jsonError(w, "failed to load book", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

type updateBookRequest struct {
	BeforeNotes *string `json:"before_notes"`
	AfterNotes  *string `json:"after_notes"`
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	title := bookTitle(r)

	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.BeforeNotes == nil && req.AfterNotes == nil {
		jsonError(w, "nothing to update", http.StatusBadRequest)
		return
	}

	err := s.store.UpdateBook(title, store.BookUpdate{
		BeforeNotes: req.BeforeNotes,
		AfterNotes:  req.AfterNotes,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "book not found", http.StatusNotFound)
			return
		}
		s.log.Error("update book failed", "title", title, "error", err)
		jsonError(w, "failed to update book", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"title": title, "status": "updated"})
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	title := bookTitle(r)
	if err := s.store.DeleteBook(title); err != nil {
		s.log.Error("delete book failed", "title", title, "error", err)
		jsonError(w, "failed to delete book", http.StatusInternalServerError)
		return
	}
	// Deleting an absent book is a no-op, same response either way.
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListHeadings(w http.ResponseWriter, r *http.Request) {
	title := bookTitle(r)

	book, err := s.store.GetBook(title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "book not found", http.StatusNotFound)
			return
		}
		s.log.Error("get book failed", "title", title, "error", err)
		jsonError(w, "failed to load book", http.StatusInternalServerError)
		return
	}

	headings, err := s.store.ListHeadings(book.ID)
	if err != nil {
		s.log.Error("list headings failed", "title", title, "error", err)
		jsonError(w, "failed to list headings", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(headings))
	for _, h := range headings {
		out = append(out, map[string]any{
			"heading_number": h.Number,
			"heading_title":  h.Title,
			"sub_heading":    h.SubHeading,
			"description":    h.Description,
			"has_content":    h.Content != "",
			"has_summary":    h.Summary != "",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"book_title": book.Title,
		"headings":   out,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
