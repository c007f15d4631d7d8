package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Hassanibrar632/Automated-BookGen/internal/export"
	"github.com/Hassanibrar632/Automated-BookGen/internal/store"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	title := bookTitle(r)

	view, err := s.gen.GetBookAndOutline(title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "book not found", http.StatusNotFound)
			return
		}
		s.log.Error("export load failed", "title", title, "error", err)
		jsonError(w, "failed to load book", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename=%q`, exportFilename(view.BookTitle)))

	if err := export.Write(w, view); err != nil {
		// Headers are already sent; all we can do is log.
		s.log.Error("export write failed", "title", title, "error", err)
	}
}

// exportFilename turns a book title into a safe .docx attachment name.
func exportFilename(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '_'
		default:
			return -1
		}
	}, title)
	if name == "" {
		name = "book"
	}
	return name + ".docx"
}
