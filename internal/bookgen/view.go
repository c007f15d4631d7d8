package bookgen

import "strings"

// BookView is the assembled read model of a book and its outline, ordered
// by heading number.
type BookView struct {
	BookTitle string        `json:"book_title"`
	Chapters  []ChapterView `json:"outline"`
}

// ChapterView is one heading with everything generated for it so far.
type ChapterView struct {
	Number      int      `json:"chapter_number"`
	Title       string   `json:"chapter_title"`
	Description string   `json:"chapter_description"`
	Sections    []string `json:"sections"`
	Summary     string   `json:"summary"`
	Content     string   `json:"content"`
}

// GetBookAndOutline reassembles the full structured view of a book from
// stored rows.
func (g *Generator) GetBookAndOutline(bookTitle string) (*BookView, error) {
	book, err := g.store.GetBook(bookTitle)
	if err != nil {
		return nil, err
	}
	headings, err := g.store.ListHeadings(book.ID)
	if err != nil {
		return nil, err
	}

	view := &BookView{BookTitle: book.Title}
	for _, h := range headings {
		view.Chapters = append(view.Chapters, ChapterView{
			Number:      h.Number,
			Title:       h.Title,
			Description: h.Description,
			Sections:    splitSections(h.SubHeading),
			Summary:     h.Summary,
			Content:     h.Content,
		})
	}
	return view, nil
}

func splitSections(subHeading string) []string {
	if subHeading == "" {
		return nil
	}
	return strings.Split(subHeading, "\n")
}
