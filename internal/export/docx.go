// Package export renders a generated book into a DOCX manuscript.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/Hassanibrar632/Automated-BookGen/internal/bookgen"
)

// Half-point font sizes: 12pt body, 16pt chapter headings, 24pt title.
const (
	bodySize    = "24"
	headingSize = "32"
	titleSize   = "48"
)

// Write renders the book view into w as a single DOCX document: a title
// block, then one heading plus its content per chapter, in stored order.
// The whole document is built in memory and flushed once.
func Write(w io.Writer, view *bookgen.BookView) error {
	doc := docx.New().WithDefaultTheme()

	title := doc.AddParagraph()
	title.Justification("center")
	title.AddText(view.BookTitle).Size(titleSize).Bold()
	doc.AddParagraph()

	for _, ch := range view.Chapters {
		heading := doc.AddParagraph()
		heading.AddText(fmt.Sprintf("%d. %s", ch.Number, ch.Title)).Size(headingSize).Bold()

		for _, para := range paragraphs(ch.Content) {
			doc.AddParagraph().AddText(para).Size(bodySize)
		}
		doc.AddParagraph()
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

// WriteFile renders the book view into a new file at path.
func WriteFile(path string, view *bookgen.BookView) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := Write(f, view); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("flush output file: %w", err)
	}
	return nil
}

// paragraphs splits chapter content on blank lines.
func paragraphs(content string) []string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(strings.TrimSpace(line))
	}
	flush()
	return out
}
