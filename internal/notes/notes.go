// Package notes loads editorial notes from files. Notes may arrive as plain
// text, markdown, HTML, or PDF; whatever the format, they are flattened to
// plain text before being handed to the prompt builders.
package notes

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// SupportedExtensions lists the notes file formats this service accepts.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
}

// IsSupportedExtension checks whether a notes filename can be imported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// FromFile reads a notes file from disk and flattens it to plain text.
func FromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open notes file: %w", err)
	}
	defer f.Close()
	return FromReader(f, filepath.Base(path))
}

// FromReader flattens notes arriving as an upload stream. The filename's
// extension selects the format.
func FromReader(r io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return fromText(r)
	case ".md", ".markdown":
		return fromMarkdown(r)
	case ".html", ".htm":
		return fromHTML(r)
	case ".pdf":
		return fromPDF(r)
	default:
		return "", fmt.Errorf("unsupported notes file extension: %s", ext)
	}
}

func fromText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read notes: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func fromMarkdown(r io.Reader) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read notes: %w", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var parts []string
	var flatten func(n ast.Node)
	flatten = func(n ast.Node) {
		switch n.(type) {
		case *ast.List, *ast.ListItem:
			// Each list item becomes its own part.
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				flatten(c)
			}
		default:
			if t := inlineText(n, src); t != "" {
				parts = append(parts, t)
			}
		}
	}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		flatten(n)
	}
	return strings.Join(parts, "\n\n"), nil
}

// inlineText collects the plain text of a goldmark node's inline children,
// dropping the markup markers.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		} else {
			buf.WriteString(inlineText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}

func fromHTML(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html notes: %w", err)
	}

	root := findBody(doc)
	if root == nil {
		root = doc
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6":
				if t := textContent(n); t != "" {
					parts = append(parts, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(parts) == 0 {
		if t := textContent(root); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func fromPDF(r io.Reader) (string, error) {
	// ledongthuc/pdf needs a ReadSeeker+size, so spool to a temp file.
	tmp, err := os.CreateTemp("", "bookgen-notes-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		return "", fmt.Errorf("open pdf notes: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(strings.TrimSpace(pageText))
	}
	return strings.TrimSpace(buf.String()), nil
}
