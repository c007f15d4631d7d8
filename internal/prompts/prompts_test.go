package prompts

import (
	"strings"
	"testing"
)

func TestOutline_EmbedsTitleAndNotes(t *testing.T) {
	p := Outline("The Future of AI", "focus on ethics")

	if !strings.Contains(p, "Book Title:\nThe Future of AI") {
		t.Error("missing book title block")
	}
	if !strings.Contains(p, "Editorial Notes (Mandatory):\nfocus on ethics") {
		t.Error("missing editorial notes block")
	}
	if !strings.Contains(p, `"book_title": "The Future of AI"`) {
		t.Error("expected title embedded in the JSON skeleton")
	}
	if !strings.Contains(p, `"chapter_number"`) || !strings.Contains(p, `"sections"`) {
		t.Error("outline schema missing from prompt")
	}
}

func TestContent_IncludesContext(t *testing.T) {
	p := Content(ContentParams{
		BookTitle:         "T",
		HeadingTitle:      "Intro",
		SubHeadings:       "a\nb",
		PreviousSummaries: `{"Prelude":"short summary"}`,
		EditorialNotes:    "keep it formal",
	})

	for _, want := range []string{"Intro", "a\nb", `{"Prelude":"short summary"}`, "keep it formal"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestContent_NoNotesRendersPlaceholderText(t *testing.T) {
	p := Content(ContentParams{BookTitle: "T", HeadingTitle: "Intro"})

	if strings.Contains(p, "__") {
		t.Error("prompt must not leak template markers")
	}
	if !strings.Contains(p, "(none provided)") {
		t.Error("expected explicit no-notes text")
	}
}

func TestSummary_IncludesSourceText(t *testing.T) {
	p := Summary(SummaryParams{
		BookTitle:    "T",
		HeadingTitle: "Intro",
		Text:         "chapter prose goes here",
	})

	if !strings.Contains(p, "Text:\nchapter prose goes here") {
		t.Error("missing source text block")
	}
	if !strings.Contains(p, "(none provided)") {
		t.Error("expected explicit no-notes text")
	}
}
