// Package prompts builds the conversations sent to the LLM for each
// generation phase: outline, chapter content, and chapter summary.
package prompts

import (
	"fmt"
	"strings"
)

// OutlineSystem instructs the model to act as an outline generation agent.
const OutlineSystem = `You are an AI Outline Generation Agent responsible for creating high-quality, structured book outlines.

Your task is to generate a comprehensive, logically ordered book outline based strictly on:
- The provided book title
- The editor's pre-outline notes

You must follow these rules at all times:
1. Do NOT generate an outline unless editorial notes are provided.
2. The outline must align closely with the intent, scope, and constraints expressed in the notes.
3. Produce a clear hierarchical structure using chapters and, where appropriate, sub-sections.
4. Ensure logical flow, progressive depth, and thematic consistency across chapters.
5. Avoid unnecessary verbosity; chapter titles should be concise but descriptive.
6. Do not write full chapter content - only the outline.
7. Do not ask questions or include explanations - output only the final outline.

Assume the outline will be reviewed by a human editor and may be regenerated based on feedback.`

// ContentSystem instructs the model to emit publishable prose only.
const ContentSystem = `You generate book content only.

Write the requested chapter or section as final publishable prose.
Begin immediately with the actual content. Do not introduce the topic, do not explain what you are doing, and do not add any preface or closing remarks.

Strict rules:
1. Output ONLY the content of the specified heading.
2. Do NOT include titles, headings, labels, bullet points, markdown, JSON, or metadata.
3. Do NOT include explanations, commentary, notes, summaries, or questions.
4. Do NOT reference prompts, instructions, or the existence of an AI.
5. Do NOT reference past or future chapters explicitly.
6. Use previous summaries only to maintain continuity and avoid repetition.
7. Editorial notes, if provided, override all other guidance.
8. The output must be clean, continuous prose suitable for direct insertion into a book.

Violation of any rule is considered an incorrect response.`

// SummarySystem instructs the model to emit a bare summary.
const SummarySystem = `You generate summaries only.

Produce a concise summary that begins immediately with the summary text.
Do not introduce the summary, do not explain it, and do not add labels or formatting.

Strict rules:
1. Output ONLY the summary text.
2. Do NOT include commentary, analysis, disclaimers, or meta text.
3. Do NOT add headings, bullet points, or markdown.
4. Do NOT introduce new information or opinions.
5. Follow editorial focus exactly if provided.
6. Keep the summary concise and coherent.

Any output beyond the summary itself is invalid.`

// noNotes is rendered when no editorial notes apply, so the prompt never
// leaks an unsubstituted placeholder to the model.
const noNotes = "(none provided)"

// Outline builds the user prompt for outline generation. Editorial notes
// are mandatory for this phase; callers validate before building.
func Outline(bookTitle, editorialNotes string) string {
	var sb strings.Builder
	sb.WriteString("Generate a book outline using the following inputs.\n\n")
	fmt.Fprintf(&sb, "Book Title:\n%s\n\n", bookTitle)
	fmt.Fprintf(&sb, "Editorial Notes (Mandatory):\n%s\n\n", editorialNotes)
	sb.WriteString(`Create a complete chapter-by-chapter outline that reflects the title and fully incorporates the editorial notes.

The response MUST be returned strictly in the following dictionary (JSON-compatible) structure and nothing else:

{
  "book_title": "`)
	sb.WriteString(bookTitle)
	sb.WriteString(`",
  "outline": [
    {
      "chapter_number": 1,
      "chapter_title": "Chapter title here",
      "chapter_description": "Brief description of what this chapter covers",
      "sections": [
        "Section or subtopic 1",
        "Section or subtopic 2",
        "Section or subtopic 3"
      ]
    }
  ]
}

Rules:
- Use sequential chapter numbering starting from 1.
- Each chapter must include a concise title and description.
- Sections should be short, clear, and logically ordered.
- Do NOT include explanations, commentary, or extra text outside the dictionary.
- Ensure the structure is valid JSON (double quotes, no trailing commas).`)
	return sb.String()
}

// ContentParams parameterizes the content user prompt.
type ContentParams struct {
	BookTitle         string
	HeadingTitle      string
	SubHeadings       string // newline-joined section names
	PreviousSummaries string // JSON object of heading title -> summary
	EditorialNotes    string // optional, per-heading
}

// Content builds the user prompt for chapter content generation.
func Content(p ContentParams) string {
	notes := p.EditorialNotes
	if notes == "" {
		notes = noNotes
	}
	var sb strings.Builder
	sb.WriteString("Write the book content now.\n\n")
	fmt.Fprintf(&sb, "Book Title:\n%s\n\n", p.BookTitle)
	fmt.Fprintf(&sb, "Current Heading Topic:\n%s\n\n", p.HeadingTitle)
	fmt.Fprintf(&sb, "Subtopics to cover (integrate naturally, do not list):\n%s\n\n", p.SubHeadings)
	fmt.Fprintf(&sb, "Context from previous sections (do not repeat, do not reference explicitly):\n%s\n\n", p.PreviousSummaries)
	fmt.Fprintf(&sb, "Editorial guidance (must be followed exactly if present):\n%s\n\n", notes)
	sb.WriteString("Start writing immediately with the content itself.\nOutput ONLY the final prose for this section.")
	return sb.String()
}

// SummaryParams parameterizes the summary user prompt.
type SummaryParams struct {
	BookTitle      string
	HeadingTitle   string
	EditorialNotes string // optional, per-heading
	Text           string // the content being summarized
}

// Summary builds the user prompt for chapter summarization.
func Summary(p SummaryParams) string {
	notes := p.EditorialNotes
	if notes == "" {
		notes = noNotes
	}
	var sb strings.Builder
	sb.WriteString("Summarize the text below.\n\n")
	fmt.Fprintf(&sb, "Book Title:\n%s\n\n", p.BookTitle)
	fmt.Fprintf(&sb, "Section Topic:\n%s\n\n", p.HeadingTitle)
	fmt.Fprintf(&sb, "Editorial focus (apply only if present):\n%s\n\n", notes)
	fmt.Fprintf(&sb, "Text:\n%s\n\n", p.Text)
	sb.WriteString("Start immediately with the summary.\nOutput ONLY the summary text.")
	return sb.String()
}
