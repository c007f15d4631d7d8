// Package bookgen drives the book generation workflow: outline generation,
// outline persistence, per-heading content and summary generation, and
// retrieval of the assembled result.
package bookgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/Hassanibrar632/Automated-BookGen/internal/llm"
	"github.com/Hassanibrar632/Automated-BookGen/internal/prompts"
	"github.com/Hassanibrar632/Automated-BookGen/internal/store"
)

// logLimit caps prompt/response debug logging.
const logLimit = 8000

// GenerationError is a terminal failure after exhausting all attempts of
// one LLM step. It carries enough context to resume a run.
type GenerationError struct {
	BookTitle    string
	HeadingTitle string
	Phase        string
	Attempts     int
	Err          error
}

func (e *GenerationError) Error() string {
	if e.HeadingTitle != "" {
		return fmt.Sprintf("generation failed: book %q heading %q phase %s after %d attempts: %v",
			e.BookTitle, e.HeadingTitle, e.Phase, e.Attempts, e.Err)
	}
	return fmt.Sprintf("generation failed: book %q phase %s after %d attempts: %v",
		e.BookTitle, e.Phase, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Generator orchestrates the generation phases against one store and one
// LLM backend. It is strictly sequential; one run at a time.
type Generator struct {
	store       *store.Store
	client      *llm.Client
	log         *slog.Logger
	maxAttempts int
}

func NewGenerator(st *store.Store, client *llm.Client, log *slog.Logger, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Generator{
		store:       st,
		client:      client,
		log:         log,
		maxAttempts: maxAttempts,
	}
}

// GenerateOutline asks the LLM for a chapter plan and
// parses the JSON payload out of the reply. Editorial notes are mandatory.
// Exhausting all attempts yields a terminal GenerationError; nothing is
// persisted.
func (g *Generator) GenerateOutline(ctx context.Context, title, notes string) (*Outline, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, fmt.Errorf("editorial notes are required for outline generation")
	}
	g.log.Info("generating outline", "book", title)

	conv := newConversation(prompts.OutlineSystem)
	prompt := prompts.Outline(title, notes)

	var outline *Outline
	attempts := 0
	err := retry.Do(
		func() error {
			attempts++
			g.log.Debug("outline attempt", "book", title, "attempt", attempts, "prompt", truncateForLog(prompt))
			conv.addUser(prompt)
			reply, err := g.client.Chat(ctx, conv.messages())
			if err != nil {
				g.log.Warn("outline call failed", "book", title, "attempt", attempts, "error", err)
				return err
			}
			conv.addAssistant(reply)
			g.log.Debug("outline response", "book", title, "response", truncateForLog(reply))
			o, perr := parseOutline(reply)
			if perr != nil {
				g.log.Warn("outline parsing failed", "book", title, "attempt", attempts, "error", perr)
				return perr
			}
			outline = o
			return nil
		},
		g.retryOpts(ctx)...,
	)
	if err != nil {
		g.log.Error("outline generation exhausted retries", "book", title, "attempts", attempts)
		return nil, &GenerationError{BookTitle: title, Phase: "outline", Attempts: attempts, Err: err}
	}
	g.log.Info("outline generated", "book", title, "chapters", len(outline.Chapters))
	return outline, nil
}

// SaveBookAndOutline creates the book (replacing any
// existing book of the same title) and inserts one heading per chapter in
// chapter-number order.
func (g *Generator) SaveBookAndOutline(title, notes string, outline *Outline) (int64, error) {
	if _, err := g.store.GetBook(title); err == nil {
		g.log.Warn("book exists, overwriting", "book", title)
		if err := g.store.DeleteBook(title); err != nil {
			return 0, fmt.Errorf("replace existing book: %w", err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}

	bookID, err := g.store.CreateBook(title, notes)
	if err != nil {
		return 0, err
	}
	g.log.Info("book saved", "book", title, "book_id", bookID)

	chapters := make([]OutlineChapter, len(outline.Chapters))
	copy(chapters, outline.Chapters)
	sortChaptersByNumber(chapters)

	for _, ch := range chapters {
		if _, err := g.store.AddHeading(bookID, store.NewHeading{
			Number:      ch.Number,
			Title:       ch.Title,
			SubHeading:  strings.Join(ch.Sections, "\n"),
			Description: ch.Description,
		}); err != nil {
			return 0, fmt.Errorf("save chapter %q: %w", ch.Title, err)
		}
		g.log.Debug("chapter saved", "book", title, "chapter", ch.Title)
	}
	return bookID, nil
}

// GenerateContent writes content and summaries from the given 1-based
// heading index onward. The
// running summary map is seeded from every heading before the resume point
// so continuity survives a resumed run. A heading whose content or summary
// exhausts its attempts is marked failed in the report and the run moves on.
func (g *Generator) GenerateContent(ctx context.Context, bookTitle string, headingNotes map[string]string, startHeading int) (*RunReport, error) {
	if startHeading < 1 {
		startHeading = 1
	}
	book, err := g.store.GetBook(bookTitle)
	if err != nil {
		return nil, err
	}
	headings, err := g.store.ListHeadings(book.ID)
	if err != nil {
		return nil, err
	}
	if startHeading > len(headings) {
		return nil, fmt.Errorf("start heading %d out of range: book %q has %d headings", startHeading, bookTitle, len(headings))
	}

	previous := make(map[string]string)
	for i := 0; i < startHeading-1; i++ {
		previous[headings[i].Title] = headings[i].Summary
	}

	report := &RunReport{BookTitle: bookTitle, StartHeading: startHeading}
	g.log.Info("generating content", "book", bookTitle, "start_heading", startHeading, "headings", len(headings))

	for i := startHeading - 1; i < len(headings); i++ {
		h := headings[i]
		g.log.Info("processing heading", "book", bookTitle, "heading", h.Title, "number", h.Number)

		prevJSON, err := json.Marshal(previous)
		if err != nil {
			return report, fmt.Errorf("marshal running summaries: %w", err)
		}
		notes := headingNotes[h.Title]

		content, attempts, err := g.completeText(ctx, prompts.ContentSystem, prompts.Content(prompts.ContentParams{
			BookTitle:         book.Title,
			HeadingTitle:      h.Title,
			SubHeadings:       h.SubHeading,
			PreviousSummaries: string(prevJSON),
			EditorialNotes:    notes,
		}), "content", h.Title)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			g.log.Error("content generation failed", "book", bookTitle, "heading", h.Title, "attempts", attempts, "error", err)
			report.add(HeadingResult{HeadingNumber: h.Number, HeadingTitle: h.Title, Phase: "content", Attempts: attempts, Error: err.Error()})
			continue
		}

		summary, attempts, err := g.completeText(ctx, prompts.SummarySystem, prompts.Summary(prompts.SummaryParams{
			BookTitle:      book.Title,
			HeadingTitle:   h.Title,
			EditorialNotes: notes,
			Text:           content,
		}), "summary", h.Title)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			g.log.Error("summary generation failed", "book", bookTitle, "heading", h.Title, "attempts", attempts, "error", err)
			// Keep the generated content; only the summary step failed.
			if uerr := g.store.UpdateHeading(book.ID, h.Title, store.HeadingUpdate{Content: &content}); uerr != nil {
				g.log.Error("content write failed", "book", bookTitle, "heading", h.Title, "error", uerr)
			}
			report.add(HeadingResult{HeadingNumber: h.Number, HeadingTitle: h.Title, Phase: "summary", Attempts: attempts, Error: err.Error()})
			continue
		}

		if err := g.store.UpdateHeading(book.ID, h.Title, store.HeadingUpdate{
			Summary: &summary,
			Content: &content,
		}); err != nil {
			g.log.Error("heading write failed", "book", bookTitle, "heading", h.Title, "error", err)
			report.add(HeadingResult{HeadingNumber: h.Number, HeadingTitle: h.Title, Phase: "persist", Error: err.Error()})
			continue
		}

		previous[h.Title] = summary
		report.add(HeadingResult{HeadingNumber: h.Number, HeadingTitle: h.Title, OK: true})
		g.log.Info("completed heading", "book", bookTitle, "heading", h.Title)
	}

	return report, nil
}

// completeText runs one retried LLM completion with its own conversation.
func (g *Generator) completeText(ctx context.Context, system, prompt, phase, headingTitle string) (string, int, error) {
	conv := newConversation(system)

	var text string
	attempts := 0
	err := retry.Do(
		func() error {
			attempts++
			g.log.Debug("llm attempt", "phase", phase, "heading", headingTitle, "attempt", attempts, "prompt", truncateForLog(prompt))
			conv.addUser(prompt)
			reply, err := g.client.Chat(ctx, conv.messages())
			if err != nil {
				g.log.Warn("llm call failed", "phase", phase, "heading", headingTitle, "attempt", attempts, "error", err)
				return err
			}
			conv.addAssistant(reply)
			g.log.Debug("llm response", "phase", phase, "heading", headingTitle, "response", truncateForLog(reply))
			if strings.TrimSpace(reply) == "" {
				return &MalformedResponseError{Reason: "empty completion"}
			}
			text = reply
			return nil
		},
		g.retryOpts(ctx)...,
	)
	if err != nil {
		return "", attempts, err
	}
	return text, attempts, nil
}

func (g *Generator) retryOpts(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(g.maxAttempts)),
		retry.Delay(time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	}
}

func sortChaptersByNumber(chapters []OutlineChapter) {
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Number < chapters[j].Number })
}

func truncateForLog(s string) string {
	if len(s) <= logLimit {
		return s
	}
	return s[:logLimit] + "\n--- TRUNCATED ---"
}
