package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "bookgen.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestCreateBook_UniqueTitle(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateBook("The Future of AI", "cover ethics and applications")
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero book id")
	}

	b, err := s.GetBook("The Future of AI")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if b.ID != id {
		t.Errorf("expected id %d, got %d", id, b.ID)
	}
	if b.BeforeNotes != "cover ethics and applications" {
		t.Errorf("unexpected before_notes: %q", b.BeforeNotes)
	}
	if b.CreatedAt == "" || b.UpdatedAt == "" {
		t.Error("expected timestamps to be set")
	}
}

func TestCreateBook_DuplicateTitleFails(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.CreateBook("T1", "N1"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.CreateBook("T1", "N2")
	if !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
}

func TestGetBook_Missing(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetBook("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateBook_PartialAndMissing(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.CreateBook("T1", "before"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.UpdateBook("T1", BookUpdate{AfterNotes: strPtr("after")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	b, err := s.GetBook("T1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.BeforeNotes != "before" {
		t.Errorf("before_notes should be untouched, got %q", b.BeforeNotes)
	}
	if b.AfterNotes != "after" {
		t.Errorf("after_notes not updated, got %q", b.AfterNotes)
	}

	if err := s.UpdateBook("missing", BookUpdate{AfterNotes: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing title, got %v", err)
	}
}

func TestDeleteBook_MissingIsNoop(t *testing.T) {
	s := openTestStore(t)

	if err := s.DeleteBook("never existed"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestAddHeading_UnknownBook(t *testing.T) {
	s := openTestStore(t)

	_, err := s.AddHeading(42, NewHeading{Number: 1, Title: "Intro"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListHeadings_SortedByNumber(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateBook("T1", "N1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Insert out of numeric order on purpose.
	if _, err := s.AddHeading(id, NewHeading{Number: 2, Title: "Body", Description: "middle"}); err != nil {
		t.Fatalf("add heading 2: %v", err)
	}
	if _, err := s.AddHeading(id, NewHeading{Number: 1, Title: "Intro", SubHeading: "a\nb", Description: "opening"}); err != nil {
		t.Fatalf("add heading 1: %v", err)
	}

	headings, err := s.ListHeadings(id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(headings) != 2 {
		t.Fatalf("expected 2 headings, got %d", len(headings))
	}
	if headings[0].Title != "Intro" || headings[1].Title != "Body" {
		t.Errorf("expected numeric order Intro, Body; got %q, %q", headings[0].Title, headings[1].Title)
	}
	if headings[0].SubHeading != "a\nb" {
		t.Errorf("sub_heading round-trip failed: %q", headings[0].SubHeading)
	}
	if headings[0].Description != "opening" {
		t.Errorf("description round-trip failed: %q", headings[0].Description)
	}
}

func TestUpdateHeading_PartialAndUnmatched(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateBook("T1", "N1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.AddHeading(id, NewHeading{Number: 1, Title: "Intro"}); err != nil {
		t.Fatalf("add heading: %v", err)
	}

	err = s.UpdateHeading(id, "Intro", HeadingUpdate{
		Content: strPtr("the content"),
		Summary: strPtr("the summary"),
	})
	if err != nil {
		t.Fatalf("update heading: %v", err)
	}

	headings, err := s.ListHeadings(id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if headings[0].Content != "the content" || headings[0].Summary != "the summary" {
		t.Errorf("content/summary not written: %+v", headings[0])
	}

	if err := s.UpdateHeading(id, "No Such Chapter", HeadingUpdate{Summary: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unmatched heading title, got %v", err)
	}
	if err := s.UpdateHeading(999, "Intro", HeadingUpdate{Summary: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown book, got %v", err)
	}
}

func TestBookLifecycle_Scenario(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateBook("T1", "N1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.AddHeading(id, NewHeading{Number: 1, Title: "Intro"}); err != nil {
		t.Fatalf("add Intro: %v", err)
	}
	if _, err := s.AddHeading(id, NewHeading{Number: 2, Title: "Body"}); err != nil {
		t.Fatalf("add Body: %v", err)
	}

	headings, err := s.ListHeadings(id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(headings) != 2 || headings[0].Title != "Intro" || headings[1].Title != "Body" {
		t.Fatalf("unexpected headings: %+v", headings)
	}

	if err := s.DeleteBook("T1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetBook("T1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
