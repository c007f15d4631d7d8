package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a referenced book or heading does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateTitle is returned when creating a book whose title is taken.
	ErrDuplicateTitle = errors.New("duplicate book title")
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS books (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL UNIQUE,
    before_notes TEXT NOT NULL,
    after_notes TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS headings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
    heading_number INTEGER NOT NULL,
    heading_title TEXT NOT NULL,
    sub_heading TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    before_notes TEXT NOT NULL DEFAULT '',
    after_notes TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE(book_id, heading_title)
);
`

// Book is a row in the books registry.
type Book struct {
	ID          int64
	Title       string
	BeforeNotes string
	AfterNotes  string
	CreatedAt   string
	UpdatedAt   string
}

// Heading is one chapter unit belonging to a book.
type Heading struct {
	ID          int64
	BookID      int64
	Number      int
	Title       string
	SubHeading  string
	Description string
	Summary     string
	Content     string
	BeforeNotes string
	AfterNotes  string
	CreatedAt   string
	UpdatedAt   string
}

// NewHeading carries the outline fields for an insert.
type NewHeading struct {
	Number      int
	Title       string
	SubHeading  string
	Description string
}

// BookUpdate is a partial update; nil fields are left untouched.
type BookUpdate struct {
	BeforeNotes *string
	AfterNotes  *string
}

// HeadingUpdate is a partial update; nil fields are left untouched.
type HeadingUpdate struct {
	Summary     *string
	Content     *string
	BeforeNotes *string
	AfterNotes  *string
}

// Store provides durable CRUD for books and their headings on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CreateBook registers a new book. The title must be unique.
func (s *Store) CreateBook(title, beforeNotes string) (int64, error) {
	now := nowUTC()
	res, err := s.db.Exec(
		`INSERT INTO books (title, before_notes, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		title, beforeNotes, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("create book %q: %w", title, ErrDuplicateTitle)
		}
		return 0, fmt.Errorf("insert book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("book last insert id: %w", err)
	}
	return id, nil
}

// UpdateBook applies a partial update keyed by title. The updated_at column
// always changes. A missing title is surfaced as ErrNotFound.
func (s *Store) UpdateBook(title string, upd BookUpdate) error {
	fields := []string{"updated_at = ?"}
	args := []any{nowUTC()}
	if upd.BeforeNotes != nil {
		fields = append(fields, "before_notes = ?")
		args = append(args, *upd.BeforeNotes)
	}
	if upd.AfterNotes != nil {
		fields = append(fields, "after_notes = ?")
		args = append(args, *upd.AfterNotes)
	}
	args = append(args, title)

	res, err := s.db.Exec(
		`UPDATE books SET `+strings.Join(fields, ", ")+` WHERE title = ?`, args...,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update book rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update book %q: %w", title, ErrNotFound)
	}
	return nil
}

// DeleteBook removes a book and all of its headings in one transaction.
// Deleting a title that does not exist is a no-op.
func (s *Store) DeleteBook(title string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM headings WHERE book_id IN (SELECT id FROM books WHERE title = ?)`, title,
	); err != nil {
		return fmt.Errorf("delete headings: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM books WHERE title = ?`, title); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetBook looks a book up by its exact title.
func (s *Store) GetBook(title string) (Book, error) {
	var b Book
	err := s.db.QueryRow(
		`SELECT id, title, before_notes, after_notes, created_at, updated_at
		 FROM books WHERE title = ?`, title,
	).Scan(&b.ID, &b.Title, &b.BeforeNotes, &b.AfterNotes, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, fmt.Errorf("book %q: %w", title, ErrNotFound)
	}
	if err != nil {
		return Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// AddHeading inserts one outline chapter for the given book.
func (s *Store) AddHeading(bookID int64, h NewHeading) (int64, error) {
	if err := s.bookExists(bookID); err != nil {
		return 0, err
	}
	now := nowUTC()
	res, err := s.db.Exec(
		`INSERT INTO headings (book_id, heading_number, heading_title, sub_heading, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		bookID, h.Number, h.Title, h.SubHeading, h.Description, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert heading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("heading last insert id: %w", err)
	}
	return id, nil
}

// UpdateHeading applies a partial update keyed by (bookID, headingTitle).
// Both an unknown book and an unmatched heading title return ErrNotFound.
func (s *Store) UpdateHeading(bookID int64, headingTitle string, upd HeadingUpdate) error {
	if err := s.bookExists(bookID); err != nil {
		return err
	}

	fields := []string{"updated_at = ?"}
	args := []any{nowUTC()}
	if upd.Summary != nil {
		fields = append(fields, "summary = ?")
		args = append(args, *upd.Summary)
	}
	if upd.Content != nil {
		fields = append(fields, "content = ?")
		args = append(args, *upd.Content)
	}
	if upd.BeforeNotes != nil {
		fields = append(fields, "before_notes = ?")
		args = append(args, *upd.BeforeNotes)
	}
	if upd.AfterNotes != nil {
		fields = append(fields, "after_notes = ?")
		args = append(args, *upd.AfterNotes)
	}
	args = append(args, bookID, headingTitle)

	res, err := s.db.Exec(
		`UPDATE headings SET `+strings.Join(fields, ", ")+` WHERE book_id = ? AND heading_title = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update heading: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update heading rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("heading %q in book %d: %w", headingTitle, bookID, ErrNotFound)
	}
	return nil
}

// ListHeadings returns the book's headings ordered by heading_number.
func (s *Store) ListHeadings(bookID int64) ([]Heading, error) {
	if err := s.bookExists(bookID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, book_id, heading_number, heading_title, sub_heading, description,
		        summary, content, before_notes, after_notes, created_at, updated_at
		 FROM headings WHERE book_id = ? ORDER BY heading_number, id`, bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("list headings: %w", err)
	}
	defer rows.Close()

	var headings []Heading
	for rows.Next() {
		var h Heading
		if err := rows.Scan(
			&h.ID, &h.BookID, &h.Number, &h.Title, &h.SubHeading, &h.Description,
			&h.Summary, &h.Content, &h.BeforeNotes, &h.AfterNotes, &h.CreatedAt, &h.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan heading: %w", err)
		}
		headings = append(headings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate headings: %w", err)
	}
	return headings, nil
}

func (s *Store) bookExists(bookID int64) error {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM books WHERE id = ?`, bookID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("book id %d: %w", bookID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check book: %w", err)
	}
	return nil
}
