// Package readinglist reads a Goodreads-style library export and produces
// the queries the matcher runs against the store.
package readinglist

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"bookmatch/internal/isbn"
	"bookmatch/internal/match"
)

// DefaultShelf is the Goodreads shelf read when none is configured.
const DefaultShelf = "to-read"

// Book is one reading-list entry. ISBN holds the normalized 13-digit form
// when the export carried a usable ISBN in either column.
type Book struct {
	Title  string
	Author string
	ISBN   string
	Shelf  string
}

// Query converts the entry to a matcher query.
func (b Book) Query() match.Query {
	return match.Query{Title: b.Title, Author: b.Author, ISBN: b.ISBN}
}

// Queries converts a whole list in order.
func Queries(books []Book) []match.Query {
	queries := make([]match.Query, len(books))
	for i, b := range books {
		queries[i] = b.Query()
	}
	return queries
}

// Options controls export parsing.
type Options struct {
	// Shelf filters rows to entries shelved under this name. Empty means
	// DefaultShelf; "*" disables filtering.
	Shelf string
}

// Exports use these column headers. Matching is case-insensitive and the
// columns may appear in any order.
const (
	columnTitle       = "title"
	columnAuthor      = "author"
	columnISBN        = "isbn"
	columnISBN13      = "isbn13"
	columnBookshelves = "bookshelves"
	columnExclusive   = "exclusive shelf"
)

// ReadFile parses the export at path.
func ReadFile(path string, opts Options) ([]Book, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reading list: %w", err)
	}
	defer file.Close()
	books, err := Read(file, opts)
	if err != nil {
		return nil, fmt.Errorf("parse reading list %s: %w", path, err)
	}
	return books, nil
}

// Read parses an export stream. Rows with an empty title are skipped; the
// remaining rows keep their input order. A missing Title column is an
// error, every other column is optional.
func Read(r io.Reader, opts Options) ([]Book, error) {
	shelf := strings.TrimSpace(opts.Shelf)
	if shelf == "" {
		shelf = DefaultShelf
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty export")
	}
	if err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns[columnTitle]; !ok {
		return nil, fmt.Errorf("export has no Title column")
	}

	var books []Book
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		title := strings.TrimSpace(cell(record, columns, columnTitle))
		if title == "" {
			continue
		}

		shelves := cell(record, columns, columnBookshelves)
		if shelves == "" {
			shelves = cell(record, columns, columnExclusive)
		}
		if !onShelf(shelves, shelf) {
			continue
		}

		books = append(books, Book{
			Title:  title,
			Author: strings.TrimSpace(cell(record, columns, columnAuthor)),
			ISBN:   pickISBN(cell(record, columns, columnISBN13), cell(record, columns, columnISBN)),
			Shelf:  shelf,
		})
	}
	return books, nil
}

func cell(record []string, columns map[string]int, name string) string {
	index, ok := columns[name]
	if !ok || index >= len(record) {
		return ""
	}
	return record[index]
}

// onShelf reports whether the comma-separated shelves cell names the
// wanted shelf. "*" accepts every row, shelved or not.
func onShelf(shelves, wanted string) bool {
	if wanted == "*" {
		return true
	}
	for _, name := range strings.Split(shelves, ",") {
		if strings.EqualFold(strings.TrimSpace(name), wanted) {
			return true
		}
	}
	return false
}

// pickISBN prefers the ISBN13 column, falls back to ISBN, and normalizes
// to the 13-digit form. Goodreads wraps both cells in an Excel formula.
func pickISBN(isbn13Cell, isbnCell string) string {
	for _, raw := range []string{isbn13Cell, isbnCell} {
		if normalized := isbn.To13(isbn.UnwrapExportCell(raw)); normalized != "" {
			return normalized
		}
	}
	return ""
}
