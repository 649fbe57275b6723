package readinglist_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookmatch/internal/readinglist"
)

const sampleExport = `Title,Author,ISBN,ISBN13,Bookshelves
The Song of Achilles,Madeline Miller,"=""0062060619""","=""9780062060624""","to-read"
Circe,Madeline Miller,"=""""","=""9780316556347""","to-read, favorites"
Project Hail Mary,Andy Weir,"=""""","=""""","currently-reading"
,,"=""""","=""""","to-read"
The Way of Kings,Brandon Sanderson,"=""0765326353""","=""""","to-read"
`

func TestReadFiltersShelf(t *testing.T) {
	books, err := readinglist.Read(strings.NewReader(sampleExport), readinglist.Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("got %d books, want 3: %+v", len(books), books)
	}

	want := []readinglist.Book{
		{Title: "The Song of Achilles", Author: "Madeline Miller", ISBN: "9780062060624", Shelf: "to-read"},
		{Title: "Circe", Author: "Madeline Miller", ISBN: "9780316556347", Shelf: "to-read"},
		{Title: "The Way of Kings", Author: "Brandon Sanderson", ISBN: "9780765326355", Shelf: "to-read"},
	}
	for i, b := range want {
		if books[i] != b {
			t.Errorf("book %d = %+v, want %+v", i, books[i], b)
		}
	}
}

func TestReadISBNPreference(t *testing.T) {
	// ISBN13 wins when both columns are populated; the ISBN-10 column is
	// remapped to 13 digits when it is the only one.
	books, err := readinglist.Read(strings.NewReader(sampleExport), readinglist.Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := books[0].ISBN; got != "9780062060624" {
		t.Errorf("ISBN13 column not preferred: %q", got)
	}
	if got := books[2].ISBN; got != "9780765326355" {
		t.Errorf("ISBN-10 fallback not remapped: %q", got)
	}
}

func TestReadOtherShelf(t *testing.T) {
	books, err := readinglist.Read(strings.NewReader(sampleExport),
		readinglist.Options{Shelf: "currently-reading"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(books) != 1 || books[0].Title != "Project Hail Mary" {
		t.Errorf("got %+v, want only Project Hail Mary", books)
	}
}

func TestReadAllShelves(t *testing.T) {
	books, err := readinglist.Read(strings.NewReader(sampleExport), readinglist.Options{Shelf: "*"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(books) != 4 {
		t.Errorf("got %d books, want 4 (empty-title row still skipped)", len(books))
	}
}

func TestReadColumnOrderIndependent(t *testing.T) {
	reordered := "Bookshelves,ISBN13,Title,Author,ISBN\n" +
		`to-read,"=""9780062060624""",The Song of Achilles,Madeline Miller,"="""""` + "\n"
	books, err := readinglist.Read(strings.NewReader(reordered), readinglist.Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(books) != 1 || books[0].ISBN != "9780062060624" {
		t.Errorf("got %+v", books)
	}
}

func TestReadMissingTitleColumn(t *testing.T) {
	_, err := readinglist.Read(strings.NewReader("Author,ISBN\nSomeone,123\n"), readinglist.Options{})
	if err == nil {
		t.Fatal("export without Title column accepted")
	}
}

func TestReadEmptyExport(t *testing.T) {
	_, err := readinglist.Read(strings.NewReader(""), readinglist.Options{})
	if err == nil {
		t.Fatal("empty export accepted")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(sampleExport), 0o644); err != nil {
		t.Fatal(err)
	}
	books, err := readinglist.ReadFile(path, readinglist.Options{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(books) != 3 {
		t.Errorf("got %d books, want 3", len(books))
	}

	if _, err := readinglist.ReadFile(filepath.Join(t.TempDir(), "missing.csv"), readinglist.Options{}); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestQueries(t *testing.T) {
	books := []readinglist.Book{
		{Title: "Circe", Author: "Madeline Miller", ISBN: "9780316556347"},
	}
	queries := readinglist.Queries(books)
	if len(queries) != 1 {
		t.Fatalf("got %d queries", len(queries))
	}
	if queries[0].Title != "Circe" || queries[0].ISBN != "9780316556347" {
		t.Errorf("query = %+v", queries[0])
	}
}
