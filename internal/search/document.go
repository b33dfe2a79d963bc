package search

import (
	"strings"

	"github.com/tbourn/go-bookshelf-backend/internal/domain"
)

// DefaultStopwords are common English function words that would otherwise
// make every synopsis match every query.
var DefaultStopwords = []string{
	"a", "an", "and", "at", "by", "for", "from", "in", "into", "is", "it",
	"of", "on", "or", "the", "to", "with",
}

// BookDocument flattens the searchable fields of b into a single document:
// title, author, publisher and synopsis, in that order. Blank fields are
// skipped and runs of whitespace collapse to one space.
func BookDocument(b domain.Book) Document {
	parts := make([]string, 0, 4)
	for _, f := range []string{b.Title, b.Author, b.Publisher, b.Synopsis} {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return Document{ID: b.ID, Text: strings.Join(strings.Fields(strings.Join(parts, " ")), " ")}
}

// NewBookIndex builds an Index over books with DefaultStopwords applied.
// Extra options are applied after the defaults.
func NewBookIndex(books []domain.Book, opts ...Option) Index {
	docs := make([]Document, 0, len(books))
	for _, b := range books {
		docs = append(docs, BookDocument(b))
	}
	return NewIndex(docs, append([]Option{WithStopwords(DefaultStopwords)}, opts...)...)
}
