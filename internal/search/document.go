package search

import (
	"strconv"

	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/normalize"
)

// MovieDocument is the indexed form of one catalog movie.
type MovieDocument struct {
	ID          string
	Title       string
	Description string
	// Genres holds case-folded genre names for exact filtering.
	Genres []string
	// GenreLabels keeps the display names for results.
	GenreLabels []string
	Year        int
	Rating      float64
}

// NewMovieDocument converts a movie. An unparseable genre field indexes no genres;
// a non-numeric year indexes as 0.
func NewMovieDocument(m domain.Movie) *MovieDocument {
	doc := &MovieDocument{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Rating:      m.Rating,
	}
	if genres, ok := m.Genres(); ok {
		doc.GenreLabels = genres
		doc.Genres = make([]string, len(genres))
		for i, g := range genres {
			doc.Genres[i] = normalize.Fold(g)
		}
	}
	if y, err := strconv.Atoi(m.Year); err == nil {
		doc.Year = y
	}
	return doc
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *MovieDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":          d.ID,
		"title":       d.Title,
		"description": d.Description,
		"rating":      d.Rating,
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
		m["genre_labels"] = d.GenreLabels
	}
	if d.Year > 0 {
		m["year"] = float64(d.Year)
	}
	return m
}
