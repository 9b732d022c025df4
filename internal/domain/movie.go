// Package domain holds the movie, user and document tree types shared by every layer.
package domain

import (
	"strings"

	json "github.com/goccy/go-json"
)

// Movie is one catalog entry as delivered by the upstream provider.
// Values are never mutated after decode; the same shape is stored in user collections.
type Movie struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Link        string  `json:"link"`
	Genre       string  `json:"genre"` // JSON array text, e.g. ["Drama","Crime"]
	Image       string  `json:"images"`
	Rating      float64 `json:"rating"`
	Year        string  `json:"year"`
}

// Genres parses the genre field. ok is false when the field is not a JSON string array.
func (m Movie) Genres() (genres []string, ok bool) {
	return ParseGenres(m.Genre)
}

// GenreLabel is the display form of the genre field: names joined by ", ",
// or the raw field when it cannot be parsed.
func (m Movie) GenreLabel() string {
	return FormatGenres(m.Genre)
}

// ParseGenres decodes a genre field holding a JSON array of names.
func ParseGenres(raw string) ([]string, bool) {
	var genres []string
	if err := json.Unmarshal([]byte(raw), &genres); err != nil {
		return nil, false
	}
	if genres == nil {
		// "null" is valid JSON but not a genre list.
		return nil, false
	}
	return genres, true
}

// FormatGenres renders a genre field for display, falling back to the raw text.
func FormatGenres(raw string) string {
	genres, ok := ParseGenres(raw)
	if !ok {
		return raw
	}
	return strings.Join(genres, ", ")
}

// Catalog is the ordered list of movies from one successful fetch.
// A new fetch replaces it wholesale.
type Catalog []Movie

// Find returns the first movie with the given id.
func (c Catalog) Find(id string) (Movie, bool) {
	for _, m := range c {
		if m.ID == id {
			return m, true
		}
	}
	return Movie{}, false
}
