package catalog

import (
	"github.com/popcornapp/popcorn-server/internal/domain"
	"github.com/popcornapp/popcorn-server/internal/normalize"
)

// Filter returns the movies whose title contains query, ignoring case.
// An empty query returns c unchanged. Order is preserved.
func Filter(c domain.Catalog, query string) domain.Catalog {
	if query == "" {
		return c
	}
	folded := normalize.Fold(query)

	out := make(domain.Catalog, 0)
	for _, m := range c {
		if normalize.ContainsFold(m.Title, folded) {
			out = append(out, m)
		}
	}
	return out
}
