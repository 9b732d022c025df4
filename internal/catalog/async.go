package catalog

import (
	"context"

	"github.com/popcornapp/popcorn-server/internal/domain"
)

// Result is the outcome of one asynchronous fetch. Exactly one of Catalog and Err is set.
type Result struct {
	Catalog domain.Catalog
	Err     error
}

// Fetcher is what FetchAsync needs from a client.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.Catalog, error)
}

// FetchAsync fetches on a new goroutine and runs onComplete on the dispatcher,
// for success and failure alike. It returns without waiting.
func FetchAsync(ctx context.Context, f Fetcher, d *Dispatcher, onComplete func(Result)) {
	go func() {
		movies, err := f.Fetch(ctx)
		res := Result{Catalog: movies, Err: err}
		d.Post(context.WithoutCancel(ctx), func() { onComplete(res) })
	}()
}
