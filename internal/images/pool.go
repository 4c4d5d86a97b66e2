package images

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Request asks for the image at URL to be bound to a template token.
type Request struct {
	Token string
	URL   string
}

// FetchAll fetches every non-blank request with at most Options.Workers downloads in
// flight and waits for all of them. The result maps token to bitmap; failed tokens map
// to nil and blank URLs are left out.
func (f *Fetcher) FetchAll(ctx context.Context, reqs []Request) map[string]*Bitmap {
	results := make([]*Bitmap, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)
	for i, req := range reqs {
		if strings.TrimSpace(req.URL) == "" {
			continue
		}
		g.Go(func() error {
			results[i] = f.Fetch(gctx, req.URL)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*Bitmap, len(reqs))
	for i, req := range reqs {
		if strings.TrimSpace(req.URL) == "" {
			continue
		}
		out[req.Token] = results[i]
	}
	return out
}
