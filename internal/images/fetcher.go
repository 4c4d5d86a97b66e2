package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"catalogdeck/internal/config"
)

// Bitmap is a fetched image re-encoded as JPEG.
type Bitmap struct {
	Data   []byte
	Width  int
	Height int
}

type Options struct {
	Timeout   time.Duration
	Quality   int
	MaxWidth  int
	MaxHeight int
	Workers   int
	Attempts  int

	// RequestsPerSecond caps download starts across all workers; 0 means no cap.
	RequestsPerSecond int
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Timeout:   cfg.ImageTimeout(),
		Quality:   cfg.ImageQuality,
		MaxWidth:  cfg.ImageMaxWidth,
		MaxHeight: cfg.ImageMaxHeight,
		Workers:   cfg.ImageWorkers,
		Attempts:  cfg.ImageFetchAttempts,

		RequestsPerSecond: cfg.ImageRequestsPerSecond,
	}
}

type cacheKey struct {
	url       string
	quality   int
	maxWidth  int
	maxHeight int
}

// Fetcher downloads, normalizes and memoizes images. Failed fetches are cached as nil so
// a broken URL is only tried once per run.
type Fetcher struct {
	opts       Options
	httpClient *http.Client
	cache      *cache
	limiter    *limiter
	group      singleflight.Group
}

func NewFetcher(opts Options) *Fetcher {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Fetcher{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      newCache(),
		limiter:    newLimiter(opts.RequestsPerSecond),
	}
}

// Fetch returns the bitmap for url, or nil when it cannot be downloaded or decoded.
func (f *Fetcher) Fetch(ctx context.Context, url string) *Bitmap {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	key := cacheKey{url: url, quality: f.opts.Quality, maxWidth: f.opts.MaxWidth, maxHeight: f.opts.MaxHeight}
	if bmp, ok := f.cache.get(key); ok {
		return bmp
	}

	v, _, _ := f.group.Do(url, func() (any, error) {
		if bmp, ok := f.cache.get(key); ok {
			return bmp, nil
		}
		bmp, err := f.load(ctx, url)
		if err != nil {
			slog.Warn("Failed to fetch image", "url", url, "error", err)
			bmp = nil
		}
		// A cancelled run must not poison the cache for the next one.
		if ctx.Err() == nil {
			f.cache.put(key, bmp)
		}
		return bmp, nil
	})
	bmp, _ := v.(*Bitmap)
	return bmp
}

// Reset drops every memoized result.
func (f *Fetcher) Reset() {
	f.cache.reset()
}

func (f *Fetcher) load(ctx context.Context, url string) (*Bitmap, error) {
	blob, err := f.download(ctx, url)
	if err != nil {
		return nil, err
	}
	return Normalize(blob, f.opts.Quality, f.opts.MaxWidth, f.opts.MaxHeight)
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.opts.Attempts; attempt++ {
		if err := f.limiter.wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			if isRetryableStatus(resp.StatusCode) && attempt < f.opts.Attempts {
				if err := sleep(ctx, backoff(attempt)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("image request failed")
	}
	return nil, lastErr
}

// Normalize decodes blob, flattens transparency onto white, shrinks it to fit within
// maxWidth x maxHeight and re-encodes it as JPEG at the given quality.
func Normalize(blob []byte, quality, maxWidth, maxHeight int) (*Bitmap, error) {
	img, format, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if needsFlatten(img, format) {
		bounds := img.Bounds()
		bg := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
		img = imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
	}

	// Fit never upscales.
	img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	b := img.Bounds()
	return &Bitmap{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

func needsFlatten(img image.Image, format string) bool {
	switch format {
	case "gif", "tiff":
		return true
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func backoff(attempt int) time.Duration {
	return time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
