// Package assets loads and memoizes template background images.
//
// References are either paths relative to the asset directory or http(s)
// URLs. Decoded images are shared read-only between renders; concurrent
// first loads of one reference are collapsed into a single decode.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/httputil"
)

// ErrNoAsset is returned for an empty reference.
var ErrNoAsset = errors.New("no asset")

// Loader resolves asset references to decoded images.
type Loader struct {
	dir     string
	fetcher *httputil.Fetcher
	memo    *gocache.Cache
	group   singleflight.Group
	logger  *log.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithFetcher enables http(s) references.
func WithFetcher(f *httputil.Fetcher) Option {
	return func(l *Loader) { l.fetcher = f }
}

// WithLogger sets the loader's logger.
func WithLogger(lg *log.Logger) Option {
	return func(l *Loader) { l.logger = lg }
}

// WithMemoTTL sets how long decoded images stay in memory after their last
// load. The default is one hour.
func WithMemoTTL(d time.Duration) Option {
	return func(l *Loader) { l.memo = gocache.New(d, 2*d) }
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:    dir,
		memo:   gocache.New(time.Hour, 2*time.Hour),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the decoded image for ref.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNoAsset
	}
	if v, ok := l.memo.Get(ref); ok {
		return v.(image.Image), nil
	}

	v, err, _ := l.group.Do(ref, func() (any, error) {
		if v, ok := l.memo.Get(ref); ok {
			return v, nil
		}
		data, err := l.read(ctx, ref)
		if err != nil {
			return nil, err
		}
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", ref, err)
		}
		l.memo.Set(ref, img, gocache.DefaultExpiration)
		l.logger.Debug("asset loaded", "ref", ref, "size", img.Bounds().Size())
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (l *Loader) read(ctx context.Context, ref string) ([]byte, error) {
	if isRemote(ref) {
		if l.fetcher == nil {
			return nil, fmt.Errorf("remote asset %s: no fetcher configured", ref)
		}
		return l.fetcher.Get(ctx, ref)
	}
	if !filepath.IsLocal(ref) {
		return nil, fmt.Errorf("asset %q escapes the asset directory", ref)
	}
	if l.dir == "" {
		return nil, fmt.Errorf("asset %s: %w", ref, os.ErrNotExist)
	}
	return os.ReadFile(filepath.Join(l.dir, ref))
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
