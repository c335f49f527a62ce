// Package fonts resolves font families to drawable faces.
//
// The Go font family is built in. Other families are loaded on first use
// from a directory of TrueType files; a family with no file degrades to Go
// Regular and is reported once at warn level.
//
// Parsed fonts are shared. Faces are not safe for concurrent use, so Face
// returns a new one on every call.
package fonts

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFamily is the family used when a requested family is unavailable.
const DefaultFamily = "Go"

var builtin = map[string][]byte{
	"go":        goregular.TTF,
	"go bold":   gobold.TTF,
	"go italic": goitalic.TTF,
	"go mono":   gomono.TTF,
}

// Registry loads and caches parsed fonts by family name.
type Registry struct {
	dir    string
	logger *log.Logger

	mu      sync.Mutex
	parsed  map[string]*truetype.Font
	missing map[string]bool
	deflt   *truetype.Font
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New creates a registry that looks for family files under dir. An empty dir
// limits the registry to the built-in Go fonts.
func New(dir string, opts ...Option) (*Registry, error) {
	r := &Registry{
		dir:     dir,
		logger:  log.New(io.Discard),
		parsed:  map[string]*truetype.Font{},
		missing: map[string]bool{},
	}
	for _, opt := range opts {
		opt(r)
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	r.deflt = f
	r.parsed["go"] = f
	return r, nil
}

// Face returns a face for family at size points (72 DPI, so points equal
// pixels). The boolean is false when the default font was substituted.
func (r *Registry) Face(family string, size float64) (font.Face, bool) {
	f, ok := r.Font(family)
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), ok
}

// Font returns the parsed font for family, or the default font and false.
func (r *Registry) Font(family string) (*truetype.Font, bool) {
	key := strings.ToLower(strings.TrimSpace(family))
	if key == "" {
		return r.deflt, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.parsed[key]; ok {
		return f, true
	}
	if r.missing[key] {
		return r.deflt, false
	}

	f, err := r.load(family, key)
	if err != nil {
		r.missing[key] = true
		r.logger.Warn("font unavailable, using default", "family", family, "default", DefaultFamily, "err", err)
		return r.deflt, false
	}
	r.parsed[key] = f
	return f, true
}

func (r *Registry) load(family, key string) (*truetype.Font, error) {
	if data, ok := builtin[key]; ok {
		return truetype.Parse(data)
	}
	if r.dir == "" {
		return nil, os.ErrNotExist
	}
	for _, name := range candidates(family) {
		data, err := os.ReadFile(filepath.Join(r.dir, name))
		if err != nil {
			continue
		}
		return truetype.Parse(data)
	}
	return nil, os.ErrNotExist
}

// candidates lists the file names tried for a family, e.g. "Great Vibes" is
// looked up as GreatVibes-Regular.ttf, GreatVibes.ttf, great-vibes.ttf and
// Great Vibes.ttf.
func candidates(family string) []string {
	compact := strings.ReplaceAll(family, " ", "")
	dashed := strings.ToLower(strings.Join(strings.Fields(family), "-"))
	return []string{
		compact + "-Regular.ttf",
		compact + ".ttf",
		dashed + ".ttf",
		family + ".ttf",
	}
}
