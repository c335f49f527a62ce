package compose

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/assets"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/binder"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/catalog"
	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/fonts"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/observability"
)

// Options carries per-render inputs that are not part of the invitation.
type Options struct {
	// RSVPURL is encoded into the QR code. An empty URL suppresses it.
	RSVPURL string
}

// Composer renders invitations.
type Composer struct {
	fonts  *fonts.Registry
	assets *assets.Loader
	logger *log.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(l *log.Logger) Option {
	return func(c *Composer) { c.logger = l }
}

// New creates a Composer. assets may be nil, in which case every template
// is drawn with its decorative border.
func New(f *fonts.Registry, a *assets.Loader, opts ...Option) *Composer {
	c := &Composer{fonts: f, assets: a, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose draws inv onto a new surface sized to the template canvas.
func (c *Composer) Compose(ctx context.Context, t *catalog.Template, inv *binder.Invitation, scheme catalog.ColorScheme, opts Options) (*image.RGBA, error) {
	if t.Width <= 0 || t.Height <= 0 {
		return nil, errs.New(errs.ErrCodeRenderFailed, "template %s has no canvas", t.ID)
	}
	r := &render{
		Composer: c,
		ctx:      ctx,
		t:        t,
		inv:      inv,
		scheme:   scheme,
		dc:       gg.NewContext(t.Width, t.Height),
		w:        float64(t.Width),
		h:        float64(t.Height),
		degraded: map[string]bool{},
	}

	r.dc.SetColor(scheme.Color(catalog.RoleBackground))
	r.dc.Clear()
	r.background()

	values := inv.Placeholders()
	for _, e := range t.Elements {
		text, ok := Resolve(e.Bind, values)
		if !ok {
			continue
		}
		if e.Uppercase {
			text = strings.ToUpper(text)
		}
		if e.Kind == catalog.KindNames && strings.Contains(text, NameSeparator) {
			r.names(e, text)
			continue
		}
		r.text(e, text)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.qrCode(opts.RSVPURL); err != nil {
		return nil, err
	}

	img, ok := r.dc.Image().(*image.RGBA)
	if !ok {
		return nil, errs.New(errs.ErrCodeRenderFailed, "unexpected surface type")
	}
	return img, nil
}

// render is the state of one Compose call.
type render struct {
	*Composer
	ctx    context.Context
	t      *catalog.Template
	inv    *binder.Invitation
	scheme catalog.ColorScheme
	dc     *gg.Context
	w, h   float64

	degraded map[string]bool
}

func (r *render) background() {
	if r.t.Background == "" || r.assets == nil {
		r.border()
		return
	}
	img, err := r.assets.Load(r.ctx, r.t.Background)
	if err != nil {
		r.fallback("background", r.t.Background, err)
		r.border()
		return
	}
	r.dc.DrawImage(imaging.Fill(img, r.t.Width, r.t.Height, imaging.Center, imaging.Lanczos), 0, 0)
}

// fallback reports a degraded resource once per render.
func (r *render) fallback(resource, name string, err error) {
	key := resource + "\x00" + name
	if r.degraded[key] {
		return
	}
	r.degraded[key] = true
	r.logger.Warn("render degraded", "template", r.t.ID, "resource", resource, "name", name, "err", err)
	observability.Generation().OnFallback(r.ctx, r.t.ID, resource, name, err)
}

// color resolves an element color role, applying the caller's overrides.
func (r *render) color(role string) color.Color {
	c := r.inv.Customization
	switch {
	case role == catalog.RolePrimary && c.PrimaryColor != nil:
		return *c.PrimaryColor
	case role == catalog.RoleText && c.TextColor != nil:
		return *c.TextColor
	}
	return r.scheme.Color(role)
}

// family resolves an element's font. A caller override replaces every
// family except the script face, which carries the couple's names.
func (r *render) family(ref string) string {
	if o := r.inv.Customization.FontFamily; o != "" && ref != catalog.FontScript {
		return o
	}
	return r.t.FontFamily(ref)
}

// setFace selects the font for family at size px on the surface.
func (r *render) setFace(family string, size float64) {
	face, ok := r.fonts.Face(family, size)
	if !ok {
		r.fallback("font", family, errors.New("family not installed"))
	}
	r.dc.SetFontFace(face)
}

func (r *render) px(pctX, pctY float64) (float64, float64) {
	return pctX / 100 * r.w, pctY / 100 * r.h
}

func (r *render) text(e catalog.Element, text string) {
	x, y := r.px(e.X, e.Y)
	r.setFace(r.family(e.Font), e.FontSize)
	r.dc.SetColor(r.color(e.Color))

	lines := []string{text}
	if e.MaxWidth > 0 {
		lines = r.dc.WordWrap(text, e.MaxWidth/100*r.w)
	}
	step := e.FontSize * e.LineHeight
	for i, line := range lines {
		r.dc.DrawStringAnchored(line, x, y+float64(i)*step, e.Align.Anchor(), 0)
	}
}

// fitFace sets family at size, shrunk so that every line fits maxW. The
// size never drops below half the declared size.
func (r *render) fitFace(family string, size, maxW float64, lines ...string) float64 {
	r.setFace(family, size)
	if maxW <= 0 {
		return size
	}
	widest := 0.0
	for _, l := range lines {
		if w, _ := r.dc.MeasureString(l); w > widest {
			widest = w
		}
	}
	if widest <= maxW {
		return size
	}
	fitted := math.Max(size*maxW/widest, size/2)
	r.setFace(family, fitted)
	return fitted
}
