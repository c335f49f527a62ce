package catalog

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Orientation is the canvas orientation of a template.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
	Square    Orientation = "square"
)

// Align is the horizontal alignment of a text element around its x position.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Anchor returns the gg anchor fraction for the alignment.
func (a Align) Anchor() float64 {
	switch a {
	case AlignLeft:
		return 0
	case AlignRight:
		return 1
	default:
		return 0.5
	}
}

// ElementKind selects how an element's resolved text is laid out.
type ElementKind string

const (
	// KindText is a plain (optionally wrapped) text element.
	KindText ElementKind = "text"
	// KindNames is the couple-names element; "A & B" renders as two
	// stacked names with an ornament between them.
	KindNames ElementKind = "names"
)

// BorderStyle is the decorative frame drawn when the background asset is
// absent.
type BorderStyle string

const (
	BorderDouble BorderStyle = "double"
	BorderCorner BorderStyle = "corners"
	BorderNone   BorderStyle = "none"
)

// Color roles an element may reference.
const (
	RolePrimary    = "primary"
	RoleSecondary  = "secondary"
	RoleAccent     = "accent"
	RoleBackground = "background"
	RoleText       = "text"
)

// Font roles an element may reference instead of a family name.
const (
	FontHeading = "heading"
	FontBody    = "body"
	FontScript  = "script"
)

// Template is an immutable catalog entry.
type Template struct {
	ID            string        `toml:"id"`
	Name          string        `toml:"name"`
	Description   string        `toml:"description"`
	Category      string        `toml:"category"`
	Orientation   Orientation   `toml:"orientation"`
	Width         int           `toml:"width"`
	Height        int           `toml:"height"`
	Background    string        `toml:"background"`
	DefaultScheme string        `toml:"default_scheme"`
	Border        BorderStyle   `toml:"border"`
	Typography    Typography    `toml:"typography"`
	Schemes       []ColorScheme `toml:"schemes"`
	Elements      []Element     `toml:"elements"`
	Fields        []FieldSpec   `toml:"fields"`
	QR            QRPlacement   `toml:"qr"`
}

// Typography names the font families a template uses by role and the
// families a caller may pick as an override.
type Typography struct {
	Heading string   `toml:"heading"`
	Body    string   `toml:"body"`
	Script  string   `toml:"script"`
	Allowed []string `toml:"allowed"`
}

// ColorScheme is a named palette. Colors are "#rrggbb".
type ColorScheme struct {
	Name       string `toml:"name"`
	Primary    string `toml:"primary"`
	Secondary  string `toml:"secondary"`
	Accent     string `toml:"accent"`
	Background string `toml:"background"`
	Text       string `toml:"text"`
}

// Element is a positioned text element.
type Element struct {
	Name       string      `toml:"name"`
	Kind       ElementKind `toml:"kind"`
	Bind       string      `toml:"bind"`
	X          float64     `toml:"x"`
	Y          float64     `toml:"y"`
	FontSize   float64     `toml:"font_size"`
	Font       string      `toml:"font"`
	Align      Align       `toml:"align"`
	Color      string      `toml:"color"`
	MaxWidth   float64     `toml:"max_width"`
	LineHeight float64     `toml:"line_height"`
	Uppercase  bool        `toml:"uppercase"`
}

// FieldSpec declares a template-specific input field or tightens a core one.
type FieldSpec struct {
	Name      string `toml:"name"`
	Label     string `toml:"label"`
	Required  bool   `toml:"required"`
	MaxLength int    `toml:"max_length"`
}

// QRPlacement is the default position and size of the RSVP code.
// X and Y are the center of the symbol; Size is its edge as a percentage of
// the canvas width.
type QRPlacement struct {
	Enabled  bool    `toml:"enabled"`
	X        float64 `toml:"x"`
	Y        float64 `toml:"y"`
	Size     float64 `toml:"size"`
	Caption  string  `toml:"caption"`
	Position string  `toml:"position"`
}

// Scheme returns the named color scheme. An empty name selects the
// template's default scheme.
func (t *Template) Scheme(name string) (ColorScheme, bool) {
	if name == "" {
		name = t.DefaultScheme
	}
	for _, s := range t.Schemes {
		if s.Name == name {
			return s, true
		}
	}
	return ColorScheme{}, false
}

// FontFamily resolves a font reference (a role or a literal family name).
func (t *Template) FontFamily(ref string) string {
	switch ref {
	case FontHeading, "":
		return t.Typography.Heading
	case FontBody:
		return t.Typography.Body
	case FontScript:
		return t.Typography.Script
	}
	return ref
}

// Fonts returns the families a caller may choose from: the declared
// allow-list, or the role families when no allow-list is declared.
func (t *Template) Fonts() []string {
	if len(t.Typography.Allowed) > 0 {
		return t.Typography.Allowed
	}
	var out []string
	seen := map[string]bool{}
	for _, f := range []string{t.Typography.Heading, t.Typography.Body, t.Typography.Script} {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// FontChoice matches family case-insensitively against [Template.Fonts]
// and returns the declared spelling.
func (t *Template) FontChoice(family string) (string, bool) {
	for _, f := range t.Fonts() {
		if strings.EqualFold(f, family) {
			return f, true
		}
	}
	return "", false
}

// Field returns the template's declaration for the named field.
func (t *Template) Field(name string) (FieldSpec, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Color returns the parsed color for a role. Unknown roles fall back to the
// text color. Schemes are validated at load time, so parsing cannot fail for
// a registry-provided scheme.
func (s ColorScheme) Color(role string) color.RGBA {
	var hex string
	switch role {
	case RolePrimary:
		hex = s.Primary
	case RoleSecondary:
		hex = s.Secondary
	case RoleAccent:
		hex = s.Accent
	case RoleBackground:
		hex = s.Background
	default:
		hex = s.Text
	}
	c, _ := ParseHex(hex)
	return c
}

// ParseHex parses a "#rrggbb" color.
func ParseHex(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("color %q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q is not #rrggbb", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
