// Package binder validates raw request input against a template and produces
// a render-ready Invitation.
//
// Bind reports every failing field in one *errors.ValidationError, in a
// stable order: core fields, then template fields in catalog order, then
// customization keys. Free text is clamped rather than rejected; unknown keys
// are ignored.
package binder

import (
	"image/color"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/catalog"
	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/qr"
)

// Field names understood by the binder.
const (
	FieldGroomName      = "groomName"
	FieldBrideName      = "brideName"
	FieldCeremonyDate   = "ceremonyDate"
	FieldCeremonyTime   = "ceremonyTime"
	FieldCeremonyVenue  = "ceremonyVenue"
	FieldReceptionVenue = "receptionVenue"
	FieldReceptionTime  = "receptionTime"
	FieldMessage        = "message"
	FieldScripture      = "scripture"
	FieldRSVPContact    = "rsvpContact"
	FieldHashtag        = "hashtag"
	FieldGroomParents   = "groomParents"
	FieldBrideParents   = "brideParents"
)

// Customization keys, as advertised by the catalog.
const (
	KeyColorScheme  = catalog.KeyColorScheme
	KeyFontFamily   = catalog.KeyFontFamily
	KeyPrimaryColor = catalog.KeyPrimaryColor
	KeyTextColor    = catalog.KeyTextColor
	KeyQREnabled    = catalog.KeyQREnabled
	KeyQRPosition   = catalog.KeyQRPosition
	KeyQRSize       = catalog.KeyQRSize
)

const (
	dateLayout        = "2006-01-02"
	timeLayout        = "15:04"
	displayDateLayout = "Monday, 2 January 2006"
	displayTimeLayout = "3:04 PM"
)

type valueKind int

const (
	kindText valueKind = iota
	kindDate
	kindTime
)

// defaultMaxLength is used for free text without a specific limit.
const defaultMaxLength = 120

var kinds = map[string]valueKind{
	FieldCeremonyDate:  kindDate,
	FieldCeremonyTime:  kindTime,
	FieldReceptionTime: kindTime,
}

var maxLengths = map[string]int{
	FieldGroomName:      40,
	FieldBrideName:      40,
	FieldCeremonyVenue:  80,
	FieldReceptionVenue: 80,
	FieldMessage:        280,
}

// Customization holds the look overrides a caller selected. Nil colors mean
// the scheme's own colors apply.
type Customization struct {
	Scheme       string
	FontFamily   string
	PrimaryColor *color.RGBA
	TextColor    *color.RGBA
	QREnabled    bool
	QRPosition   string
	QRSize       qr.SizeClass
}

// Invitation is the validated, request-scoped input for one render.
type Invitation struct {
	TemplateID    string
	Values        map[string]string
	CeremonyDate  time.Time
	Customization Customization
}

// Bind validates raw against t.
func Bind(t *catalog.Template, raw map[string]string) (*Invitation, error) {
	inv := &Invitation{TemplateID: t.ID, Values: map[string]string{}}
	verr := &errs.ValidationError{}

	for _, f := range fieldsFor(t) {
		v := strings.TrimSpace(raw[f.Name])
		if v == "" {
			if f.Required {
				verr.Add(f.Name, "is required")
			}
			continue
		}
		switch kinds[f.Name] {
		case kindDate:
			d, err := time.Parse(dateLayout, v)
			if err != nil {
				verr.Add(f.Name, "must be a date in YYYY-MM-DD form")
				continue
			}
			if f.Name == FieldCeremonyDate {
				inv.CeremonyDate = d
			}
		case kindTime:
			if _, err := time.Parse(timeLayout, v); err != nil {
				verr.Add(f.Name, "must be a 24-hour time in HH:MM form")
				continue
			}
		default:
			v = Clamp(v, f.MaxLength)
		}
		inv.Values[f.Name] = v
	}

	inv.Customization = bindCustomization(t, raw, verr)
	if err := verr.Err(); err != nil {
		return nil, err
	}
	return inv, nil
}

// fieldsFor returns the core fields followed by the template's own fields,
// each with its effective max length.
func fieldsFor(t *catalog.Template) []catalog.FieldSpec {
	var out []catalog.FieldSpec
	for _, core := range catalog.CoreFields {
		f := catalog.FieldSpec{Name: core.Name, Label: core.Label, Required: true, MaxLength: core.MaxLength}
		if spec, ok := t.Field(core.Name); ok && spec.MaxLength > 0 {
			f.MaxLength = spec.MaxLength
		}
		out = append(out, f)
	}
	for _, f := range t.Fields {
		if isCore(f.Name) {
			continue
		}
		out = append(out, f)
	}
	for i := range out {
		if out[i].MaxLength == 0 {
			out[i].MaxLength = maxLengthOf(out[i].Name)
		}
	}
	return out
}

func isCore(name string) bool {
	for _, f := range catalog.CoreFields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func maxLengthOf(name string) int {
	if n, ok := maxLengths[name]; ok {
		return n
	}
	return defaultMaxLength
}

func bindCustomization(t *catalog.Template, raw map[string]string, verr *errs.ValidationError) Customization {
	c := Customization{
		Scheme:     t.DefaultScheme,
		QREnabled:  t.QR.Enabled,
		QRPosition: t.QR.Position,
		QRSize:     qr.Medium,
	}

	if v := strings.TrimSpace(raw[KeyColorScheme]); v != "" {
		if _, ok := t.Scheme(v); ok {
			c.Scheme = v
		} else {
			verr.Add(KeyColorScheme, "unknown color scheme %q", v)
		}
	}
	if v := strings.TrimSpace(raw[KeyFontFamily]); v != "" {
		if family, ok := t.FontChoice(v); ok {
			c.FontFamily = family
		} else {
			verr.Add(KeyFontFamily, "font %q is not offered by this template", v)
		}
	}
	c.PrimaryColor = bindColor(raw, KeyPrimaryColor, verr)
	c.TextColor = bindColor(raw, KeyTextColor, verr)

	if v := strings.TrimSpace(raw[KeyQREnabled]); v != "" {
		b, err := strconv.ParseBool(v)
		switch {
		case err != nil:
			verr.Add(KeyQREnabled, "must be true or false")
		case b && t.QR.Size == 0:
			verr.Add(KeyQREnabled, "this template has no QR placement")
		default:
			c.QREnabled = b
		}
	}
	if v := strings.TrimSpace(raw[KeyQRPosition]); v != "" {
		if isQRPosition(v) {
			c.QRPosition = v
		} else {
			verr.Add(KeyQRPosition, "must be one of %s", strings.Join(catalog.QRPositions, ", "))
		}
	}
	if v := raw[KeyQRSize]; strings.TrimSpace(v) != "" {
		size, err := qr.ParseSize(v)
		if err != nil {
			verr.Add(KeyQRSize, "must be small, medium or large")
		} else {
			c.QRSize = size
		}
	}
	return c
}

func bindColor(raw map[string]string, key string, verr *errs.ValidationError) *color.RGBA {
	v := strings.TrimSpace(raw[key])
	if v == "" {
		return nil
	}
	c, err := catalog.ParseHex(v)
	if err != nil {
		verr.Add(key, "must be a #rrggbb color")
		return nil
	}
	return &c
}

func isQRPosition(p string) bool {
	for _, q := range catalog.QRPositions {
		if q == p {
			return true
		}
	}
	return false
}

// Clamp truncates s to at most max runes without splitting a character and
// trims whitespace left at the cut. A non-positive max leaves s unchanged.
func Clamp(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return strings.TrimRightFunc(s[:i], isSpace)
		}
		n++
	}
	return s
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }
