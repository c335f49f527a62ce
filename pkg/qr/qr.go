// Package qr encodes RSVP links as QR symbols.
//
// Generate is a pure function of its inputs: the encoder has no random
// padding, so identical data and size always produce byte-identical PNGs.
package qr

import (
	"fmt"
	"math"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
)

// SizeClass is a caller-facing symbol size.
type SizeClass string

const (
	Small  SizeClass = "small"
	Medium SizeClass = "medium"
	Large  SizeClass = "large"
)

// Sizes lists the valid size classes.
var Sizes = []SizeClass{Small, Medium, Large}

// Recovery is the error correction level used for every symbol.
const Recovery = qrcode.Medium

// Default edge lengths in pixels when no template base is given.
var defaultPixels = map[SizeClass]int{Small: 160, Medium: 240, Large: 320}

// scale relates each class to a template's declared QR size.
var scale = map[SizeClass]float64{Small: 0.75, Medium: 1.0, Large: 1.25}

// ParseSize validates a size class name. The empty string selects Medium.
func ParseSize(s string) (SizeClass, error) {
	if s == "" {
		return Medium, nil
	}
	c := SizeClass(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := defaultPixels[c]; !ok {
		return "", fmt.Errorf("size %q must be small, medium or large", s)
	}
	return c, nil
}

// Pixels returns the edge length for a size class. A positive base is the
// template's medium size; otherwise the fixed defaults apply.
func Pixels(size SizeClass, base int) int {
	if base <= 0 {
		if px, ok := defaultPixels[size]; ok {
			return px
		}
		return defaultPixels[Medium]
	}
	f, ok := scale[size]
	if !ok {
		f = 1
	}
	return int(math.Round(float64(base) * f))
}

type options struct {
	base int
}

// Option configures Generate.
type Option func(*options)

// WithBase scales the size class relative to a template's QR placement,
// given in pixels.
func WithBase(px int) Option {
	return func(o *options) { o.base = px }
}

// Generate encodes data into a PNG QR symbol of the given size class.
func Generate(data string, size SizeClass, opts ...Option) ([]byte, error) {
	if data == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "qr: empty payload")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	code, err := qrcode.New(data, Recovery)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRenderFailed, err, "qr: encode")
	}
	png, err := code.PNG(Pixels(size, o.base))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRenderFailed, err, "qr: png")
	}
	return png, nil
}

// RSVPURL builds the RSVP reference encoded into invitations.
func RSVPURL(base, token string) string {
	return strings.TrimRight(base, "/") + "/rsvp/" + token
}
