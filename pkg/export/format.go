package export

import (
	"strings"

	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
)

// Format is an output encoding of a composed invitation.
type Format string

const (
	PNG       Format = "png"
	JPG       Format = "jpg"
	PDF       Format = "pdf"
	Instagram Format = "instagram"
	WhatsApp  Format = "whatsapp"
)

// Formats lists every supported format.
var Formats = []Format{PNG, JPG, PDF, Instagram, WhatsApp}

var formatInfo = map[Format]struct{ contentType, ext string }{
	PNG:       {"image/png", ".png"},
	JPG:       {"image/jpeg", ".jpg"},
	PDF:       {"application/pdf", ".pdf"},
	Instagram: {"image/png", ".png"},
	WhatsApp:  {"image/jpeg", ".jpg"},
}

// ContentType returns the MIME type of the encoded artifact.
func (f Format) ContentType() string { return formatInfo[f].contentType }

// Extension returns the file extension, including the dot.
func (f Format) Extension() string { return formatInfo[f].ext }

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	_, ok := formatInfo[f]
	return ok
}

// Filename returns the download name for stem in this format. Social crops
// carry a suffix so they do not collide with the full-size image.
func (f Format) Filename(stem string) string {
	switch f {
	case Instagram, WhatsApp:
		return stem + "-" + string(f) + f.Extension()
	}
	return stem + f.Extension()
}

// ParseFormat parses a format name. "jpeg" is accepted for jpg.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "jpeg" {
		f = JPG
	}
	if !f.Valid() {
		return "", errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q", s)
	}
	return f, nil
}

// ParseFormats parses and de-duplicates format names, keeping first
// occurrence order. Every invalid name is reported. An empty list is an
// error.
func ParseFormats(names []string) ([]Format, error) {
	var (
		out  []Format
		bad  []string
		seen = map[Format]bool{}
	)
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			bad = append(bad, n)
			continue
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(bad) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported format(s): %s", strings.Join(bad, ", "))
	}
	if len(out) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "at least one format is required")
	}
	return out, nil
}
