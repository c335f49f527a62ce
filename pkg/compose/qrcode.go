package compose

import (
	"bytes"
	"image/png"
	"math"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/catalog"
	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/qr"
)

// qrMargin is the distance of a preset-placed code from the canvas edges,
// as a fraction of the shorter edge.
const qrMargin = 0.06

// qrCode draws the RSVP code and its caption when enabled.
func (r *render) qrCode(url string) error {
	c := r.inv.Customization
	if !c.QREnabled || r.t.QR.Size <= 0 || url == "" {
		return nil
	}

	base := int(math.Round(r.t.QR.Size / 100 * r.w))
	data, err := qr.Generate(url, c.QRSize, qr.WithBase(base))
	if err != nil {
		return err
	}
	sym, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return errs.Wrap(errs.ErrCodeRenderFailed, err, "decode qr symbol")
	}
	side := float64(sym.Bounds().Dx())

	captionSize := math.Max(14, side*0.11)
	cx, cy := r.qrCenter(c.QRPosition, side, captionSize)

	// A light plate keeps the symbol scannable over a photographic background.
	pad := side * 0.04
	r.dc.SetColor(r.scheme.Color(catalog.RoleBackground))
	r.dc.DrawRectangle(cx-side/2-pad, cy-side/2-pad, side+2*pad, side+2*pad)
	r.dc.Fill()
	r.dc.DrawImageAnchored(sym, int(math.Round(cx)), int(math.Round(cy)), 0.5, 0.5)

	if r.t.QR.Caption != "" {
		r.setFace(r.family(catalog.FontBody), captionSize)
		r.dc.SetColor(r.color(catalog.RoleText))
		r.dc.DrawStringAnchored(r.t.QR.Caption, cx, cy+side/2+pad+captionSize*1.1, 0.5, 0)
	}
	return nil
}

// qrCenter returns the symbol center for a named position. The template's
// own coordinates apply when no position is named or the named position is
// the template's default.
func (r *render) qrCenter(position string, side, captionSize float64) (float64, float64) {
	if position == "" || position == r.t.QR.Position {
		return r.px(r.t.QR.X, r.t.QR.Y)
	}
	m := math.Min(r.w, r.h) * qrMargin
	half := side / 2
	top := m + half
	bottom := r.h - m - half - captionSize*1.6
	left := m + half
	right := r.w - m - half

	switch position {
	case "top-left":
		return left, top
	case "top-right":
		return right, top
	case "bottom-left":
		return left, bottom
	case "bottom-center":
		return r.w / 2, bottom
	default:
		return right, bottom
	}
}
