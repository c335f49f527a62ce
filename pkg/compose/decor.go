package compose

import (
	"math"

	"github.com/fogleman/gg"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/catalog"
)

// border draws the template's decorative frame.
func (r *render) border() {
	switch r.t.Border {
	case catalog.BorderNone:
		return
	case catalog.BorderCorner:
		r.cornerBrackets()
	default:
		r.doubleFrame()
	}
}

// doubleFrame draws an outer primary rule and an inner accent rule with a
// small diamond at each inner corner.
func (r *render) doubleFrame() {
	short := math.Min(r.w, r.h)
	outer := short * 0.03
	inner := short * 0.045

	r.dc.SetColor(r.scheme.Color(catalog.RolePrimary))
	r.dc.SetLineWidth(math.Max(2, short/300))
	r.dc.DrawRectangle(outer, outer, r.w-2*outer, r.h-2*outer)
	r.dc.Stroke()

	accent := r.scheme.Color(catalog.RoleAccent)
	r.dc.SetColor(accent)
	r.dc.SetLineWidth(math.Max(1, short/900))
	r.dc.DrawRectangle(inner, inner, r.w-2*inner, r.h-2*inner)
	r.dc.Stroke()

	d := short * 0.012
	for _, p := range corners(inner, r.w, r.h) {
		diamond(r.dc, p[0], p[1], d)
		r.dc.Fill()
	}
}

// cornerBrackets draws L-shaped brackets in each corner with a dot at the
// joint.
func (r *render) cornerBrackets() {
	short := math.Min(r.w, r.h)
	inset := short * 0.04
	arm := short * 0.12

	r.dc.SetColor(r.scheme.Color(catalog.RolePrimary))
	r.dc.SetLineWidth(math.Max(2, short/350))
	for _, p := range corners(inset, r.w, r.h) {
		sx := 1.0
		if p[0] > r.w/2 {
			sx = -1
		}
		sy := 1.0
		if p[1] > r.h/2 {
			sy = -1
		}
		r.dc.MoveTo(p[0]+sx*arm, p[1])
		r.dc.LineTo(p[0], p[1])
		r.dc.LineTo(p[0], p[1]+sy*arm)
		r.dc.Stroke()
	}

	r.dc.SetColor(r.scheme.Color(catalog.RoleAccent))
	for _, p := range corners(inset, r.w, r.h) {
		r.dc.DrawCircle(p[0], p[1], short*0.007)
		r.dc.Fill()
	}
}

func corners(inset, w, h float64) [4][2]float64 {
	return [4][2]float64{
		{inset, inset},
		{w - inset, inset},
		{inset, h - inset},
		{w - inset, h - inset},
	}
}

func diamond(dc *gg.Context, x, y, d float64) {
	dc.MoveTo(x, y-d)
	dc.LineTo(x+d, y)
	dc.LineTo(x, y+d)
	dc.LineTo(x-d, y)
	dc.ClosePath()
}
