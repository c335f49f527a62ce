package compose

import (
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/catalog"
)

// Proportions of the names block, relative to the element font size.
const (
	ampersandScale = 0.55
	ampersandDrop  = 0.95 // first baseline to ampersand baseline
	secondDrop     = 1.95 // first baseline to second baseline
	ruleGap        = 0.35
	ruleLength     = 1.6
)

// names draws "A & B" as two stacked names with an ampersand between
// flanking rules. Either name shrinks to fit the element's max width.
func (r *render) names(e catalog.Element, text string) {
	first, second, ok := SplitNames(text)
	if !ok {
		r.text(e, text)
		return
	}
	x, y := r.px(e.X, e.Y)
	ax := e.Align.Anchor()
	family := r.family(e.Font)
	maxW := e.MaxWidth / 100 * r.w

	size := r.fitFace(family, e.FontSize, maxW, first, second)
	r.dc.SetColor(r.color(e.Color))
	r.dc.DrawStringAnchored(first, x, y, ax, 0)
	r.dc.DrawStringAnchored(second, x, y+secondDrop*size, ax, 0)

	ampSize := size * ampersandScale
	ampY := y + ampersandDrop*size
	r.setFace(family, ampSize)
	accent := r.color(catalog.RoleAccent)
	r.dc.SetColor(accent)
	r.dc.DrawStringAnchored("&", x, ampY, ax, 0)

	// Rules sit at the optical middle of the ampersand.
	ampW, ampH := r.dc.MeasureString("&")
	left := x - ax*ampW
	right := left + ampW
	mid := ampY - ampH*0.35
	gap := ruleGap * ampSize
	length := ruleLength * ampSize

	r.dc.SetLineWidth(max(1, size/60))
	r.dc.DrawLine(left-gap-length, mid, left-gap, mid)
	r.dc.DrawLine(right+gap, mid, right+gap+length, mid)
	r.dc.Stroke()
}
