package binder

import (
	"strings"
	"time"
	"unicode"
)

// Value returns the bound value of a field, or "" when absent.
func (inv *Invitation) Value(name string) string {
	return inv.Values[name]
}

// Display returns the value of a field as it should appear on the artwork:
// dates are spelled out, times use a 12-hour clock and hashtags carry a
// leading '#'.
func (inv *Invitation) Display(name string) string {
	v := inv.Values[name]
	if v == "" {
		return ""
	}
	switch kinds[name] {
	case kindDate:
		if d, err := time.Parse(dateLayout, v); err == nil {
			return d.Format(displayDateLayout)
		}
	case kindTime:
		if t, err := time.Parse(timeLayout, v); err == nil {
			return t.Format(displayTimeLayout)
		}
	}
	if name == FieldHashtag && !strings.HasPrefix(v, "#") {
		return "#" + v
	}
	return v
}

// Placeholders returns the display value of every bound field, keyed by
// field name, for template placeholder substitution.
func (inv *Invitation) Placeholders() map[string]string {
	out := make(map[string]string, len(inv.Values))
	for k := range inv.Values {
		out[k] = inv.Display(k)
	}
	return out
}

// FileStem derives a download file name stem from the couple's names, for
// example "armando-and-gabriella-invitation".
func (inv *Invitation) FileStem() string {
	var parts []string
	for _, n := range []string{inv.Values[FieldGroomName], inv.Values[FieldBrideName]} {
		if s := slug(n); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "invitation"
	}
	return strings.Join(parts, "-and-") + "-invitation"
}

// slug lowercases s and keeps ASCII letters and digits, joining runs of
// anything else with a single hyphen.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
