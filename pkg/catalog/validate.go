package catalog

import "fmt"

// validOrientations, validAligns, validKinds, validBorders and
// validColorRoles are the enumerations a template may use.
var (
	validOrientations = map[Orientation]bool{Portrait: true, Landscape: true, Square: true}
	validAligns       = map[Align]bool{"": true, AlignLeft: true, AlignCenter: true, AlignRight: true}
	validKinds        = map[ElementKind]bool{"": true, KindText: true, KindNames: true}
	validBorders      = map[BorderStyle]bool{"": true, BorderDouble: true, BorderCorner: true, BorderNone: true}
	validColorRoles   = map[string]bool{
		"": true, RolePrimary: true, RoleSecondary: true, RoleAccent: true, RoleBackground: true, RoleText: true,
	}
)

// QRPositions are the named QR placements a caller may request.
var QRPositions = []string{"top-left", "top-right", "bottom-left", "bottom-right", "bottom-center"}

// validate checks every template and returns all problems found.
func validate(templates []Template) []string {
	var problems []string
	if len(templates) == 0 {
		return []string{"catalog declares no templates"}
	}

	seen := map[string]bool{}
	for i := range templates {
		t := &templates[i]
		at := fmt.Sprintf("templates[%d]", i)
		if t.ID != "" {
			at = fmt.Sprintf("templates[%s]", t.ID)
		}
		fail := func(format string, args ...any) {
			problems = append(problems, at+": "+fmt.Sprintf(format, args...))
		}

		switch {
		case t.ID == "":
			fail("id is required")
		case seen[t.ID]:
			fail("duplicate id")
		}
		seen[t.ID] = true

		if t.Name == "" {
			fail("name is required")
		}
		if !validOrientations[t.Orientation] {
			fail("orientation %q must be portrait, landscape or square", t.Orientation)
		}
		if t.Width <= 0 || t.Height <= 0 {
			fail("canvas %dx%d must be positive", t.Width, t.Height)
		}
		if !validBorders[t.Border] {
			fail("border %q is not a known style", t.Border)
		}

		problems = append(problems, validateSchemes(at, t)...)
		problems = append(problems, validateTypography(at, t)...)
		problems = append(problems, validateElements(at, t)...)
		problems = append(problems, validateFields(at, t)...)
		problems = append(problems, validateQR(at, t.QR)...)
	}
	return problems
}

func validateSchemes(at string, t *Template) []string {
	var problems []string
	if len(t.Schemes) == 0 {
		return []string{at + ": at least one color scheme is required"}
	}
	names := map[string]bool{}
	for _, s := range t.Schemes {
		sat := fmt.Sprintf("%s.schemes[%s]", at, s.Name)
		if s.Name == "" {
			problems = append(problems, sat+": name is required")
		} else if names[s.Name] {
			problems = append(problems, sat+": duplicate scheme name")
		}
		names[s.Name] = true
		colors := [...]struct{ role, hex string }{
			{RolePrimary, s.Primary}, {RoleSecondary, s.Secondary}, {RoleAccent, s.Accent},
			{RoleBackground, s.Background}, {RoleText, s.Text},
		}
		for _, c := range colors {
			if _, err := ParseHex(c.hex); err != nil {
				problems = append(problems, fmt.Sprintf("%s.%s: %v", sat, c.role, err))
			}
		}
	}
	if t.DefaultScheme != "" && !names[t.DefaultScheme] {
		problems = append(problems, fmt.Sprintf("%s: default_scheme %q is not declared", at, t.DefaultScheme))
	}
	return problems
}

func validateTypography(at string, t *Template) []string {
	var problems []string
	if t.Typography.Heading == "" || t.Typography.Body == "" {
		problems = append(problems, at+".typography: heading and body families are required")
	}
	return problems
}

func validateElements(at string, t *Template) []string {
	var problems []string
	names := map[string]bool{}
	for i, e := range t.Elements {
		eat := fmt.Sprintf("%s.elements[%d]", at, i)
		if e.Name != "" {
			eat = fmt.Sprintf("%s.elements[%s]", at, e.Name)
		}
		if e.Name == "" {
			problems = append(problems, eat+": name is required")
		} else if names[e.Name] {
			problems = append(problems, eat+": duplicate element name")
		}
		names[e.Name] = true

		if !inPercent(e.X) {
			problems = append(problems, fmt.Sprintf("%s.x: %g outside [0,100]", eat, e.X))
		}
		if !inPercent(e.Y) {
			problems = append(problems, fmt.Sprintf("%s.y: %g outside [0,100]", eat, e.Y))
		}
		if e.MaxWidth < 0 || e.MaxWidth > 100 {
			problems = append(problems, fmt.Sprintf("%s.max_width: %g outside (0,100]", eat, e.MaxWidth))
		}
		if e.FontSize <= 0 {
			problems = append(problems, fmt.Sprintf("%s.font_size: %g must be positive", eat, e.FontSize))
		}
		if e.LineHeight < 0 {
			problems = append(problems, fmt.Sprintf("%s.line_height: %g must not be negative", eat, e.LineHeight))
		}
		if !validAligns[e.Align] {
			problems = append(problems, fmt.Sprintf("%s.align: %q must be left, center or right", eat, e.Align))
		}
		if !validKinds[e.Kind] {
			problems = append(problems, fmt.Sprintf("%s.kind: %q must be text or names", eat, e.Kind))
		}
		if !validColorRoles[e.Color] {
			problems = append(problems, fmt.Sprintf("%s.color: unknown role %q", eat, e.Color))
		}
		if e.Bind == "" {
			problems = append(problems, eat+".bind: binding is required")
		}
		if t.FontFamily(e.Font) == "" {
			problems = append(problems, fmt.Sprintf("%s.font: role %q has no family", eat, e.Font))
		}
	}
	return problems
}

func validateFields(at string, t *Template) []string {
	var problems []string
	names := map[string]bool{}
	for _, f := range t.Fields {
		fat := fmt.Sprintf("%s.fields[%s]", at, f.Name)
		if f.Name == "" {
			problems = append(problems, fat+": name is required")
		} else if names[f.Name] {
			problems = append(problems, fat+": duplicate field")
		}
		names[f.Name] = true
		if f.MaxLength < 0 {
			problems = append(problems, fat+": max_length must not be negative")
		}
	}
	return problems
}

func validateQR(at string, q QRPlacement) []string {
	var problems []string
	qat := at + ".qr"
	if !inPercent(q.X) || !inPercent(q.Y) {
		problems = append(problems, fmt.Sprintf("%s: position (%g,%g) outside [0,100]", qat, q.X, q.Y))
	}
	if q.Size < 0 || q.Size > 100 {
		problems = append(problems, fmt.Sprintf("%s.size: %g outside [0,100]", qat, q.Size))
	}
	if q.Enabled && q.Size == 0 {
		problems = append(problems, qat+".size: enabled QR code needs a size")
	}
	if q.Position != "" && !isQRPosition(q.Position) {
		problems = append(problems, fmt.Sprintf("%s.position: unknown position %q", qat, q.Position))
	}
	return problems
}

func inPercent(v float64) bool { return v >= 0 && v <= 100 }

func isQRPosition(p string) bool {
	for _, q := range QRPositions {
		if q == p {
			return true
		}
	}
	return false
}
