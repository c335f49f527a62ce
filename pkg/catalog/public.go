package catalog

// Customization keys are the input keys, beyond template fields, that let a
// caller adjust a template's look.
const (
	KeyColorScheme  = "colorScheme"
	KeyFontFamily   = "fontFamily"
	KeyPrimaryColor = "primaryColor"
	KeyTextColor    = "textColor"
	KeyQREnabled    = "qrEnabled"
	KeyQRPosition   = "qrPosition"
	KeyQRSize       = "qrSize"
)

// CustomizationKeys lists the customization keys in display order.
var CustomizationKeys = []string{
	KeyColorScheme, KeyFontFamily, KeyPrimaryColor, KeyTextColor, KeyQREnabled, KeyQRPosition, KeyQRSize,
}

// PublicTemplate is the client-facing view of a template: enough to build a
// selection UI, without layout geometry.
type PublicTemplate struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	Orientation    Orientation    `json:"orientation"`
	DefaultScheme  string         `json:"defaultScheme"`
	Schemes        []PublicScheme `json:"colorSchemes"`
	Fonts          []string       `json:"fonts"`
	Fields         []PublicField  `json:"fields"`
	Customizations []string       `json:"customizations"`
	QRCode         bool           `json:"qrCode"`
}

// PublicScheme is a color scheme as shown to clients.
type PublicScheme struct {
	Name       string `json:"name"`
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// PublicField describes one input field a client may fill.
type PublicField struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Required  bool   `json:"required"`
	MaxLength int    `json:"maxLength,omitempty"`
}

// CoreFields are required by every template regardless of its declarations.
var CoreFields = []PublicField{
	{Name: "groomName", Label: "Groom's name", Required: true, MaxLength: 40},
	{Name: "brideName", Label: "Bride's name", Required: true, MaxLength: 40},
	{Name: "ceremonyDate", Label: "Ceremony date (YYYY-MM-DD)", Required: true},
	{Name: "ceremonyVenue", Label: "Ceremony venue", Required: true, MaxLength: 80},
}

// Public returns the client-facing view of t.
func (t *Template) Public() PublicTemplate {
	p := PublicTemplate{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		Category:       t.Category,
		Orientation:    t.Orientation,
		DefaultScheme:  t.DefaultScheme,
		Fonts:          append([]string(nil), t.Fonts()...),
		Customizations: append([]string(nil), CustomizationKeys...),
		QRCode:         t.QR.Size > 0,
	}
	for _, s := range t.Schemes {
		p.Schemes = append(p.Schemes, PublicScheme(s))
	}
	for _, f := range CoreFields {
		if spec, ok := t.Field(f.Name); ok && spec.MaxLength > 0 {
			f.MaxLength = spec.MaxLength
		}
		p.Fields = append(p.Fields, f)
	}
	for _, f := range t.Fields {
		if isCoreField(f.Name) {
			continue
		}
		p.Fields = append(p.Fields, PublicField{
			Name:      f.Name,
			Label:     f.Label,
			Required:  f.Required,
			MaxLength: f.MaxLength,
		})
	}
	return p
}

// PublicList returns the client-facing view of every template.
func (r *Registry) PublicList() []PublicTemplate {
	out := make([]PublicTemplate, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, t.Public())
	}
	return out
}

func isCoreField(name string) bool {
	for _, f := range CoreFields {
		if f.Name == name {
			return true
		}
	}
	return false
}
