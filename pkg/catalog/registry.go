package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
)

//go:embed templates.toml
var defaultCatalog []byte

// file is the on-disk catalog schema.
type file struct {
	Templates []Template `toml:"templates"`
}

// Registry is the loaded, validated, read-only template table.
type Registry struct {
	byID  map[string]*Template
	order []*Template
}

// LoadDefault loads the catalog embedded in the binary.
func LoadDefault() (*Registry, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile loads a catalog from a TOML file on disk.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeCatalogInvalid, err, "open catalog")
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a TOML catalog. Unknown keys are rejected so a
// misspelled attribute cannot silently fall back to a zero value.
func Load(r io.Reader) (*Registry, error) {
	var cat file
	md, err := toml.NewDecoder(r).Decode(&cat)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeCatalogInvalid, err, "decode catalog")
	}

	var problems []string
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		for _, k := range keys {
			problems = append(problems, fmt.Sprintf("unknown key %s", k))
		}
	}
	problems = append(problems, validate(cat.Templates)...)
	if len(problems) > 0 {
		return nil, errs.New(errs.ErrCodeCatalogInvalid, "%d problem(s): %s",
			len(problems), strings.Join(problems, "; "))
	}

	reg := &Registry{byID: make(map[string]*Template, len(cat.Templates))}
	for i := range cat.Templates {
		t := &cat.Templates[i]
		applyDefaults(t)
		reg.byID[t.ID] = t
		reg.order = append(reg.order, t)
	}
	return reg, nil
}

// applyDefaults fills optional attributes that validation accepts as empty.
func applyDefaults(t *Template) {
	if t.DefaultScheme == "" {
		t.DefaultScheme = t.Schemes[0].Name
	}
	if t.Border == "" {
		t.Border = BorderDouble
	}
	for i := range t.Elements {
		e := &t.Elements[i]
		if e.Kind == "" {
			e.Kind = KindText
		}
		if e.Align == "" {
			e.Align = AlignCenter
		}
		if e.Color == "" {
			e.Color = RoleText
		}
		if e.LineHeight == 0 {
			e.LineHeight = 1.25
		}
	}
	if t.QR.Caption == "" {
		t.QR.Caption = "Scan to RSVP"
	}
}

// Get returns the template with the given id.
func (r *Registry) Get(id string) (*Template, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, errs.New(errs.ErrCodeTemplateNotFound, "template %q not found", id)
	}
	return t, nil
}

// List returns all templates in catalog order.
func (r *Registry) List() []*Template {
	return r.order
}

// Len returns the number of templates.
func (r *Registry) Len() int {
	return len(r.order)
}
