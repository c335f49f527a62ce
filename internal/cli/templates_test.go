package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/catalog"
)

func TestTemplatesList(t *testing.T) {
	out, err := run(t, "templates")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"goan-beach-bliss", "cathedral-grace", "portuguese-villa", "monsoon-minimal"} {
		if !strings.Contains(out, id) {
			t.Errorf("list missing %s:\n%s", id, out)
		}
	}
	if !strings.Contains(out, "4 templates") {
		t.Errorf("list missing count:\n%s", out)
	}
}

func TestTemplatesListJSON(t *testing.T) {
	out, err := run(t, "templates", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var list []catalog.PublicTemplate
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(list) != 4 {
		t.Errorf("got %d templates, want 4", len(list))
	}
}

func TestTemplatesShow(t *testing.T) {
	out, err := run(t, "templates", "show", "goan-beach-bliss")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Goan Beach Bliss", "Color schemes", "groomName", "ceremonyVenue", "(default)"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestTemplatesShowUnknown(t *testing.T) {
	if _, err := run(t, "templates", "show", "does-not-exist"); err == nil {
		t.Error("expected error for unknown template")
	}
}
