package fonts

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font/gofont/gobold"
)

func TestBuiltinFamilies(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, family := range []string{"Go", "go bold", "Go Italic", "Go Mono"} {
		if _, ok := r.Font(family); !ok {
			t.Errorf("Font(%q) should be built in", family)
		}
	}
}

func TestFallbackWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(t.TempDir(), WithLogger(log.New(&buf)))
	if err != nil {
		t.Fatal(err)
	}

	f1, ok := r.Font("Great Vibes")
	if ok {
		t.Fatal("missing family should report fallback")
	}
	f2, _ := r.Font("great vibes")
	if f1 != f2 || f1 != r.deflt {
		t.Error("fallback should be the default font")
	}
	if n := strings.Count(buf.String(), "font unavailable"); n != 1 {
		t.Errorf("warned %d times, want 1:\n%s", n, buf.String())
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "PlayfairDisplay-Regular.ttf"), gobold.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	f, ok := r.Font("Playfair Display")
	if !ok || f == r.deflt {
		t.Fatal("Playfair Display should load from dir")
	}

	face, ok := r.Face("Playfair Display", 32)
	if !ok {
		t.Error("Face should report a hit")
	}
	if m := face.Metrics(); m.Height <= 0 {
		t.Errorf("face height = %v", m.Height)
	}
}

func TestCandidates(t *testing.T) {
	got := candidates("Great Vibes")
	want := []string{"GreatVibes-Regular.ttf", "GreatVibes.ttf", "great-vibes.ttf", "Great Vibes.ttf"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("candidates = %v, want %v", got, want)
	}
}
