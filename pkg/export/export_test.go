package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
)

// surface returns a deterministic test pattern.
func surface(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), uint8(x ^ y), 255})
		}
	}
	return img
}

// noisy returns an image that compresses badly.
func noisy(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func TestEncodePNGLossless(t *testing.T) {
	src := surface(120, 180)
	data, err := Encode(src, PNG, Options{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), src.Bounds())
	}
	for _, p := range []image.Point{{0, 0}, {57, 91}, {119, 179}} {
		r1, g1, b1, _ := got.At(p.X, p.Y).RGBA()
		r2, g2, b2, _ := src.At(p.X, p.Y).RGBA()
		if r1 != r2 || g1 != g2 || b1 != b2 {
			t.Errorf("pixel %v changed", p)
		}
	}
}

func TestEncodeJPG(t *testing.T) {
	data, err := Encode(surface(120, 180), JPG, Options{})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 120 || cfg.Height != 180 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestEncodePDF(t *testing.T) {
	data, err := Encode(surface(120, 180), PDF, Options{Title: "Armando & Gabriella"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a PDF: %q", data[:min(len(data), 16)])
	}
	if !bytes.Contains(data, []byte("/MediaBox [0 0 120")) {
		t.Error("page should be sized to the canvas in points")
	}
}

func TestEncodeSocial(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	data, err := Encode(surface(1200, 1800), Instagram, Options{Background: red})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != SocialSize || b.Dy() != SocialSize {
		t.Fatalf("size = %v", b)
	}
	// A 2:3 portrait fits as 720x1080, leaving 180px bars left and right.
	r, g, b, _ := img.At(10, 540).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("letterbox pixel = %v, want background", img.At(10, 540))
	}
}

func TestEncodeMessagingBudget(t *testing.T) {
	data, err := Encode(noisy(1200, 1800), WhatsApp, Options{})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width > MessagingWidth || cfg.Height > MessagingHeight {
		t.Errorf("size = %dx%d exceeds %dx%d", cfg.Width, cfg.Height, MessagingWidth, MessagingHeight)
	}

	small, err := Encode(surface(300, 400), WhatsApp, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(small) > MessagingBudget {
		t.Errorf("simple image = %d bytes, want under %d", len(small), MessagingBudget)
	}
}

func TestExportOrderInsensitive(t *testing.T) {
	img := surface(200, 300)
	ctx := context.Background()

	all, err := Export(ctx, img, Formats, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range Formats {
		alone, err := Export(ctx, img, []Format{f}, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(all[f], alone[f]) {
			t.Errorf("%s differs between subset and full export", f)
		}
	}

	reversed := []Format{WhatsApp, Instagram, PDF, JPG, PNG}
	again, err := Export(ctx, img, reversed, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range Formats {
		if !bytes.Equal(all[f], again[f]) {
			t.Errorf("%s differs when exported in a different order", f)
		}
	}
}

func TestExportLimiter(t *testing.T) {
	img := surface(64, 96)
	lim := semaphore.NewWeighted(1)

	// With the only slot taken, no encode may start.
	if !lim.TryAcquire(1) {
		t.Fatal("fresh limiter is full")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := Export(ctx, img, Formats, Options{Limiter: lim}); err == nil {
		t.Fatal("export ran without a free limiter slot")
	}
	lim.Release(1)

	out, err := Export(context.Background(), img, Formats, Options{Limiter: lim})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(Formats) {
		t.Errorf("got %d formats, want %d", len(out), len(Formats))
	}
	if !lim.TryAcquire(1) {
		t.Error("export did not release its limiter slots")
	}

	plain, err := Export(context.Background(), img, Formats, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range Formats {
		if !bytes.Equal(out[f], plain[f]) {
			t.Errorf("%s differs with a limiter", f)
		}
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	if _, err := Encode(surface(10, 10), Format("tiff"), Options{}); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats([]string{"png", " PDF ", "jpeg", "png"})
	if err != nil {
		t.Fatal(err)
	}
	want := []Format{PNG, PDF, JPG}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}

	if _, err := ParseFormats([]string{"png", "gif", "bmp"}); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("err = %v", err)
	} else if msg := err.Error(); !bytes.Contains([]byte(msg), []byte("gif, bmp")) {
		t.Errorf("error should list every bad format: %s", msg)
	}
	if _, err := ParseFormats(nil); !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("empty list err = %v", err)
	}
}

func TestFormatMetadata(t *testing.T) {
	tests := []struct {
		f           Format
		contentType string
		filename    string
	}{
		{PNG, "image/png", "a-and-b-invitation.png"},
		{JPG, "image/jpeg", "a-and-b-invitation.jpg"},
		{PDF, "application/pdf", "a-and-b-invitation.pdf"},
		{Instagram, "image/png", "a-and-b-invitation-instagram.png"},
		{WhatsApp, "image/jpeg", "a-and-b-invitation-whatsapp.jpg"},
	}
	for _, tt := range tests {
		if got := tt.f.ContentType(); got != tt.contentType {
			t.Errorf("%s.ContentType() = %q", tt.f, got)
		}
		if got := tt.f.Filename("a-and-b-invitation"); got != tt.filename {
			t.Errorf("%s.Filename() = %q", tt.f, got)
		}
	}
}
