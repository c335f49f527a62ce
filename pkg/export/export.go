// Package export encodes a composed invitation into downloadable formats.
//
// Every format is derived from the same surface by its own transform and
// never reads another format's output, so any subset, in any order, yields
// byte-identical results per format.
package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
)

const (
	// JPEGQuality is the fixed quality of the jpg format.
	JPEGQuality = 88

	// SocialSize is the edge of the square instagram format.
	SocialSize = 1080

	// Messaging bounds for the whatsapp format.
	MessagingWidth   = 720
	MessagingHeight  = 1280
	MessagingBudget  = 250 << 10
	messagingQuality = 82
	messagingFloor   = 40
	messagingStep    = 6
)

// documentDate is stamped into every PDF so output does not depend on the
// wall clock.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Options tune the transforms.
type Options struct {
	// Background fills letterbox bars. Nil means white.
	Background color.Color
	// Title is written into PDF metadata.
	Title string
	// Limiter, when set, bounds how many formats encode at once. Callers
	// share one limiter across requests to cap total CPU use.
	Limiter *semaphore.Weighted
}

func (o Options) background() color.Color {
	if o.Background == nil {
		return color.White
	}
	return o.Background
}

// Export encodes img in every format concurrently, holding one unit of
// opts.Limiter per running encode.
func Export(ctx context.Context, img image.Image, formats []Format, opts Options) (map[Format][]byte, error) {
	results := make([][]byte, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		g.Go(func() error {
			if opts.Limiter != nil {
				if err := opts.Limiter.Acquire(ctx, 1); err != nil {
					return err
				}
				defer opts.Limiter.Release(1)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := Encode(img, f, opts)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[Format][]byte, len(formats))
	for i, f := range formats {
		out[f] = results[i]
	}
	return out, nil
}

// Encode applies one format's transform to img.
func Encode(img image.Image, f Format, opts Options) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case PNG:
		data, err = encodePNG(img)
	case JPG:
		data, err = encodeJPEG(img, JPEGQuality)
	case PDF:
		data, err = encodePDF(img, opts)
	case Instagram:
		data, err = encodeSocial(img, opts)
	case WhatsApp:
		data, err = encodeMessaging(img)
	default:
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported format %q", f)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRenderFailed, err, "encode %s", f)
	}
	return data, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodePDF places the lossless surface on a single page of the same size,
// one point per pixel.
func encodePDF(img image.Image, opts Options) ([]byte, error) {
	raster, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("invitekit", true)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	pdf.AddPage()

	imgOpts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("surface", imgOpts, bytes.NewReader(raster))
	pdf.ImageOptions("surface", 0, 0, w, h, false, imgOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeSocial fits img into a square with background-colored bars.
func encodeSocial(img image.Image, opts Options) ([]byte, error) {
	fitted := imaging.Fit(img, SocialSize, SocialSize, imaging.Lanczos)
	canvas := imaging.New(SocialSize, SocialSize, opts.background())
	return encodePNG(imaging.PasteCenter(canvas, fitted))
}

// encodeMessaging fits img into the messaging frame and lowers JPEG quality
// until the result fits the byte budget or the quality floor is reached.
func encodeMessaging(img image.Image) ([]byte, error) {
	fitted := imaging.Fit(img, MessagingWidth, MessagingHeight, imaging.Lanczos)
	var data []byte
	for q := messagingQuality; ; q -= messagingStep {
		if q < messagingFloor {
			q = messagingFloor
		}
		var err error
		data, err = encodeJPEG(fitted, q)
		if err != nil {
			return nil, err
		}
		if len(data) <= MessagingBudget || q == messagingFloor {
			return data, nil
		}
	}
}
