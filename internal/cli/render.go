package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
	"github.com/Truthmedia123/weddingreplit-sub000/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	fields  []string // key=value pairs
	formats []string
	output  string
	input   string // TOML request file
	quiet   bool   // no spinner
}

// requestFile is the TOML form of a render request:
//
//	template = "goan-beach-bliss"
//	formats = ["png", "pdf"]
//
//	[fields]
//	groomName = "Armando"
//	ceremonyDate = 2025-02-14
type requestFile struct {
	Template string         `toml:"template"`
	Formats  []string       `toml:"formats"`
	Fields   map[string]any `toml:"fields"`
}

// renderCommand creates the command that renders one invitation to disk.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Render an invitation to local files",
		Long: `Render an invitation to local files.

Fields come from an optional TOML request file (--input) and from repeated
--field key=value flags, which win on conflict. The template may be named as
an argument or in the request file.`,
		Example: `  invitekit render goan-beach-bliss \
    --field groomName=Armando --field brideName=Gabriella \
    --field ceremonyDate=2025-02-14 --field ceremonyVenue="Calangute Beach" \
    --format png,pdf -o out/`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.bindFlags(cmd, map[string]string{"server.base_url": "base-url"}); err != nil {
				return err
			}
			req, err := buildRequest(args, opts)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), req, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.fields, "field", "f", nil, "invitation field as key=value (repeatable)")
	cmd.Flags().StringSliceVar(&opts.formats, "format", nil, "output formats: png, jpg, pdf, instagram, whatsapp (default png)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "output directory")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "TOML request file")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "disable the progress spinner")
	cmd.Flags().String("base-url", "", "public origin for the RSVP QR code")

	return cmd
}

// buildRequest merges the request file, positional template and flags.
func buildRequest(args []string, opts renderOpts) (pipeline.Request, error) {
	req := pipeline.Request{Fields: map[string]string{}}

	if opts.input != "" {
		var f requestFile
		if _, err := toml.DecodeFile(opts.input, &f); err != nil {
			return req, fmt.Errorf("read request %s: %w", opts.input, err)
		}
		req.TemplateID = f.Template
		req.Formats = f.Formats
		for k, v := range f.Fields {
			req.Fields[k] = fieldString(v)
		}
	}

	if len(args) == 1 {
		req.TemplateID = args[0]
	}
	if req.TemplateID == "" {
		return req, errs.New(errs.ErrCodeInvalidInput, "no template given; pass one as an argument or set template in the request file")
	}

	for _, kv := range opts.fields {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return req, errs.New(errs.ErrCodeInvalidInput, "field %q is not key=value", kv)
		}
		req.Fields[strings.TrimSpace(k)] = v
	}

	if len(opts.formats) > 0 {
		req.Formats = opts.formats
	}
	if len(req.Formats) == 0 {
		req.Formats = []string{"png"}
	}
	return req, nil
}

// fieldString renders a decoded TOML value as a field input. Bare TOML
// dates and times keep their written form.
func fieldString(v any) string {
	t, ok := v.(time.Time)
	if !ok {
		return fmt.Sprint(v)
	}
	_, offset := t.Zone()
	switch {
	case t.Year() == 0:
		return t.Format("15:04")
	case offset == 0 && t.Equal(t.Truncate(24*time.Hour)):
		return t.Format(time.DateOnly)
	default:
		return t.Format(time.RFC3339)
	}
}

// runRender generates through an in-memory delivery store and redeems each
// artifact straight to disk.
func (c *CLI) runRender(ctx context.Context, out io.Writer, req pipeline.Request, opts renderOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	svc := c.newService(cfg, delivery.NewMemoryStore())
	defer svc.Close()

	gen, err := c.newGenerator(cfg, svc)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	var spin *Spinner
	if !opts.quiet {
		spin = newSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s...", req.TemplateID))
		spin.Start()
	}
	res, err := gen.Generate(ctx, req)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		reportGenerateError(out, err)
		return err
	}
	prog.done(fmt.Sprintf("rendered %d formats", len(res.Downloads)))

	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	printSuccess(out, "Rendered %s", styleTitle.Render(req.TemplateID))
	for _, d := range res.Downloads {
		art, err := svc.Redeem(ctx, res.Token, string(d.Format))
		if err != nil {
			return err
		}
		path := filepath.Join(opts.output, art.Filename)
		if err := atomic.WriteFile(path, bytes.NewReader(art.Data)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(out, path, len(art.Data))
	}
	printDetail(out, "%s", joinDim([]string{
		"compose " + res.Stats.ComposeTime.Round(time.Millisecond).String(),
		"export " + res.Stats.ExportTime.Round(time.Millisecond).String(),
		"id " + res.ID,
	}))
	return nil
}

// reportGenerateError prints field problems one per line.
func reportGenerateError(out io.Writer, err error) {
	fields := errs.FieldErrors(err)
	if len(fields) == 0 {
		printError(out, "%s", errs.UserMessage(err))
		return
	}
	printError(out, "Invitation is incomplete")
	for _, f := range fields {
		printKeyValue(out, f.Field, f.Message)
	}
}
