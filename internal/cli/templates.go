package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/catalog"
)

// templatesCommand creates the catalog browsing command.
func (c *CLI) templatesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"ls"},
		Short:   "List invitation templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.catalog()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), reg.PublicList())
			}
			printTemplateList(cmd.OutOrStdout(), reg.PublicList())
			return nil
		},
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print the client-facing JSON view")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one template's schemes, fonts and fields",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			reg, err := c.catalog()
			if err != nil || len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var ids []string
			for _, t := range reg.List() {
				ids = append(ids, t.ID)
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.catalog()
			if err != nil {
				return err
			}
			t, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), t.Public())
			}
			printTemplate(cmd.OutOrStdout(), t.Public())
			return nil
		},
	})

	return cmd
}

func (c *CLI) catalog() (*catalog.Registry, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return loadCatalog(cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTemplateList(w io.Writer, list []catalog.PublicTemplate) {
	idWidth := 0
	for _, t := range list {
		idWidth = max(idWidth, lipgloss.Width(t.ID))
	}
	idStyle := styleTitle.Width(idWidth + 2)

	for _, t := range list {
		parts := []string{t.Name, t.Category, string(t.Orientation)}
		if t.QRCode {
			parts = append(parts, "qr")
		}
		fmt.Fprintln(w, idStyle.Render(t.ID)+styleDim.Render(joinDim(parts)))
	}
	printDetail(w, "%d templates", len(list))
}

func printTemplate(w io.Writer, t catalog.PublicTemplate) {
	printTitle(w, t.Name)
	if t.Description != "" {
		printDetail(w, "%s", t.Description)
	}
	fmt.Fprintln(w)
	printKeyValue(w, "id", t.ID)
	printKeyValue(w, "category", t.Category)
	printKeyValue(w, "orientation", string(t.Orientation))
	printKeyValue(w, "fonts", strings.Join(t.Fonts, ", "))
	printKeyValue(w, "qr code", fmt.Sprint(t.QRCode))

	fmt.Fprintln(w)
	printTitle(w, "Color schemes")
	for _, s := range t.Schemes {
		name := s.Name
		if name == t.DefaultScheme {
			name += " (default)"
		}
		printKeyValue(w, name, strings.Join([]string{swatch(s.Primary), swatch(s.Accent), swatch(s.Background)}, "  "))
	}

	fmt.Fprintln(w)
	printTitle(w, "Fields")
	for _, f := range t.Fields {
		label := f.Label
		if f.Required {
			label += " *"
		}
		if f.MaxLength > 0 {
			label += styleDim.Render(fmt.Sprintf(" (max %d)", f.MaxLength))
		}
		printKeyValue(w, f.Name, label)
	}
}
