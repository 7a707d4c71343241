package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/scan"
	"shopfloor_go/internal/scenario"
)

type classifyFlags struct {
	locations []string
	products  []string
	last      string
	ceiling   int
}

func newClassifyCmd() *cobra.Command {
	flags := &classifyFlags{}
	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Show how scanned texts are classified, reading stdin when no text is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				var err error
				args, err = readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			return classify(cmd.OutOrStdout(), flags, args)
		},
	}
	cmd.Flags().StringSliceVar(&flags.locations, "location", nil, "known location barcodes")
	cmd.Flags().StringSliceVar(&flags.products, "product", nil, "product barcodes of lines on screen")
	cmd.Flags().StringVar(&flags.last, "last", "", "product barcode awaiting a quantity")
	cmd.Flags().IntVar(&flags.ceiling, "ceiling", scan.DefaultCeiling, "largest accepted quantity")
	return cmd
}

func classify(w io.Writer, flags *classifyFlags, texts []string) error {
	ctx := scan.Context{LastScanned: flags.last}
	for i, code := range flags.locations {
		ctx.Locations = append(ctx.Locations, domain.Location{ID: i + 1, Name: code, Barcode: code})
	}
	for i, code := range flags.products {
		ctx.Lines = append(ctx.Lines, domain.OperationLine{
			ID:      i + 1,
			Product: domain.Product{ID: i + 1, Name: code, Barcode: code},
		})
	}

	policy := scan.DefaultPolicy()
	policy.Ceiling = flags.ceiling
	strategy := scan.New(policy)

	for i, raw := range texts {
		tok := strategy.Classify(raw, ctx)
		line := fmt.Sprintf("%2d) %q -> %q kind=%s", i+1, raw, tok.Raw, tok.Kind)
		switch tok.Kind {
		case scan.Quantity:
			line += fmt.Sprintf(" qty=%d", tok.Quantity)
		case scan.Location:
			line += " location=" + tok.Location.Label()
		case scan.Product:
			line += fmt.Sprintf(" line=%d", tok.Line.ID)
		default:
			if tok.Reason != scan.ReasonNone {
				line += " reason=" + tok.Reason.String()
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the scenarios the client can run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range scenario.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
