package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/warp/fiscal-engine/factory"
	"github.com/warp/fiscal-engine/fiscal"
	"github.com/warp/fiscal-engine/generic"
)

type generateOptions struct {
	entityPath string
	year       int
	to         int
	today      string
	output     string
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print the obligations of an entity file",
		Long: `Reads an entity configuration (the same JSON the API accepts on
PUT /api/entities/{id}/config) and prints its obligations for one year,
or for every year of --year..--to.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(opts.entityPath)
			if err != nil {
				return fmt.Errorf("failed to read entity file: %w", err)
			}
			return runGenerate(cmd.OutOrStdout(), data, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.entityPath, "entity", "e", "", "entity configuration file (JSON)")
	f.IntVarP(&opts.year, "year", "y", generic.Today().Year(), "first calendar year")
	f.IntVar(&opts.to, "to", 0, "last calendar year (default: --year)")
	f.StringVar(&opts.today, "today", "", "reference date for overdue status, YYYY-MM-DD (default: system date)")
	f.StringVarP(&opts.output, "output", "o", "json", "output format (json, text)")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runGenerate(w io.Writer, entity []byte, opts *generateOptions) error {
	cfg, err := factory.ParseConfig(entity)
	if err != nil {
		return err
	}

	var clock generic.Clock = generic.SystemClock{}
	if opts.today != "" {
		today, err := generic.ParseDate(opts.today)
		if err != nil {
			return fmt.Errorf("invalid --today: %w", err)
		}
		clock = generic.FixedClock(today)
	}

	to := opts.to
	if to == 0 {
		to = opts.year
	}
	if err := fiscal.CheckYearRange(opts.year, to); err != nil {
		return err
	}

	results, err := fiscal.NewGenerator(fiscal.WithClock(clock)).GenerateRange(opts.year, to, cfg)
	if err != nil {
		return err
	}

	switch opts.output {
	case "json":
		data, err := json.MarshalIndent(factory.FromResults(results), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "text":
		return writeText(w, results)
	default:
		return fmt.Errorf("unknown output format %q (must be json or text)", opts.output)
	}
}

func writeText(w io.Writer, results []fiscal.Result) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Due", "Key", "Status", "Amount", "Label"})
	for _, r := range results {
		for _, o := range r.Obligations {
			amount := "-"
			if o.Amount != nil {
				amount = o.Amount.String()
			}
			if err := table.Append([]string{o.DueDate.String(), o.Key, string(o.Status), amount, o.Label}); err != nil {
				return err
			}
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	for _, r := range results {
		for _, warning := range r.Warnings {
			if _, err := fmt.Fprintf(w, "warning (%d): %s\n", r.Year, strings.TrimSpace(warning)); err != nil {
				return err
			}
		}
	}
	return nil
}
