package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pricematch/backend/config"
	"github.com/pricematch/backend/internal/app"
	"github.com/pricematch/backend/internal/domain"
	"github.com/pricematch/backend/internal/logger"
)

// rootOptions are flags shared by every subcommand
type rootOptions struct {
	searchMode string
	compact    bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "matchctl",
		Short: "Match invoice line items against the supplier catalog",
		Long: `matchctl runs the PriceMatch pipeline from the command line.

analyze needs no database. match, funnel and batch read the same
PRICEMATCH_* environment (or config.yaml / .env) as the server.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.searchMode, "mode", "", "override search mode (trigram, bm25, hybrid, semantic)")
	cmd.PersistentFlags().BoolVar(&opts.compact, "compact", false, "print single-line JSON")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline details to stderr")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newMatchCmd(opts),
		newFunnelCmd(opts),
		newBatchCmd(opts),
	)
	return cmd
}

// itemFlags describe one line item on the command line
type itemFlags struct {
	spec  string
	price float64
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.spec, "spec", "", "spec column, e.g. 1KG or 1박스(20개)")
	cmd.Flags().Float64Var(&f.price, "price", 0, "unit price in won")
}

func (f *itemFlags) item(args []string) domain.InvoiceLineItem {
	return domain.InvoiceLineItem{
		RowNumber: 1,
		ItemName:  strings.Join(args, " "),
		Spec:      f.spec,
		Quantity:  1,
		UnitPrice: f.price,
	}
}

// openApp loads configuration and wires the matching service
func openApp(ctx context.Context, opts *rootOptions, stderr io.Writer) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.searchMode != "" {
		if _, err := domain.ParseSearchMode(opts.searchMode); err != nil {
			return nil, err
		}
		cfg.Search.Mode = opts.searchMode
	}

	return app.New(ctx, cfg, newLogger(opts, stderr))
}

func newLogger(opts *rootOptions, stderr io.Writer) zerolog.Logger {
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Level: level, Format: "console", Output: stderr, Service: "matchctl"})
}

func writeJSON(w io.Writer, opts *rootOptions, v any) error {
	enc := json.NewEncoder(w)
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
