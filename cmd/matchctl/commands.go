package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pricematch/backend/internal/domain"
	"github.com/pricematch/backend/internal/usecase"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	flags := &itemFlags{}
	cmd := &cobra.Command{
		Use:     "analyze ITEM_NAME",
		Short:   "Show normalization, spec, price per unit and attributes for an item",
		Example: `  matchctl analyze "국내산 삼겹살(냉장)" --spec 1KG --price 15000`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), opts, usecase.Analyze(flags.item(args)))
		},
	}
	flags.register(cmd)
	return cmd
}

func newMatchCmd(opts *rootOptions) *cobra.Command {
	flags := &itemFlags{}
	cmd := &cobra.Command{
		Use:   "match ITEM_NAME",
		Short: "Match one item and print its tier and candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			return writeJSON(cmd.OutOrStdout(), opts, a.Matcher.MatchItem(cmd.Context(), flags.item(args)))
		},
	}
	flags.register(cmd)
	return cmd
}

func newFunnelCmd(opts *rootOptions) *cobra.Command {
	flags := &itemFlags{}
	cmd := &cobra.Command{
		Use:   "funnel ITEM_NAME",
		Short: "Print price and attribute filtered recommendations for one item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Matcher.Recommend(cmd.Context(), flags.item(args))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), opts, result)
		},
	}
	flags.register(cmd)
	return cmd
}

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Match every line item of an invoice JSON file",
		Long: `Reads a JSON array of line items, or an object with an "items" array,
and prints one result per item in input order.`,
		Example: `  matchctl batch --file invoice.json --mode hybrid`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readItemsFile(file)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			results := a.Matcher.MatchBatch(cmd.Context(), items)
			return writeJSON(cmd.OutOrStdout(), opts, batchOutput(results))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "invoice JSON file (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type batchResult struct {
	Results []domain.ItemMatch         `json:"results"`
	Summary map[domain.MatchStatus]int `json:"summary"`
}

func batchOutput(results []domain.ItemMatch) batchResult {
	summary := make(map[domain.MatchStatus]int, 3)
	for _, r := range results {
		summary[r.Result.Status]++
	}
	return batchResult{Results: results, Summary: summary}
}

// readItemsFile loads line items from path, or stdin when path is "-"
func readItemsFile(path string) ([]domain.InvoiceLineItem, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open items file: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read items file: %w", err)
	}
	return parseItems(data)
}

func parseItems(data []byte) ([]domain.InvoiceLineItem, error) {
	var items []domain.InvoiceLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		var wrapped struct {
			Items []domain.InvoiceLineItem `json:"items"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("%w: items file is neither an array nor {\"items\": [...]}: %v", domain.ErrInvalidRequest, err)
		}
		items = wrapped.Items
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: items file has no line items", domain.ErrInvalidRequest)
	}
	for i := range items {
		if items[i].RowNumber == 0 {
			items[i].RowNumber = i + 1
		}
	}
	return items, nil
}
