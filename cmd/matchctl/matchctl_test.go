package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricematch/backend/internal/domain"
)

func TestAnalyzeCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"analyze", "국내산", "삼겹살", "--spec", "1KG", "--price", "15000", "--compact"})

	require.NoError(t, cmd.Execute())

	var got domain.ItemAnalysis
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "국내산 삼겹살", got.Query.ForSemantic)
	assert.Equal(t, domain.UnitKG, got.Spec.Unit)
	require.NotNil(t, got.PricePerUnit)
	assert.Equal(t, 15.0, got.PricePerUnit.Value)
	assert.Equal(t, []domain.AttributeTag{domain.TagDomestic}, got.Attributes)
}

func TestAnalyzeCommandRequiresName(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"analyze"})

	assert.Error(t, cmd.Execute())
}

func TestParseItems(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantRows []int
		wantErr  bool
	}{
		{
			name:     "bare array gets row numbers",
			data:     `[{"itemName":"양파"},{"itemName":"대파"}]`,
			wantRows: []int{1, 2},
		},
		{
			name:     "wrapped items keep explicit rows",
			data:     `{"items":[{"rowNumber":7,"itemName":"양파"},{"itemName":"대파"}]}`,
			wantRows: []int{7, 2},
		},
		{name: "empty array", data: `[]`, wantErr: true},
		{name: "not JSON", data: `item,spec`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := parseItems([]byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)

			rows := make([]int, len(items))
			for i, item := range items {
				rows[i] = item.RowNumber
			}
			assert.Equal(t, tt.wantRows, rows)
		})
	}
}

func TestReadItemsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"itemName":"깐마늘","spec":"1KG","unitPrice":9000}]`), 0o644))

	items, err := readItemsFile(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "깐마늘", items[0].ItemName)

	_, err = readItemsFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestBatchOutputSummary(t *testing.T) {
	out := batchOutput([]domain.ItemMatch{
		{Result: domain.MatchResult{Status: domain.StatusAutoMatched}},
		{Result: domain.MatchResult{Status: domain.StatusUnmatched}},
		{Result: domain.MatchResult{Status: domain.StatusUnmatched}},
	})

	assert.Equal(t, 1, out.Summary[domain.StatusAutoMatched])
	assert.Equal(t, 2, out.Summary[domain.StatusUnmatched])
	assert.Len(t, out.Results, 3)
}
