package main

import (
	"bytes"
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-engine/factory"
	"github.com/warp/fiscal-engine/fiscal"
)

const startupEntity = `{
	"creation_date": "2026-03-01",
	"tva_regime": "simplified-real",
	"tva_by_fiscal_year": {"2026": "12000", "2027": "15000"},
	"cfe_estimated_amount": "800"
}`

func TestRunGenerate_JSON(t *testing.T) {
	var out bytes.Buffer
	err := runGenerate(&out, []byte(startupEntity), &generateOptions{
		year: 2027, to: 2028, today: "2027-06-01", output: "json",
	})
	require.NoError(t, err)

	var results []factory.ResultJSON
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, 2027, results[0].Year)
	require.Len(t, results[0].Obligations, 5)
	assert.Equal(t, "2026-03-01", results[0].Config.CreationDate)
	assert.Equal(t, "simplified-real", results[1].Config.Regime)

	statuses := map[string]fiscal.Status{}
	for _, o := range results[0].Obligations {
		statuses[o.Key] = o.Status
	}
	assert.Equal(t, fiscal.StatusOverdue, statuses["LIASSE_2027"])
}

func TestRunGenerate_Text(t *testing.T) {
	var out bytes.Buffer
	err := runGenerate(&out, []byte(`{"creation_date": "2025-02-01"}`), &generateOptions{
		year: 2026, today: "2026-01-01", output: "text",
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "TVA_ACOMPTE_JUILLET_2026")
	assert.Contains(t, text, "warning (2026):")
}

func TestRunGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		entity string
		opts   generateOptions
	}{
		{"bad entity", `{"tva_regime": "simplified-real"}`, generateOptions{year: 2027, output: "json"}},
		{"bad today", startupEntity, generateOptions{year: 2027, today: "06/01/2027", output: "json"}},
		{"inverted range", startupEntity, generateOptions{year: 2028, to: 2027, output: "json"}},
		{"range too wide", startupEntity, generateOptions{year: 2026, to: 2026 + fiscal.MaxYearSpan, output: "json"}},
		{"overflowing range", startupEntity, generateOptions{year: math.MinInt, to: math.MaxInt, output: "json"}},
		{"unknown output", startupEntity, generateOptions{year: 2027, output: "yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, runGenerate(&out, []byte(tt.entity), &tt.opts))
		})
	}
}
