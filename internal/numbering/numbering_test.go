package numbering

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan_RoundsUpToWholeSheets(t *testing.T) {
	p, err := NewPlan(Config{Quantity: 10, PerSheet: 3, Start: 1, PerBlock: 1})
	require.NoError(t, err)

	assert.Equal(t, 4, p.Sheets)
	assert.Equal(t, 12, p.Final)
	assert.Equal(t, 12, p.End)
	assert.Equal(t, 4, p.Blocks)
	assert.True(t, p.Adjusted)
}

func TestNewPlan_RoundsUpToWholeBlocks(t *testing.T) {
	p, err := NewPlan(Config{Quantity: 10, PerSheet: 3, Start: 1, PerBlock: 3})
	require.NoError(t, err)

	assert.Equal(t, 6, p.Sheets)
	assert.Equal(t, 18, p.Final)
	assert.Equal(t, 18, p.End)
	assert.Equal(t, 2, p.Blocks)
	assert.Equal(t, []string{"1", "7", "13"}, p.Rows()[0])
}

func TestNewPlan_ExactQuantity(t *testing.T) {
	p, err := NewPlan(Config{Quantity: 20, PerSheet: 4, Start: 100, PerBlock: 5})
	require.NoError(t, err)

	assert.Equal(t, 5, p.Sheets)
	assert.Equal(t, 20, p.Final)
	assert.Equal(t, 119, p.End)
	assert.False(t, p.Adjusted)
}

func TestPlan_WriteCSV(t *testing.T) {
	p, err := NewPlan(Config{Quantity: 10, PerSheet: 3, Start: 1, PerBlock: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteCSV(&buf))
	assert.Equal(t, "1,5,9\r\n2,6,10\r\n3,7,11\r\n4,8,12\r\n", buf.String())
}

func TestPlan_WriteCSV_PlaceholdersAndLeadingZeros(t *testing.T) {
	p, err := NewPlan(Config{Quantity: 10, PerSheet: 3, Start: 1, PerBlock: 1, Placeholders: true, LeadingZeros: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteCSV(&buf))
	assert.Equal(t, "N1,N2,N3\r\n01,05,09\r\n02,06,10\r\n03,07,11\r\n04,08,12\r\n", buf.String())
}

func TestPlan_Summary(t *testing.T) {
	p, err := NewPlan(Config{Quantity: 10, PerSheet: 3, Start: 1, PerBlock: 3})
	require.NoError(t, err)

	s := p.Summary()
	assert.Contains(t, s, "adjusted to 18")
	assert.Contains(t, s, "End number: 18")
	assert.Contains(t, s, "Sheets to print: 6")
	assert.Contains(t, s, "Number of blocks: 2")

	p, err = NewPlan(Config{Quantity: 8, PerSheet: 4, Start: 1, PerBlock: 1})
	require.NoError(t, err)
	s = p.Summary()
	assert.NotContains(t, s, "adjusted")
	assert.NotContains(t, s, "blocks")
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"zero quantity", func(c *Config) { c.Quantity = 0 }, "quantity"},
		{"quantity too large", func(c *Config) { c.Quantity = MaxQuantity + 1 }, "quantity"},
		{"zero per sheet", func(c *Config) { c.PerSheet = 0 }, "per_sheet"},
		{"per sheet too large", func(c *Config) { c.PerSheet = MaxPerSheet + 1 }, "per_sheet"},
		{"negative start", func(c *Config) { c.Start = -5 }, "start"},
		{"start too large", func(c *Config) { c.Start = MaxStart + 1 }, "start"},
		{"zero per block", func(c *Config) { c.PerBlock = 0 }, "per_block"},
		{"per block too large", func(c *Config) { c.PerBlock = MaxPerBlock + 1 }, "per_block"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(&cfg)

			_, err := NewPlan(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
