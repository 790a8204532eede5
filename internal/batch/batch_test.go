package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/MeKo-Tech/printkit/internal/barcode"
	"github.com/MeKo-Tech/printkit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorInputs() []string {
	codes := make([]string, len(testutil.EAN13Vectors))
	for i, v := range testutil.EAN13Vectors {
		codes[i] = v.Input
	}
	return codes
}

func TestProcess_PreservesOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 3

	res, err := Process(context.Background(), vectorInputs(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, len(testutil.EAN13Vectors))
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 3, res.Workers)

	for i, v := range testutil.EAN13Vectors {
		it := res.Items[i]
		assert.Equal(t, i, it.Index)
		assert.Equal(t, v.Input, it.Input)
		assert.Equal(t, v.Symbols, it.Symbols)
		assert.Equal(t, v.Code, it.Code)
		assert.True(t, it.OK())
	}
	assert.False(t, res.Failed())
}

func TestProcess_NoCodes(t *testing.T) {
	res, err := Process(context.Background(), nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoCodes)
	assert.Nil(t, res)
}

func TestProcess_ContinueOnError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContinueOnError = true

	res, err := Process(context.Background(), []string{"123456789012", "bogus", "1234567890121"}, cfg)
	require.NoError(t, err)

	assert.True(t, res.Items[0].OK())
	assert.False(t, res.Items[1].OK())
	assert.Contains(t, res.Items[1].Error, "invalid EAN-13 input")
	assert.True(t, res.Items[2].Mismatch)
	assert.Equal(t, res.Items[0].Symbols, res.Items[2].Symbols)
	assert.True(t, res.Failed())

	stats := res.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Encoded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Mismatched)
}

func TestProcess_StopOnError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContinueOnError = false
	cfg.Workers = 1

	res, err := Process(context.Background(), []string{"123456789012", "12345"}, cfg)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, barcode.ErrInvalidInput))
	assert.Contains(t, err.Error(), "line 2")
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Process(ctx, vectorInputs(), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestProcess_UnsupportedSymbology(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Symbology = barcode.Format(99)

	_, err := Process(context.Background(), vectorInputs(), cfg)
	assert.ErrorIs(t, err, barcode.ErrUnsupportedFormat)
}

func TestConfig_Workers(t *testing.T) {
	assert.Positive(t, Config{}.workers())
	assert.Equal(t, 7, Config{Workers: 7}.workers())
}

func TestValidateFormat(t *testing.T) {
	for _, f := range Formats {
		assert.NoError(t, ValidateFormat(f))
	}
	assert.Error(t, ValidateFormat("xml"))
}
