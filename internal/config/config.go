package config

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"strings"

	"github.com/MeKo-Tech/printkit/internal/barcode"
	"github.com/MeKo-Tech/printkit/internal/batch"
	"github.com/MeKo-Tech/printkit/internal/numbering"
	"github.com/MeKo-Tech/printkit/internal/tone"
)

// ValidLogLevels lists accepted log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	nd := numbering.DefaultConfig()
	td := tone.DefaultParams()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Output: OutputConfig{
			Format: batch.FormatText,
		},
		Server: ServerConfig{
			Host:              "localhost",
			Port:              8080,
			CORSOrigin:        "*",
			TimeoutSec:        30,
			ShutdownTimeout:   10,
			MaxBatchSize:      1000,
			MaxBodyKB:         1024,
			RateLimitEnabled:  false,
			RequestsPerMinute: 600,
			RequestsPerHour:   10000,
			MaxRequestsPerDay: 100000,
			MaxDataPerDay:     100 * 1024 * 1024,
		},
		Batch: BatchConfig{
			Workers:         runtime.GOMAXPROCS(0),
			ContinueOnError: true,
		},
		EAN13: EAN13Config{
			WarnMismatch: true,
		},
		Numbering: NumberingConfig{
			PerSheet: nd.PerSheet,
			PerBlock: nd.PerBlock,
			Start:    nd.Start,
		},
		Tone: ToneConfig{
			SampleRate: td.SampleRate,
			Amplitude:  td.Amplitude,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if !slices.Contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(ValidLogLevels, ", "))
	}

	if c.Output.Format != "" {
		if err := batch.ValidateFormat(c.Output.Format); err != nil {
			return err
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must not be negative)", c.Server.ShutdownTimeout)
	}
	if c.Server.MaxBatchSize <= 0 {
		return fmt.Errorf("invalid max batch size: %d (must be positive)", c.Server.MaxBatchSize)
	}
	if c.Server.MaxBodyKB <= 0 {
		return fmt.Errorf("invalid max body size: %d (must be positive)", c.Server.MaxBodyKB)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	if c.Numbering.PerSheet < 1 || c.Numbering.PerSheet > numbering.MaxPerSheet {
		return fmt.Errorf("invalid numbering per_sheet: %d (must be between 1 and %d)", c.Numbering.PerSheet, numbering.MaxPerSheet)
	}
	if c.Numbering.PerBlock < 1 || c.Numbering.PerBlock > numbering.MaxPerBlock {
		return fmt.Errorf("invalid numbering per_block: %d (must be between 1 and %d)", c.Numbering.PerBlock, numbering.MaxPerBlock)
	}
	if c.Numbering.Start < 1 || c.Numbering.Start > numbering.MaxStart {
		return fmt.Errorf("invalid numbering start: %d (must be between 1 and %d)", c.Numbering.Start, numbering.MaxStart)
	}

	if c.Tone.SampleRate < tone.MinSampleRate || c.Tone.SampleRate > tone.MaxSampleRate {
		return fmt.Errorf("invalid tone sample_rate: %d (must be between %d and %d)", c.Tone.SampleRate, tone.MinSampleRate, tone.MaxSampleRate)
	}
	if math.IsNaN(c.Tone.Amplitude) || c.Tone.Amplitude < tone.MinAmplitude || c.Tone.Amplitude > tone.MaxAmplitude {
		return fmt.Errorf("invalid tone amplitude: %g (must be between %g and %g)", c.Tone.Amplitude, tone.MinAmplitude, tone.MaxAmplitude)
	}

	return nil
}

// ToBatchConfig converts the config to the batch package configuration.
func (c *Config) ToBatchConfig() batch.Config {
	cfg := batch.DefaultConfig()
	cfg.Symbology = barcode.FormatEAN13
	cfg.Workers = c.Batch.Workers
	cfg.ContinueOnError = c.Batch.ContinueOnError
	cfg.Recursive = c.Batch.Recursive
	cfg.WarnMismatch = c.EAN13.WarnMismatch
	return cfg
}

// ToNumberingConfig returns a numbering job for quantity using the configured layout.
func (c *Config) ToNumberingConfig(quantity int) numbering.Config {
	return numbering.Config{
		Quantity:     quantity,
		PerSheet:     c.Numbering.PerSheet,
		Start:        c.Numbering.Start,
		PerBlock:     c.Numbering.PerBlock,
		Placeholders: c.Numbering.Placeholders,
		LeadingZeros: c.Numbering.LeadingZeros,
	}
}

// ToToneParams returns tone defaults with the configured sample rate and amplitude.
func (c *Config) ToToneParams() tone.Params {
	p := tone.DefaultParams()
	p.SampleRate = c.Tone.SampleRate
	p.Amplitude = c.Tone.Amplitude
	return p
}
