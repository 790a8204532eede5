package config

import (
	"math"
	"runtime"
	"testing"

	"github.com/MeKo-Tech/printkit/internal/barcode"
	"github.com/MeKo-Tech/printkit/internal/batch"
	"github.com/MeKo-Tech/printkit/internal/tone"
)

const (
	infoLevel  = "info"
	debugLevel = "debug"
)

// TestDefaultConfig verifies that DefaultConfig returns expected values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected log_level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Verbose {
		t.Error("Expected verbose to be false")
	}

	if cfg.Output.Format != "text" {
		t.Errorf("Expected output format 'text', got %s", cfg.Output.Format)
	}

	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected server host 'localhost', got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBatchSize != 1000 {
		t.Errorf("Expected max batch size 1000, got %d", cfg.Server.MaxBatchSize)
	}
	if cfg.Server.RateLimitEnabled {
		t.Error("Expected rate limiting to be disabled by default")
	}

	if cfg.Batch.Workers != runtime.GOMAXPROCS(0) {
		t.Errorf("Expected batch workers %d, got %d", runtime.GOMAXPROCS(0), cfg.Batch.Workers)
	}
	if !cfg.Batch.ContinueOnError {
		t.Error("Expected continue_on_error to be true")
	}

	if !cfg.EAN13.WarnMismatch {
		t.Error("Expected ean13.warn_mismatch to be true")
	}

	if cfg.Numbering.PerSheet != 4 || cfg.Numbering.PerBlock != 1 || cfg.Numbering.Start != 1 {
		t.Errorf("Unexpected numbering defaults: %+v", cfg.Numbering)
	}
	if cfg.Tone.SampleRate != 44100 {
		t.Errorf("Expected tone sample rate 44100, got %d", cfg.Tone.SampleRate)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() should validate, got %v", err)
	}
}

// TestValidate covers each validation rule.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"debug level", func(c *Config) { c.LogLevel = debugLevel }, false},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, true},
		{"empty format allowed", func(c *Config) { c.Output.Format = "" }, false},
		{"yaml format", func(c *Config) { c.Output.Format = "yaml" }, false},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too big", func(c *Config) { c.Server.Port = 70000 }, true},
		{"timeout zero", func(c *Config) { c.Server.TimeoutSec = 0 }, true},
		{"negative shutdown", func(c *Config) { c.Server.ShutdownTimeout = -1 }, true},
		{"batch size zero", func(c *Config) { c.Server.MaxBatchSize = 0 }, true},
		{"body size zero", func(c *Config) { c.Server.MaxBodyKB = 0 }, true},
		{"workers zero", func(c *Config) { c.Batch.Workers = 0 }, true},
		{"per sheet too big", func(c *Config) { c.Numbering.PerSheet = 101 }, true},
		{"per block zero", func(c *Config) { c.Numbering.PerBlock = 0 }, true},
		{"start zero", func(c *Config) { c.Numbering.Start = 0 }, true},
		{"sample rate low", func(c *Config) { c.Tone.SampleRate = 4000 }, true},
		{"amplitude high", func(c *Config) { c.Tone.Amplitude = 1.5 }, true},
		{"amplitude NaN", func(c *Config) { c.Tone.Amplitude = math.NaN() }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestToBatchConfig verifies the batch conversion.
func TestToBatchConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Batch.Workers = 3
	cfg.Batch.ContinueOnError = false
	cfg.Batch.Recursive = true
	cfg.EAN13.WarnMismatch = false

	bc := cfg.ToBatchConfig()
	if bc.Symbology != barcode.FormatEAN13 {
		t.Errorf("Expected symbology ean13, got %v", bc.Symbology)
	}
	if bc.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", bc.Workers)
	}
	if bc.ContinueOnError {
		t.Error("Expected ContinueOnError false")
	}
	if !bc.Recursive {
		t.Error("Expected Recursive true")
	}
	if bc.WarnMismatch {
		t.Error("Expected WarnMismatch false")
	}
	if len(bc.IncludePatterns) != len(batch.DefaultIncludePatterns) {
		t.Errorf("Expected default include patterns, got %v", bc.IncludePatterns)
	}
}

// TestToNumberingConfig verifies the numbering conversion.
func TestToNumberingConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Numbering.PerSheet = 3
	cfg.Numbering.LeadingZeros = true

	nc := cfg.ToNumberingConfig(10)
	if nc.Quantity != 10 || nc.PerSheet != 3 || !nc.LeadingZeros {
		t.Errorf("Unexpected numbering config: %+v", nc)
	}
	if err := nc.Validate(); err != nil {
		t.Errorf("Expected valid numbering config, got %v", err)
	}
}

// TestToToneParams verifies the tone conversion.
func TestToToneParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tone.SampleRate = 48000
	cfg.Tone.Amplitude = 0.8

	p := cfg.ToToneParams()
	if p.SampleRate != 48000 || p.Amplitude != 0.8 {
		t.Errorf("Unexpected tone params: %+v", p)
	}
	if p.Wave != tone.Sine {
		t.Errorf("Expected default wave sine, got %s", p.Wave)
	}
}
