package config

// Config represents the complete configuration for printkit.
// It includes settings for all commands (ean13, batch, numbering, tone, serve) and
// supports loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch encoding configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// EAN-13 encoder behaviour
	EAN13 EAN13Config `mapstructure:"ean13" yaml:"ean13" json:"ean13"`

	// Defaults for the numbering command
	Numbering NumberingConfig `mapstructure:"numbering" yaml:"numbering" json:"numbering"`

	// Defaults for the tone command
	Tone ToneConfig `mapstructure:"tone" yaml:"tone" json:"tone"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	MaxBatchSize    int    `mapstructure:"max_batch_size" yaml:"max_batch_size" json:"max_batch_size"`
	MaxBodyKB       int64  `mapstructure:"max_body_kb" yaml:"max_body_kb" json:"max_body_kb"`

	// Rate limiting
	RateLimitEnabled  bool  `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDay     int64 `mapstructure:"max_data_per_day" yaml:"max_data_per_day" json:"max_data_per_day"`
}

// BatchConfig contains batch encoding settings.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	Recursive       bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
}

// EAN13Config contains encoder settings.
type EAN13Config struct {
	// WarnMismatch logs a warning when a supplied 13th digit differs from the
	// computed check digit. The encoded output is unaffected.
	WarnMismatch bool `mapstructure:"warn_mismatch" yaml:"warn_mismatch" json:"warn_mismatch"`
}

// NumberingConfig contains default numbering layout settings.
type NumberingConfig struct {
	PerSheet     int  `mapstructure:"per_sheet" yaml:"per_sheet" json:"per_sheet"`
	PerBlock     int  `mapstructure:"per_block" yaml:"per_block" json:"per_block"`
	Start        int  `mapstructure:"start" yaml:"start" json:"start"`
	Placeholders bool `mapstructure:"placeholders" yaml:"placeholders" json:"placeholders"`
	LeadingZeros bool `mapstructure:"leading_zeros" yaml:"leading_zeros" json:"leading_zeros"`
}

// ToneConfig contains default tone settings.
type ToneConfig struct {
	SampleRate int     `mapstructure:"sample_rate" yaml:"sample_rate" json:"sample_rate"`
	Amplitude  float64 `mapstructure:"amplitude" yaml:"amplitude" json:"amplitude"`
}
