package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// newTestLoader returns a loader with an isolated viper instance rooted in an
// empty temp directory, so no real config files are picked up.
func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return NewLoaderWithViper(viper.New())
}

// TestNewLoader tests loader creation.
func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.v == nil {
		t.Error("Loader viper instance is nil")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	loader := newTestLoader(t)

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if !cfg.EAN13.WarnMismatch {
		t.Error("Expected warn_mismatch default true")
	}
}

// TestLoadWithValidYAMLFile tests loading from a valid YAML file.
func TestLoadWithValidYAMLFile(t *testing.T) {
	loader := newTestLoader(t)
	configFile := filepath.Join(t.TempDir(), "printkit.yaml")

	yamlContent := `
log_level: debug
verbose: true
server:
  port: 9090
  max_batch_size: 50
batch:
  workers: 2
  continue_on_error: false
ean13:
  warn_mismatch: false
numbering:
  per_sheet: 6
`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := loader.LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}

	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected log level '%s', got %s", debugLevel, cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBatchSize != 50 {
		t.Errorf("Expected max batch size 50, got %d", cfg.Server.MaxBatchSize)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected default host to survive, got %s", cfg.Server.Host)
	}
	if cfg.Batch.Workers != 2 || cfg.Batch.ContinueOnError {
		t.Errorf("Unexpected batch config: %+v", cfg.Batch)
	}
	if cfg.EAN13.WarnMismatch {
		t.Error("Expected warn_mismatch false")
	}
	if cfg.Numbering.PerSheet != 6 {
		t.Errorf("Expected per_sheet 6, got %d", cfg.Numbering.PerSheet)
	}
}

// TestLoadFromSearchPath tests discovery of printkit.yaml in the working directory.
func TestLoadFromSearchPath(t *testing.T) {
	loader := newTestLoader(t)

	if err := os.WriteFile("printkit.yaml", []byte("server:\n  port: 7070\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected port 7070, got %d", cfg.Server.Port)
	}
	if filepath.Base(loader.GetConfigFileUsed()) != "printkit.yaml" {
		t.Errorf("Expected printkit.yaml to be used, got %q", loader.GetConfigFileUsed())
	}
}

// TestLoadWithEnvironmentVariables tests env var overrides.
func TestLoadWithEnvironmentVariables(t *testing.T) {
	loader := newTestLoader(t)
	t.Setenv("PRINTKIT_LOG_LEVEL", "warn")
	t.Setenv("PRINTKIT_SERVER_PORT", "9191")
	t.Setenv("PRINTKIT_EAN13_WARN_MISMATCH", "false")

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level warn, got %s", cfg.LogLevel)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Expected port 9191, got %d", cfg.Server.Port)
	}
	if cfg.EAN13.WarnMismatch {
		t.Error("Expected warn_mismatch false from env")
	}
}

// TestLoadWithInvalidConfig tests that validation errors surface.
func TestLoadWithInvalidConfig(t *testing.T) {
	loader := newTestLoader(t)
	configFile := filepath.Join(t.TempDir(), "printkit.yaml")
	if err := os.WriteFile(configFile, []byte("log_level: loud\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := loader.LoadWithFile(configFile); err == nil {
		t.Error("Expected validation error for invalid log level")
	}

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFileWithoutValidation(configFile)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.LogLevel != "loud" {
		t.Errorf("Expected unvalidated log level 'loud', got %s", cfg.LogLevel)
	}
}

// TestLoadWithoutValidation tests that an invalid file found on the search
// path loads when validation is skipped.
func TestLoadWithoutValidation(t *testing.T) {
	loader := newTestLoader(t)
	if err := os.WriteFile("printkit.yaml", []byte("server:\n  port: 0\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := loader.LoadWithoutValidation()
	if err != nil {
		t.Fatalf("LoadWithoutValidation() unexpected error: %v", err)
	}
	if cfg.Server.Port != 0 {
		t.Errorf("Expected unvalidated port 0, got %d", cfg.Server.Port)
	}

	if _, err := NewLoaderWithViper(viper.New()).Load(); err == nil {
		t.Error("Expected validation error for port 0")
	}
}

// TestLoadWithMissingFile tests an explicit file that does not exist.
func TestLoadWithMissingFile(t *testing.T) {
	loader := newTestLoader(t)
	if _, err := loader.LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

// TestLoadWithMalformedYAML tests a file that is not valid YAML.
func TestLoadWithMalformedYAML(t *testing.T) {
	loader := newTestLoader(t)
	if err := os.WriteFile("printkit.yaml", []byte("server: [port: 1\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := loader.Load(); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

// TestGenerateDefaultConfigFile tests writing a default config.
func TestGenerateDefaultConfigFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "printkit.yaml")
	if err := GenerateDefaultConfigFile(out); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read generated file: %v", err)
	}

	var generated Config
	if err := yaml.Unmarshal(data, &generated); err != nil {
		t.Fatalf("Generated file is not valid YAML: %v", err)
	}
	if generated.Server.Port != 8080 {
		t.Errorf("Expected port 8080 in generated file, got %d", generated.Server.Port)
	}
	if !generated.EAN13.WarnMismatch {
		t.Error("Expected warn_mismatch true in generated file")
	}
}

// TestGetConfigSearchPaths tests the search path list.
func TestGetConfigSearchPaths(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	paths := GetConfigSearchPaths()
	if len(paths) == 0 || paths[0] != "." {
		t.Fatalf("Expected current directory first, got %v", paths)
	}

	want := map[string]bool{
		filepath.Join(xdg, "printkit"): false,
		"/etc/printkit":                false,
	}
	for _, p := range paths {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for p, found := range want {
		if !found {
			t.Errorf("Expected search path %s in %v", p, paths)
		}
	}
}

// TestLoaderAccessors tests Get/Set helpers.
func TestLoaderAccessors(t *testing.T) {
	loader := NewLoaderWithViper(viper.New())
	loader.Set("output.format", "csv")

	if loader.GetString("output.format") != "csv" {
		t.Errorf("Expected csv, got %s", loader.GetString("output.format"))
	}
	if loader.Get("output.format") != "csv" {
		t.Errorf("Expected csv from Get, got %v", loader.Get("output.format"))
	}
	if loader.GetViper() == nil {
		t.Error("GetViper() returned nil")
	}
	if _, ok := loader.GetResolvedConfig()["output"]; !ok {
		t.Error("Expected output section in resolved config")
	}
}
