package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sma-forecast/internal/regress"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"API_ENV", "API_PORT", "DATA_SOURCE", "DATA_FILE", "ALPHA_SYMBOL", APIKeyEnv, "DATA_URL", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", c.Server.Port)
	}
	if c.Source.Type != "file" || c.Source.File != "5-years.json" {
		t.Errorf("source = %+v", c.Source)
	}
	if c.Source.AlphaVantage.Timeout != 30*time.Second || c.Source.AlphaVantage.CacheTTL != time.Hour {
		t.Errorf("alphavantage durations = %+v", c.Source.AlphaVantage)
	}
	if len(c.Render.Formats) != 2 || c.Render.Formats[0] != "table" {
		t.Errorf("formats = %v", c.Render.Formats)
	}
	if len(c.Variants) != len(DefaultVariants()) {
		t.Fatalf("expected built-in variants, got %d", len(c.Variants))
	}
	w, ok := c.Variant("window")
	if !ok {
		t.Fatalf("window variant missing")
	}
	if w.BatchSize != 32 || w.TrainFraction != 0.8 || w.WindowSize != 50 {
		t.Errorf("window variant defaults = %+v", w)
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 8081
source:
  file: data.json
variants:
  - name: tiny
    kind: window
    window_size: 4
    epochs: 3
    hidden:
      - units: 3
      - units: 2
        activation: relu
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Port != 8081 || c.Source.File != "data.json" {
		t.Errorf("overrides not applied: %+v %+v", c.Server, c.Source)
	}
	if len(c.Variants) != 1 {
		t.Fatalf("expected only the configured variant, got %d", len(c.Variants))
	}
	v := c.Variants[0]
	if v.BatchSize != 32 || v.Epochs != 3 {
		t.Errorf("variant = %+v", v)
	}
	if v.Hidden[0].Activation != regress.Sigmoid || v.Hidden[1].Activation != regress.ReLU {
		t.Errorf("layer activations = %+v", v.Hidden)
	}
}

func TestLoadKeepsExplicitFalseAndZero(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  metrics: false
source:
  alphavantage:
    cache_ttl: 0s
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Metrics {
		t.Errorf("metrics = true, want explicit false kept")
	}
	if c.Source.AlphaVantage.CacheTTL != 0 {
		t.Errorf("cache_ttl = %v, want explicit 0 kept", c.Source.AlphaVantage.CacheTTL)
	}
	if c.Server.Port != 3000 || c.Source.AlphaVantage.Timeout != 30*time.Second {
		t.Errorf("untouched fields lost their defaults: %+v %+v", c.Server, c.Source.AlphaVantage)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if _, err := Load(""); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FOO!BAR=1\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), ".env") {
		t.Fatalf("expected malformed .env error, got %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_PORT", "4000")
	t.Setenv("DATA_SOURCE", "alphavantage")
	t.Setenv(APIKeyEnv, "demo-key-123")
	t.Setenv("ALPHA_SYMBOL", "QQQ")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Port != 4000 || c.Source.Type != "alphavantage" {
		t.Errorf("env not applied: %+v %+v", c.Server, c.Source)
	}
	if c.Source.AlphaVantage.APIKey != "demo-key-123" || c.Source.AlphaVantage.Symbol != "QQQ" {
		t.Errorf("alphavantage = %+v", c.Source.AlphaVantage)
	}
}

func TestValidateFailures(t *testing.T) {
	cases := map[string]string{
		"missing key":    "source:\n  type: alphavantage\n",
		"bad source":     "source:\n  type: ftp\n",
		"bad kind":       "variants:\n  - name: x\n    kind: lstm\n",
		"duplicate":      "variants:\n  - name: x\n    kind: scatter\n  - name: x\n    kind: window\n",
		"bad layer":      "variants:\n  - name: x\n    kind: window\n    hidden:\n      - units: 0\n",
		"bad activation": "variants:\n  - name: x\n    kind: window\n    hidden:\n      - units: 2\n        activation: swish\n",
		"bad format":     "render:\n  formats: [svg]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Load(writeConfig(t, body)); err == nil || !strings.Contains(err.Error(), "invalid") {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestExampleConfigLoads(t *testing.T) {
	clearEnv(t)
	c, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	if err != nil {
		t.Fatalf("Load example: %v", err)
	}
	d, ok := c.Variant("date")
	if !ok || d.Points != 200 || len(d.Hidden) != 2 {
		t.Fatalf("date variant = %+v", d)
	}
	if d.Hidden[0].Activation != regress.Sigmoid {
		t.Fatalf("hidden activation default not applied: %q", d.Hidden[0].Activation)
	}
}
