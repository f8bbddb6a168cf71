package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_NormalizerEnabledWithoutModel(t *testing.T) {
	cfg := validConfig()
	cfg.Normalizer.Enabled = true
	cfg.Normalizer.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled normalizer without model")
	}
}

func TestValidate_BadWeights(t *testing.T) {
	cfg := validConfig()
	cfg.Ranking.Weights = WeightsConfig{
		Lexical: 0.5, Vector: 0.5, Recency: 0.5, Quality: 0.0, Authority: 0.0,
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for weights not summing to 1.0")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.CacheTTLHours != 168 {
		t.Errorf("expected CacheTTLHours=168, got %d", cfg.Embedding.CacheTTLHours)
	}
	if cfg.Ranking.RecencyHalfLifeDays != 180 {
		t.Errorf("expected RecencyHalfLifeDays=180, got %g", cfg.Ranking.RecencyHalfLifeDays)
	}
	if cfg.Ranking.Weights.Lexical != 0.35 {
		t.Errorf("expected default lexical weight 0.35, got %g", cfg.Ranking.Weights.Lexical)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Ranking: RankingConfig{
			Weights:             WeightsConfig{Lexical: 0.5, Vector: 0.5},
			RecencyHalfLifeDays: 90,
		},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Ranking.Weights.Lexical != 0.5 {
		t.Errorf("expected lexical weight kept at 0.5, got %g", cfg.Ranking.Weights.Lexical)
	}
	if cfg.Ranking.RecencyHalfLifeDays != 90 {
		t.Errorf("expected RecencyHalfLifeDays kept at 90, got %g", cfg.Ranking.RecencyHalfLifeDays)
	}
}

func TestRankingToDomain(t *testing.T) {
	cfg := validConfig()
	cfg.Ranking.Sources = []SourceRuleConfig{
		{Prefix: "agenzia_entrate", Boost: 1.0, Tier: 2},
		{Prefix: "gazzetta_ufficiale", Boost: 1.0, Tier: 1},
	}

	rc, err := cfg.Ranking.ToDomain()
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}
	if rc.SourceTier("gazzetta_ufficiale/leggi/2024") != 1 {
		t.Errorf("expected tier 1 for gazzetta prefix")
	}
	if rc.SourceTier("agenzia_entrate/circolari") != 2 {
		t.Errorf("expected tier 2 for agenzia prefix")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TRIBUTA_TEST_KEY", "sekret")

	in := []byte("api_key: ${TRIBUTA_TEST_KEY}\nmodel: ${TRIBUTA_TEST_MODEL:-text-embedding-3-small}\n")
	out := string(expandEnvVars(in))

	if out != "api_key: sekret\nmodel: text-embedding-3-small\n" {
		t.Errorf("unexpected expansion:\n%s", out)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := `
http:
  port: 8080
database:
  addrs: ["localhost:6379"]
ranking:
  recency_half_life_days: 120
  sources:
    - prefix: agenzia_entrate
      boost: 1.0
      tier: 2
`
	if err := os.WriteFile(filepath.Join(dir, "config", "testenv.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("testenv")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Ranking.RecencyHalfLifeDays != 120 {
		t.Errorf("half-life = %g", cfg.Ranking.RecencyHalfLifeDays)
	}
	if len(cfg.Ranking.Sources) != 1 || cfg.Ranking.Sources[0].Tier != 2 {
		t.Errorf("sources = %+v", cfg.Ranking.Sources)
	}
}
