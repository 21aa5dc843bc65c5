package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  httpPort: ":9090"
embedding:
  provider: "upstage"
  dimensions: 4096
  upstage:
    apiKey: "up-key"
llm:
  model: "gpt-4o-mini"
  temperature: 0.7
vectorStore:
  provider: "qdrant"
  collection: "documents"
  dimension: 4096
  consistencyWait: "1s"
retrieval:
  personalMarkers: ["my diary"]
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.HTTPPort != ":9090" {
		t.Errorf("httpPort = %q", cfg.Server.HTTPPort)
	}
	if cfg.Embedding.Upstage.APIKey != "up-key" {
		t.Errorf("upstage apiKey = %q", cfg.Embedding.Upstage.APIKey)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("temperature = %v", cfg.LLM.Temperature)
	}
	if got := cfg.VectorStore.ConsistencyWaitDuration(); got != time.Second {
		t.Errorf("consistencyWait = %v, want 1s", got)
	}
	if len(cfg.Retrieval.PersonalMarkers) != 1 || cfg.Retrieval.PersonalMarkers[0] != "my diary" {
		t.Errorf("personalMarkers = %v", cfg.Retrieval.PersonalMarkers)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("UPSTAGE_API_KEY", "env-upstage")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	path := writeConfig(t, `
embedding:
  provider: "upstage"
  dimensions: 4096
vectorStore:
  provider: "qdrant"
  collection: "documents"
  dimension: 4096
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.HTTPPort != ":8080" {
		t.Errorf("default httpPort = %q", cfg.Server.HTTPPort)
	}
	if cfg.Embedding.Upstage.APIKey != "env-upstage" {
		t.Errorf("upstage apiKey did not fall back to env: %q", cfg.Embedding.Upstage.APIKey)
	}
	if cfg.LLM.APIKey != "env-openai" {
		t.Errorf("llm apiKey did not fall back to env: %q", cfg.LLM.APIKey)
	}
	if cfg.Embedding.Upstage.PassageModel != "embedding-passage" || cfg.Embedding.Upstage.QueryModel != "embedding-query" {
		t.Errorf("default models = %q / %q", cfg.Embedding.Upstage.PassageModel, cfg.Embedding.Upstage.QueryModel)
	}
	if cfg.LLM.Temperature != 0.4 || cfg.LLM.MaxTokens != 1000 {
		t.Errorf("llm defaults = %v / %d", cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	}
	if cfg.Retrieval.TopK != 15 || cfg.Retrieval.GenericThreshold != 0.5 || cfg.Retrieval.PersonalThreshold != 0.3 {
		t.Errorf("retrieval defaults = %+v", cfg.Retrieval)
	}
	if cfg.VectorStore.ConsistencyWaitDuration() != 0 {
		t.Errorf("consistencyWait default should be 0")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("LoadConfig() succeeded on a missing file")
	}
}

func TestConsistencyWaitDuration_Invalid(t *testing.T) {
	v := VectorStoreConfig{ConsistencyWait: "soon"}
	if v.ConsistencyWaitDuration() != 0 {
		t.Error("invalid duration should parse to 0")
	}
}
