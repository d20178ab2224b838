package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MCSAON_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DBDriver != "sqlite" || cfg.BlobDriver != "fs" {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.CacheTTL != time.Hour || cfg.TokenTTL != 12*time.Hour {
		t.Fatalf("durations: %v %v", cfg.CacheTTL, cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcsaon.yaml")
	body := "http_addr: \":9090\"\ndb_driver: postgres\nredis_addr: localhost:6379\ncors_origins: \"https://a.example, https://b.example\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("file values: %+v", cfg)
	}
	if cfg.DBDriver != "sqlite" || cfg.LogLevel != "debug" {
		t.Fatalf("env should win: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad ttl":        {"CACHE_TTL": "soon"},
		"unknown driver": {"BLOB_DRIVER": "gcs"},
		"minio no host":  {"BLOB_DRIVER": "minio", "MINIO_ENDPOINT": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file should fail")
	}
}
