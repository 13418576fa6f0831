package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.GroqModel != "whisper-large-v3-turbo" {
		t.Errorf("GroqModel = %q", cfg.GroqModel)
	}
	if cfg.GroqLanguage != "tr" {
		t.Errorf("GroqLanguage = %q", cfg.GroqLanguage)
	}
	if cfg.MaxUploadMB != 200 {
		t.Errorf("MaxUploadMB = %d", cfg.MaxUploadMB)
	}
	if cfg.SegmentSizeMB != 23 {
		t.Errorf("SegmentSizeMB = %f", cfg.SegmentSizeMB)
	}
	if cfg.QuotaWindow != time.Hour {
		t.Errorf("QuotaWindow = %s", cfg.QuotaWindow)
	}
	if cfg.QuotaCapacity != 7200 {
		t.Errorf("QuotaCapacity = %d", cfg.QuotaCapacity)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("GROQ_LANGUAGE", "en")
	t.Setenv("SEGMENT_SIZE_MB", "10")
	t.Setenv("QUOTA_CAPACITY_SECONDS", "3600")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.GroqLanguage != "en" {
		t.Errorf("GroqLanguage = %q", cfg.GroqLanguage)
	}
	if cfg.SegmentSizeMB != 10 {
		t.Errorf("SegmentSizeMB = %f", cfg.SegmentSizeMB)
	}
	if cfg.QuotaCapacity != 3600 {
		t.Errorf("QuotaCapacity = %d", cfg.QuotaCapacity)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("Load succeeded without GROQ_API_KEY")
	}
}
