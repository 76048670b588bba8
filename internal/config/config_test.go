package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kovalyov-valentin/news-easy-bot/internal/digest"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NEB_TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TelegramBotToken != "123:abc" {
		t.Errorf("token not read from env: %q", cfg.TelegramBotToken)
	}
	if cfg.Timezone != "Europe/Kyiv" || cfg.Location().String() != "Europe/Kyiv" {
		t.Errorf("unexpected timezone %q", cfg.Timezone)
	}
	if cfg.SourceTimeout != 25*time.Second {
		t.Errorf("unexpected source timeout %v", cfg.SourceTimeout)
	}
	if cfg.MaxChars != 3800 || cfg.MessagePause != 60*time.Millisecond {
		t.Errorf("unexpected delivery settings %d %v", cfg.MaxChars, cfg.MessagePause)
	}
	if cfg.WebhookPath != "/webhook" || cfg.WebhookURL != "" {
		t.Errorf("unexpected webhook settings %q %q", cfg.WebhookURL, cfg.WebhookPath)
	}

	opts := cfg.DigestOptions()
	if opts.SectionOrder != digest.SectionsAlphabetical || opts.Undated != digest.UndatedDrop {
		t.Errorf("unexpected digest options %+v", opts)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.hcl")
	data := `
telegram_bot_token = "from-file"
max_chars = 3000
section_order = "by-count"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("NEB_MAX_CHARS", "2000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TelegramBotToken != "from-file" {
		t.Errorf("token not read from file: %q", cfg.TelegramBotToken)
	}
	if cfg.MaxChars != 2000 {
		t.Errorf("env should override file, got %d", cfg.MaxChars)
	}
	if cfg.SectionOrder != "by-count" {
		t.Errorf("unexpected section order %q", cfg.SectionOrder)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Timezone: "Europe/Kyiv", SectionOrder: "alphabetical", Undated: "keep", MaxChars: 3800}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name, mutate := range map[string]func(*Config){
		"timezone":      func(c *Config) { c.Timezone = "Mars/Olympus" },
		"section order": func(c *Config) { c.SectionOrder = "random" },
		"undated":       func(c *Config) { c.Undated = "maybe" },
		"max chars":     func(c *Config) { c.MaxChars = 5000 },
	} {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestDigestOptionsClampsMaxChars(t *testing.T) {
	for _, tt := range []struct{ in, want int }{
		{0, 3800},
		{-5, 3800},
		{10000, 4096},
		{2000, 2000},
	} {
		c := Config{Timezone: "Europe/Kyiv", MaxChars: tt.in}
		if got := c.DigestOptions().MaxChars; got != tt.want {
			t.Errorf("MaxChars %d -> %d, want %d", tt.in, got, tt.want)
		}
	}
}
