// Package config loads the TOML pipeline configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ModelConfig describes one named backend model entry under [models.<name>].
type ModelConfig struct {
	Name             string  `toml:"name"`
	APIType          string  `toml:"api_type"`
	BaseURL          string  `toml:"base_url"`
	Key              string  `toml:"key"`
	ModelID          string  `toml:"model_id"`
	ContextSize      int     `toml:"context_size"`
	Temperature      float64 `toml:"temperature"`
	InputTokenPrice  float64 `toml:"input_token_price"`
	OutputTokenPrice float64 `toml:"output_token_price"`
}

// QualityConfig tunes the soft quality-heuristics thresholds (see pkg/validate).
type QualityConfig struct {
	ShortRatioHard float64 `toml:"short_ratio_hard"`
	ShortRatioSoft float64 `toml:"short_ratio_soft"`
	LongRatioHard  float64 `toml:"long_ratio_hard"`
	LongRatioSoft  float64 `toml:"long_ratio_soft"`
	MinCharsForLen int     `toml:"min_chars_for_length_check"`
}

// Config is the pipeline's full configuration surface.
type Config struct {
	SourceLang string `toml:"source_lang"`
	TargetLang string `toml:"target_lang"`

	TranslateBackend string `toml:"translate_backend"`

	Models map[string]ModelConfig `toml:"models"`

	MaxChunkChars     int  `toml:"max_chunk_chars"`
	MaxChunkItems     int  `toml:"max_chunk_items"`
	AutosaveEvery     int  `toml:"autosave_every"`
	MaxTUs            int  `toml:"max_tus"`
	MaxRepairAttempts int  `toml:"max_repair_attempts"`
	StrictCompoundIDs bool `toml:"strict_compound_ids"`

	TraceDir string `toml:"trace_dir"`
	CacheDir string `toml:"cache_dir"`

	Debug bool `toml:"debug"`

	Quality QualityConfig `toml:"quality"`
}

// Default returns a Config with the same defaults the CLI falls back to
// when no config file is supplied.
func Default() *Config {
	return &Config{
		MaxChunkChars:     0, // resolved from the active model's context size, see pkg/translator.ChunkCharBudget
		MaxChunkItems:     32,
		AutosaveEvery:     25,
		MaxRepairAttempts: 2,
		StrictCompoundIDs: true,
		TraceDir:          ".docxtranslate/trace",
		CacheDir:          ".docxtranslate/cache",
		Quality: QualityConfig{
			ShortRatioHard: 0.25,
			ShortRatioSoft: 0.35,
			LongRatioHard:  4.0,
			LongRatioSoft:  2.8,
			MinCharsForLen: 40,
		},
	}
}

// Load reads a TOML config file and overlays it onto the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg out as TOML, used by --init-config.
func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}
