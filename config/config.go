// Package config holds the explicit configuration for a sync run.
//
// There is no hidden process-wide state: a Config is built once (defaults,
// then the optional .localesync.yaml project file, then environment
// variables, then command-line flags in main) and passed into the syncer.
// A .env file in the project root is loaded first when present; real
// environment variables always win over it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config describes one synchronization run.
type Config struct {
	// SourceJSON is the source-language locale file.
	SourceJSON string
	// TargetJSON is the target-language locale file (the output).
	TargetJSON string
	// SourceLang and TargetLang are the language tags sent to the gateway.
	SourceLang string
	TargetLang string
	// StripQuotes removes a single pair of surrounding quote characters
	// from source leaves before translation.
	StripQuotes bool
	// CachePath overrides the cache file location. Empty means derived
	// from TargetJSON and TargetLang (see CacheFile).
	CachePath string
	// Endpoint is the translation gateway base URL.
	Endpoint string
	// MaxRetries is the attempt bound for transient gateway failures.
	MaxRetries int
	// BaseDelay is the initial retry backoff (doubled per attempt).
	BaseDelay time.Duration
	// Timeout bounds a single gateway request.
	Timeout time.Duration
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		SourceJSON:  filepath.Join("locales", "en.json"),
		TargetJSON:  filepath.Join("locales", "sv-SE.json"),
		SourceLang:  "en",
		TargetLang:  "sv",
		StripQuotes: true,
		Endpoint:    "http://localhost:5000",
		MaxRetries:  3,
		BaseDelay:   time.Second,
		Timeout:     30 * time.Second,
	}
}

// CacheFile returns the effective cache path: CachePath when set,
// otherwise derived from the target path and language tag
// (locales/sv-SE.json → locales/sv-SE.cache.sv.json).
func (c Config) CacheFile() string {
	if c.CachePath != "" {
		return c.CachePath
	}
	base := strings.TrimSuffix(c.TargetJSON, filepath.Ext(c.TargetJSON))
	return base + ".cache." + c.TargetLang + ".json"
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SourceJSON, validation.Required),
		validation.Field(&c.TargetJSON, validation.Required),
		validation.Field(&c.SourceLang, validation.Required),
		validation.Field(&c.TargetLang, validation.Required),
		validation.Field(&c.Endpoint, validation.Required, is.RequestURL),
		validation.Field(&c.MaxRetries, validation.Min(0)),
	)
}

// ---------------------------------------------------------------------------
// Project file (.localesync.yaml)
// ---------------------------------------------------------------------------

// ProjectFileName is the optional per-project configuration file.
const ProjectFileName = ".localesync.yaml"

// projectFile mirrors the YAML schema. Pointer fields distinguish
// "not set" from zero values.
type projectFile struct {
	SourceJSON  string `yaml:"source_json,omitempty"`
	TargetJSON  string `yaml:"target_json,omitempty"`
	SourceLang  string `yaml:"source_lang,omitempty"`
	TargetLang  string `yaml:"target_lang,omitempty"`
	StripQuotes *bool  `yaml:"strip_quotes,omitempty"`
	CachePath   string `yaml:"cache_path,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	MaxRetries  *int   `yaml:"max_retries,omitempty"`
}

// applyProjectFile overlays .localesync.yaml from rootDir, if present.
func applyProjectFile(c *Config, rootDir string) error {
	path := filepath.Join(rootDir, ProjectFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if pf.SourceJSON != "" {
		c.SourceJSON = pf.SourceJSON
	}
	if pf.TargetJSON != "" {
		c.TargetJSON = pf.TargetJSON
	}
	if pf.SourceLang != "" {
		c.SourceLang = pf.SourceLang
	}
	if pf.TargetLang != "" {
		c.TargetLang = pf.TargetLang
	}
	if pf.StripQuotes != nil {
		c.StripQuotes = *pf.StripQuotes
	}
	if pf.CachePath != "" {
		c.CachePath = pf.CachePath
	}
	if pf.Endpoint != "" {
		c.Endpoint = pf.Endpoint
	}
	if pf.MaxRetries != nil {
		c.MaxRetries = *pf.MaxRetries
	}
	return nil
}

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// Environment variables recognized by FromEnv.
const (
	EnvSourceJSON = "SOURCE_JSON"
	EnvTargetJSON = "TARGET_JSON"
	EnvSourceLang = "SOURCE_LANG"
	EnvTargetLang = "TARGET_LANG"
	EnvStrip      = "STRIP_QUOTES"
	EnvCache      = "I18N_CACHE"
	EnvEndpoint   = "TRANSLATE_ENDPOINT"
)

// applyEnv overlays recognized environment variables.
func applyEnv(c *Config) {
	if v := os.Getenv(EnvSourceJSON); v != "" {
		c.SourceJSON = v
	}
	if v := os.Getenv(EnvTargetJSON); v != "" {
		c.TargetJSON = v
	}
	if v := os.Getenv(EnvSourceLang); v != "" {
		c.SourceLang = v
	}
	if v := os.Getenv(EnvTargetLang); v != "" {
		c.TargetLang = v
	}
	if v := os.Getenv(EnvStrip); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StripQuotes = b
		}
	}
	if v := os.Getenv(EnvCache); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
}

// FromEnv builds the configuration for a project root: defaults, then
// .localesync.yaml, then environment variables (with .env loaded first —
// godotenv never overrides variables already set in the environment).
func FromEnv(rootDir string) (Config, error) {
	// Errors from a missing .env are expected; a present-but-broken .env
	// is silently skipped too, matching dotenv conventions.
	_ = godotenv.Load(filepath.Join(rootDir, ".env"))

	c := Default()
	if err := applyProjectFile(&c, rootDir); err != nil {
		return c, err
	}
	applyEnv(&c)
	return c, nil
}
