/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the user-editable YAML configuration and applies
// read-only environment overrides at runtime. The indexer token never
// touches disk; it lives in the OS keychain.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

// CanvasConfig carries the page geometry and editing defaults for new
// documents. Existing documents keep the layout they were created with.
type CanvasConfig struct {
	PageWidth    float64 `yaml:"page_width"`
	PageHeight   float64 `yaml:"page_height"`
	PageGap      float64 `yaml:"page_gap"`
	EraserRadius float64 `yaml:"eraser_radius"`
	UndoDepth    int     `yaml:"undo_depth"`
}

// StoreConfig selects where notes persist. When PostgresDSN is set the
// Postgres store is used instead of the local file+SQLite store.
type StoreConfig struct {
	Root            string `yaml:"root"` // notes root directory
	PostgresDSN     string `yaml:"postgres_dsn"`
	AutosaveDelayMs int    `yaml:"autosave_delay_ms"`
}

// IndexerConfig points at the external OCR/embedding indexing service.
// The bearer token is stored in the OS keychain, not here.
type IndexerConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Store         StoreConfig   `yaml:"store"`
	Indexer       IndexerConfig `yaml:"indexer"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Canvas: CanvasConfig{
			PageWidth: 800, PageHeight: 1132, PageGap: 24,
			EraserRadius: 12, UndoDepth: 20,
		},
		Store:   StoreConfig{Root: "", AutosaveDelayMs: 1000},
		Indexer: IndexerConfig{BaseURL: "", TimeoutMs: 5000},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvStoreRoot      = "INK_STORE_ROOT"
	EnvPostgresDSN    = "INK_PG_DSN"
	EnvAutosaveDelay  = "INK_AUTOSAVE_DELAY_MS"
	EnvIndexerURL     = "INK_INDEXER_URL"
	EnvIndexerTimeout = "INK_INDEXER_TIMEOUT_MS"
	EnvTelemetryOptIn = "INK_TELEMETRY_OPT_IN"
	EnvLogLevel       = "INK_LOG_LEVEL"
	EnvLogFormat      = "INK_LOG_FORMAT"
	EnvLogSource      = "INK_LOG_SOURCE"
	EnvLogFile        = "INK_LOG_FILE"
)

// Service/key for the OS keyring.
const (
	keyringService = "Inkpad"
	keyringToken   = "indexer_token"
)

// TokenStore abstracts the keyring, so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Inkpad")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Inkpad")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "inkpad")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and
// merges environment overrides. The indexer token is loaded from the
// keyring and returned separately so it never sits in the struct.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS
// keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		return tokenStore.Set(keyringService, keyringToken, token)
	}
	return nil
}

func mergeInto(dst, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if src.Canvas.PageWidth > 0 {
		dst.Canvas.PageWidth = src.Canvas.PageWidth
	}
	if src.Canvas.PageHeight > 0 {
		dst.Canvas.PageHeight = src.Canvas.PageHeight
	}
	if src.Canvas.PageGap > 0 {
		dst.Canvas.PageGap = src.Canvas.PageGap
	}
	if src.Canvas.EraserRadius > 0 {
		dst.Canvas.EraserRadius = src.Canvas.EraserRadius
	}
	if src.Canvas.UndoDepth > 0 {
		dst.Canvas.UndoDepth = src.Canvas.UndoDepth
	}
	if strings.TrimSpace(src.Store.Root) != "" {
		dst.Store.Root = src.Store.Root
	}
	if strings.TrimSpace(src.Store.PostgresDSN) != "" {
		dst.Store.PostgresDSN = src.Store.PostgresDSN
	}
	if src.Store.AutosaveDelayMs > 0 {
		dst.Store.AutosaveDelayMs = src.Store.AutosaveDelayMs
	}
	if strings.TrimSpace(src.Indexer.BaseURL) != "" {
		dst.Indexer.BaseURL = src.Indexer.BaseURL
	}
	if src.Indexer.TimeoutMs > 0 {
		dst.Indexer.TimeoutMs = src.Indexer.TimeoutMs
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvStoreRoot)); v != "" {
		cfg.Store.Root = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPostgresDSN)); v != "" {
		cfg.Store.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutosaveDelay)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Store.AutosaveDelayMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexerURL)); v != "" {
		cfg.Indexer.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexerTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Indexer.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
