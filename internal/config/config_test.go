/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultsSane(t *testing.T) {
	cfg := Defaults()
	if cfg.Canvas.PageWidth <= 0 || cfg.Canvas.PageHeight <= 0 {
		t.Fatalf("default page size must be positive: %+v", cfg.Canvas)
	}
	if cfg.Canvas.UndoDepth != 20 {
		t.Fatalf("default undo depth should be 20, got %d", cfg.Canvas.UndoDepth)
	}
	if cfg.Store.AutosaveDelayMs != 1000 {
		t.Fatalf("default autosave delay should be 1000ms, got %d", cfg.Store.AutosaveDelayMs)
	}
	if cfg.General.TelemetryOptIn {
		t.Fatalf("telemetry must default to opt-out")
	}
}

func TestMergePrefersFileValues(t *testing.T) {
	dst := Defaults()
	var src AppConfig
	err := yaml.Unmarshal([]byte(`
canvas:
  eraser_radius: 20
store:
  root: /tmp/notes
logging:
  level: DEBUG
`), &src)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	mergeInto(&dst, &src)
	if dst.Canvas.EraserRadius != 20 {
		t.Fatalf("eraser radius not merged: %v", dst.Canvas.EraserRadius)
	}
	if dst.Store.Root != "/tmp/notes" {
		t.Fatalf("store root not merged: %v", dst.Store.Root)
	}
	if dst.Logging.Level != "debug" {
		t.Fatalf("log level should normalize to lowercase, got %q", dst.Logging.Level)
	}
	// untouched fields keep their defaults
	if dst.Canvas.PageWidth != 800 {
		t.Fatalf("page width should keep default, got %v", dst.Canvas.PageWidth)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvStoreRoot, "/srv/ink")
	t.Setenv(EnvTelemetryOptIn, "yes")
	t.Setenv(EnvAutosaveDelay, "250")
	cfg := Defaults()
	applyEnvOverrides(&cfg)
	if cfg.Store.Root != "/srv/ink" {
		t.Fatalf("store root override missing: %v", cfg.Store.Root)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("telemetry opt-in override missing")
	}
	if cfg.Store.AutosaveDelayMs != 250 {
		t.Fatalf("autosave override missing: %d", cfg.Store.AutosaveDelayMs)
	}
}

func TestEnvOverrideIgnoresGarbageNumbers(t *testing.T) {
	t.Setenv(EnvAutosaveDelay, "soon")
	cfg := Defaults()
	applyEnvOverrides(&cfg)
	if cfg.Store.AutosaveDelayMs != 1000 {
		t.Fatalf("garbage number should keep default, got %d", cfg.Store.AutosaveDelayMs)
	}
}

type fakeKeyring struct{ vals map[string]string }

func (f *fakeKeyring) Get(service, key string) (string, error) { return f.vals[service+key], nil }
func (f *fakeKeyring) Set(service, key, value string) error {
	f.vals[service+key] = value
	return nil
}
func (f *fakeKeyring) Delete(service, key string) error {
	delete(f.vals, service+key)
	return nil
}

func TestTokenStoreStub(t *testing.T) {
	old := tokenStore
	defer func() { tokenStore = old }()
	fk := &fakeKeyring{vals: map[string]string{}}
	tokenStore = fk
	if err := tokenStore.Set(keyringService, keyringToken, "s3cret"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := tokenStore.Get(keyringService, keyringToken)
	if err != nil || got != "s3cret" {
		t.Fatalf("get: %q err=%v", got, err)
	}
}
