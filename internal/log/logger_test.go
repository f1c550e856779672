/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Leveler{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPrettyHandlerOutput(t *testing.T) {
	var sb strings.Builder
	h := &prettyTextHandler{opts: prettyOpts{Level: slog.LevelInfo}, w: &sb}
	l := slog.New(h).With(slog.String("component", "engine"))
	l.Info("stroke committed", slog.Int("points", 12))
	out := sb.String()
	if !strings.Contains(out, "INF") || !strings.Contains(out, "stroke committed") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "component=engine") || !strings.Contains(out, "points=12") {
		t.Fatalf("attributes missing: %q", out)
	}
}

func TestPrettyHandlerLevelGate(t *testing.T) {
	var sb strings.Builder
	h := &prettyTextHandler{opts: prettyOpts{Level: slog.LevelWarn}, w: &sb}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug should be gated at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should pass at warn level")
	}
}

func TestWithComponentAndOperation(t *testing.T) {
	l := WithOperation(WithComponent("storage"), "save")
	if l == nil {
		t.Fatalf("expected logger")
	}
}
