/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"inkpad/internal/document"
	"inkpad/internal/store"
)

// TestRecover_PanickingSession ensures Recover handles a panic, writes a
// report, saves the open note, and does not terminate the test process due
// to the injected exitFn.
func TestRecover_PanickingSession(t *testing.T) {
	// Capture stderr temporarily to avoid noisy test logs
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(os.Stderr, r) // drain pipe
	}()

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	reportDir := t.TempDir()
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	doc := document.New(document.DefaultLayout())
	doc.AddPage(0)

	func() {
		defer Recover(Context{Store: fs, NoteID: "session-note", Document: doc, ReportDir: reportDir})
		panic("boom")
	}()

	// Allow time for filesystem writes
	time.Sleep(50 * time.Millisecond)

	var found string
	files, _ := os.ReadDir(reportDir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log") {
			found = filepath.Join(reportDir, f.Name())
			break
		}
	}
	if found == "" {
		t.Fatalf("expected crash report file in report dir")
	}
	b, err := os.ReadFile(found)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", string(b))
	}
	if !bytes.Contains(b, []byte("Note: session-note")) {
		t.Fatalf("report does not name the open note: %s", string(b))
	}

	// the open note was salvaged
	saved, err := fs.Load(context.Background(), "session-note")
	if err != nil {
		t.Fatalf("load salvaged note: %v", err)
	}
	if saved.PageCount() != 2 {
		t.Fatalf("salvaged note has %d pages, want 2", saved.PageCount())
	}

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
}

func TestRecoverWithoutPanicIsSilent(t *testing.T) {
	oldExit := exitFn
	called := false
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(Context{})
	}()
	if called {
		t.Fatalf("Recover exited without a panic")
	}
}
