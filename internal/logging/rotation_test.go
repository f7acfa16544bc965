package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "nested", "dir", "run.log")

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		if _, err := os.Stat(logPath); err != nil {
			t.Errorf("log file was not created: %v", err)
		}
		if rw.Path() != logPath {
			t.Errorf("Path() = %q, want %q", rw.Path(), logPath)
		}
	})

	t.Run("appends to existing file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "run.log")
		if err := os.WriteFile(logPath, []byte("earlier\n"), 0644); err != nil {
			t.Fatalf("failed to seed log file: %v", err)
		}

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		if rw.Size() != int64(len("earlier\n")) {
			t.Errorf("Size() = %d, want %d", rw.Size(), len("earlier\n"))
		}
		if _, err := rw.Write([]byte("later\n")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		_ = rw.Close()

		content, _ := os.ReadFile(logPath)
		if string(content) != "earlier\nlater\n" {
			t.Errorf("unexpected content %q", content)
		}
	})
}

// writeLines writes n lines of roughly 100KB each.
func writeLines(t *testing.T, rw *RotatingWriter, n int) {
	t.Helper()
	line := strings.Repeat("x", 100*1024-1) + "\n"
	for i := 0; i < n; i++ {
		if _, err := rw.Write([]byte(line)); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}
}

func TestRotatingWriter_Rotation(t *testing.T) {
	t.Run("rotates past the size limit and keeps backups", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "run.log")
		rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		// 10 lines fit under 1MB, so 35 lines force three rotations.
		writeLines(t, rw, 35)

		for _, p := range []string{logPath, logPath + ".1", logPath + ".2"} {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("expected %s to exist: %v", p, err)
			}
		}
		if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
			t.Errorf("expected at most 2 backups, found %s.3", logPath)
		}
		if rw.Size() > 1024*1024 {
			t.Errorf("live file is %d bytes, over the limit", rw.Size())
		}
	})

	t.Run("zero backups truncates in place", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "run.log")
		rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 0})
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		writeLines(t, rw, 15)

		if _, err := os.Stat(logPath + ".1"); !os.IsNotExist(err) {
			t.Error("expected no backup files")
		}
		if got := rw.Size(); got != 5*100*1024 {
			t.Errorf("Size() = %d, want %d", got, 5*100*1024)
		}
	})

	t.Run("zero size disables rotation", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "run.log")
		rw, err := NewRotatingWriter(logPath, RotationConfig{})
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		writeLines(t, rw, 15)

		if _, err := os.Stat(logPath + ".1"); !os.IsNotExist(err) {
			t.Error("expected no rotation")
		}
	})
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 5})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_, _ = fmt.Fprintf(rw, "{\"worker\":%d,\"i\":%d,\"pad\":%q}\n", w, i, strings.Repeat("p", 1024))
			}
		}(w)
	}
	wg.Wait()
	_ = rw.Close()

	matches, _ := filepath.Glob(logPath + "*")
	lines := 0
	for _, m := range matches {
		content, err := os.ReadFile(m)
		if err != nil {
			t.Fatalf("read %s: %v", m, err)
		}
		lines += strings.Count(string(content), "\n")
	}
	if lines != 8*200 {
		t.Errorf("found %d lines across %d files, want %d", lines, len(matches), 8*200)
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), "run.log"), DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := rw.Write([]byte("late\n")); err == nil {
		t.Error("expected an error writing to a closed writer")
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestNewLoggerWithRotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")
	logger, err := NewLoggerWithRotation(logPath, LevelInfo, RotationConfig{MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewLoggerWithRotation failed: %v", err)
	}

	pad := strings.Repeat("d", 4096)
	for i := 0; i < 400; i++ {
		logger.WithDocument("shop_c1.json").Info("document computed", "pad", pad)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Errorf("expected a rotated backup: %v", err)
	}
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	for _, entry := range decodeLines(t, string(content)) {
		if entry["document"] != "shop_c1.json" {
			t.Fatalf("entry split across files or missing attrs: %v", entry["document"])
		}
	}
}
