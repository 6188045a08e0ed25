package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 1)
	w, err := NewWatcher(100*time.Millisecond, nil, []string{"exclude_dir"}, []string{"*_generated.py"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "app.py")
	os.WriteFile(testFile, []byte("x = 1\n"), 0644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected to find %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for file change event")
	}

	// Non-Python files and excluded patterns never trigger a batch.
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "models_generated.py"), []byte("y = 2\n"), 0644)

	select {
	case paths := <-changedFiles:
		t.Errorf("Excluded files triggered event: %v", paths)
	case <-time.After(500 * time.Millisecond):
		// Expected
	}

	// New directory should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "pkg")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "nested.py")
	if err := os.WriteFile(subFile, []byte("y = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subFile {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}

func TestWatcherSingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "main.py")
	if err := os.WriteFile(target, []byte("a = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 1)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{target}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(target, []byte("a = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == target {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %s in changed files %v", target, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for single-file change event")
	}
}

func TestWatcherRejectsBadGlob(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, nil, []string{"["}, nil, func([]string) {}); err == nil {
		t.Error("expected error for invalid dir glob")
	}
	if _, err := NewWatcher(time.Millisecond, nil, nil, []string{"["}, func([]string) {}); err == nil {
		t.Error("expected error for invalid file glob")
	}
}

func TestShouldExcludeFile(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, nil, []string{"conftest.py"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	cases := []struct {
		path    string
		exclude bool
	}{
		{"/src/app.py", false},
		{"/src/notes.txt", true},
		{"/src/Makefile", true},
		{"/src/conftest.py", true},
		{"/deep/nested/util.py", false},
	}
	for _, tc := range cases {
		if got := w.shouldExcludeFile(tc.path); got != tc.exclude {
			t.Errorf("shouldExcludeFile(%q) = %v, want %v", tc.path, got, tc.exclude)
		}
	}
}

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter(1, 2)
	if !l.Allow(1) || !l.Allow(1) {
		t.Fatal("burst tokens should be available immediately")
	}
	if l.Allow(1) {
		t.Error("third immediate request should be throttled")
	}
}

func TestThrottledBatchIsRequeued(t *testing.T) {
	changedFiles := make(chan []string, 2)
	// Burst 1: the first flush consumes the only token, the second is
	// throttled and must re-fire after the debounce window.
	w, err := NewWatcher(20*time.Millisecond, NewLimiter(5, 1), nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.scheduleChange("/src/a.py")
	select {
	case <-changedFiles:
	case <-time.After(time.Second):
		t.Fatal("first batch never flushed")
	}

	w.scheduleChange("/src/b.py")
	select {
	case paths := <-changedFiles:
		if len(paths) != 1 || paths[0] != "/src/b.py" {
			t.Errorf("requeued batch = %v", paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("throttled batch never re-flushed")
	}
}
