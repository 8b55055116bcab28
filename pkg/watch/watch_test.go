package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/coolbeans/vcard/pkg/vcard"
)

const validCard = "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Jane Roe\r\nEND:VCARD\r\n"

const invalidCard = "BEGIN:VCARD\r\nVERSION:4.0\r\nEND:VCARD\r\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	parser := vcard.NewParser(nil)

	ok := ValidateFile(parser, writeFile(t, dir, "ok.vcf", validCard))
	if !ok.OK() || ok.Document.FormattedName() != "Jane Roe" {
		t.Errorf("unexpected result %+v", ok)
	}

	bad := ValidateFile(parser, writeFile(t, dir, "bad.vcf", invalidCard))
	var parseErr *vcard.ParseError
	if bad.OK() || !errors.As(bad.Err, &parseErr) || parseErr.Component != vcard.ComponentCardinality {
		t.Errorf("unexpected result %+v", bad)
	}

	missing := ValidateFile(parser, filepath.Join(dir, "missing.vcf"))
	if missing.OK() || !errors.Is(missing.Err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", missing.Err)
	}
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.vcf", invalidCard)
	writeFile(t, dir, "a.VCF", validCard)
	writeFile(t, dir, "c.vcard", validCard)
	writeFile(t, dir, "notes.txt", "not a card")
	if err := os.Mkdir(filepath.Join(dir, "sub.vcf"), 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	results, err := ValidateDir(vcard.NewParser(nil), dir, nil)
	if err != nil {
		t.Fatalf("ValidateDir failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	wantNames := []string{"a.VCF", "b.vcf", "c.vcard"}
	wantOK := []bool{true, false, true}
	for i, result := range results {
		if filepath.Base(result.Path) != wantNames[i] || result.OK() != wantOK[i] {
			t.Errorf("result %d: got %s ok=%v", i, result.Path, result.OK())
		}
	}

	only, err := ValidateDir(vcard.NewParser(nil), dir, []string{".vcard"})
	if err != nil || len(only) != 1 {
		t.Errorf("expected one .vcard result, got %d, %v", len(only), err)
	}

	if _, err := ValidateDir(vcard.NewParser(nil), filepath.Join(dir, "absent"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestResultLog(t *testing.T) {
	var output bytes.Buffer
	logger := zerolog.New(&output)
	dir := t.TempDir()
	parser := vcard.NewParser(nil)

	ValidateFile(parser, writeFile(t, dir, "ok.vcf", validCard)).Log(logger)
	ValidateFile(parser, writeFile(t, dir, "bad.vcf", invalidCard)).Log(logger)

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), output.String())
	}
	if !strings.Contains(lines[0], `"message":"valid vcard"`) || !strings.Contains(lines[0], `"fn":"Jane Roe"`) {
		t.Errorf("unexpected valid log line %s", lines[0])
	}
	for _, fragment := range []string{`"level":"warn"`, `"component":"cardinality"`, `"property":"FN"`, `"line":3`} {
		if !strings.Contains(lines[1], fragment) {
			t.Errorf("expected %s in %s", fragment, lines[1])
		}
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	results := make(chan Result, 8)
	watcher := New(dir, vcard.NewParser(nil), Options{
		Debounce: 20 * time.Millisecond,
		OnResult: func(r Result) { results <- r },
	})

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- watcher.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "ignored.txt", validCard)
	writeFile(t, dir, "new.vcf", invalidCard)

	select {
	case result := <-results:
		if filepath.Base(result.Path) != "new.vcf" {
			t.Errorf("unexpected path %s", result.Path)
		}
		if result.OK() {
			t.Error("expected the card to be rejected")
		}
	case <-time.After(2 * time.Second):
		t.Log("watcher did not report within timeout (may be CI environment)")
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcherNoDirectory(t *testing.T) {
	if err := New("", nil, Options{}).Start(); err == nil {
		t.Error("expected error without directory")
	}
	missing := New(filepath.Join(t.TempDir(), "absent"), nil, Options{})
	if err := missing.Start(); err == nil {
		t.Error("expected error for missing directory")
	}
	missing.Stop()
}

func TestWatcherDoubleStart(t *testing.T) {
	watcher := New(t.TempDir(), nil, Options{})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()
	if err := watcher.Start(); err == nil {
		t.Error("expected error on second Start")
	}
}
