package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/minios-linux/localesync/cache"
	"github.com/minios-linux/localesync/config"
	"github.com/minios-linux/localesync/localefile"
	"github.com/minios-linux/localesync/translate"
)

// fakeTranslator records calls and answers from a fixed dictionary,
// falling back to a deterministic "sv:" prefix.
type fakeTranslator struct {
	calls []string
	dict  map[string]string
	err   error
}

func (f *fakeTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return "", f.err
	}
	if out, ok := f.dict[text]; ok {
		return out, nil
	}
	return "sv:" + text, nil
}

func testSetup(t *testing.T, sourceTree any) (config.Config, *fakeTranslator) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.SourceJSON = filepath.Join(dir, "en.json")
	cfg.TargetJSON = filepath.Join(dir, "sv-SE.json")
	cfg.BaseDelay = time.Millisecond

	if sourceTree != nil {
		if _, err := localefile.Write(cfg.SourceJSON, sourceTree); err != nil {
			t.Fatalf("writing source: %v", err)
		}
	}

	return cfg, &fakeTranslator{dict: map[string]string{"Hello": "Hej"}}
}

func run(t *testing.T, cfg config.Config, tr *fakeTranslator) *Report {
	t.Helper()
	report, err := Run(context.Background(), Options{
		Config:     cfg,
		Translator: tr,
		Retry:      translate.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func TestFirstRun(t *testing.T) {
	cfg, tr := testSetup(t, map[string]any{"a": map[string]any{"b": "Hello"}})

	report := run(t, cfg, tr)

	if report.Total != 1 || report.Translated != 1 || report.Reused != 0 {
		t.Errorf("report = %+v", report)
	}
	if !report.OutputChanged {
		t.Error("first run did not write the output")
	}
	if len(tr.calls) != 1 || tr.calls[0] != "Hello" {
		t.Errorf("gateway calls = %v, want [Hello]", tr.calls)
	}

	outTree, err := localefile.Load(cfg.TargetJSON)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	want := map[string]any{"a": map[string]any{"b": "Hej"}}
	if !reflect.DeepEqual(outTree, want) {
		t.Errorf("output tree = %v, want %v", outTree, want)
	}

	rec, err := cache.Load(cfg.CacheFile())
	if err != nil {
		t.Fatalf("loading cache: %v", err)
	}
	if v, ok := rec.Get("a.b"); !ok || v != "Hello" {
		t.Errorf("cache entry a.b = %q, %v, want Hello", v, ok)
	}
}

func TestSecondRunIsIdempotent(t *testing.T) {
	cfg, tr := testSetup(t, map[string]any{"a": map[string]any{"b": "Hello"}})

	run(t, cfg, tr)
	firstOutput, err := os.ReadFile(cfg.TargetJSON)
	if err != nil {
		t.Fatal(err)
	}

	report := run(t, cfg, tr)

	if len(tr.calls) != 1 {
		t.Errorf("gateway called %d times across both runs, want 1", len(tr.calls))
	}
	if report.Reused != 1 || report.Translated != 0 {
		t.Errorf("second run report = %+v", report)
	}
	if report.OutputChanged {
		t.Error("second run rewrote an unchanged output")
	}

	secondOutput, err := os.ReadFile(cfg.TargetJSON)
	if err != nil {
		t.Fatal(err)
	}
	if string(firstOutput) != string(secondOutput) {
		t.Error("output differs between identical runs")
	}
}

func TestChangedLeafIsRetranslated(t *testing.T) {
	cfg, tr := testSetup(t, map[string]any{"a": map[string]any{"b": "Hello"}})
	run(t, cfg, tr)

	if _, err := localefile.Write(cfg.SourceJSON, map[string]any{"a": map[string]any{"b": "Hello there"}}); err != nil {
		t.Fatal(err)
	}
	report := run(t, cfg, tr)

	if report.Translated != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(tr.calls) != 2 || tr.calls[1] != "Hello there" {
		t.Errorf("gateway calls = %v", tr.calls)
	}

	rec, err := cache.Load(cfg.CacheFile())
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := rec.Get("a.b"); v != "Hello there" {
		t.Errorf("cache entry = %q, want new source text", v)
	}
}

func TestArrayRoundTrip(t *testing.T) {
	cfg, tr := testSetup(t, map[string]any{"list": []any{"x", "y"}})

	run(t, cfg, tr)

	outTree, err := localefile.Load(cfg.TargetJSON)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"list": []any{"sv:x", "sv:y"}}
	if !reflect.DeepEqual(outTree, want) {
		t.Errorf("output tree = %v, want %v", outTree, want)
	}
}

func TestRemovedPathIsPruned(t *testing.T) {
	cfg, tr := testSetup(t, map[string]any{"keep": "Hello", "drop": "Bye"})
	run(t, cfg, tr)

	if _, err := localefile.Write(cfg.SourceJSON, map[string]any{"keep": "Hello"}); err != nil {
		t.Fatal(err)
	}
	report := run(t, cfg, tr)

	if report.Pruned != 1 {
		t.Errorf("Pruned = %d, want 1", report.Pruned)
	}

	outTree, err := localefile.Load(cfg.TargetJSON)
	if err != nil {
		t.Fatal(err)
	}
	out := outTree.(map[string]any)
	if _, ok := out["drop"]; ok {
		t.Error("removed path survived in the output")
	}

	rec, err := cache.Load(cfg.CacheFile())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rec.Get("drop"); ok {
		t.Error("removed path survived in the cache")
	}
}

func TestDryRun(t *testing.T) {
	cfg, tr := testSetup(t, map[string]any{"a": "Hello"})

	report, err := Run(context.Background(), Options{Config: cfg, DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Translated != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(tr.calls) != 0 {
		t.Errorf("dry run called the gateway: %v", tr.calls)
	}
	if _, err := os.Stat(cfg.TargetJSON); !os.IsNotExist(err) {
		t.Error("dry run wrote the output file")
	}
	if _, err := os.Stat(cfg.CacheFile()); !os.IsNotExist(err) {
		t.Error("dry run wrote the cache file")
	}
}

func TestMissingSource(t *testing.T) {
	cfg, tr := testSetup(t, nil)

	_, err := Run(context.Background(), Options{Config: cfg, Translator: tr})
	if err == nil {
		t.Fatal("Run with missing source succeeded")
	}
	var mse *MissingSourceError
	if !errors.As(err, &mse) {
		t.Errorf("error type %T, want *MissingSourceError", err)
	}
}

func TestGatewayFailureIsFatal(t *testing.T) {
	cfg, tr := testSetup(t, map[string]any{"a": "Hello"})
	tr.err = &translate.Error{Status: 400, Body: "bad request"}

	_, err := Run(context.Background(), Options{
		Config:     cfg,
		Translator: tr,
		Retry:      translate.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond},
	})
	if err == nil {
		t.Fatal("Run succeeded despite gateway failure")
	}
	if _, serr := os.Stat(cfg.TargetJSON); !os.IsNotExist(serr) {
		t.Error("failed run wrote the output file")
	}
	if _, serr := os.Stat(cfg.CacheFile()); !os.IsNotExist(serr) {
		t.Error("failed run wrote the cache file")
	}
}

func TestEmptyResultFallsBackToSource(t *testing.T) {
	cfg, tr := testSetup(t, map[string]any{"a": "Hello"})
	tr.dict = map[string]string{"Hello": "   "}

	run(t, cfg, tr)

	outTree, err := localefile.Load(cfg.TargetJSON)
	if err != nil {
		t.Fatal(err)
	}
	if got := outTree.(map[string]any)["a"]; got != "Hello" {
		t.Errorf("output = %q, want source fallback Hello", got)
	}

	// The cache is still updated, so the blank result is not retried
	// forever — but the fallback text in the output counts as a usable
	// previous translation on the next run.
	rec, err := cache.Load(cfg.CacheFile())
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := rec.Get("a"); v != "Hello" {
		t.Errorf("cache entry = %q, want Hello", v)
	}
}

func TestKeepEmptyPolicy(t *testing.T) {
	cfg, tr := testSetup(t, map[string]any{"a": "Hello"})
	tr.dict = map[string]string{"Hello": ""}

	_, err := Run(context.Background(), Options{
		Config:      cfg,
		Translator:  tr,
		Retry:       translate.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond},
		EmptyResult: translate.KeepEmpty,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	outTree, err := localefile.Load(cfg.TargetJSON)
	if err != nil {
		t.Fatal(err)
	}
	if got := outTree.(map[string]any)["a"]; got != "" {
		t.Errorf("output = %q, want empty string", got)
	}
}

func TestStripQuotes(t *testing.T) {
	cfg, tr := testSetup(t, map[string]any{"a": `"Hello"`})

	run(t, cfg, tr)

	if len(tr.calls) != 1 || tr.calls[0] != "Hello" {
		t.Errorf("gateway calls = %v, want quotes stripped", tr.calls)
	}
}

func TestStripQuotesHelper(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"Hello"`, "Hello"},
		{"'Hello'", "Hello"},
		{`"Hello'`, `"Hello'`},
		{`Hello`, "Hello"},
		{`"`, `"`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripQuotes(tt.in); got != tt.want {
			t.Errorf("stripQuotes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInspect(t *testing.T) {
	cfg, tr := testSetup(t, map[string]any{"a": "Hello", "b": "World"})
	run(t, cfg, tr)

	// Change one leaf and drop nothing.
	if _, err := localefile.Write(cfg.SourceJSON, map[string]any{"a": "Hello", "b": "Changed"}); err != nil {
		t.Fatal(err)
	}

	st, err := Inspect(cfg)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if st.SourceLeaves != 2 || st.Reusable != 1 || st.NeedsTranslation != 1 {
		t.Errorf("status = %+v", st)
	}

	// Inspect must not write anything.
	if _, err := os.Stat(cfg.CacheFile()); err != nil {
		t.Fatalf("cache file missing after earlier run: %v", err)
	}
}
