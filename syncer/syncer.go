// Package syncer orchestrates one locale synchronization run: flatten the
// source tree, decide per leaf whether the previous translation can be
// reused, translate the rest through the gateway, inflate the merged
// result and persist the output and cache.
package syncer

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/minios-linux/localesync/cache"
	"github.com/minios-linux/localesync/config"
	"github.com/minios-linux/localesync/flatten"
	"github.com/minios-linux/localesync/localefile"
	"github.com/minios-linux/localesync/translate"
)

// MissingSourceError reports an absent source locale file. Fatal: the run
// aborts before any translation.
type MissingSourceError struct {
	Path string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("source file %s does not exist", e.Path)
}

// Options controls a sync run.
type Options struct {
	// Config is the run configuration (paths, languages, policies).
	Config config.Config
	// Translator is the gateway. Required unless DryRun is set.
	Translator translate.Translator
	// Retry is the policy applied around each gateway call.
	Retry translate.RetryPolicy
	// EmptyResult decides what a blank gateway result becomes.
	EmptyResult translate.EmptyResultPolicy
	// DryRun reports what would happen without calling the gateway or
	// writing any file.
	DryRun bool
	// Verbose enables the output diff in OnLog when the target changes.
	Verbose bool
	// OnLog emits informational messages during the run.
	OnLog func(format string, args ...any)
	// OnError emits error messages during the run.
	OnError func(format string, args ...any)
	// OnProgress is called after each translated leaf.
	OnProgress func(done, total int)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) progress(done, total int) {
	if o.OnProgress != nil {
		o.OnProgress(done, total)
	}
}

// Report summarizes a completed run.
type Report struct {
	// Total is the number of string leaves in the source.
	Total int
	// Reused leaves were carried over from the previous output.
	Reused int
	// Translated leaves went through the gateway (or would, in dry-run).
	Translated int
	// Pruned is the number of stale cache entries removed.
	Pruned int
	// OutputChanged is true when the target file was rewritten.
	OutputChanged bool
}

// Run performs one synchronization pass. On error nothing has been
// written: the output and cache files are only touched after every leaf
// has been resolved.
func Run(ctx context.Context, opts Options) (*Report, error) {
	cfg := opts.Config

	if _, err := os.Stat(cfg.SourceJSON); os.IsNotExist(err) {
		return nil, &MissingSourceError{Path: cfg.SourceJSON}
	}
	srcTree, err := localefile.Load(cfg.SourceJSON)
	if err != nil {
		return nil, err
	}

	flat := flatten.Flatten(srcTree)
	if cfg.StripQuotes {
		for path, value := range flat {
			flat[path] = stripQuotes(value)
		}
	}

	// Previous output is optional; a missing or unreadable target simply
	// means nothing can be reused.
	prevOutput := map[string]string{}
	if prevTree, err := localefile.Load(cfg.TargetJSON); err == nil {
		prevOutput = flatten.Flatten(prevTree)
	}

	rec, err := cache.Load(cfg.CacheFile())
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	report := &Report{Total: len(paths)}
	merged := make(map[string]string, len(paths))

	opts.log("Source leaves (%s): %d", cfg.SourceLang, len(paths))

	for _, path := range paths {
		source := flat[path]

		if d := rec.Decide(path, source, prevOutput); d.Reuse {
			merged[path] = d.Value
			report.Reused++
			continue
		}

		report.Translated++
		if opts.DryRun {
			opts.log("would translate %s: %q", path, source)
			continue
		}

		var result string
		err := opts.Retry.Do(ctx, func() error {
			var terr error
			result, terr = opts.Translator.Translate(ctx, source, cfg.SourceLang, cfg.TargetLang)
			return terr
		})
		if err != nil {
			opts.logError("giving up after %d of %d leaves", report.Reused+report.Translated-1, len(paths))
			return nil, fmt.Errorf("translating %s: %w", path, err)
		}

		merged[path] = opts.EmptyResult.Apply(source, result)
		rec.Update(path, source)
		opts.progress(report.Reused+report.Translated, len(paths))
	}

	report.Pruned = rec.Prune(flat)

	if opts.DryRun {
		opts.log("Dry run: %d to translate, %d reusable, %d stale cache entries", report.Translated, report.Reused, report.Pruned)
		return report, nil
	}

	outTree, err := flatten.Inflate(merged)
	if err != nil {
		return nil, err
	}
	outData, err := localefile.Marshal(outTree)
	if err != nil {
		return nil, err
	}

	oldData, _ := os.ReadFile(cfg.TargetJSON)
	changed, err := localefile.WriteBytes(cfg.TargetJSON, outData)
	if err != nil {
		return nil, err
	}
	report.OutputChanged = changed

	if changed && opts.Verbose {
		opts.log("Output changed:\n%s", localefile.Diff(oldData, outData))
	}

	if err := rec.Save(); err != nil {
		return nil, err
	}

	opts.log("Done: %d reused, %d translated, %d pruned", report.Reused, report.Translated, report.Pruned)
	return report, nil
}

// stripQuotes removes one pair of surrounding quote characters from a
// source leaf ("Hello" → Hello). Unbalanced or absent quotes leave the
// value untouched.
func stripQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '"' || first == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// Status describes the current sync state without modifying anything.
type Status struct {
	// SourceLeaves is the number of string leaves in the source file.
	SourceLeaves int
	// Reusable leaves need no gateway call on the next run.
	Reusable int
	// NeedsTranslation leaves are new, changed, or missing from the output.
	NeedsTranslation int
	// StaleCacheEntries are cache entries for paths gone from the source.
	StaleCacheEntries int
}

// Inspect computes the Status for a configuration. Read-only.
func Inspect(cfg config.Config) (*Status, error) {
	if _, err := os.Stat(cfg.SourceJSON); os.IsNotExist(err) {
		return nil, &MissingSourceError{Path: cfg.SourceJSON}
	}
	srcTree, err := localefile.Load(cfg.SourceJSON)
	if err != nil {
		return nil, err
	}
	flat := flatten.Flatten(srcTree)
	if cfg.StripQuotes {
		for path, value := range flat {
			flat[path] = stripQuotes(value)
		}
	}

	prevOutput := map[string]string{}
	if prevTree, err := localefile.Load(cfg.TargetJSON); err == nil {
		prevOutput = flatten.Flatten(prevTree)
	}

	rec, err := cache.Load(cfg.CacheFile())
	if err != nil {
		return nil, err
	}

	st := &Status{SourceLeaves: len(flat)}
	for path, source := range flat {
		if d := rec.Decide(path, source, prevOutput); d.Reuse {
			st.Reusable++
		} else {
			st.NeedsTranslation++
		}
	}
	for _, path := range rec.Paths() {
		if _, ok := flat[path]; !ok {
			st.StaleCacheEntries++
		}
	}
	return st, nil
}
