// localesync — keep a target-language locale JSON file in sync with its
// source-language counterpart via machine translation, retranslating only
// the strings that changed since the last run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/minios-linux/localesync/config"
	"github.com/minios-linux/localesync/i18n"
	"github.com/minios-linux/localesync/syncer"
	"github.com/minios-linux/localesync/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	tagInfo    = color.New(color.FgBlue).Sprint("[INFO]")
	tagSuccess = color.New(color.FgGreen).Sprint("[OK]")
	tagWarning = color.New(color.FgYellow, color.Bold).Sprint("[WARN]")
	tagError   = color.New(color.FgRed).Sprint("[ERROR]")
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagInfo+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagSuccess+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagWarning+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagError+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

var rootDir string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "localesync",
		Short: "Sync locale JSON files via machine translation",
		Long: `localesync — keep a target-language locale JSON file in sync with its
source-language counterpart.

The source file is flattened to leaf paths (nav.home, items[0].label),
each changed or new string is sent to a LibreTranslate-compatible
endpoint, unchanged strings are reused from the previous output, and the
result is written back as pretty-printed JSON. A cache file next to the
output remembers the last-translated source text per path, so reruns
only pay for what actually changed.

Configuration comes from flags, environment variables (SOURCE_JSON,
TARGET_JSON, SOURCE_LANG, TARGET_LANG, STRIP_QUOTES, I18N_CACHE,
TRANSLATE_ENDPOINT), an optional .env file, and an optional
.localesync.yaml in the project root — in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newSyncCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("localesync version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// sync
// ---------------------------------------------------------------------------

func newSyncCmd() *cobra.Command {
	var (
		source     string
		target     string
		sourceLang string
		targetLang string
		cachePath  string
		endpoint   string
		apiKey     string
		maxRetries int
		timeout    time.Duration
		dryRun     bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Translate changed strings and update the target locale file",
		Long: `Synchronize the target locale file with the source.

Only strings that are new or whose source text changed since the last
run are sent to the translation endpoint; everything else is reused
from the previous output. The output file is rewritten only when its
content actually changes; the cache file is always rewritten.

Examples:
  # Defaults: locales/en.json → locales/sv-SE.json via localhost:5000
  localesync sync

  # Explicit paths and languages
  localesync sync --source locales/en.json --target locales/de.json \
      --source-lang en --target-lang de

  # See what would be translated without calling the endpoint
  localesync sync --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv(rootDir)
			if err != nil {
				return err
			}

			// Flags beat environment and project file.
			flags := cmd.Flags()
			if flags.Changed("source") {
				cfg.SourceJSON = source
			}
			if flags.Changed("target") {
				cfg.TargetJSON = target
			}
			if flags.Changed("source-lang") {
				cfg.SourceLang = sourceLang
			}
			if flags.Changed("target-lang") {
				cfg.TargetLang = targetLang
			}
			if flags.Changed("cache") {
				cfg.CachePath = cachePath
			}
			if flags.Changed("endpoint") {
				cfg.Endpoint = endpoint
			}
			if flags.Changed("max-retries") {
				cfg.MaxRetries = maxRetries
			}
			if flags.Changed("timeout") {
				cfg.Timeout = timeout
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			return runSync(cfg, apiKey, dryRun, verbose)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source locale JSON file")
	cmd.Flags().StringVar(&target, "target", "", "Target locale JSON file")
	cmd.Flags().StringVar(&sourceLang, "source-lang", "", "Source language tag")
	cmd.Flags().StringVar(&targetLang, "target-lang", "", "Target language tag")
	cmd.Flags().StringVar(&cachePath, "cache", "", "Cache file path override")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Translation endpoint base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the translation endpoint")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Maximum attempts per string on transient failures")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (0 = default)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be translated without calling the endpoint")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show a diff of the output file when it changes")

	return cmd
}

func runSync(cfg config.Config, apiKey string, dryRun, verbose bool) error {
	logInfo("Source: %s (%s)", cfg.SourceJSON, cfg.SourceLang)
	logInfo("Target: %s (%s)", cfg.TargetJSON, cfg.TargetLang)
	logInfo("Cache:  %s", cfg.CacheFile())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, aborting...")
		cancel()
	}()

	gateway := translate.NewHTTPTranslator(cfg.Endpoint, cfg.Timeout)
	gateway.APIKey = apiKey

	report, err := syncer.Run(ctx, syncer.Options{
		Config:     cfg,
		Translator: gateway,
		Retry: translate.RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.BaseDelay,
			Classify:    translate.IsRetryable,
		},
		EmptyResult: translate.FallbackToSource,
		DryRun:      dryRun,
		Verbose:     verbose,
		OnLog:       logInfo,
		OnError:     logError,
		OnProgress: func(done, total int) {
			logInfo("  %d/%d", done, total)
		},
	})
	if err != nil {
		return err
	}

	if dryRun {
		logSuccess("%s", i18n.T("Dry run complete"))
		return nil
	}
	if report.OutputChanged {
		logSuccess("%s", i18n.T("Synchronization complete!"))
	} else {
		logSuccess("%s", i18n.T("Nothing to do — output is up to date"))
	}
	return nil
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync state without modifying anything",
		Long: `Show how many strings are in sync, how many need translation, and how
many cache entries are stale. Does not call the translation endpoint
and does not modify any file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv(rootDir)
			if err != nil {
				return err
			}

			st, err := syncer.Inspect(cfg)
			if err != nil {
				return err
			}

			header := color.New(color.FgBlue).Sprint(i18n.T("Sync Status"))
			fmt.Fprintf(os.Stderr, "\n%s\n", header)
			fmt.Fprintf(os.Stderr, "  Source:             %s (%s)\n", cfg.SourceJSON, cfg.SourceLang)
			fmt.Fprintf(os.Stderr, "  Target:             %s (%s)\n", cfg.TargetJSON, cfg.TargetLang)
			fmt.Fprintf(os.Stderr, "  Source leaves:      %d\n", st.SourceLeaves)
			fmt.Fprintf(os.Stderr, "  In sync:            %d\n", st.Reusable)
			fmt.Fprintf(os.Stderr, "  Needs translation:  %d\n", st.NeedsTranslation)
			fmt.Fprintf(os.Stderr, "  Stale cache:        %d\n", st.StaleCacheEntries)
			fmt.Fprintln(os.Stderr)

			if st.NeedsTranslation == 0 {
				logSuccess("All strings are in sync")
			} else {
				logInfo("Run 'localesync sync' to translate %d string(s)", st.NeedsTranslation)
			}
			return nil
		},
	}
}
