// Package i18n localizes localesync's own user-facing messages.
//
// It wraps gotext around translations embedded in the binary. Call Init
// once at startup; T returns the original string untouched when no
// translation exists, so callers never need a fallback path.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the compiled translation catalogs, laid out as
// locales/{lang}/LC_MESSAGES/localesync.po.
//
//go:embed all:locales
var locales embed.FS

const domain = "localesync"

var locale *gotext.Locale

// Init loads the catalog for lang. An empty lang auto-detects from the
// environment (LANGUAGE, LC_ALL, LC_MESSAGES, LANG — GNU gettext order).
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	locale = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	locale.AddDomain(domain)
	locale.SetDomain(domain)
}

// T translates a message, returning msgid unchanged when no translation
// is available or Init was never called.
func T(msgid string) string {
	if locale == nil {
		return msgid
	}
	return locale.Get(msgid)
}

// N translates a message with plural forms.
func N(singular, plural string, n int) string {
	if locale == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return locale.GetN(singular, plural, n)
}

// detectLanguage resolves the user's preferred language from the
// environment, skipping the C and POSIX locales.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE may hold a colon-separated preference list.
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// Drop the encoding suffix: sv_SE.UTF-8 → sv_SE.
		if idx := strings.IndexByte(val, '.'); idx >= 0 {
			val = val[:idx]
		}
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return "en"
}
