package middleware

import (
	"strings"

	"github.com/tenantfox/tenantfox/internal/pkg/env"
)

// LocaleConfig is the immutable locale rule set, built once at startup.
type LocaleConfig struct {
	Supported []string
	Default   string
}

// LocaleConfigFromEnv reads APP_LOCALES (comma separated) and
// APP_DEFAULT_LOCALE.
func LocaleConfigFromEnv() LocaleConfig {
	raw := env.GetEnv("APP_LOCALES", "en,fr")
	supported := make([]string, 0, 4)
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			supported = append(supported, tag)
		}
	}
	return LocaleConfig{
		Supported: supported,
		Default:   env.GetEnv("APP_DEFAULT_LOCALE", "en"),
	}
}

// IsSupported reports whether the tag is a configured locale.
func (lc LocaleConfig) IsSupported(tag string) bool {
	for _, t := range lc.Supported {
		if t == tag {
			return true
		}
	}
	return false
}

// ExtractLocale takes the first path segment if it is a supported locale,
// falling back to the default locale.
func (lc LocaleConfig) ExtractLocale(path string) string {
	seg := firstSegment(path)
	if seg != "" && lc.IsSupported(seg) {
		return seg
	}
	return lc.Default
}

// StripLocale removes a leading supported-locale segment so route
// classification stays locale-agnostic. "/fr/dashboard" -> "/dashboard",
// "/fr" -> "/".
func (lc LocaleConfig) StripLocale(path string) string {
	seg := firstSegment(path)
	if seg == "" || !lc.IsSupported(seg) {
		return path
	}
	rest := path[len(seg)+1:]
	if rest == "" {
		return "/"
	}
	return rest
}

// LocalizedPath prefixes the path with the locale unless it is the default
// locale, which stays unprefixed.
func (lc LocaleConfig) LocalizedPath(path, locale string) string {
	if locale == "" || locale == lc.Default {
		return path
	}
	return "/" + locale + path
}

func firstSegment(path string) string {
	p := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}
