package render

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultTier is the presentation tier for header levels without their own.
const DefaultTier = 0

// MaxTier is the deepest header level with a distinct presentation.
const MaxTier = 6

// Tier maps a header level to its presentation tier.
func Tier(level int) int {
	if level >= 1 && level <= MaxTier {
		return level
	}
	return DefaultTier
}

// NormalizeURL prepends https:// to links written without a scheme and
// checks that the result is a usable absolute URL.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("render: empty url")
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("render: parse url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("render: url %q has no host", raw)
	}
	return u.String(), nil
}
