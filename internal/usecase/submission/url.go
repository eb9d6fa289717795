package submission

import (
	"regexp"
	"strings"
)

// Accepted post link shapes. The scheme is mandatory: bare "x.com/..." input
// is rejected rather than guessed at.
var tweetURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(www\.)?(twitter\.com|x\.com)/[A-Za-z0-9_]+/status/\d+`),
	regexp.MustCompile(`^https?://(www\.)?(twitter\.com|x\.com)/i/web/status/\d+`),
	regexp.MustCompile(`^https?://(www\.)?(twitter\.com|x\.com)/status/\d+`),
}

var (
	tweetIDPattern = regexp.MustCompile(`/(\d+)(?:\?|$)`)
	authorPattern  = regexp.MustCompile(`(?:twitter\.com|x\.com)/([A-Za-z0-9_]+)`)
)

// IsValidPostURL reports whether raw is a link to an X/Twitter post.
func IsValidPostURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	for _, pattern := range tweetURLPatterns {
		if pattern.MatchString(raw) {
			return true
		}
	}
	return false
}

// ExtractPostID returns the numeric status id from the link, or "" if raw is
// not a valid post URL. The id is the last /digits segment terminated by a
// query string or the end of the input.
func ExtractPostID(raw string) string {
	if !IsValidPostURL(raw) {
		return ""
	}
	match := tweetIDPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return ""
	}
	return match[1]
}

// ExtractAuthor returns the first path segment after the host, which for
// profile-style links is the posting handle. Links of the /i/web/status form
// yield "i".
func ExtractAuthor(raw string) string {
	if !IsValidPostURL(raw) {
		return ""
	}
	match := authorPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return ""
	}
	return match[1]
}

// NormalizePostURL returns the canonical form used for duplicate detection:
// whitespace trimmed, query string dropped, https scheme. Returns "" for
// invalid input. Normalization is idempotent.
func NormalizePostURL(raw string) string {
	if !IsValidPostURL(raw) {
		return ""
	}
	normalized := strings.TrimSpace(raw)
	if idx := strings.Index(normalized, "?"); idx >= 0 {
		normalized = normalized[:idx]
	}
	if !strings.HasPrefix(normalized, "https://") {
		normalized = strings.Replace(normalized, "http://", "https://", 1)
	}
	return normalized
}
