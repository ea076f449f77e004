// Package normalize reconciles protocol-specific raw messages into the
// canonical record shape shared by every sync source.
package normalize

import (
	"strings"
	"time"

	"github.com/mailroom-dev/mailroom/internal/sanitize"
)

// fallbackPlainLimit bounds the degraded plain body synthesized from HTML
// when a provider message carries no text/plain part.
const fallbackPlainLimit = 500

// Raw is a protocol-agnostic view of a fetched message, prior to
// normalization. PlainParts and HTMLParts hold the decoded text of each
// body part in traversal order; parts that failed to decode are simply
// absent.
type Raw struct {
	Subject    string
	From       string
	To         string
	DateHeader string

	PlainParts []string
	HTMLParts  []string

	// SynthesizePlain requests a degraded plain body cut from the raw
	// HTML when no text/plain part was found. Used by the provider-API
	// driver, whose messages are sometimes HTML-only.
	SynthesizePlain bool
}

// Normalized carries the canonical message fields produced from a Raw
// message, plus the image sources stripped during sanitization.
type Normalized struct {
	Subject           string
	From              string
	To                string
	Received          time.Time
	BodyPlain         string
	BodyHTMLRaw       string
	BodyHTMLSanitized string
	ImageSources      []string
}

// Canonical normalizes raw into the canonical record shape. Body parts are
// newline-joined and trimmed; sanitization runs only when a non-empty HTML
// body exists; the received time is always a valid UTC timestamp.
func Canonical(raw Raw) Normalized {
	n := Normalized{
		Subject:   raw.Subject,
		From:      raw.From,
		To:        raw.To,
		Received:  ParseDate(raw.DateHeader),
		BodyPlain: joinParts(raw.PlainParts),
	}
	n.BodyHTMLRaw = joinParts(raw.HTMLParts)

	if raw.SynthesizePlain && n.BodyPlain == "" && n.BodyHTMLRaw != "" {
		n.BodyPlain = truncateRunes(n.BodyHTMLRaw, fallbackPlainLimit)
	}

	if n.BodyHTMLRaw != "" {
		n.BodyHTMLSanitized, n.ImageSources = sanitize.Sanitize(n.BodyHTMLRaw)
	}
	return n
}

func joinParts(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// dateFormats covers the date representations commonly seen in mail
// headers, most specific first.
var dateFormats = []string{
	time.RFC1123Z,                     // "Mon, 02 Jan 2006 15:04:05 -0700"
	time.RFC1123,                      // "Mon, 02 Jan 2006 15:04:05 MST"
	time.RFC822Z,                      // "02 Jan 06 15:04 -0700"
	time.RFC822,                       // "02 Jan 06 15:04 MST"
	"Mon, 2 Jan 2006 15:04:05 -0700",  // single-digit day
	"Mon, 2 Jan 2006 15:04:05 MST",    // single-digit day with named zone
	"2 Jan 2006 15:04:05 -0700",       // no weekday
	time.RFC3339,                      // ISO 8601
	"2006-01-02T15:04:05",             // ISO 8601, naive
	"Mon, 02 Jan 2006 15:04:05 -0700 (MST)", // parenthesized zone
}

// ParseDate parses a mail date header into UTC. A timestamp with zone
// information is converted; a naive timestamp is assumed to already be
// UTC. An absent or unparsable header yields the current UTC time, so
// every stored message carries a valid, comparable timestamp.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().UTC()
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
