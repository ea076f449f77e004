package normalize

import (
	"strings"
	"testing"
	"time"
)

func TestParseDate_ConvertsToUTC(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "rfc1123z with offset",
			input: "Mon, 02 Jan 2006 15:04:05 -0700",
			want:  time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC),
		},
		{
			name:  "single digit day",
			input: "Mon, 2 Jan 2006 15:04:05 -0700",
			want:  time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC),
		},
		{
			name:  "no weekday",
			input: "2 Jan 2006 15:04:05 +0200",
			want:  time.Date(2006, 1, 2, 13, 4, 5, 0, time.UTC),
		},
		{
			name:  "iso 8601",
			input: "2006-01-02T15:04:05Z",
			want:  time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC),
		},
		{
			name:  "naive timestamp assumed utc",
			input: "2006-01-02T15:04:05",
			want:  time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseDate(%q) location = %v, want UTC", tt.input, got.Location())
			}
		})
	}
}

func TestParseDate_FallsBackToNow(t *testing.T) {
	for _, input := range []string{"", "not a date", "32 Foo 2006"} {
		got := ParseDate(input)
		if got.Location() != time.UTC {
			t.Errorf("ParseDate(%q) location = %v, want UTC", input, got.Location())
		}
		if time.Since(got) > time.Minute || time.Since(got) < 0 {
			t.Errorf("ParseDate(%q) = %v, want approximately now", input, got)
		}
	}
}

func TestCanonical_JoinsParts(t *testing.T) {
	n := Canonical(Raw{
		Subject:    "Hi",
		From:       "a@example.com",
		To:         "b@example.com",
		PlainParts: []string{"first", "second"},
	})

	if n.BodyPlain != "first\nsecond" {
		t.Errorf("BodyPlain = %q, want %q", n.BodyPlain, "first\nsecond")
	}
	if n.Subject != "Hi" || n.From != "a@example.com" || n.To != "b@example.com" {
		t.Errorf("headers not carried through: %+v", n)
	}
	if n.BodyHTMLRaw != "" || n.BodyHTMLSanitized != "" {
		t.Errorf("expected no HTML fields, got raw=%q sanitized=%q", n.BodyHTMLRaw, n.BodyHTMLSanitized)
	}
}

func TestCanonical_SanitizesHTML(t *testing.T) {
	n := Canonical(Raw{
		PlainParts: []string{"plain"},
		HTMLParts:  []string{`<p>html <img src="https://x.example/i.png"></p>`},
	})

	if !strings.Contains(n.BodyHTMLRaw, "<img") {
		t.Errorf("raw HTML should be kept verbatim, got %q", n.BodyHTMLRaw)
	}
	if strings.Contains(n.BodyHTMLSanitized, "<img") {
		t.Errorf("sanitized HTML still has img: %q", n.BodyHTMLSanitized)
	}
	if len(n.ImageSources) != 1 || n.ImageSources[0] != "https://x.example/i.png" {
		t.Errorf("ImageSources = %v", n.ImageSources)
	}
	// Plain part present, so no synthesis even without the flag.
	if n.BodyPlain != "plain" {
		t.Errorf("BodyPlain = %q, want %q", n.BodyPlain, "plain")
	}
}

func TestCanonical_SynthesizesPlainFromHTML(t *testing.T) {
	html := "<p>" + strings.Repeat("x", 600) + "</p>"
	n := Canonical(Raw{
		HTMLParts:       []string{html},
		SynthesizePlain: true,
	})

	if got := len([]rune(n.BodyPlain)); got != fallbackPlainLimit {
		t.Errorf("synthesized plain length = %d, want %d", got, fallbackPlainLimit)
	}
	if !strings.HasPrefix(html, n.BodyPlain) {
		t.Errorf("synthesized plain is not a prefix of the raw HTML")
	}
}

func TestCanonical_NoSynthesisWithoutFlag(t *testing.T) {
	n := Canonical(Raw{HTMLParts: []string{"<p>html only</p>"}})
	if n.BodyPlain != "" {
		t.Errorf("BodyPlain = %q, want empty without synthesis flag", n.BodyPlain)
	}
}

func TestCanonical_AlwaysValidTimestamp(t *testing.T) {
	n := Canonical(Raw{})
	if n.Received.IsZero() {
		t.Error("Received is zero, want a valid timestamp")
	}
	if n.Received.Location() != time.UTC {
		t.Errorf("Received location = %v, want UTC", n.Received.Location())
	}
}
