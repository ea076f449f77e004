package sanitize

import (
	"strings"
	"testing"
)

func TestSanitize_RemovesScriptAndStyle(t *testing.T) {
	input := `<p>Hello</p><script>alert("x")</script><style>p{color:red}</style><p>World</p>`

	safe, srcs := Sanitize(input)

	if strings.Contains(safe, "script") || strings.Contains(safe, "alert") {
		t.Errorf("script content leaked into output: %q", safe)
	}
	if strings.Contains(safe, "style") || strings.Contains(safe, "color:red") {
		t.Errorf("style content leaked into output: %q", safe)
	}
	if !strings.Contains(safe, "<p>Hello</p>") || !strings.Contains(safe, "<p>World</p>") {
		t.Errorf("surrounding markup not preserved: %q", safe)
	}
	if len(srcs) != 0 {
		t.Errorf("expected no image sources, got %v", srcs)
	}
}

func TestSanitize_BlocksImagesInDocumentOrder(t *testing.T) {
	input := `<p>One <img src="https://a.example/1.png"> two</p>` +
		`<div><img src="https://b.example/2.gif" alt="x"></div>`

	safe, srcs := Sanitize(input)

	if strings.Contains(safe, "<img") {
		t.Errorf("img element survived sanitization: %q", safe)
	}
	if got := strings.Count(safe, Placeholder); got != 2 {
		t.Errorf("placeholder count = %d, want 2", got)
	}

	want := []string{"https://a.example/1.png", "https://b.example/2.gif"}
	if len(srcs) != len(want) {
		t.Fatalf("sources = %v, want %v", srcs, want)
	}
	for i := range want {
		if srcs[i] != want[i] {
			t.Errorf("sources[%d] = %q, want %q", i, srcs[i], want[i])
		}
	}
}

func TestSanitize_ImageWithoutSrc(t *testing.T) {
	safe, srcs := Sanitize(`<p><img alt="no source"></p>`)

	if strings.Contains(safe, "<img") {
		t.Errorf("img element survived sanitization: %q", safe)
	}
	if !strings.Contains(safe, Placeholder) {
		t.Errorf("placeholder missing: %q", safe)
	}
	if len(srcs) != 0 {
		t.Errorf("expected no sources for src-less image, got %v", srcs)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	input := `<p>Hi <img src="https://a.example/x.png"></p><script>x()</script>`

	once, _ := Sanitize(input)
	twice, srcs := Sanitize(once)

	if twice != once {
		t.Errorf("second pass changed output:\nfirst:  %q\nsecond: %q", once, twice)
	}
	if len(srcs) != 0 {
		t.Errorf("second pass reported sources: %v", srcs)
	}
}

func TestSanitize_FullDocumentKeepsHeadAndAttributes(t *testing.T) {
	input := `<html><head><meta charset="utf-8"><title>Newsletter</title>` +
		`<style>body{margin:0}</style></head>` +
		`<body bgcolor="#ffffff"><p>Issue 12 <img src="https://a.example/banner.png"></p></body></html>`

	safe, srcs := Sanitize(input)

	if !strings.Contains(safe, `<meta charset="utf-8"`) {
		t.Errorf("meta charset dropped from document: %q", safe)
	}
	if !strings.Contains(safe, "<title>Newsletter</title>") {
		t.Errorf("title dropped from document: %q", safe)
	}
	if !strings.Contains(safe, `bgcolor="#ffffff"`) {
		t.Errorf("body attribute dropped from document: %q", safe)
	}
	if strings.Contains(safe, "<style") || strings.Contains(safe, "margin:0") {
		t.Errorf("style content leaked into output: %q", safe)
	}
	if strings.Contains(safe, "<img") || !strings.Contains(safe, Placeholder) {
		t.Errorf("image not blocked in document: %q", safe)
	}
	if len(srcs) != 1 || srcs[0] != "https://a.example/banner.png" {
		t.Errorf("sources = %v, want [https://a.example/banner.png]", srcs)
	}

	again, _ := Sanitize(safe)
	if again != safe {
		t.Errorf("second pass changed document output:\nfirst:  %q\nsecond: %q", safe, again)
	}
}

func TestSanitize_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		safe, srcs := Sanitize(input)
		if safe != "" {
			t.Errorf("Sanitize(%q) = %q, want empty", input, safe)
		}
		if srcs != nil {
			t.Errorf("Sanitize(%q) sources = %v, want nil", input, srcs)
		}
	}
}

func TestSanitize_PlainTextPassesThrough(t *testing.T) {
	safe, srcs := Sanitize("just some text")
	if !strings.Contains(safe, "just some text") {
		t.Errorf("text content lost: %q", safe)
	}
	if len(srcs) != 0 {
		t.Errorf("unexpected sources: %v", srcs)
	}
}
