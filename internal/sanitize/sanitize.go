// Package sanitize turns untrusted email HTML into markup that is safe to
// render locally: scripts and styles are stripped, and every image is
// replaced with a placeholder while its source URL is reported separately
// so the caller can decide whether to load remote content.
package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Placeholder is the inline text substituted for every blocked image.
const Placeholder = "[Image blocked]"

// Sanitize re-serializes rawHTML with all script and style elements removed
// (tags and contents) and every img element replaced by a neutral span
// placeholder. The src attributes of the replaced images are returned in
// document order. All other markup passes through unchanged: a full
// document keeps its head content and html/body attributes, while a bare
// fragment stays a fragment instead of growing document wrappers.
//
// The input is never executed or evaluated; it is parsed and re-serialized
// as text. Empty or unparsable input yields empty output and a nil source
// list rather than an error, and the transformation is idempotent.
func Sanitize(rawHTML string) (string, []string) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", nil
	}

	doc.Find("script, style").Remove()

	var srcs []string
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok {
			srcs = append(srcs, src)
		}
		img.ReplaceWithHtml("<span>" + Placeholder + "</span>")
	})

	var safe string
	if isDocument(rawHTML) {
		safe, err = doc.Html()
	} else {
		safe, err = doc.Find("body").Html()
	}
	if err != nil {
		return "", nil
	}
	return safe, srcs
}

// isDocument reports whether the input carries document structure of its
// own, as opposed to a fragment the parser will wrap for us.
func isDocument(rawHTML string) bool {
	lower := strings.ToLower(rawHTML)
	return strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<head") ||
		strings.Contains(lower, "<body")
}
