package gmail

import (
	"encoding/base64"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
)

// findHeader performs a case-insensitive lookup for a header value.
func findHeader(headers []*gmailapi.MessagePartHeader, name string) string {
	lower := strings.ToLower(name)
	for _, h := range headers {
		if strings.ToLower(h.Name) == lower {
			return h.Value
		}
	}
	return ""
}

// extractBody walks the nested body-part tree depth first and returns the
// decoded content of the first text/plain and first text/html parts.
func extractBody(payload *gmailapi.MessagePart) (text, html string) {
	if payload == nil {
		return "", ""
	}

	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			t, h := extractBody(part)
			if text == "" && t != "" {
				text = t
			}
			if html == "" && h != "" {
				html = h
			}
			if text != "" && html != "" {
				break
			}
		}
		return text, html
	}

	data := ""
	if payload.Body != nil {
		data = decodeBase64URL(payload.Body.Data)
	}

	switch payload.MimeType {
	case "text/plain":
		return data, ""
	case "text/html":
		return "", data
	}
	return "", ""
}

// decodeBase64URL decodes Gmail's URL-safe base64 strings (no padding).
func decodeBase64URL(s string) string {
	if s == "" {
		return ""
	}
	data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(s)
	if err != nil {
		return ""
	}
	return string(data)
}
