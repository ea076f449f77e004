package imap

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/mailroom-dev/mailroom/internal/normalize"
)

// parseRaw reads a full RFC 822 message body and collects its headers and
// decoded text parts. Every text/plain and text/html part is kept, in
// traversal order; a part that fails to decode is skipped.
func parseRaw(body io.Reader) (normalize.Raw, error) {
	var raw normalize.Raw

	mr, err := mail.CreateReader(body)
	if err != nil {
		return raw, fmt.Errorf("failed to create mail reader: %w", err)
	}

	header := mr.Header
	if subject, err := header.Subject(); err == nil {
		raw.Subject = subject
	} else {
		raw.Subject = header.Get("Subject")
	}
	raw.From = header.Get("From")
	raw.To = header.Get("To")
	raw.DateHeader = header.Get("Date")

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Undecodable remainder; keep what was already read.
			break
		}

		inline, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := inline.ContentType()
		if err != nil {
			continue
		}

		data, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			raw.PlainParts = append(raw.PlainParts, string(data))
		case strings.HasPrefix(contentType, "text/html"):
			raw.HTMLParts = append(raw.HTMLParts, string(data))
		}
	}

	return raw, nil
}
