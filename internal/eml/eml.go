// Package eml summarizes raw RFC 822 message sources downloaded from the
// provider, e.g. before writing them out as .eml files.
package eml

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// AttachmentInfo describes one attachment part of a raw message.
type AttachmentInfo struct {
	Filename string
	MIMEType string
	Size     int64
}

// Summary is the parsed top-level structure of a raw message source.
type Summary struct {
	Subject     string
	From        []string
	To          []string
	Date        time.Time
	TextBody    string
	HTMLBody    string
	Attachments []AttachmentInfo
}

// Parse reads a raw RFC 822 message and extracts header fields, text and
// html bodies, and attachment metadata.
func Parse(raw []byte) (Summary, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return Summary{}, fmt.Errorf("parsing message source: %w", err)
	}
	defer mr.Close()

	var sum Summary
	sum.Subject, _ = mr.Header.Subject()
	sum.Date, _ = mr.Header.Date()
	sum.From = addressStrings(mr.Header, "From")
	sum.To = addressStrings(mr.Header, "To")

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				sum.TextBody = string(body)
			case strings.HasPrefix(contentType, "text/html"):
				sum.HTMLBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			sum.Attachments = append(sum.Attachments, AttachmentInfo{
				Filename: filename,
				MIMEType: contentType,
				Size:     int64(len(body)),
			})
		}
	}

	return sum, nil
}

// SuggestedFilename returns a filesystem-safe .eml name derived from the
// message subject.
func SuggestedFilename(sum Summary) string {
	subject := strings.TrimSpace(sum.Subject)
	if subject == "" {
		subject = "message"
	}

	var b strings.Builder
	for _, r := range subject {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}

	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "message"
	}
	if len(name) > 64 {
		name = name[:64]
	}
	return name + ".eml"
}

func addressStrings(header mail.Header, field string) []string {
	list, err := header.AddressList(field)
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.String())
	}
	return out
}
