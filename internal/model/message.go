package model

import "time"

// MailAddress is a display-name/address pair as reported by the provider.
type MailAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Attachment holds metadata for a single message attachment. Content is
// never fetched by this package; DownloadURL points at the provider.
type Attachment struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	ContentType      string `json:"contentType"`
	Disposition      string `json:"disposition"`
	TransferEncoding string `json:"transferEncoding"`
	Related          bool   `json:"related"`
	Size             int64  `json:"size"`
	DownloadURL      string `json:"downloadUrl"`
}

// Message is an immutable mail item fetched from the remote provider,
// keyed by ID within an address's mailbox. The list endpoint returns the
// summary form (no Text/HTML); the single-message endpoint returns the
// complete form with full bodies. Both carry the same ID and are
// reconciled by it.
type Message struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	MessageID string `json:"msgid"`

	From MailAddress   `json:"from"`
	To   []MailAddress `json:"to"`
	CC   []MailAddress `json:"cc,omitempty"`
	BCC  []MailAddress `json:"bcc,omitempty"`

	Subject string `json:"subject"`

	// Intro is the provider-generated snippet shown in list views.
	Intro string `json:"intro"`

	// Text and HTML are only populated on the complete form.
	Text string   `json:"text,omitempty"`
	HTML []string `json:"html,omitempty"`

	Seen           bool         `json:"seen"`
	HasAttachments bool         `json:"hasAttachments"`
	Attachments    []Attachment `json:"attachments,omitempty"`

	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WithSeen returns a copy of the message with only the seen flag replaced.
// Messages may be read concurrently from the inbox cache, so they are
// never mutated in place.
func (m Message) WithSeen(seen bool) Message {
	m.Seen = seen
	return m
}

// MessageStore is the transient per-address inbox state held in the cache.
// A successful fetch replaces the whole value; a failed fetch preserves the
// previous messages and records the error.
type MessageStore struct {
	// Fetching is true while a refresh for the address is in flight.
	Fetching bool

	// Error holds the most recent fetch failure, empty on success.
	Error string

	// Messages is the ordered message list from the last successful fetch.
	Messages []Message
}

// UnreadCount returns the number of unseen messages. It is always
// recomputed from the message list, never cached separately.
func (s MessageStore) UnreadCount() int {
	var n int
	for _, m := range s.Messages {
		if !m.Seen {
			n++
		}
	}
	return n
}
