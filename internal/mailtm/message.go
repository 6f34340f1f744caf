package mailtm

import (
	"time"

	"github.com/rishi-singh26/tempbox/internal/model"
)

// messagePayload is the provider wire shape for a message, in both its
// summary (list) and complete (single fetch) forms. The complete form
// additionally carries text, html, cc/bcc and attachment entries.
type messagePayload struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	MsgID     string `json:"msgid"`

	From mailAddressPayload   `json:"from"`
	To   []mailAddressPayload `json:"to"`
	CC   []mailAddressPayload `json:"cc"`
	BCC  []mailAddressPayload `json:"bcc"`

	Subject string   `json:"subject"`
	Intro   string   `json:"intro"`
	Text    string   `json:"text"`
	HTML    []string `json:"html"`

	Seen           bool                `json:"seen"`
	HasAttachments bool                `json:"hasAttachments"`
	Attachments    []attachmentPayload `json:"attachments"`

	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type mailAddressPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type attachmentPayload struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	ContentType      string `json:"contentType"`
	Disposition      string `json:"disposition"`
	TransferEncoding string `json:"transferEncoding"`
	Related          bool   `json:"related"`
	Size             int64  `json:"size"`
	DownloadURL      string `json:"downloadUrl"`
}

// toModel converts the wire payload into the domain message.
func (p messagePayload) toModel() model.Message {
	msg := model.Message{
		ID:             p.ID,
		AccountID:      p.AccountID,
		MessageID:      p.MsgID,
		From:           model.MailAddress(p.From),
		To:             toModelAddresses(p.To),
		CC:             toModelAddresses(p.CC),
		BCC:            toModelAddresses(p.BCC),
		Subject:        p.Subject,
		Intro:          p.Intro,
		Text:           p.Text,
		HTML:           p.HTML,
		Seen:           p.Seen,
		HasAttachments: p.HasAttachments,
		Size:           p.Size,
		DownloadURL:    p.DownloadURL,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}

	for _, a := range p.Attachments {
		msg.Attachments = append(msg.Attachments, model.Attachment(a))
	}

	return msg
}

func toModelAddresses(in []mailAddressPayload) []model.MailAddress {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.MailAddress, len(in))
	for i, a := range in {
		out[i] = model.MailAddress(a)
	}
	return out
}
