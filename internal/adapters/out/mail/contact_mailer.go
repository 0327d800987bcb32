// internal/adapters/out/mail/contact_mailer.go
package mail

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// ContactMailer sends the acknowledgement mail for a contact-form submission.
type ContactMailer struct {
	client      EmailClient
	fromAddress string
	fromName    string
}

// NewContactMailer builds a mailer; fromAddress must be a verified sender.
func NewContactMailer(client EmailClient, fromAddress string) *ContactMailer {
	return &ContactMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
		fromName:    "Musicore",
	}
}

// SendAcknowledgement mails the sender a copy of their message.
func (m *ContactMailer) SendAcknowledgement(ctx context.Context, name, email, message string) error {
	name = strings.TrimSpace(name)

	return m.client.Send(ctx, Message{
		FromName: m.fromName,
		From:     m.fromAddress,
		To:       strings.TrimSpace(email),
		ToName:   name,
		Subject:  acknowledgementSubject(name),
		Text:     acknowledgementText(name, message),
		HTML:     acknowledgementHTML(name, message),
	})
}

func acknowledgementSubject(name string) string {
	return fmt.Sprintf("Thank You for Contacting Musicore, %s!", name)
}

func acknowledgementText(name, message string) string {
	return fmt.Sprintf(`Dear %s,

We have successfully received your message and will respond to your query as quickly as possible, usually within 24 hours.

Your message: %s

The Musicore Team`, name, message)
}

// acknowledgementHTML escapes user content; it is echoed back into an HTML mail.
func acknowledgementHTML(name, message string) string {
	n := html.EscapeString(name)
	msg := strings.ReplaceAll(html.EscapeString(message), "\n", "<br>")

	var b strings.Builder
	b.WriteString(`<p style="font-family: sans-serif; color: #111827;">Dear ` + n + `,</p>`)
	b.WriteString(`<p style="font-family: sans-serif; color: #6B7280;">We have successfully received your message and will respond to your query as quickly as possible, usually within 24 hours.</p>`)
	b.WriteString(`<div style="border-left: 3px solid #A0522D; padding-left: 15px; margin-top: 20px;">`)
	b.WriteString(`<p style="font-family: sans-serif; font-style: italic; color: #6B7280;">Your message: ` + msg + `</p>`)
	b.WriteString(`</div>`)
	b.WriteString(`<p style="font-family: sans-serif; color: #6B7280; margin-top: 20px;">The Musicore Team</p>`)
	return b.String()
}
