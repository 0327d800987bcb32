package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Message is one outbound mail.
type Message struct {
	FromName string
	From     string
	To       string
	ToName   string
	Subject  string
	Text     string
	HTML     string
}

// EmailClient abstracts the mail provider.
type EmailClient interface {
	Send(ctx context.Context, msg Message) error
}

// ProviderError carries the provider's status and body; callers log it, clients never see it.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("sendgrid send failed: status=%d, body=%s", e.StatusCode, e.Body)
}

// SendGridClient implements EmailClient.
type SendGridClient struct {
	apiKey string
	log    *zap.Logger
}

func NewSendGridClient(apiKey string, logger *zap.Logger) *SendGridClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridClient{apiKey: apiKey, log: logger.Named("sendgrid")}
}

// Send sends msg using SendGrid
func (c *SendGridClient) Send(ctx context.Context, msg Message) error {
	if c.apiKey == "" {
		return errors.New("sendgrid api key is empty")
	}

	message, err := buildSGMail(msg)
	if err != nil {
		return err
	}

	client := sendgrid.NewSendClient(c.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}

	if response.StatusCode >= 400 {
		return &ProviderError{StatusCode: response.StatusCode, Body: response.Body}
	}

	c.log.Info("mail sent",
		zap.Int("status", response.StatusCode),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

func buildSGMail(msg Message) (*sgmail.SGMailV3, error) {
	if msg.From == "" {
		return nil, errors.New("from address is empty")
	}
	if msg.To == "" {
		return nil, errors.New("to address is empty")
	}

	text := msg.Text
	if text == "" {
		text = " "
	}
	return sgmail.NewSingleEmail(
		sgmail.NewEmail(msg.FromName, msg.From),
		msg.Subject,
		sgmail.NewEmail(msg.ToName, msg.To),
		text,
		msg.HTML,
	), nil
}
