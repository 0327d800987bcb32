// internal/application/usecase/contact_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrContactInvalid: a required field is blank.
	ErrContactInvalid = errors.New("contact: all fields (name, email, message) are required")
	// ErrContactDelivery: the acknowledgement could not be sent; detail is only logged.
	ErrContactDelivery = errors.New("contact: failed to send message")
)

// ContactMessage is one contact-form submission.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactMailer sends the acknowledgement mail to the submitter.
type ContactMailer interface {
	SendAcknowledgement(ctx context.Context, name, email, message string) error
}

type ContactUsecase struct {
	mailer ContactMailer
	log    *zap.Logger
}

func NewContactUsecase(mailer ContactMailer, logger *zap.Logger) *ContactUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactUsecase{mailer: mailer, log: logger.Named("contact")}
}

// Submit validates msg and dispatches the acknowledgement.
func (u *ContactUsecase) Submit(ctx context.Context, msg ContactMessage) error {
	name := strings.TrimSpace(msg.Name)
	email := strings.TrimSpace(msg.Email)
	body := strings.TrimSpace(msg.Message)
	if name == "" || email == "" || body == "" {
		return ErrContactInvalid
	}
	if u.mailer == nil {
		u.log.Error("contact mailer is not configured")
		return ErrContactDelivery
	}

	if err := u.mailer.SendAcknowledgement(ctx, name, email, body); err != nil {
		u.log.Error("acknowledgement mail failed",
			zap.String("to", email),
			zap.Error(err),
		)
		return ErrContactDelivery
	}

	u.log.Info("contact message acknowledged", zap.String("to", email))
	return nil
}
