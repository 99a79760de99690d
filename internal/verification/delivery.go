package verification

import (
	"context"
	"log/slog"

	sl "account_service/internal/lib/logger"
	"account_service/internal/models"
)

type Publisher interface {
	SendMessage(ctx context.Context, msg models.EmailMessage) error
}

const codeEmailSubject = "Your verification code"

// DeliverCode hands the code off to the email queue. The mailer consumer
// renders and sends the actual message.
func DeliverCode(
	ctx context.Context,
	log *slog.Logger,
	pub Publisher,
	email, code string,
) error {
	msg := models.EmailMessage{
		Email:   email,
		Code:    code,
		Subject: codeEmailSubject,
	}

	if err := pub.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish verification code", sl.Err(err))

		return err
	}

	return nil
}
