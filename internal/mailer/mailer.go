package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SendCode delivers a verification code email over SMTP.
func (m *Mailer) SendCode(to, subject, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.From)
	msg.SetHeader("Subject", subject)

	body := fmt.Sprintf(
		"Your verification code is: %s\n\nIt expires in 10 minutes. If you did not request this, ignore this email.",
		code,
	)

	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(msg)
}
