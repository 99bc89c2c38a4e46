package mailer

import (
	"fmt"
	"net/url"

	"littlesteps-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendVerificationLink(toEmail, token string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
	logger      logger.ILogger
}

func NewEmailService(host string, port int, username, password, senderName, frontendURL string, log logger.ILogger) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	m := gomail.NewMessage()
	return &emailService{
		dialer:      d,
		from:        m.FormatAddress(username, senderName),
		frontendURL: frontendURL,
		logger:      log,
	}
}

// VerificationLink is the page the user lands on; the frontend calls
// GET /api/auth/verify-email with the token.
func VerificationLink(frontendURL, token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", frontendURL, url.QueryEscape(token))
}

func (s *emailService) SendVerificationLink(toEmail, token string) error {
	link := VerificationLink(s.frontendURL, token)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Confirm your email for LittleSteps")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome to LittleSteps!</h2>
			<p>Please confirm your email address to finish setting up your account.</p>
			<a href="%s" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Confirm email</a>
			<p>Or copy this link:</p>
			<p>%s</p>
			<p>This link will expire in 24 hours.</p>
			<p>If you didn't request this, please ignore this email.</p>
		</div>
	`, link, link)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("MAILER", "Failed to send verification email", map[string]interface{}{
			"to":    toEmail,
			"error": err.Error(),
		})
		return err
	}

	s.logger.Info("MAILER", "Verification email sent", map[string]interface{}{"to": toEmail})
	return nil
}
