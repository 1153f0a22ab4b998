package services

import (
	"fmt"
	"log"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrMailerDisabled is returned when SENDGRID_API_KEY is not configured.
// Callers treat this as non-fatal: the reset token is still returned in the
// response body for development setups without email delivery.
var ErrMailerDisabled = fmt.Errorf("mailer disabled: SENDGRID_API_KEY is not set")

const senderName = "ShareButes"

func senderEmail() string {
	if from := os.Getenv("MAIL_FROM"); from != "" {
		return from
	}
	return "no-reply@sharebutes.org"
}

func sendEmail(toName, toEmail, subject, textContent, htmlContent string) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return ErrMailerDisabled
	}

	from := mail.NewEmail(senderName, senderEmail())
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, textContent, htmlContent)
	client := sendgrid.NewSendClient(apiKey)

	response, err := client.Send(message)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		log.Printf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	return nil
}

// SendPasswordResetEmail delivers the reset token to the user's address.
func SendPasswordResetEmail(toName, toEmail, resetToken string) error {
	return sendEmail(
		toName,
		toEmail,
		"ShareButes password reset",
		fmt.Sprintf("Your password reset token is: %s", resetToken),
		fmt.Sprintf("<p>Your password reset token is: <strong>%s</strong></p>", resetToken),
	)
}
