package email

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.resend.com"

// EmailService handles sending emails via Resend API
type EmailService struct {
	client    *resty.Client
	apiKey    string
	fromEmail string
}

// NewEmailService creates a new email service instance. baseURL may be empty.
func NewEmailService(apiKey, fromEmail, baseURL string) *EmailService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetAuthToken(apiKey)

	return &EmailService{client: client, apiKey: apiKey, fromEmail: fromEmail}
}

// IsConfigured checks if the email service is properly configured
func (s *EmailService) IsConfigured() bool {
	return s.apiKey != "" && s.fromEmail != ""
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendEmail sends an email using Resend API
func (s *EmailService) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email service not configured")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(sendEmailRequest{
			From:    s.fromEmail,
			To:      []string{to},
			Subject: subject,
			HTML:    htmlBody,
		}).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("email API returned status %d", resp.StatusCode())
	}
	return nil
}

// DigestLine is one row of the restock digest.
type DigestLine struct {
	Name     string
	Type     string
	Quantity int
	Sold     int
	Reason   string
}

// SendRestockDigest mails the list of sarees that need reordering.
func (s *EmailService) SendRestockDigest(ctx context.Context, to string, day time.Time, lines []DigestLine) error {
	subject := fmt.Sprintf("Restock digest for %s: %d sarees", day.Format("02 Jan 2006"), len(lines))
	return s.SendEmail(ctx, to, subject, RenderDigest(day, lines))
}

// RenderDigest builds the HTML body of the restock digest.
func RenderDigest(day time.Time, lines []DigestLine) string {
	var rows strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&rows, `
                <tr>
                    <td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td>
                    <td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td>
                    <td style="padding: 8px; border-bottom: 1px solid #e5e7eb; text-align: right;">%d</td>
                    <td style="padding: 8px; border-bottom: 1px solid #e5e7eb; text-align: right;">%d</td>
                    <td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td>
                </tr>`,
			html.EscapeString(l.Name), html.EscapeString(l.Type), l.Quantity, l.Sold, html.EscapeString(l.Reason))
	}

	body := `<p style="color: #374151; font-size: 16px;">Nothing needs restocking today.</p>`
	if len(lines) > 0 {
		body = fmt.Sprintf(`
            <table style="width: 100%%; border-collapse: collapse; font-size: 14px; color: #374151;">
                <tr style="text-align: left; color: #6b7280;">
                    <th style="padding: 8px;">Saree</th>
                    <th style="padding: 8px;">Type</th>
                    <th style="padding: 8px; text-align: right;">In stock</th>
                    <th style="padding: 8px; text-align: right;">Sold (window)</th>
                    <th style="padding: 8px;">Reason</th>
                </tr>%s
            </table>`, rows.String())
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f5f5f5;">
    <div style="max-width: 600px; margin: 0 auto; padding: 40px 20px;">
        <div style="background: linear-gradient(135deg, #be185d 0%%, #db2777 100%%); border-radius: 16px 16px 0 0; padding: 32px; text-align: center;">
            <h1 style="color: white; margin: 0; font-size: 24px;">Restock digest, %s</h1>
        </div>
        <div style="background: white; padding: 32px; border-radius: 0 0 16px 16px; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">%s
        </div>
    </div>
</body>
</html>`, day.Format("02 Jan 2006"), body)
}
