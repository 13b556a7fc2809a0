package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"text/template"
	"time"
)

const brevoAPIURL = "https://api.brevo.com/v3/smtp/email"

// BrevoClient sends transactional emails via the Brevo (Sendinblue) HTTP API v3.
type BrevoClient struct {
	apiKey      string
	senderEmail string
	senderName  string
	httpClient  *http.Client
}

func NewBrevoClient(apiKey, senderEmail, senderName string) *BrevoClient {
	return &BrevoClient{
		apiKey:      apiKey,
		senderEmail: senderEmail,
		senderName:  senderName,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// IsConfigured reports whether the client has the credentials it needs to
// actually deliver mail.
func (c *BrevoClient) IsConfigured() bool {
	return c.apiKey != "" && c.senderEmail != ""
}

// SendWelcome sends the post-registration greeting.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, name string) error {
	return c.sendTemplate(ctx, toEmail, "Welcome to our app", welcomeTemplate, templateData{Email: toEmail})
}

// SendVerifyOTP delivers an account-verification code.
func (c *BrevoClient) SendVerifyOTP(ctx context.Context, toEmail, code string) error {
	return c.sendTemplate(ctx, toEmail, "Account Verification OTP", verifyOTPTemplate, templateData{Email: toEmail, OTP: code})
}

// SendResetOTP delivers a password-reset code.
func (c *BrevoClient) SendResetOTP(ctx context.Context, toEmail, code string) error {
	return c.sendTemplate(ctx, toEmail, "Password Reset OTP", resetOTPTemplate, templateData{Email: toEmail, OTP: code})
}

type sendEmailReq struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

func (c *BrevoClient) sendTemplate(ctx context.Context, toEmail, subject string, tpl *template.Template, data templateData) error {
	if !c.IsConfigured() {
		return errors.New("brevo client not configured")
	}
	if toEmail == "" {
		return errors.New("recipient email is empty")
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	body, err := json.Marshal(sendEmailReq{
		Sender:      map[string]string{"email": c.senderEmail, "name": c.senderName},
		To:          []map[string]string{{"email": toEmail}},
		Subject:     subject,
		HTMLContent: buf.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Brevo request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("brevo send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}
