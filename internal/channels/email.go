// internal/channels/email.go
package channels

import (
	"bytes"
	"context"
	"html/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// SESService is the slice of the SES API the email sender uses.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

var emailTemplate = template.Must(template.New("notification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px;">
    <h2 style="color: #333; margin-bottom: 16px;">{{.Title}}</h2>
    <p style="color: #666; line-height: 1.6;">{{.Message}}</p>
    {{if .ActionURL}}
    <div style="margin-top: 20px;">
      <a href="{{.ActionURL}}"
         style="background-color: #007bff; color: white; padding: 12px 24px;
                text-decoration: none; border-radius: 4px; display: inline-block;">
        {{.ActionText}}
      </a>
    </div>
    {{end}}
  </div>
  <div style="text-align: center; margin-top: 20px; color: #999; font-size: 12px;">
    <p>This notification was sent from Collector Platform</p>
  </div>
</div>
`))

type emailTemplateData struct {
	Title      string
	Message    string
	ActionURL  string
	ActionText string
}

// EmailSender delivers notifications over SES.
type EmailSender struct {
	ses       SESService
	fromEmail string
	logger    logger.Logger
}

func NewEmailSender(sesClient SESService, fromEmail string, log logger.Logger) *EmailSender {
	return &EmailSender{
		ses:       sesClient,
		fromEmail: fromEmail,
		logger:    log.WithFields(map[string]interface{}{"channel": models.ChannelEmail}),
	}
}

func (s *EmailSender) Channel() string {
	return models.ChannelEmail
}

func (s *EmailSender) Send(ctx context.Context, n *models.Notification, target Target) models.DeliveryResult {
	if s.ses == nil {
		return failed(models.ChannelEmail, "email gateway not configured")
	}
	if target.Email == "" {
		return failed(models.ChannelEmail, "no recipient email")
	}

	body, err := renderEmailBody(n)
	if err != nil {
		return failed(models.ChannelEmail, err.Error())
	}

	out, err := s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{target.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(n.Title)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		s.logger.Error("email send failed", map[string]interface{}{
			"notificationId": n.ID,
			"error":          err.Error(),
		})
		return failed(models.ChannelEmail, err.Error())
	}

	result := models.DeliveryResult{Channel: models.ChannelEmail, Success: true}
	if out.MessageId != nil {
		result.MessageID = *out.MessageId
	}
	return result
}

// renderEmailBody fills the fixed HTML template, with an optional
// call-to-action link from metadata.action_url / metadata.action_text.
func renderEmailBody(n *models.Notification) (string, error) {
	data := emailTemplateData{
		Title:   n.Title,
		Message: n.Message,
	}
	if url, ok := n.Metadata["action_url"].(string); ok && url != "" {
		data.ActionURL = url
		data.ActionText = "View Details"
		if text, ok := n.Metadata["action_text"].(string); ok && text != "" {
			data.ActionText = text
		}
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
