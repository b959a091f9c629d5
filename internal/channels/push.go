// internal/channels/push.go
package channels

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// SNSService is the slice of the SNS API the push sender uses.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// PushSender delivers notifications to mobile devices through SNS
// platform endpoints. Device tokens are endpoint ARNs registered by the
// mobile clients.
type PushSender struct {
	sns    SNSService
	logger logger.Logger
}

func NewPushSender(snsClient SNSService, log logger.Logger) *PushSender {
	return &PushSender{
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"channel": models.ChannelPush}),
	}
}

func (s *PushSender) Channel() string {
	return models.ChannelPush
}

func (s *PushSender) Send(ctx context.Context, n *models.Notification, target Target) models.DeliveryResult {
	if s.sns == nil {
		return failed(models.ChannelPush, "push gateway not configured")
	}
	if len(target.DeviceTokens) == 0 {
		return failed(models.ChannelPush, "No device tokens found")
	}

	payload, err := buildPushPayload(n)
	if err != nil {
		return failed(models.ChannelPush, err.Error())
	}

	result := models.DeliveryResult{Channel: models.ChannelPush}
	for _, token := range target.DeviceTokens {
		_, err := s.sns.Publish(ctx, &sns.PublishInput{
			TargetArn: aws.String(token),
			Message:   aws.String(payload),
		})
		if err != nil {
			result.FailureCount++
			result.Responses = append(result.Responses, models.PushTokenResponse{
				Token:   token,
				Success: false,
				Error:   err.Error(),
			})
			continue
		}
		result.SuccessCount++
		result.Responses = append(result.Responses, models.PushTokenResponse{
			Token:   token,
			Success: true,
		})
	}

	result.Success = result.SuccessCount > 0
	if !result.Success {
		result.Error = "all device sends failed"
		s.logger.Error("push send failed for every device", map[string]interface{}{
			"notificationId": n.ID,
			"devices":        len(target.DeviceTokens),
		})
	}
	return result
}

// buildPushPayload carries title/body plus a data payload with the
// notification type, id, and merged metadata.
func buildPushPayload(n *models.Notification) (string, error) {
	data := map[string]interface{}{
		"type":            n.Type,
		"notification_id": n.ID,
	}
	for k, v := range n.Metadata {
		data[k] = v
	}

	payload := map[string]interface{}{
		"notification": map[string]string{
			"title": n.Title,
			"body":  n.Message,
		},
		"data": data,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
