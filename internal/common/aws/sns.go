// internal/common/aws/sns.go
package aws

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SMSPublisher is the part of the SNS client the notifier uses.
type SMSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(cfg), nil
}

// BuildSMS addresses a transactional SMS. Ten-digit numbers are taken as
// Indian mobiles and prefixed with +91.
func BuildSMS(phoneDigits, senderID, body string) *sns.PublishInput {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(ToE164(phoneDigits)),
		Message:     aws.String(body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}
	if senderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(senderID),
		}
	}
	return input
}

func ToE164(phoneDigits string) string {
	digits := strings.TrimPrefix(phoneDigits, "+")
	switch {
	case len(digits) == 10:
		return "+91" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return "+91" + digits[1:]
	default:
		return "+" + digits
	}
}
