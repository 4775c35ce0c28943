// internal/common/aws/aws_test.go
package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToE164(t *testing.T) {
	assert.Equal(t, "+919876543210", ToE164("9876543210"))
	assert.Equal(t, "+919876543210", ToE164("09876543210"))
	assert.Equal(t, "+919876543210", ToE164("919876543210"))
	assert.Equal(t, "+919876543210", ToE164("+919876543210"))
}

func TestBuildSMS(t *testing.T) {
	in := BuildSMS("9876543210", "LOANS", "approved")
	assert.Equal(t, "+919876543210", *in.PhoneNumber)
	assert.Equal(t, "approved", *in.Message)
	assert.Equal(t, "Transactional", *in.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue)
	assert.Equal(t, "LOANS", *in.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue)

	noSender := BuildSMS("9876543210", "", "x")
	_, ok := noSender.MessageAttributes["AWS.SNS.SMS.SenderID"]
	assert.False(t, ok)
}

func TestBuildEmail(t *testing.T) {
	in := BuildEmail("loans@example.com", "ops@example.com", "Decision", "body")
	assert.Equal(t, "loans@example.com", *in.Source)
	assert.Equal(t, []string{"ops@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Decision", *in.Message.Subject.Data)
	assert.Equal(t, "body", *in.Message.Body.Text.Data)
}
