// internal/reminder/dispatch/ses.go
package dispatch

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	stderrors "membership-reminders/internal/common/errors"
)

// SESAPI is the slice of the SES client the provider uses. Defined here for
// mocking.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	GetSendQuota(ctx context.Context, params *ses.GetSendQuotaInput, optFns ...func(*ses.Options)) (*ses.GetSendQuotaOutput, error)
}

// SESProvider delivers reminders through Amazon SES.
type SESProvider struct {
	api  SESAPI
	from string
}

func NewSESProvider(api SESAPI, from string) *SESProvider {
	return &SESProvider{api: api, from: from}
}

func (p *SESProvider) Name() string {
	return "ses"
}

// Verify confirms the SES account is reachable and the credentials are valid.
func (p *SESProvider) Verify(ctx context.Context) error {
	if _, err := p.api.GetSendQuota(ctx, &ses.GetSendQuotaInput{}); err != nil {
		return stderrors.NewTransientDeliveryError(stderrors.ErrCodeProviderUnreachable, err.Error())
	}
	return nil
}

func (p *SESProvider) Send(ctx context.Context, msg Message) (string, error) {
	out, err := p.api.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body)},
			},
		},
		Source: aws.String(p.from),
	})
	if err != nil {
		var rejected *types.MessageRejected
		if errors.As(err, &rejected) {
			return "", stderrors.NewRecipientRejectedError(err.Error())
		}
		return "", stderrors.NewTransientDeliveryError(stderrors.ErrCodeDeliveryFailed, err.Error())
	}
	return aws.ToString(out.MessageId), nil
}
