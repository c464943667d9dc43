// Package ses sends completion notices through Amazon SES.
package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rotisserie/eris"

	"pasassistant/internal/config"
	"pasassistant/internal/email"
	"pasassistant/internal/port"
)

// ProviderName is the email provider value selecting this implementation.
const ProviderName = "ses"

// Sender is the subset of the SES client used to deliver messages.
type Sender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesNotifier struct {
	client      Sender
	fromAddress string
	fromName    string
}

// NewSESNotifier creates an SES-backed Notifier for the configured region.
func NewSESNotifier(cfg *config.EmailConfig) (port.Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, eris.Wrap(err, "loading AWS config for SES")
	}
	return NewNotifierWithClient(sesv2.NewFromConfig(awsCfg), cfg), nil
}

// NewNotifierWithClient creates a Notifier over an existing SES client.
func NewNotifierWithClient(client Sender, cfg *config.EmailConfig) port.Notifier {
	return &sesNotifier{
		client:      client,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
	}
}

func (s *sesNotifier) SendCompletionEmail(ctx context.Context, n port.CompletionNotice) error {
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{n.ToEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(email.Subject(n)), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(email.HTMLBody(n)), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(email.TextBody(n)), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return eris.Wrap(err, "SES SendEmail")
	}
	return nil
}
