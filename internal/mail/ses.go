package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the subset of the SESv2 client used by SESSender.
type SESAPI interface {
	SendEmail(ctx context.Context, input *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers email through Amazon SES.
type SESSender struct {
	client SESAPI
	from   string
}

// SESSenderOption configures an SESSender.
type SESSenderOption func(*SESSender)

// WithSESClient sets a custom SES client (useful for testing).
func WithSESClient(c SESAPI) SESSenderOption {
	return func(s *SESSender) { s.client = c }
}

// NewSESSender creates a sender for the given from address, e.g.
// "ClearSkies <no-reply@clearskies.app>".
func NewSESSender(from string, opts ...SESSenderOption) (*SESSender, error) {
	if from == "" {
		return nil, fmt.Errorf("from address required")
	}
	s := &SESSender{from: from}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		s.client = sesv2.NewFromConfig(cfg)
	}
	return s, nil
}

// Send delivers one message and returns the SES message ID.
func (s *SESSender) Send(ctx context.Context, msg Message) (string, error) {
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(msg.Subject)},
				Body: &sestypes.Body{
					Html: &sestypes.Content{Data: aws.String(msg.HTML)},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("sending email: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
